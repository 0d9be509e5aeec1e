package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ChainPilot/internal/agent"
	"ChainPilot/internal/chat"
	"ChainPilot/internal/config"
	"ChainPilot/internal/events"
	"ChainPilot/internal/explorer"
	"ChainPilot/internal/history"
	"ChainPilot/internal/knowledge"
	"ChainPilot/internal/llm/openai"
	"ChainPilot/internal/tools"
	"ChainPilot/internal/wallet"
	"ChainPilot/internal/wallet/evm"
	"ChainPilot/internal/wallet/platform"
	"ChainPilot/pkg/logger"
)

// main 是 ChainPilot CLI 的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("chainpilot 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	config.LoadDotEnv()

	// 配置校验失败时直接退出，不发起任何网络或钱包调用。
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Actions: logger.ActionLogConfig{
			Enabled: cfg.Logger.ActionLogEnabled,
			Path:    cfg.Logger.ActionLogPath,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	catalog, err := config.LoadNetworkCatalog(cfg.Network.CatalogPath)
	if err != nil {
		return err
	}
	network, err := catalog.Resolve(cfg.Network)
	if err != nil {
		return err
	}

	// 恢复或新建钱包，并在初始化成功后覆盖写回钱包文件。
	data, existed, err := wallet.LoadData(cfg.Wallet.DataFile)
	if err != nil {
		return err
	}
	provider, err := evm.NewProvider(ctx, evm.Config{
		NetworkID: cfg.Network.ID,
		ChainID:   network.ChainID,
		RPCURL:    network.RPCURL,
	}, data)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := wallet.SaveData(cfg.Wallet.DataFile, provider.Export()); err != nil {
		return err
	}

	platformClient, err := platform.NewClient(platform.Config{
		APIKeyID:     cfg.Wallet.APIKeyID,
		APIKeySecret: cfg.Wallet.APIKeySecret,
	})
	if err != nil {
		return err
	}
	if !existed {
		// 平台侧登记与水龙头领取失败不阻塞启动，链上能力不依赖平台。
		if err := platformClient.RegisterWallet(ctx, provider.Address(), cfg.Network.ID); err != nil {
			logger.L().Warn("登记钱包失败", slog.Any("error", err))
		}
		if network.Faucet {
			if err := platformClient.RequestFaucet(ctx, provider.Address(), cfg.Network.ID); err != nil {
				logger.L().Warn("请求测试币失败", slog.Any("error", err))
			}
		}
	}

	explorerClient := explorer.NewClient(network.ExplorerAPIURL, cfg.Network.ExplorerAPIKey)
	registry := tools.NewRegistry(
		tools.NewWalletProvider(provider),
		tools.NewExplorerProvider(explorerClient),
	)

	store, err := createHistoryStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	publisher, err := createEventPublisher(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = publisher.Close()
	}()

	llmClient, err := openai.NewClient(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout(),
	})
	if err != nil {
		return err
	}

	opts := []agent.Option{
		agent.WithMemoryDepth(cfg.History.MemoryDepth),
		agent.WithLLMTimeout(cfg.LLM.Timeout()),
		agent.WithMaxIterations(cfg.Runtime.MaxToolIterations),
		agent.WithEventPublisher(publisher),
	}
	if cfg.Runtime.KnowledgePath != "" {
		knowledgeProvider, err := knowledge.LoadStaticProvider(cfg.Runtime.KnowledgePath, 0)
		if err != nil {
			return err
		}
		opts = append(opts, agent.WithKnowledgeProvider(knowledgeProvider))
	}

	ag := agent.New(llmClient, registry, store, opts...)

	logger.L().Info("钱包就绪",
		slog.String("address", provider.Address()),
		slog.String("network", cfg.Network.ID),
		slog.String("session_id", ag.SessionID()),
	)
	fmt.Printf("Wallet %s ready on %s\n", provider.Address(), cfg.Network.ID)

	mode, err := chat.ChooseMode(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	switch mode {
	case chat.ModeChat:
		return chat.RunChat(ctx, ag, os.Stdin, os.Stdout)
	case chat.ModeAutonomous:
		return chat.RunAutonomous(ctx, ag, os.Stdout, cfg.Runtime.AutoInterval())
	default:
		return fmt.Errorf("未知的运行模式: %s", mode)
	}
}

func createHistoryStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Driver {
	case "", "memory":
		return history.NewMemoryStore(cfg.History.DataDir)
	case "mysql":
		return history.NewMySQLStore(ctx, cfg.History.MySQLDSN)
	case "redis":
		return history.NewRedisStore(ctx, history.RedisStoreConfig{
			Address:  cfg.History.RedisAddress,
			Password: cfg.History.RedisPassword,
			DB:       cfg.History.RedisDB,
			Key:      cfg.History.RedisKey,
		})
	default:
		return nil, fmt.Errorf("未知的历史存储驱动: %s", cfg.History.Driver)
	}
}

func createEventPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "", "none":
		return events.NoopPublisher{}, nil
	case "rabbitmq":
		return events.NewRabbitMQPublisher(events.RabbitMQConfig{
			URL:     cfg.Events.AMQPURL,
			Queue:   cfg.Events.Queue,
			Durable: cfg.Events.Durable,
		})
	default:
		return nil, fmt.Errorf("未知的事件发布驱动: %s", cfg.Events.Driver)
	}
}
