package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	xerrors "ChainPilot/internal/errors"
)

// Config 描述 ChainPilot 在启动阶段需要加载的全部配置，全部来自环境变量。
type Config struct {
	LLM     LLMConfig
	Wallet  WalletConfig
	Network NetworkConfig
	History HistoryConfig
	Events  EventsConfig
	Logger  LoggerConfig
	Runtime RuntimeConfig
}

// LLMConfig 用于配置大模型推理的调用方式。
type LLMConfig struct {
	APIKey         string `envconfig:"OPENAI_API_KEY"`
	BaseURL        string `envconfig:"OPENAI_BASE_URL"`
	Model          string `envconfig:"OPENAI_MODEL"`
	TimeoutSeconds int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"120"`
}

// Timeout 返回大模型调用的超时时间。
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WalletConfig 描述钱包平台凭证与钱包文件位置。
type WalletConfig struct {
	APIKeyID     string `envconfig:"WALLET_API_KEY_ID"`
	APIKeySecret string `envconfig:"WALLET_API_KEY_SECRET"`
	DataFile     string `envconfig:"WALLET_FILE" default:"wallet_data.json"`
}

// NetworkConfig 选择目标网络以及区块浏览器凭证。
type NetworkConfig struct {
	ID             string `envconfig:"NETWORK_ID" default:"base-sepolia"`
	CatalogPath    string `envconfig:"NETWORKS_FILE"`
	ExplorerAPIKey string `envconfig:"ETHERSCAN_API_KEY"`
	RPCURLOverride string `envconfig:"RPC_URL"`
}

// HistoryConfig 控制会话历史的持久化方式。
type HistoryConfig struct {
	Driver        string `envconfig:"HISTORY_DRIVER" default:"memory"`
	DataDir       string `envconfig:"HISTORY_DATA_DIR" default:"data"`
	MySQLDSN      string `envconfig:"MYSQL_DSN"`
	RedisAddress  string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`
	RedisKey      string `envconfig:"REDIS_HISTORY_KEY"`
	MemoryDepth   int    `envconfig:"HISTORY_MEMORY_DEPTH" default:"5"`
}

// EventsConfig 控制链上操作事件的对外发布。
type EventsConfig struct {
	Driver  string `envconfig:"EVENTS_DRIVER" default:"none"`
	AMQPURL string `envconfig:"RABBITMQ_URL"`
	Queue   string `envconfig:"RABBITMQ_QUEUE"`
	Durable bool   `envconfig:"RABBITMQ_DURABLE" default:"true"`
}

// LoggerConfig 控制结构化日志与链上操作审计日志。
type LoggerConfig struct {
	Level            string `envconfig:"LOG_LEVEL" default:"info"`
	Format           string `envconfig:"LOG_FORMAT" default:"text"`
	ActionLogEnabled bool   `envconfig:"ACTION_LOG_ENABLED"`
	ActionLogPath    string `envconfig:"ACTION_LOG_PATH" default:"logs/actions.log"`
}

// RuntimeConfig 存放运行时的通用参数。
type RuntimeConfig struct {
	AutoIntervalSeconds int    `envconfig:"AUTO_INTERVAL_SECONDS" default:"10"`
	KnowledgePath       string `envconfig:"KNOWLEDGE_FILE"`
	MaxToolIterations   int    `envconfig:"MAX_TOOL_ITERATIONS" default:"8"`
}

// AutoInterval 返回自主模式两次迭代之间的固定间隔。
func (c RuntimeConfig) AutoInterval() time.Duration {
	if c.AutoIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.AutoIntervalSeconds) * time.Second
}

// LoadDotEnv 加载工作目录下的 .env 文件。文件不存在时静默跳过。
func LoadDotEnv() {
	_ = godotenv.Load()
}

// FromEnv 从环境变量解析配置并校验必填项。
// 校验失败时不会发起任何网络或钱包调用。
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigInvalid, err, "解析环境变量失败")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查必填的凭证是否齐全。
func (c *Config) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if strings.TrimSpace(c.Wallet.APIKeyID) == "" {
		missing = append(missing, "WALLET_API_KEY_ID")
	}
	if strings.TrimSpace(c.Wallet.APIKeySecret) == "" {
		missing = append(missing, "WALLET_API_KEY_SECRET")
	}
	if len(missing) > 0 {
		return xerrors.New(xerrors.CodeConfigInvalid,
			fmt.Sprintf("缺少必需的环境变量: %s", strings.Join(missing, ", ")))
	}
	if strings.TrimSpace(c.Network.ID) == "" {
		return xerrors.New(xerrors.CodeConfigInvalid, "NETWORK_ID 不能为空")
	}
	switch c.History.Driver {
	case "", "memory", "mysql", "redis":
	default:
		return xerrors.New(xerrors.CodeConfigInvalid,
			fmt.Sprintf("未知的历史存储驱动: %s", c.History.Driver))
	}
	switch c.Events.Driver {
	case "", "none", "rabbitmq":
	default:
		return xerrors.New(xerrors.CodeConfigInvalid,
			fmt.Sprintf("未知的事件发布驱动: %s", c.Events.Driver))
	}
	return nil
}
