package agent

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	xerrors "ChainPilot/internal/errors"
	"ChainPilot/internal/events"
	"ChainPilot/internal/history"
	"ChainPilot/internal/knowledge"
	"ChainPilot/internal/llm"
	"ChainPilot/internal/tools"
	"ChainPilot/pkg/logger"
)

// defaultSystemPrompt 约束智能体的行为边界与语气。
const defaultSystemPrompt = "" +
	"You are ChainPilot, a helpful agent that can interact on-chain using your tools. " +
	"If you need funds on a testnet, tell the user to request them from a faucet. " +
	"If a tool reports an error, relay the error to the user and ask them to try " +
	"again later. Be concise with your responses. Only use the tools you have been " +
	"given; if a request is beyond their scope, say so."

const (
	defaultMemoryDepth   = 5
	defaultMaxIterations = 8
)

// Observer 在执行过程中接收增量输出：工具调用、工具结果与最终回复。
type Observer func(chunk string)

// Result 汇总一轮执行得到的最终回复与链上操作摘要。
type Result struct {
	Reply     string
	Actions   []string
	SessionID string
	CreatedAt int64
}

// Agent 协调大模型、工具注册表与会话历史，是系统的业务核心。
type Agent struct {
	llmClient     llm.Client
	registry      *tools.Registry
	store         history.Store
	publisher     events.Publisher
	knowledge     knowledge.Provider
	systemPrompt  string
	memoryDepth   int
	maxIterations int
	llmTimeout    time.Duration
	sessionID     string
}

// Option 定义可选的 Agent 配置。
type Option func(*Agent)

// WithMemoryDepth 设置推理时可参考的历史轮数。
func WithMemoryDepth(depth int) Option {
	return func(a *Agent) {
		a.memoryDepth = depth
	}
}

// WithKnowledgeProvider 配置知识库，用于在推理前补充上下文。
func WithKnowledgeProvider(provider knowledge.Provider) Option {
	return func(a *Agent) {
		a.knowledge = provider
	}
}

// WithLLMTimeout 设置单次大模型调用的超时时间。
func WithLLMTimeout(timeout time.Duration) Option {
	return func(a *Agent) {
		if timeout <= 0 {
			a.llmTimeout = 0
			return
		}
		a.llmTimeout = timeout
	}
}

// WithMaxIterations 限制一轮对话中的工具调用轮数。
func WithMaxIterations(iterations int) Option {
	return func(a *Agent) {
		if iterations > 0 {
			a.maxIterations = iterations
		}
	}
}

// WithEventPublisher 配置链上操作事件的发布器。
func WithEventPublisher(publisher events.Publisher) Option {
	return func(a *Agent) {
		a.publisher = publisher
	}
}

// WithSystemPrompt 覆盖默认的系统提示词。
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if strings.TrimSpace(prompt) != "" {
			a.systemPrompt = prompt
		}
	}
}

// New 创建一个 Agent。
func New(llmClient llm.Client, registry *tools.Registry, store history.Store, opts ...Option) *Agent {
	ag := &Agent{
		llmClient:     llmClient,
		registry:      registry,
		store:         store,
		publisher:     events.NoopPublisher{},
		systemPrompt:  defaultSystemPrompt,
		memoryDepth:   defaultMemoryDepth,
		maxIterations: defaultMaxIterations,
		sessionID:     uuid.NewString(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ag)
		}
	}
	if ag.memoryDepth < 0 {
		ag.memoryDepth = defaultMemoryDepth
	}
	return ag
}

// SessionID 返回本次进程的会话标识。
func (a *Agent) SessionID() string {
	return a.sessionID
}

// Execute 处理一条用户输入：调用大模型、执行其请求的工具，直到得到最终回复。
// observe 为空时不输出增量内容。
func (a *Agent) Execute(ctx context.Context, mode, prompt string, observe Observer) (*Result, error) {
	if a.llmClient == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置大模型客户端")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "输入不能为空")
	}
	if observe == nil {
		observe = func(string) {}
	}

	system := a.buildSystemPrompt(prompt)
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

	var specs []llm.ToolSpec
	if a.registry != nil {
		specs = a.registry.Specs()
	}

	actions := make([]string, 0, 4)
	for iteration := 0; iteration < a.maxIterations; iteration++ {
		resp, err := a.generate(ctx, llm.Request{
			System:   system,
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			observe(resp.Content)
			result := &Result{
				Reply:     resp.Content,
				Actions:   actions,
				SessionID: a.sessionID,
				CreatedAt: time.Now().Unix(),
			}
			if err := a.saveHistory(ctx, mode, prompt, result); err != nil {
				return nil, err
			}
			return result, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if resp.Content != "" {
			observe(resp.Content)
		}

		for _, call := range resp.ToolCalls {
			observe(fmt.Sprintf("-> %s %s", call.Name, call.Arguments))
			output := a.invokeTool(ctx, mode, call)
			observe(output)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
			actions = append(actions, call.Name)
		}
	}

	return nil, xerrors.New(xerrors.CodeLLMFailure,
		fmt.Sprintf("工具调用超过 %d 轮仍未得到最终回复", a.maxIterations))
}

// invokeTool 执行一次工具调用。工具失败不会中断对话，失败描述会交还给大模型。
func (a *Agent) invokeTool(ctx context.Context, mode string, call llm.ToolCall) string {
	output, err := a.registry.Execute(ctx, call.Name, call.Arguments)

	event := events.ActionEvent{
		SessionID: a.sessionID,
		Mode:      mode,
		Tool:      call.Name,
		Arguments: call.Arguments,
		CreatedAt: time.Now().Unix(),
	}
	if err != nil {
		event.Error = err.Error()
		logger.Actions().Warn("工具执行失败",
			slog.String("session_id", a.sessionID),
			slog.String("tool", call.Name),
			slog.String("error", err.Error()),
		)
		output = fmt.Sprintf("Error executing %s: %v", call.Name, err)
	} else {
		event.Result = output
		logger.Actions().Info("工具执行成功",
			slog.String("session_id", a.sessionID),
			slog.String("tool", call.Name),
		)
	}

	if a.publisher != nil {
		if pubErr := a.publisher.Publish(ctx, event); pubErr != nil {
			logger.L().Warn("发布操作事件失败",
				slog.String("tool", call.Name),
				slog.Any("error", xerrors.Wrap(xerrors.CodeEventPublishFailure, pubErr, "")),
			)
		}
	}
	return output
}

func (a *Agent) generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	llmCtx := ctx
	if a.llmTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, a.llmTimeout)
		defer cancel()
	}

	resp, err := a.llmClient.Generate(llmCtx, req)
	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) {
			return nil, xerrors.Wrap(xerrors.CodeTimeout, err, "大模型推理超时")
		}
		return nil, xerrors.Wrap(xerrors.CodeLLMFailure, err, "大模型推理失败")
	}
	return resp, nil
}

// buildSystemPrompt 在系统提示词后追加历史上下文与知识库内容。
func (a *Agent) buildSystemPrompt(prompt string) string {
	var builder strings.Builder
	builder.WriteString(a.systemPrompt)

	if entries := a.loadHistory(); len(entries) > 0 {
		builder.WriteString("\n\n## Recent conversation history\n")
		for idx, entry := range entries {
			builder.WriteString(fmt.Sprintf("[%d] user: %s | agent: %s\n",
				idx+1,
				truncate(entry.Prompt),
				truncate(entry.Reply),
			))
		}
	}

	if a.knowledge != nil {
		if snippets := a.knowledge.Query(prompt); len(snippets) > 0 {
			builder.WriteString("\n\n## Reference notes\n")
			for idx, snippet := range snippets {
				builder.WriteString(fmt.Sprintf("[%d] %s: %s\n",
					idx+1,
					strings.TrimSpace(snippet.Title),
					truncate(snippet.Content),
				))
			}
		}
	}
	return builder.String()
}

// loadHistory 加载最近的会话记录以供大模型参考。读取失败只降级为无历史。
func (a *Agent) loadHistory() []history.Record {
	if a.store == nil || a.memoryDepth <= 0 {
		return nil
	}
	records, err := a.store.ListLatest(context.Background(), a.memoryDepth)
	if err != nil {
		logger.L().Warn("加载会话历史失败", slog.Any("error", err))
		return nil
	}
	return records
}

func (a *Agent) saveHistory(ctx context.Context, mode, prompt string, result *Result) error {
	if a.store == nil {
		return nil
	}
	record := history.Record{
		SessionID: a.sessionID,
		Mode:      mode,
		Prompt:    prompt,
		Reply:     result.Reply,
		Actions:   strings.Join(result.Actions, ", "),
		CreatedAt: result.CreatedAt,
	}
	if err := a.store.Save(ctx, record); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "保存会话记录失败")
	}
	return nil
}

func truncate(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) > 80 {
		return string([]rune(text)[:80]) + "..."
	}
	return text
}
