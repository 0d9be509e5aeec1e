package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	xerrors "ChainPilot/internal/errors"
	"ChainPilot/internal/events"
	"ChainPilot/internal/history"
	"ChainPilot/internal/llm"
	"ChainPilot/internal/tools"
)

// scriptedLLM 按序返回预设响应，用于驱动工具调用循环。
type scriptedLLM struct {
	responses []*llm.Response
	requests  []llm.Request
	err       error
}

func (s *scriptedLLM) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &llm.Response{Content: "done"}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type slowLLM struct{}

func (slowLLM) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		return &llm.Response{Content: "too late"}, nil
	}
}

// echoProvider 注册一个回显工具，失败场景可注入错误。
type echoProvider struct {
	calls []string
	err   error
}

func (p *echoProvider) Tools() []tools.Tool {
	return []tools.Tool{{
		Spec: llm.ToolSpec{
			Name:        "echo",
			Description: "Echo the given text.",
			Parameters:  tools.MustSchema(tools.Schema{Type: "object"}),
		},
		Handler: func(_ context.Context, args json.RawMessage) (string, error) {
			p.calls = append(p.calls, string(args))
			if p.err != nil {
				return "", p.err
			}
			return "echoed " + string(args), nil
		},
	}}
}

type recordingPublisher struct {
	published []events.ActionEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event events.ActionEvent) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func newTestStore(t *testing.T) *history.MemoryStore {
	t.Helper()
	store, err := history.NewMemoryStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func TestExecuteToolCallLoop(t *testing.T) {
	provider := &echoProvider{}
	publisher := &recordingPublisher{}
	client := &scriptedLLM{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{"text":"hi"}`}}},
		{Content: "all done"},
	}}
	store := newTestStore(t)
	ag := New(client, tools.NewRegistry(provider), store, WithEventPublisher(publisher))

	var chunks []string
	result, err := ag.Execute(context.Background(), "chat", "say hi", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reply != "all done" {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if len(result.Actions) != 1 || result.Actions[0] != "echo" {
		t.Fatalf("unexpected actions: %v", result.Actions)
	}
	if len(provider.calls) != 1 || provider.calls[0] != `{"text":"hi"}` {
		t.Fatalf("unexpected tool calls: %v", provider.calls)
	}
	if len(publisher.published) != 1 || publisher.published[0].Tool != "echo" {
		t.Fatalf("unexpected events: %+v", publisher.published)
	}

	// 第二轮请求必须携带助手消息与工具结果。
	second := client.requests[1]
	if len(second.Messages) != 3 {
		t.Fatalf("unexpected message count: %d", len(second.Messages))
	}
	toolMsg := second.Messages[2]
	if toolMsg.Role != llm.RoleTool || toolMsg.ToolCallID != "call-1" {
		t.Fatalf("unexpected tool message: %+v", toolMsg)
	}
	if toolMsg.Content != `echoed {"text":"hi"}` {
		t.Fatalf("unexpected tool result: %q", toolMsg.Content)
	}

	joined := strings.Join(chunks, "\n")
	if !strings.Contains(joined, "-> echo") || !strings.Contains(joined, "all done") {
		t.Fatalf("observer missed output: %q", joined)
	}

	records, err := store.ListLatest(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Reply != "all done" || records[0].Actions != "echo" {
		t.Fatalf("unexpected history: %+v", records)
	}
	if records[0].Mode != "chat" || records[0].SessionID != ag.SessionID() {
		t.Fatalf("unexpected history metadata: %+v", records[0])
	}
}

func TestExecuteToolFailureFedBackToModel(t *testing.T) {
	provider := &echoProvider{err: errors.New("rpc unavailable")}
	client := &scriptedLLM{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{}`}}},
		{Content: "sorry, the tool failed"},
	}}
	ag := New(client, tools.NewRegistry(provider), newTestStore(t))

	result, err := ag.Execute(context.Background(), "chat", "try it", nil)
	if err != nil {
		t.Fatalf("tool failures must not abort the conversation: %v", err)
	}
	if result.Reply != "sorry, the tool failed" {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}

	toolMsg := client.requests[1].Messages[2]
	if !strings.HasPrefix(toolMsg.Content, "Error executing echo:") {
		t.Fatalf("model should see the failure description, got %q", toolMsg.Content)
	}
}

func TestExecuteHistoryInSystemPrompt(t *testing.T) {
	store := newTestStore(t)
	seed := history.Record{SessionID: "s", Mode: "chat", Prompt: "earlier question", Reply: "earlier answer", CreatedAt: 1}
	if err := store.Save(context.Background(), seed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client := &scriptedLLM{responses: []*llm.Response{{Content: "ok"}}}
	ag := New(client, tools.NewRegistry(), store, WithMemoryDepth(3))

	if _, err := ag.Execute(context.Background(), "chat", "follow up", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	system := client.requests[0].System
	if !strings.Contains(system, "earlier question") || !strings.Contains(system, "earlier answer") {
		t.Fatalf("system prompt missing history digest: %q", system)
	}
}

func TestExecuteTimeout(t *testing.T) {
	ag := New(slowLLM{}, tools.NewRegistry(), newTestStore(t), WithLLMTimeout(20*time.Millisecond))

	_, err := ag.Execute(context.Background(), "chat", "hello", nil)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if xerrors.CodeOf(err) != xerrors.CodeTimeout {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestExecuteBoundedIterations(t *testing.T) {
	provider := &echoProvider{}
	endless := make([]*llm.Response, 0, 4)
	for i := 0; i < 4; i++ {
		endless = append(endless, &llm.Response{
			ToolCalls: []llm.ToolCall{{ID: "loop", Name: "echo", Arguments: `{}`}},
		})
	}
	client := &scriptedLLM{responses: endless}
	ag := New(client, tools.NewRegistry(provider), newTestStore(t), WithMaxIterations(3))

	_, err := ag.Execute(context.Background(), "chat", "loop forever", nil)
	if err == nil {
		t.Fatalf("expected error after exhausting iterations")
	}
	if xerrors.CodeOf(err) != xerrors.CodeLLMFailure {
		t.Fatalf("unexpected error code: %v", err)
	}
	if len(client.requests) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(client.requests))
	}
}

func TestExecuteEmptyPrompt(t *testing.T) {
	ag := New(&scriptedLLM{}, tools.NewRegistry(), newTestStore(t))

	_, err := ag.Execute(context.Background(), "chat", "   ", nil)
	if err == nil {
		t.Fatalf("expected error for empty prompt")
	}
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("unexpected error code: %v", err)
	}
}
