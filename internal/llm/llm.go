package llm

import (
	"context"
	"encoding/json"
)

// 对话中可能出现的角色。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message 表示一条对话消息。工具结果消息需要携带 ToolCallID。
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolSpec 描述一个可供大模型调用的工具，参数使用 JSON Schema 表达。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall 是大模型发起的一次工具调用请求。
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Request 描述发送给大模型的完整上下文。
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Response 是大模型推理得到的输出。ToolCalls 非空时表示模型希望先执行工具。
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client 定义了调用大模型的统一接口。
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
