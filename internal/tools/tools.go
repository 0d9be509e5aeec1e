package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"ChainPilot/internal/llm"
)

// Handler 执行一次工具调用，返回交给大模型的文本结果。
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool 将工具描述与执行逻辑绑定在一起。
type Tool struct {
	Spec    llm.ToolSpec
	Handler Handler
}

// Provider 是动作提供方的统一接口，每个提供方贡献一组命名工具。
type Provider interface {
	Tools() []Tool
}

// Registry 汇总所有提供方的工具，供智能体查询与调用。
type Registry struct {
	tools map[string]Tool
}

// NewRegistry 构造注册表。同名工具后注册者覆盖先注册者。
func NewRegistry(providers ...Provider) *Registry {
	registry := &Registry{tools: make(map[string]Tool)}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		for _, tool := range provider.Tools() {
			if tool.Spec.Name == "" || tool.Handler == nil {
				continue
			}
			registry.tools[tool.Spec.Name] = tool
		}
	}
	return registry
}

// Specs 返回全部工具描述，按名称排序以保证提示稳定。
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, tool := range r.tools {
		specs = append(specs, tool.Spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Execute 调用指定工具。未注册的工具名返回错误。
func (r *Registry) Execute(ctx context.Context, name string, args string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("未注册的工具: %s", name)
	}
	raw := json.RawMessage(args)
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return tool.Handler(ctx, raw)
}

// Schema 与 Property 用于以 JSON Schema 描述工具入参。
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property 描述单个入参字段。
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// MustSchema 将 Schema 序列化为 RawMessage，仅在初始化阶段使用。
func MustSchema(schema Schema) json.RawMessage {
	encoded, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return encoded
}

func spec(name, description string, schema Schema) llm.ToolSpec {
	return llm.ToolSpec{
		Name:        name,
		Description: description,
		Parameters:  MustSchema(schema),
	}
}
