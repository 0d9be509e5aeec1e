package events

import "context"

// ActionEvent 描述一次已执行的工具调用，供下游审计管道消费。
type ActionEvent struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Publisher 负责对外发布链上操作事件。
type Publisher interface {
	Publish(ctx context.Context, event ActionEvent) error
	Close() error
}

// NoopPublisher 是默认实现，丢弃所有事件。
type NoopPublisher struct{}

// Publish 实现 Publisher 接口。
func (NoopPublisher) Publish(context.Context, ActionEvent) error { return nil }

// Close 实现 Publisher 接口。
func (NoopPublisher) Close() error { return nil }
