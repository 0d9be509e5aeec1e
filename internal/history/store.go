package history

import "context"

// Record 表示一轮对话的落库结构：用户输入、最终回复以及执行过的链上操作摘要。
type Record struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Prompt    string `json:"prompt"`
	Reply     string `json:"reply"`
	Actions   string `json:"actions,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Store 抽象会话历史的持久化接口。
type Store interface {
	Save(ctx context.Context, record Record) error
	ListLatest(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
