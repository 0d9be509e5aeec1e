package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore 使用 MySQL 持久化会话历史。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 创建连接池并初始化数据表。
func NewMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接 MySQL 失败: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("无法连接到 MySQL: %w", err)
	}

	store := &MySQLStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) initSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS conversation_history (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        session_id VARCHAR(64) NOT NULL,
        mode VARCHAR(16) NOT NULL,
        prompt TEXT NOT NULL,
        reply TEXT NOT NULL,
        actions TEXT,
        created_at BIGINT NOT NULL,
        INDEX idx_created_at (created_at)
)`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("初始化 conversation_history 表失败: %w", err)
	}
	return nil
}

// Save 将一轮对话写入 MySQL。
func (s *MySQLStore) Save(ctx context.Context, record Record) error {
	const stmt = `INSERT INTO conversation_history
        (session_id, mode, prompt, reply, actions, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, stmt,
		record.SessionID,
		record.Mode,
		record.Prompt,
		record.Reply,
		record.Actions,
		record.CreatedAt,
	); err != nil {
		return fmt.Errorf("写入 MySQL 失败: %w", err)
	}
	return nil
}

// ListLatest 查询最近的若干条历史记录。
func (s *MySQLStore) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT session_id, mode, prompt, reply, actions, created_at
        FROM conversation_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var actions sql.NullString
		if err := rows.Scan(&record.SessionID, &record.Mode, &record.Prompt, &record.Reply, &actions, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描历史记录失败: %w", err)
		}
		record.Actions = actions.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历历史记录失败: %w", err)
	}
	return records, nil
}

// Close 关闭数据库连接池。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
