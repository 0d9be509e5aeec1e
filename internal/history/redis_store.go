package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "chainpilot:history"

// RedisStoreConfig 描述 Redis 历史存储的连接参数。
type RedisStoreConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// RedisStore 使用 Redis list 保存会话历史，新记录通过 LPUSH 写入头部。
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore 创建 Redis 历史仓库并验证连通性。
func NewRedisStore(ctx context.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	key := cfg.Key
	if key == "" {
		key = defaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return &RedisStore{client: client, key: key}, nil
}

// Save 写入一轮对话并裁剪列表长度。
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化历史记录失败: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, encoded)
	pipe.LTrim(ctx, s.key, 0, maxRetained-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("Redis 写入历史失败: %w", err)
	}
	return nil
}

// ListLatest 返回最近的历史记录，时间倒序。
func (s *RedisStore) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	values, err := s.client.LRange(ctx, s.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("Redis 读取历史失败: %w", err)
	}
	records := make([]Record, 0, len(values))
	for _, value := range values {
		var record Record
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Close 关闭 Redis 连接。
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
