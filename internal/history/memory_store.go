package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxRetained 限制内存中保留的历史条数。
const maxRetained = 512

// MemoryStore 将历史以 JSON 行的形式追加到本地文件，同时在内存中保留最近
// 的记录，是默认的历史存储实现。
type MemoryStore struct {
	mu       sync.RWMutex
	dataFile string
	records  []Record
}

// NewMemoryStore 创建文件支撑的内存历史仓库。
func NewMemoryStore(dataDir string) (*MemoryStore, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	store := &MemoryStore{dataFile: filepath.Join(dataDir, "history.log")}
	if err := store.loadFromDisk(); err != nil {
		return nil, err
	}
	return store, nil
}

// Save 以追加写的方式记录一轮对话。
func (m *MemoryStore) Save(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.OpenFile(m.dataFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("打开历史日志失败: %w", err)
	}
	defer file.Close()

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化历史记录失败: %w", err)
	}
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("写入历史日志失败: %w", err)
	}

	m.records = append([]Record{record}, m.records...)
	if len(m.records) > maxRetained {
		m.records = m.records[:maxRetained]
	}
	return nil
}

// ListLatest 返回最近的历史记录，时间倒序。
func (m *MemoryStore) ListLatest(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	results := make([]Record, limit)
	copy(results, m.records[:limit])
	return results, nil
}

// Close 实现 Store 接口，文件在每次写入后即关闭，这里无事可做。
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) loadFromDisk() error {
	file, err := os.OpenFile(m.dataFile, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("读取历史日志失败: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var restored []Record
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		restored = append([]Record{record}, restored...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("解析历史日志失败: %w", err)
	}

	if len(restored) > maxRetained {
		restored = restored[:maxRetained]
	}
	if len(restored) > 0 {
		m.records = restored
	}
	return nil
}
