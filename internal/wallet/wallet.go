package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Data is the persisted wallet credential blob. It is written as a single
// JSON document and replaced wholesale on every successful startup.
type Data struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	NetworkID  string `json:"network_id"`
	CreatedAt  int64  `json:"created_at"`
}

// Provider abstracts key custody and transaction submission so higher layers
// can interact with the chain without touching key material directly.
type Provider interface {
	Address() string
	NetworkID() string
	Balance(ctx context.Context) (*big.Int, error)
	TransferNative(ctx context.Context, to string, amountWei *big.Int) (string, error)
	Export() Data
	Close()
}

// LoadData reads a previously persisted wallet file. The second return value
// reports whether the file existed.
func LoadData(path string) (Data, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Data{}, false, nil
		}
		return Data{}, false, fmt.Errorf("read wallet file: %w", err)
	}
	var data Data
	if err := json.Unmarshal(content, &data); err != nil {
		return Data{}, false, fmt.Errorf("parse wallet file: %w", err)
	}
	if strings.TrimSpace(data.PrivateKey) == "" {
		return Data{}, false, fmt.Errorf("wallet file %s has no key material", path)
	}
	return data, true, nil
}

// SaveData replaces the wallet file with the given blob. The write truncates
// any existing content; the file never grows by appending.
func SaveData(path string, data Data) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallet data: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create wallet directory: %w", err)
		}
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return fmt.Errorf("write wallet file: %w", err)
	}
	return nil
}
