package platform

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.walletplatform.dev/v1"
	defaultTimeout = 30 * time.Second
)

// Config holds the wallet platform credentials. Both values are required by
// startup validation; the client signs every request with them.
type Config struct {
	APIKeyID     string
	APIKeySecret string
	BaseURL      string
	Timeout      time.Duration
}

// Client talks to the wallet platform's REST API. The platform tracks
// registered agent wallets and funds them on test networks; it never holds
// key material.
type Client struct {
	keyID      string
	secret     []byte
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient validates the credentials and constructs a platform client.
func NewClient(cfg Config) (*Client, error) {
	keyID := strings.TrimSpace(cfg.APIKeyID)
	secret := strings.TrimSpace(cfg.APIKeySecret)
	if keyID == "" || secret == "" {
		return nil, errors.New("wallet platform credentials are required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		keyID:      keyID,
		secret:     []byte(secret),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

// RegisterWallet announces the wallet address to the platform so it shows up
// in the platform console.
func (c *Client) RegisterWallet(ctx context.Context, address, networkID string) error {
	payload := map[string]string{
		"address":    address,
		"network_id": networkID,
	}
	return c.post(ctx, "/wallets", payload)
}

// RequestFaucet asks the platform to fund the wallet on a test network.
func (c *Client) RequestFaucet(ctx context.Context, address, networkID string) error {
	payload := map[string]string{
		"address":    address,
		"network_id": networkID,
	}
	return c.post(ctx, "/faucet", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode platform request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build platform request: %w", err)
	}
	c.sign(req, path, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call wallet platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("wallet platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// sign attaches the platform auth headers: key id, unix timestamp, and an
// HMAC-SHA256 over timestamp, path, and body.
func (c *Client) sign(req *http.Request, path string, body []byte) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(path))
	mac.Write(body)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key-Id", c.keyID)
	req.Header.Set("X-Api-Timestamp", timestamp)
	req.Header.Set("X-Api-Signature", hex.EncodeToString(mac.Sum(nil)))
}
