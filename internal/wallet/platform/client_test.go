package platform

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.header = r.Header.Clone()
		captured.body, _ = io.ReadAll(r.Body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		APIKeyID:     "key-id",
		APIKeySecret: "key-secret",
		BaseURL:      srv.URL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.now = func() time.Time { return time.Unix(1700000000, 0) }
	return client, captured
}

type capturedRequest struct {
	path   string
	header http.Header
	body   []byte
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{APIKeyID: "id"}); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := NewClient(Config{APIKeySecret: "secret"}); err == nil {
		t.Fatalf("expected error without key id")
	}
}

func TestRegisterWalletSignsRequest(t *testing.T) {
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	if err := client.RegisterWallet(context.Background(), "0xabc", "base-sepolia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.path != "/wallets" {
		t.Fatalf("unexpected path: %q", captured.path)
	}

	var payload map[string]string
	if err := json.Unmarshal(captured.body, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["address"] != "0xabc" || payload["network_id"] != "base-sepolia" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	if captured.header.Get("X-Api-Key-Id") != "key-id" {
		t.Fatalf("missing key id header: %v", captured.header)
	}
	if captured.header.Get("X-Api-Timestamp") != "1700000000" {
		t.Fatalf("unexpected timestamp: %q", captured.header.Get("X-Api-Timestamp"))
	}

	mac := hmac.New(sha256.New, []byte("key-secret"))
	mac.Write([]byte("1700000000"))
	mac.Write([]byte("/wallets"))
	mac.Write(captured.body)
	want := hex.EncodeToString(mac.Sum(nil))
	if got := captured.header.Get("X-Api-Signature"); got != want {
		t.Fatalf("signature mismatch: got %q want %q", got, want)
	}
}

func TestRequestFaucetPath(t *testing.T) {
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := client.RequestFaucet(context.Background(), "0xabc", "base-sepolia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.path != "/faucet" {
		t.Fatalf("unexpected path: %q", captured.path)
	}
}

func TestPostSurfacesHTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("bad signature"))
	})

	err := client.RegisterWallet(context.Background(), "0xabc", "base-sepolia")
	if err == nil {
		t.Fatalf("expected error for HTTP 403")
	}
}
