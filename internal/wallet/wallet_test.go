package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDataMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet_data.json")

	data, existed, err := LoadData(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existed {
		t.Fatalf("missing file must not report as existing")
	}
	if data.PrivateKey != "" {
		t.Fatalf("expected zero value, got %+v", data)
	}
}

func TestLoadDataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet_data.json")
	want := Data{
		Address:    "0x1234",
		PrivateKey: "deadbeef",
		NetworkID:  "base-sepolia",
		CreatedAt:  1700000000,
	}
	if err := SaveData(path, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, existed, err := LoadData(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existed {
		t.Fatalf("expected file to exist")
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestLoadDataRejectsEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet_data.json")
	if err := os.WriteFile(path, []byte(`{"address":"0x1234"}`), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := LoadData(path); err == nil {
		t.Fatalf("expected error for wallet file without key material")
	}
}

func TestSaveDataOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet_data.json")

	first := Data{Address: "0x1111", PrivateKey: "aa", NetworkID: "base-sepolia", CreatedAt: 1}
	second := Data{Address: "0x2222", PrivateKey: "bb", NetworkID: "base-sepolia", CreatedAt: 2}
	if err := SaveData(path, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SaveData(path, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The file must stay a single JSON document: repeated saves replace
	// content instead of appending records.
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Data
	if err := json.Unmarshal(content, &got); err != nil {
		t.Fatalf("file is not a single JSON document: %v", err)
	}
	if got != second {
		t.Fatalf("expected latest blob, got %+v", got)
	}
}

func TestSaveDataFillsCreatedAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet_data.json")
	if err := SaveData(path, Data{Address: "0x1234", PrivateKey: "aa", NetworkID: "base-sepolia"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _, err := LoadData(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CreatedAt == 0 {
		t.Fatalf("expected CreatedAt to be stamped")
	}
}
