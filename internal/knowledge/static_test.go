package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStaticProviderQuery(t *testing.T) {
	provider := NewStaticProvider([]Snippet{
		{Title: "faucet", Content: "Testnet funds come from the faucet.", Keywords: []string{"faucet", "funds"}},
		{Title: "gas", Content: "Native transfers cost 21000 gas.", Keywords: []string{"gas"}},
		{Title: "general", Content: "Always double check addresses."},
	}, 3)

	results := provider.Query("How do I get faucet funds?")
	if len(results) != 2 {
		t.Fatalf("unexpected result count: %d", len(results))
	}
	if results[0].Title != "faucet" || results[1].Title != "general" {
		t.Fatalf("unexpected results: %+v", results)
	}

	results = provider.Query("how much GAS does a transfer need")
	if len(results) != 2 || results[0].Title != "gas" {
		t.Fatalf("keyword match should be case insensitive: %+v", results)
	}
}

func TestStaticProviderMaxResults(t *testing.T) {
	provider := NewStaticProvider([]Snippet{
		{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"},
	}, 2)

	if got := provider.Query("anything"); len(got) != 2 {
		t.Fatalf("expected max 2 results, got %d", len(got))
	}
}

func TestLoadStaticProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	content := `[{"title":"faucet","content":"use the faucet","keywords":["faucet"]}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	provider, err := LoadStaticProvider(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := provider.Query("where is the faucet"); len(got) != 1 || got[0].Title != "faucet" {
		t.Fatalf("unexpected results: %+v", got)
	}

	if _, err := LoadStaticProvider(filepath.Join(t.TempDir(), "missing.json"), 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadStaticProvider("", 0); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
