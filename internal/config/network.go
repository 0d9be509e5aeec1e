package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NetworkCatalog models the structure of configs/networks.yaml.
type NetworkCatalog struct {
	Networks map[string]NetworkDefinition `yaml:"networks"`
}

// NetworkDefinition describes a single supported network.
type NetworkDefinition struct {
	ChainID        int64  `yaml:"chain_id"`
	RPCURL         string `yaml:"rpc_url"`
	ExplorerAPIURL string `yaml:"explorer_api_url"`
	NativeSymbol   string `yaml:"native_symbol"`
	Faucet         bool   `yaml:"faucet"`
	Description    string `yaml:"description"`
}

// builtinCatalog covers the networks the agent supports out of the box. A
// networks.yaml file extends or overrides these entries.
var builtinCatalog = map[string]NetworkDefinition{
	"base-sepolia": {
		ChainID:        84532,
		RPCURL:         "https://sepolia.base.org",
		ExplorerAPIURL: "https://api-sepolia.basescan.org/api",
		NativeSymbol:   "ETH",
		Faucet:         true,
		Description:    "Base Sepolia testnet",
	},
	"base-mainnet": {
		ChainID:        8453,
		RPCURL:         "https://mainnet.base.org",
		ExplorerAPIURL: "https://api.basescan.org/api",
		NativeSymbol:   "ETH",
		Description:    "Base mainnet",
	},
	"ethereum-sepolia": {
		ChainID:        11155111,
		RPCURL:         "https://ethereum-sepolia-rpc.publicnode.com",
		ExplorerAPIURL: "https://api-sepolia.etherscan.io/api",
		NativeSymbol:   "ETH",
		Faucet:         true,
		Description:    "Ethereum Sepolia testnet",
	},
}

// LoadNetworkCatalog merges the builtin definitions with an optional YAML file.
func LoadNetworkCatalog(path string) (NetworkCatalog, error) {
	catalog := NetworkCatalog{Networks: make(map[string]NetworkDefinition, len(builtinCatalog))}
	for name, def := range builtinCatalog {
		catalog.Networks[name] = def
	}

	if strings.TrimSpace(path) == "" {
		return catalog, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return NetworkCatalog{}, fmt.Errorf("读取网络配置失败: %w", err)
	}

	var fileCatalog NetworkCatalog
	if err := yaml.Unmarshal(content, &fileCatalog); err != nil {
		return NetworkCatalog{}, fmt.Errorf("解析网络配置失败: %w", err)
	}
	for name, def := range fileCatalog.Networks {
		catalog.Networks[name] = def
	}
	return catalog, nil
}

// Resolve returns the definition for the given network id, applying the
// optional RPC override from the environment.
func (c NetworkCatalog) Resolve(cfg NetworkConfig) (NetworkDefinition, error) {
	def, ok := c.Networks[cfg.ID]
	if !ok {
		known := make([]string, 0, len(c.Networks))
		for name := range c.Networks {
			known = append(known, name)
		}
		return NetworkDefinition{}, fmt.Errorf("未知的网络 %q，可选: %s", cfg.ID, strings.Join(known, ", "))
	}
	if override := strings.TrimSpace(cfg.RPCURLOverride); override != "" {
		def.RPCURL = override
	}
	return def, nil
}
