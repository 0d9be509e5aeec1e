package evm

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"ChainPilot/internal/wallet"
)

const nativeTransferGas = 21000

// Config describes how to construct an EVM wallet provider.
type Config struct {
	NetworkID string
	ChainID   int64
	RPCURL    string
}

// backend mirrors the subset of ethclient methods the provider needs, so
// tests can substitute a fake without a live node.
type backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
}

// Provider implements wallet.Provider for EVM compatible chains. Keys are
// held in memory and signing happens locally; only signed transactions leave
// the process.
type Provider struct {
	networkID string
	chainID   *big.Int
	key       *ecdsa.PrivateKey
	address   common.Address
	eth       *ethclient.Client
	backend   backend
	mu        sync.Mutex
}

// NewProvider restores a provider from persisted wallet data, or generates a
// fresh key when the data is empty. It dials the configured RPC endpoint.
func NewProvider(ctx context.Context, cfg Config, data wallet.Data) (*Provider, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("no RPC endpoint configured")
	}
	if cfg.ChainID <= 0 {
		return nil, errors.New("chain id is required")
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC endpoint: %w", err)
	}

	provider, err := newWithBackend(cfg, data, eth)
	if err != nil {
		eth.Close()
		return nil, err
	}
	provider.eth = eth
	return provider, nil
}

// NewProviderWithBackend constructs a provider on top of an injected backend.
// Used by tests.
func NewProviderWithBackend(cfg Config, data wallet.Data, be backend) (*Provider, error) {
	return newWithBackend(cfg, data, be)
}

func newWithBackend(cfg Config, data wallet.Data, be backend) (*Provider, error) {
	var key *ecdsa.PrivateKey
	var err error
	if strings.TrimSpace(data.PrivateKey) != "" {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(data.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("restore wallet key: %w", err)
		}
	} else {
		key, err = crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate wallet key: %w", err)
		}
	}

	return &Provider{
		networkID: cfg.NetworkID,
		chainID:   big.NewInt(cfg.ChainID),
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		backend:   be,
	}, nil
}

// Address returns the checksummed wallet address.
func (p *Provider) Address() string {
	return p.address.Hex()
}

// NetworkID returns the network the provider is bound to.
func (p *Provider) NetworkID() string {
	return p.networkID
}

// Balance queries the native balance of the wallet address.
func (p *Provider) Balance(ctx context.Context) (*big.Int, error) {
	if p.backend == nil {
		return nil, errors.New("provider has no chain backend")
	}
	balance, err := p.backend.BalanceAt(ctx, p.address, nil)
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// TransferNative signs and broadcasts a plain value transfer, returning the
// transaction hash. Nonce and gas price come from the node; the gas limit is
// the fixed cost of a native transfer.
func (p *Provider) TransferNative(ctx context.Context, to string, amountWei *big.Int) (string, error) {
	if p.backend == nil {
		return "", errors.New("provider has no chain backend")
	}
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid recipient address %q", to)
	}
	if amountWei == nil || amountWei.Sign() <= 0 {
		return "", errors.New("transfer amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	nonce, err := p.backend.PendingNonceAt(ctx, p.address)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch gas price: %w", err)
	}

	recipient := common.HexToAddress(to)
	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		To:       &recipient,
		Value:    amountWei,
		Gas:      nativeTransferGas,
		GasPrice: gasPrice,
	})

	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// Export returns the persistable wallet blob.
func (p *Provider) Export() wallet.Data {
	return wallet.Data{
		Address:    p.address.Hex(),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(p.key)),
		NetworkID:  p.networkID,
	}
}

// Close releases the RPC connection held by the provider.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.eth != nil {
		p.eth.Close()
		p.eth = nil
	}
	p.backend = nil
}
