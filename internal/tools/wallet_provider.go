package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"ChainPilot/internal/wallet"
)

// WalletProvider 将钱包能力暴露为智能体可调用的工具。
type WalletProvider struct {
	provider wallet.Provider
}

// NewWalletProvider 构造钱包动作提供方。
func NewWalletProvider(provider wallet.Provider) *WalletProvider {
	return &WalletProvider{provider: provider}
}

// Tools 实现 Provider 接口。
func (w *WalletProvider) Tools() []Tool {
	return []Tool{
		{
			Spec: spec("get_wallet_details",
				"Get the agent wallet address and the network it operates on.",
				Schema{Type: "object"}),
			Handler: w.walletDetails,
		},
		{
			Spec: spec("get_native_balance",
				"Get the agent wallet's native token balance in wei, read directly from the chain.",
				Schema{Type: "object"}),
			Handler: w.nativeBalance,
		},
		{
			Spec: spec("transfer_native",
				"Transfer native tokens from the agent wallet to another address. Amount is in wei.",
				Schema{
					Type: "object",
					Properties: map[string]Property{
						"to":         {Type: "string", Description: "Recipient address (0x...)"},
						"amount_wei": {Type: "string", Description: "Amount to send, in wei, as a decimal string"},
					},
					Required: []string{"to", "amount_wei"},
				}),
			Handler: w.transferNative,
		},
	}
}

func (w *WalletProvider) walletDetails(_ context.Context, _ json.RawMessage) (string, error) {
	return fmt.Sprintf("Wallet address %s on network %s", w.provider.Address(), w.provider.NetworkID()), nil
}

func (w *WalletProvider) nativeBalance(ctx context.Context, _ json.RawMessage) (string, error) {
	balance, err := w.provider.Balance(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Native balance of %s: %s wei", w.provider.Address(), balance.String()), nil
}

func (w *WalletProvider) transferNative(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		To        string `json:"to"`
		AmountWei string `json:"amount_wei"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("解析 transfer_native 参数失败: %w", err)
	}

	amount, ok := new(big.Int).SetString(strings.TrimSpace(input.AmountWei), 10)
	if !ok {
		return "", fmt.Errorf("无法解析转账金额 %q", input.AmountWei)
	}

	hash, err := w.provider.TransferNative(ctx, strings.TrimSpace(input.To), amount)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %s wei to %s, transaction hash %s", amount.String(), input.To, hash), nil
}
