package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"ChainPilot/internal/explorer"
)

// ExplorerProvider 将区块浏览器查询暴露为智能体可调用的工具。
// 浏览器封装自身将失败转换为描述性字符串，因此这些 handler 从不返回 error。
type ExplorerProvider struct {
	client *explorer.Client
}

// NewExplorerProvider 构造浏览器动作提供方。
func NewExplorerProvider(client *explorer.Client) *ExplorerProvider {
	return &ExplorerProvider{client: client}
}

// Tools 实现 Provider 接口。
func (e *ExplorerProvider) Tools() []Tool {
	return []Tool{
		{
			Spec: spec("explorer_native_balance",
				"Look up the native token balance of any address via the block explorer API. Returns the balance in wei.",
				Schema{
					Type: "object",
					Properties: map[string]Property{
						"address": {Type: "string", Description: "Address to query (0x...)"},
					},
					Required: []string{"address"},
				}),
			Handler: e.nativeBalance,
		},
		{
			Spec: spec("explorer_token_transfers",
				"List recent ERC-20 token transfer events. Filter by address and/or token contract; both filters are optional.",
				Schema{
					Type: "object",
					Properties: map[string]Property{
						"address":          {Type: "string", Description: "Account address to filter by (optional)"},
						"contract_address": {Type: "string", Description: "Token contract address to filter by (optional)"},
					},
				}),
			Handler: e.tokenTransfers,
		},
		{
			Spec: spec("explorer_transactions",
				"List the latest normal transactions of an address via the block explorer API.",
				Schema{
					Type: "object",
					Properties: map[string]Property{
						"address": {Type: "string", Description: "Address to query (0x...)"},
					},
					Required: []string{"address"},
				}),
			Handler: e.transactions,
		},
	}
}

func (e *ExplorerProvider) nativeBalance(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("解析 explorer_native_balance 参数失败: %w", err)
	}
	return e.client.NativeBalance(ctx, input.Address), nil
}

func (e *ExplorerProvider) tokenTransfers(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Address         string `json:"address"`
		ContractAddress string `json:"contract_address"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("解析 explorer_token_transfers 参数失败: %w", err)
	}
	return e.client.TokenTransfers(ctx, explorer.TransferQuery{
		Address:         input.Address,
		ContractAddress: input.ContractAddress,
	}), nil
}

func (e *ExplorerProvider) transactions(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("解析 explorer_transactions 参数失败: %w", err)
	}
	return e.client.Transactions(ctx, input.Address), nil
}
