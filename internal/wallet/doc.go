// Package wallet houses key custody for the agent: the persisted wallet
// credential file, the provider abstraction over signing and transaction
// submission, and the EVM implementation backed by go-ethereum. The platform
// subpackage talks to the wallet platform's REST API for wallet registration
// and testnet faucet funding.
package wallet
