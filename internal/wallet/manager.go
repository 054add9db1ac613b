// Package wallet manages Gnosis Safe proxy wallets on Polygon. Each user
// gets a Safe deployed through the proxy factory; the Safe holds USDC
// collateral and acts as the funder for CLOB orders.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	bind "github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// proxyCreationTopic is the event signature hash of
// ProxyCreation(address proxy, address singleton) emitted by the Safe
// proxy factory.
var proxyCreationTopic = common.HexToHash(
	"0x4f51faf6c4561ff95f067657e43439f0f856d97c04d9ec9070a6199ad418e235",
)

const factoryABIJSON = `[{"inputs":[{"internalType":"address","name":"_singleton","type":"address"},{"internalType":"bytes","name":"initializer","type":"bytes"},{"internalType":"uint256","name":"saltNonce","type":"uint256"}],"name":"createProxyWithNonce","outputs":[{"internalType":"address","name":"proxy","type":"address"}],"stateMutability":"nonpayable","type":"function"}]`

const safeSetupABIJSON = `[{"inputs":[{"internalType":"address[]","name":"_owners","type":"address[]"},{"internalType":"uint256","name":"_threshold","type":"uint256"},{"internalType":"address","name":"to","type":"address"},{"internalType":"bytes","name":"data","type":"bytes"},{"internalType":"address","name":"fallbackHandler","type":"address"},{"internalType":"address","name":"paymentToken","type":"address"},{"internalType":"uint256","name":"payment","type":"uint256"},{"internalType":"address","name":"paymentReceiver","type":"address"}],"name":"setup","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

const erc20ABIJSON = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// Config holds the chain endpoints and contract addresses the manager needs.
type Config struct {
	RPCURL          string
	ChainID         int64
	DeployerKey     string // hex private key of the account paying deploy gas
	SafeFactory     string
	SafeMasterCopy  string
	FallbackHandler string
	USDCAddress     string
}

// Manager deploys and inspects Safe wallets over a JSON-RPC connection.
type Manager struct {
	client     *ethclient.Client
	cfg        Config
	factoryABI abi.ABI
	setupABI   abi.ABI
	erc20ABI   abi.ABI
	logger     *slog.Logger
}

// New dials the RPC endpoint and parses the contract ABIs.
func New(cfg Config, logger *slog.Logger) (*Manager, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("wallet: dial %s: %w", cfg.RPCURL, err)
	}

	factoryABI, err := abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("wallet: parse factory ABI: %w", err)
	}
	setupABI, err := abi.JSON(strings.NewReader(safeSetupABIJSON))
	if err != nil {
		return nil, fmt.Errorf("wallet: parse setup ABI: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("wallet: parse erc20 ABI: %w", err)
	}

	return &Manager{
		client:     client,
		cfg:        cfg,
		factoryABI: factoryABI,
		setupABI:   setupABI,
		erc20ABI:   erc20ABI,
		logger:     logger.With("component", "wallet"),
	}, nil
}

// Close releases the RPC connection.
func (m *Manager) Close() {
	m.client.Close()
}

// CreateSafe deploys a 1-of-1 Safe owned by owner via the proxy factory
// and returns the proxy address. saltNonce makes the deployment address
// deterministic per (owner, nonce) pair.
func (m *Manager) CreateSafe(ctx context.Context, owner common.Address, saltNonce *big.Int) (common.Address, error) {
	deployerKey, err := ethcrypto.HexToECDSA(strings.TrimPrefix(m.cfg.DeployerKey, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: invalid deployer key: %w", err)
	}
	deployer := ethcrypto.PubkeyToAddress(deployerKey.PublicKey)

	setupData, err := m.setupABI.Pack("setup",
		[]common.Address{owner},
		big.NewInt(1),
		common.Address{},
		[]byte{},
		common.HexToAddress(m.cfg.FallbackHandler),
		common.Address{},
		big.NewInt(0),
		common.Address{},
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: pack setup: %w", err)
	}

	callData, err := m.factoryABI.Pack("createProxyWithNonce",
		common.HexToAddress(m.cfg.SafeMasterCopy),
		setupData,
		saltNonce,
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: pack createProxyWithNonce: %w", err)
	}

	nonce, err := m.client.PendingNonceAt(ctx, deployer)
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: pending nonce: %w", err)
	}
	gasPrice, err := m.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: suggest gas price: %w", err)
	}

	factory := common.HexToAddress(m.cfg.SafeFactory)
	gasLimit, err := m.client.EstimateGas(ctx, ethereumCallMsg(deployer, factory, callData))
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, factory, big.NewInt(0), gasLimit, gasPrice, callData)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(m.cfg.ChainID)), deployerKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: sign tx: %w", err)
	}

	if err := m.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Address{}, fmt.Errorf("wallet: send tx: %w", err)
	}

	m.logger.Info("safe deployment submitted",
		"owner", owner.Hex(),
		"tx", signedTx.Hash().Hex(),
	)

	receipt, err := bind.WaitMined(ctx, m.client, signedTx.Hash())
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet: wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, fmt.Errorf("wallet: deployment tx %s reverted", signedTx.Hash().Hex())
	}

	proxy, err := proxyFromReceipt(receipt)
	if err != nil {
		return common.Address{}, err
	}

	// Confirm the proxy has code before handing the address out.
	deployed, err := m.HasCode(ctx, proxy)
	if err != nil {
		return common.Address{}, err
	}
	if !deployed {
		return common.Address{}, fmt.Errorf("wallet: proxy %s has no code after deploy", proxy.Hex())
	}

	m.logger.Info("safe deployed", "owner", owner.Hex(), "safe", proxy.Hex())
	return proxy, nil
}

// USDCBalance returns the USDC balance of addr in whole dollars. USDC uses
// 6 decimals on Polygon.
func (m *Manager) USDCBalance(ctx context.Context, addr common.Address) (float64, error) {
	callData, err := m.erc20ABI.Pack("balanceOf", addr)
	if err != nil {
		return 0, fmt.Errorf("wallet: pack balanceOf: %w", err)
	}

	usdc := common.HexToAddress(m.cfg.USDCAddress)
	out, err := m.client.CallContract(ctx, ethereumCallMsg(common.Address{}, usdc, callData), nil)
	if err != nil {
		return 0, fmt.Errorf("wallet: balanceOf call: %w", err)
	}

	results, err := m.erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return 0, fmt.Errorf("wallet: unpack balanceOf: %w", err)
	}
	raw, ok := results[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("wallet: unexpected balanceOf result type %T", results[0])
	}

	units := new(big.Float).SetInt(raw)
	dollars, _ := new(big.Float).Quo(units, big.NewFloat(1e6)).Float64()
	return dollars, nil
}

// HasCode reports whether addr is a deployed contract.
func (m *Manager) HasCode(ctx context.Context, addr common.Address) (bool, error) {
	code, err := m.client.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("wallet: code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

func ethereumCallMsg(from, to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{From: from, To: &to, Data: data}
}

// proxyFromReceipt extracts the proxy address from the ProxyCreation log.
// The event is non-indexed, so the proxy address sits in the first 32-byte
// word of the log data.
func proxyFromReceipt(receipt *types.Receipt) (common.Address, error) {
	for _, log := range receipt.Logs {
		if len(log.Topics) > 0 && log.Topics[0] == proxyCreationTopic && len(log.Data) >= 32 {
			return common.BytesToAddress(log.Data[12:32]), nil
		}
	}
	return common.Address{}, fmt.Errorf("wallet: no ProxyCreation log in receipt")
}
