// Package evmrpc implements the per-chain gas source on top of JSON-RPC
// endpoints via go-ethereum's ethclient.
package evmrpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// defaultTipWei is used when a node does not answer
// eth_maxPriorityFeePerGas; 1 gwei is the long-standing network floor.
var defaultTipWei = big.NewInt(params.GWei)

// Client reads current gas prices for every configured chain. Connections
// are long-lived and safe for concurrent use across detection runs.
type Client struct {
	chains  map[int64]domain.ChainConfig
	clients map[int64]*ethclient.Client
}

var _ domain.GasSource = (*Client)(nil)

// New dials every configured chain RPC endpoint. HTTP connections are
// established lazily, so a bad endpoint surfaces on first use rather than
// here; a malformed URL fails immediately.
func New(chains map[int64]domain.ChainConfig) (*Client, error) {
	clients := make(map[int64]*ethclient.Client, len(chains))
	for id, chain := range chains {
		ec, err := ethclient.Dial(chain.RPCURL)
		if err != nil {
			for _, c := range clients {
				c.Close()
			}
			return nil, fmt.Errorf("evmrpc: dial chain %d: %w", id, err)
		}
		clients[id] = ec
	}
	return &Client{chains: chains, clients: clients}, nil
}

// GasPrice returns the current GasEstimate for a chain under its configured
// gas model. Prices stay in wei; no unit conversion happens here.
func (c *Client) GasPrice(ctx context.Context, chainID int64) (domain.GasEstimate, error) {
	chain, ok := c.chains[chainID]
	if !ok {
		return domain.GasEstimate{}, fmt.Errorf("evmrpc: %w: chain %d not configured", domain.ErrGasSource, chainID)
	}
	ec := c.clients[chainID]

	var (
		priceWei *big.Int
		tipWei   *big.Int
		model    = chain.GasModel
		err      error
	)

	switch chain.GasModel {
	case domain.GasModelDynamic:
		priceWei, tipWei, err = c.dynamicPrice(ctx, ec)
		if errors.Is(err, errNoBaseFee) {
			// Chain reports no base fee; fall back to the legacy model.
			model = domain.GasModelLegacy
			priceWei, err = ec.SuggestGasPrice(ctx)
			tipWei = nil
		}
	default:
		priceWei, err = ec.SuggestGasPrice(ctx)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.GasEstimate{}, fmt.Errorf("evmrpc: gas price chain %d: %w", chainID, err)
		}
		return domain.GasEstimate{}, fmt.Errorf("evmrpc: gas price chain %d: %w: %v", chainID, domain.ErrGasSource, err)
	}

	return domain.GasEstimate{
		ChainID:     chainID,
		Model:       model,
		GasPriceWei: priceWei,
		TipWei:      tipWei,
		GasUnits:    chain.BaseSwapGas,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

var errNoBaseFee = errors.New("no base fee in latest header")

// dynamicPrice reads the latest block's base fee and the node's priority
// fee suggestion, returning their sum as the effective price.
func (c *Client) dynamicPrice(ctx context.Context, ec *ethclient.Client) (price, tip *big.Int, err error) {
	header, err := ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if header.BaseFee == nil {
		return nil, nil, errNoBaseFee
	}

	tip, err = ec.SuggestGasTipCap(ctx)
	if err != nil {
		// Not every node implements the tip endpoint.
		tip = new(big.Int).Set(defaultTipWei)
	}

	return EffectiveGasPrice(header.BaseFee, tip), tip, nil
}

// EffectiveGasPrice combines a base fee and a priority fee into the price
// actually paid per gas unit.
func EffectiveGasPrice(baseFee, tip *big.Int) *big.Int {
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	if tip == nil {
		tip = new(big.Int)
	}
	return new(big.Int).Add(baseFee, tip)
}

// Chains returns the configured chain set, keyed by ID.
func (c *Client) Chains() map[int64]domain.ChainConfig {
	return c.chains
}

// Close releases every RPC connection.
func (c *Client) Close() {
	for _, ec := range c.clients {
		ec.Close()
	}
}
