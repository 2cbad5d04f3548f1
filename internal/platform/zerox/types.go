package zerox

import (
	"encoding/json"
	"math/big"
	"strconv"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// flexFloat unmarshals from a JSON number or numeric string so source
// proportions work whether the API sends "0.5" or 0.5.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// flexUint64 unmarshals from a JSON number or numeric string; older API
// versions send estimatedGas as a string.
type flexUint64 uint64

func (f *flexUint64) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexUint64(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexUint64(n)
	return nil
}

// apiSource is one liquidity source in a swap quote.
type apiSource struct {
	Name       string    `json:"name"`
	Proportion flexFloat `json:"proportion"`
}

// quoteResponse is the subset of the 0x /swap/v1/quote response this
// service consumes.
type quoteResponse struct {
	Price              string      `json:"price"`
	SellAmount         string      `json:"sellAmount"`
	BuyAmount          string      `json:"buyAmount"`
	EstimatedGas       flexUint64  `json:"estimatedGas"`
	GasPrice           string      `json:"gasPrice"`
	Sources            []apiSource `json:"sources"`
	ProtocolFee        string      `json:"protocolFee"`
	MinimumProtocolFee string      `json:"minimumProtocolFee"`
}

// toDomainQuote converts the wire response into a domain Quote. Amounts
// must parse as base-10 integers; a quote with unparseable amounts is a
// source failure, not a zero.
func (r *quoteResponse) toDomainQuote(chainID int64, tokenIn, tokenOut domain.Token, now time.Time) (domain.Quote, error) {
	amountIn, ok := new(big.Int).SetString(r.SellAmount, 10)
	if !ok {
		return domain.Quote{}, errMalformedAmount("sellAmount", r.SellAmount)
	}
	amountOut, ok := new(big.Int).SetString(r.BuyAmount, 10)
	if !ok {
		return domain.Quote{}, errMalformedAmount("buyAmount", r.BuyAmount)
	}

	sources := make([]domain.LiquiditySource, 0, len(r.Sources))
	active := 0
	for _, s := range r.Sources {
		sources = append(sources, domain.LiquiditySource{
			Name:       s.Name,
			Proportion: float64(s.Proportion),
		})
		if s.Proportion > 0 {
			active++
		}
	}

	kind := domain.QuoteKindDirect
	if active > 1 {
		kind = domain.QuoteKindAggregator
	}

	rawPrice, _ := strconv.ParseFloat(r.Price, 64)

	return domain.Quote{
		ChainID:   chainID,
		Kind:      kind,
		Sources:   sources,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		RawPrice:  rawPrice,
		GasUnits:  uint64(r.EstimatedGas),
		FetchedAt: now,
	}, nil
}
