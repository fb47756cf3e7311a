package domain

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned by NewRate when the quoted rate is not a positive finite number.
var ErrInvalidRate = errors.New("rate must be a positive finite number")

// Quote is the raw result of one provider extraction: BDT per unit and an optional fee.
type Quote struct {
	Rate float64
	Fee  *float64
}

// NewQuote builds a quote without a fee.
func NewQuote(rate float64) Quote {
	return Quote{Rate: rate}
}

// NewQuoteWithFee builds a quote carrying a fee in source-currency units.
func NewQuoteWithFee(rate, fee float64) Quote {
	return Quote{Rate: rate, Fee: &fee}
}

// Rate is one provider's normalized offer for one source currency.
type Rate struct {
	Provider string   `json:"provider"`
	URL      string   `json:"url"`
	Rate     float64  `json:"rate"`
	Delivery string   `json:"delivery"`
	Fee      *float64 `json:"fee"`
}

// NewRate normalizes a quote into a Rate record. The rate is rounded to 3
// decimals and the fee to 2. Negative or non-finite fees are dropped.
func NewRate(provider, url, delivery string, q Quote) (Rate, error) {
	if math.IsNaN(q.Rate) || math.IsInf(q.Rate, 0) || q.Rate <= 0 {
		return Rate{}, ErrInvalidRate
	}
	r := Rate{
		Provider: provider,
		URL:      url,
		Rate:     round(q.Rate, 3),
		Delivery: delivery,
	}
	if r.Rate <= 0 {
		return Rate{}, ErrInvalidRate
	}
	if q.Fee != nil && !math.IsNaN(*q.Fee) && !math.IsInf(*q.Fee, 0) && *q.Fee >= 0 {
		fee := round(*q.Fee, 2)
		r.Fee = &fee
	}
	return r, nil
}

// HasFee reports whether the provider disclosed a fee.
func (r Rate) HasFee() bool {
	return r.Fee != nil
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// SortBucket orders records best deal first. Ties keep discovery order.
func SortBucket(rates []Rate) {
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Rate > rates[j].Rate
	})
}
