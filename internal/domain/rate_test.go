package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateRounds(t *testing.T) {
	r, err := NewRate("SendWave", "https://example.com", "Bank", NewQuoteWithFee(121.56912, 0.987))
	require.NoError(t, err)
	assert.Equal(t, 121.569, r.Rate)
	require.NotNil(t, r.Fee)
	assert.Equal(t, 0.99, *r.Fee)
}

func TestNewRateRejectsInvalid(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), 0.0001} {
		_, err := NewRate("X", "u", "Bank", NewQuote(v))
		assert.ErrorIs(t, err, ErrInvalidRate, "rate %v", v)
	}
}

func TestNewRateDropsBadFee(t *testing.T) {
	r, err := NewRate("X", "u", "Bank", NewQuoteWithFee(100, -2))
	require.NoError(t, err)
	assert.Nil(t, r.Fee)

	r, err = NewRate("X", "u", "Bank", NewQuoteWithFee(100, math.NaN()))
	require.NoError(t, err)
	assert.Nil(t, r.Fee)
}

func TestRateJSONAlwaysHasFee(t *testing.T) {
	r, err := NewRate("Wise", "https://wise.com", "Bank", NewQuote(122.2))
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 5)
	for _, k := range []string{"provider", "url", "rate", "delivery", "fee"} {
		assert.Contains(t, fields, k)
	}
	assert.Nil(t, fields["fee"])
}

func TestSortBucketStableDescending(t *testing.T) {
	rates := []Rate{
		{Provider: "A", Rate: 120},
		{Provider: "B", Rate: 122},
		{Provider: "C", Rate: 120},
		{Provider: "D", Rate: 121},
	}
	SortBucket(rates)

	got := make([]string, 0, len(rates))
	for _, r := range rates {
		got = append(got, r.Provider)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, got)
}

func TestSnapshotJSONContract(t *testing.T) {
	snap := NewSnapshot(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC))
	wise, _ := NewRate("Wise", "https://wise.com", "Bank", NewQuote(122.2))
	snap.Add("USD", wise)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"updated_at":"2026-03-01T10:30:00.000000+00:00"`)
	assert.Contains(t, text, `"target":"BDT"`)
	assert.Less(t, strings.Index(text, `"USD"`), strings.Index(text, `"JPY"`))
	assert.Contains(t, text, `"JPY":[]`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.UpdatedAt.Equal(snap.UpdatedAt))
	assert.Equal(t, 1, back.Count())
	assert.Equal(t, "Wise", back.Best("USD").Provider)
	assert.Nil(t, back.Best("JPY"))
}

func TestSnapshotRank(t *testing.T) {
	snap := NewSnapshot(time.Now())
	snap.Add("GBP", Rate{Provider: "low", Rate: 150})
	snap.Add("GBP", Rate{Provider: "high", Rate: 160})
	snap.Rank()
	assert.Equal(t, "high", snap.Rates["GBP"][0].Provider)
}

func TestPlausible(t *testing.T) {
	assert.True(t, Plausible("USD", 122))
	assert.False(t, Plausible("JPY", 78))
	assert.True(t, Plausible("JPY", 0.78))
	assert.True(t, Plausible("NZD", 5000))
}

func TestCurrencyCodesOrder(t *testing.T) {
	codes := CurrencyCodes()
	require.Len(t, codes, len(Currencies))
	assert.Equal(t, "USD", codes[0])
	assert.Equal(t, "JPY", codes[len(codes)-1])

	c, ok := LookupCurrency("KWD")
	assert.True(t, ok)
	assert.Equal(t, "Kuwaiti Dinar", c.Name)
}
