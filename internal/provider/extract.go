package provider

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// bdtAmountRe finds "122.45 BDT"-style amounts anywhere on a page.
var bdtAmountRe = regexp.MustCompile(`(\d{2,4}\.\d{1,6})\s*BDT`)

type band struct{ low, high float64 }

// contains is exclusive on both ends.
func (b band) contains(v float64) bool { return v > b.low && v < b.high }

var (
	wideBand = band{5, 1000}
	yenBand  = band{0.1, 2}
	usdBand  = band{50, 200}
)

func bdtAmounts(text string) []float64 {
	var out []float64
	for _, m := range bdtAmountRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseNumber(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

func minIn(values []float64, b band) (float64, bool) {
	best, found := 0.0, false
	for _, v := range values {
		if b.contains(v) && (!found || v < best) {
			best, found = v, true
		}
	}
	return best, found
}

// remitlyRate takes the largest BDT amount on the page, which is the
// promotional or standard per-unit rate.
func remitlyRate(text string) (float64, bool) {
	best, found := 0.0, false
	for _, v := range bdtAmounts(text) {
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// xeRate reads "1.00 EUR = 144.26 BDT". Some pages render the equals sign as "\=".
func xeRate(text, code string) (float64, bool) {
	q := regexp.QuoteMeta(code)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`1\.0+\s+` + q + `\s*\\?=\s*([\d.,]+)\s*BDT`),
		regexp.MustCompile(`1\s+` + q + `\s*\\?=\s*([\d.,]+)\s*BDT`),
	}
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		rate, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		if code == "JPY" {
			if yenBand.contains(rate) {
				return rate, true
			}
		} else if wideBand.contains(rate) {
			return rate, true
		}
	}
	return 0, false
}

// orbitRemitRate tries, in order: an explicit "1 AUD = N BDT" line, the
// conversion table ("5 AUD 434.76 BDT") divided back to one unit, and finally
// the smallest plausible BDT amount on the page.
func orbitRemitRate(text, code string) (float64, bool) {
	q := regexp.QuoteMeta(code)

	if m := regexp.MustCompile(`(?i)1\s+` + q + `\s*=\s*([\d,.]+)\s*BDT`).FindStringSubmatch(text); m != nil {
		if rate, ok := parseNumber(m[1]); ok {
			if usdBand.contains(rate) || (code == "NZD" && yenBand.contains(rate)) {
				return rate, true
			}
		}
	}

	for _, amount := range []struct {
		text  string
		value float64
	}{{"5", 5}, {"10", 10}, {"1", 1}} {
		re := regexp.MustCompile(`(?i)` + amount.text + `\s+` + q + `\s+([\d,.]+)\s*BDT`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		bdt, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		rate := bdt / amount.value
		if code == "AUD" && (band{80, 95}).contains(rate) {
			return rate, true
		}
		if code == "NZD" && (band{50, 100}).contains(rate) {
			return rate, true
		}
	}

	amounts := bdtAmounts(text)
	if code == "AUD" {
		if v, ok := minIn(amounts, band{80, 95}); ok {
			return v, true
		}
	}
	return minIn(amounts, usdBand)
}

var paysendFeeRe = regexp.MustCompile(`Fee:\s*([\d.]+)\s*(?:USD|EUR|GBP|CAD|AUD)`)

// paysendQuote reads "1.00 USD = 121.5 BDT" and an optional "Fee: 1.99 USD".
func paysendQuote(text, code string) (rate float64, fee *float64, ok bool) {
	re := regexp.MustCompile(`1\.00\s+` + regexp.QuoteMeta(code) + `\s*=\s*([\d.]+)\s*BDT`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, nil, false
	}
	rate, ok = parseNumber(m[1])
	if !ok {
		return 0, nil, false
	}
	if fm := paysendFeeRe.FindStringSubmatch(text); fm != nil {
		if f, fok := parseNumber(fm[1]); fok {
			fee = &f
		}
	}
	return rate, fee, true
}

func westernUnionPattern(code string) *regexp.Regexp {
	return regexp.MustCompile(`FX:\s*1\.00\s*` + regexp.QuoteMeta(code) + `\s*[–-]\s*([\d,]+\.\d+)\s*BDT`)
}

func worldRemitPattern(code string) *regexp.Regexp {
	return regexp.MustCompile(`1\s*` + regexp.QuoteMeta(code) + `\s*=\s*([\d,]+\.\d+)\s*BDT`)
}

// xoomPattern captures the geo-detected source currency and its rate.
var xoomPattern = regexp.MustCompile(`1\s+([A-Z]{3})\s*=\s*([\d,]+\.\d+)\s*BDT`)

var (
	riaResultRe = regexp.MustCompile(`1\.0+\s*=\s*([\d.]+)`)
	riaEqualsRe = regexp.MustCompile(`=\s*(\d{2,4}\.\d{1,6})\s`)
)

// riaRate prefers the converter result ("1.00000 = 121.95"), then the first
// "= N" that looks like a rate, then the smallest plausible BDT amount.
func riaRate(text, code string) (float64, bool) {
	plausible := func(v float64) bool {
		return wideBand.contains(v) || (code == "JPY" && yenBand.contains(v))
	}
	for _, re := range []*regexp.Regexp{riaResultRe, riaEqualsRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := parseNumber(m[1]); ok && plausible(v) {
				return v, true
			}
		}
	}

	best, found := 0.0, false
	for _, v := range bdtAmounts(text) {
		if plausible(v) && (!found || v < best) {
			best, found = v, true
		}
	}
	return best, found
}

var nsaveRateRe = regexp.MustCompile(`(?i)1\s*USD\s*[=:]\s*([\d,.]+)\s*BDT`)

func nsaveRate(text string) (float64, bool) {
	if m := nsaveRateRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseNumber(m[1]); ok && usdBand.contains(v) {
			return v, true
		}
	}
	return minIn(bdtAmounts(text), usdBand)
}

var (
	nextDataRe    = regexp.MustCompile(`<script id="__NEXT_DATA__"[^>]*>([^<]+)</script>`)
	numericTextRe = regexp.MustCompile(`^\d+\.?\d*$`)
)

// moneyGramRate digs the USD rate out of the Next.js page payload, falling
// back to the smallest plausible BDT amount in the visible text.
func moneyGramRate(html, text string) (float64, bool) {
	if m := nextDataRe.FindStringSubmatch(html); m != nil {
		if v, ok := findRateInJSON(m[1], usdBand); ok {
			return v, true
		}
	}
	return minIn(bdtAmounts(text), usdBand)
}

var errRateFound = errors.New("rate found")

// findRateInJSON walks a JSON document depth-first in source order and
// returns the first number, or numeric string, that falls in b.
func findRateInJSON(doc string, b band) (float64, bool) {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	var found float64

	var walk func() error
	walk = func() error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				for dec.More() {
					if _, err := dec.Token(); err != nil {
						return err
					}
					if err := walk(); err != nil {
						return err
					}
				}
				_, err = dec.Token()
				return err
			case '[':
				for dec.More() {
					if err := walk(); err != nil {
						return err
					}
				}
				_, err = dec.Token()
				return err
			}
		case json.Number:
			if v, err := t.Float64(); err == nil && b.contains(v) {
				found = v
				return errRateFound
			}
		case string:
			if numericTextRe.MatchString(t) {
				if v, ok := parseNumber(t); ok && b.contains(v) {
					found = v
					return errRateFound
				}
			}
		}
		return nil
	}

	return found, errors.Is(walk(), errRateFound)
}
