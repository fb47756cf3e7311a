package domain

// Target is the receive currency every tracked rate is quoted in.
const Target = "BDT"

// Currency describes one tracked source currency.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Flag   string `json:"flag"`
	Name   string `json:"name"`
}

// Currencies is the ordered set of source currencies attempted on every run.
// Adding a currency here (and to a provider's corridor map) is all it takes.
var Currencies = []Currency{
	{Code: "USD", Symbol: "$", Flag: "🇺🇸", Name: "US Dollar"},
	{Code: "GBP", Symbol: "£", Flag: "🇬🇧", Name: "British Pound"},
	{Code: "EUR", Symbol: "€", Flag: "🇪🇺", Name: "Euro"},
	{Code: "CAD", Symbol: "C$", Flag: "🇨🇦", Name: "Canadian Dollar"},
	{Code: "AUD", Symbol: "A$", Flag: "🇦🇺", Name: "Australian Dollar"},
	{Code: "SGD", Symbol: "S$", Flag: "🇸🇬", Name: "Singapore Dollar"},
	{Code: "AED", Symbol: "د.إ", Flag: "🇦🇪", Name: "UAE Dirham"},
	{Code: "MYR", Symbol: "RM", Flag: "🇲🇾", Name: "Malaysian Ringgit"},
	{Code: "SAR", Symbol: "﷼", Flag: "🇸🇦", Name: "Saudi Riyal"},
	{Code: "KWD", Symbol: "د.ك", Flag: "🇰🇼", Name: "Kuwaiti Dinar"},
	{Code: "QAR", Symbol: "﷼", Flag: "🇶🇦", Name: "Qatari Riyal"},
	{Code: "JPY", Symbol: "¥", Flag: "🇯🇵", Name: "Japanese Yen"},
}

// CurrencyCodes returns the tracked codes in display order.
func CurrencyCodes() []string {
	codes := make([]string, 0, len(Currencies))
	for _, c := range Currencies {
		codes = append(codes, c.Code)
	}
	return codes
}

// LookupCurrency finds a tracked currency by code.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Band is an inclusive sane range of BDT per one unit of a source currency.
type Band struct {
	Low  float64
	High float64
}

// PlausibleRanges are loose market bands per tracked currency. A record outside
// its band almost always means a provider's page layout changed and the parser
// picked up the wrong number.
//
// These are business assumptions, not facts: if BDT moves far enough a valid
// quote will land outside them.
var PlausibleRanges = map[string]Band{
	"USD": {80, 150},
	"GBP": {140, 200},
	"EUR": {120, 170},
	"CAD": {75, 110},
	"AUD": {75, 110},
	"SGD": {85, 110},
	"AED": {25, 45},
	"MYR": {25, 40},
	"SAR": {28, 45},
	"KWD": {350, 450},
	"QAR": {28, 45},
	"JPY": {0.5, 2.0},
}

// Plausible reports whether rate sits inside the documented band for code.
// Currencies without a band are always plausible.
func Plausible(code string, rate float64) bool {
	band, ok := PlausibleRanges[code]
	if !ok {
		return true
	}
	return rate >= band.Low && rate <= band.High
}
