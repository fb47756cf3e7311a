package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

var (
	// ErrUnsupported means the provider does not serve the requested source currency.
	ErrUnsupported = errors.New("currency not supported by provider")
	// ErrNoRate means the provider answered but no usable rate could be extracted.
	ErrNoRate = errors.New("no rate found")
)

// Kind says which fetching engine a provider needs.
type Kind int

const (
	KindHTTP Kind = iota
	KindBrowser
	KindStealth
)

func (k Kind) String() string {
	switch k {
	case KindBrowser:
		return "browser"
	case KindStealth:
		return "stealth"
	default:
		return "http"
	}
}

// Info is the static description of a provider.
type Info struct {
	Name     string
	URL      string
	Delivery string
	Kind     Kind
}

// Provider extracts one BDT rate for one source currency.
// Any error means "no data" for that pair.
type Provider interface {
	Info() Info
	DisplayURL(code string) string
	FetchRate(ctx context.Context, code string) (domain.Quote, error)
}

// NeedsBrowser reports whether p depends on the shared browser pool.
func NeedsBrowser(p Provider) bool {
	return p.Info().Kind == KindBrowser
}

func lowerCode(code string) string {
	return strings.ToLower(code)
}
