// Package report renders a snapshot as the human-readable README.
package report

import (
	"fmt"
	"strings"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

const updatedLayout = "2006-01-02 15:04 UTC"

// Options controls the prose around the tables.
type Options struct {
	// Providers are the display names in discovery order.
	Providers []string
	// DataFile is the JSON file linked from the report. Defaults to rates.json.
	DataFile string
}

// Build renders snap as Markdown. Output depends only on its inputs.
func Build(snap *domain.Snapshot, opts Options) string {
	if opts.DataFile == "" {
		opts.DataFile = "rates.json"
	}
	updated := snap.UpdatedAt.UTC().Format(updatedLayout)

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Best remittance rate to Bangladesh?")
	line("")
	line("%s", headline(opts.Providers))
	line("")
	line("**Last updated:** `%s`", updated)
	line("")
	line("## Why this exists")
	line("")
	line("Sending money to Bangladesh? Provider sites show one rate at a time."+
		" This repo **scrapes %d providers** (%s) and **ranks them by rate**"+
		" for each currency, so you can pick the best deal in seconds."+
		" Use the tables below or grab [`%s`](%s) for your own app.",
		len(opts.Providers), strings.Join(opts.Providers, ", "), opts.DataFile, opts.DataFile)
	line("")
	line("## Rates")
	line("")

	for _, c := range domain.Currencies {
		writeBucket(&b, c.Code, snap.Rates[c.Code])
	}

	line("## Data")
	line("")
	line("Raw rate data is available in [`%s`](%s) for programmatic use:", opts.DataFile, opts.DataFile)
	line("")
	line("```json")
	line("{")
	line(`  "updated_at": "%s",`, snap.UpdatedAt.UTC().Format(domain.TimestampLayout))
	line(`  "target": "%s",`, domain.Target)
	line(`  "rates": {`)
	line(`    "USD": [`)
	line(`      { "provider": "Wise", "rate": 122.200, "fee": null, ... },`)
	line(`      { "provider": "SendWave", "rate": 121.569, "fee": 0.99, ... }`)
	line("    ],")
	line("    ...")
	line("  }")
	line("}")
	line("```")
	line("")
	line("## Disclaimer")
	line("")
	line("This project is independent and not affiliated with any" +
		" remittance provider. Rates and fees are scraped from publicly" +
		" accessible pages and may not reflect actual transfer rates" +
		" or fees. Always confirm on the provider's website before" +
		" sending money.")
	line("")
	line("---")
	line("")
	line("*Auto-generated on %s*", updated)

	return b.String()
}

// featured providers lead the headline, in this order, when present.
var featured = []string{"Wise", "Remitly", "Ria", "Western Union"}

// headline names four providers, featured ones first, and counts the rest.
func headline(names []string) string {
	const shown = 4
	if len(names) == 0 {
		return "I compare remittance providers and update it hourly."
	}
	names = leadWithFeatured(names)
	if len(names) <= shown {
		return fmt.Sprintf("I compared %s and update it hourly.", strings.Join(names, ", "))
	}
	return fmt.Sprintf("I compared %s + %d more and update it hourly.",
		strings.Join(names[:shown], ", "), len(names)-shown)
}

func leadWithFeatured(names []string) []string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	out := make([]string, 0, len(names))
	lead := make(map[string]bool, len(featured))
	for _, f := range featured {
		if present[f] {
			out = append(out, f)
			lead[f] = true
		}
	}
	for _, n := range names {
		if !lead[n] {
			out = append(out, n)
		}
	}
	return out
}

func writeBucket(b *strings.Builder, code string, rates []domain.Rate) {
	fmt.Fprintf(b, "### %s to %s\n\n", code, domain.Target)
	if len(rates) == 0 {
		b.WriteString("No rates available.\n\n")
		return
	}

	best := rates[0].Rate
	withFee := false
	for _, r := range rates {
		if r.HasFee() {
			withFee = true
			break
		}
	}

	if withFee {
		fmt.Fprintf(b, "| # | Provider | 1 %s = BDT | Fee | Delivery |\n", code)
		b.WriteString("|--:|----------|---------------:|-----:|----------|\n")
	} else {
		fmt.Fprintf(b, "| # | Provider | 1 %s = BDT | Delivery |\n", code)
		b.WriteString("|--:|----------|---------------:|----------|\n")
	}

	for i, r := range rates {
		rank := fmt.Sprintf("%d", i+1)
		rate := fmt.Sprintf("%.3f", r.Rate)
		if r.Rate == best {
			rank = "**" + rank + "**"
			rate = "**" + rate + "**"
		}
		name := fmt.Sprintf("[%s](%s)", r.Provider, r.URL)

		if withFee {
			fee := "—"
			if r.Fee != nil {
				fee = fmt.Sprintf("%.2f %s", *r.Fee, code)
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", rank, name, rate, fee, r.Delivery)
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", rank, name, rate, r.Delivery)
	}
	b.WriteByte('\n')
}
