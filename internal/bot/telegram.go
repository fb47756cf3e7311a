package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
)

const topN = 5

type SnapshotReader interface {
	Latest(ctx context.Context) (*domain.Snapshot, error)
}

type Bot struct {
	snapshots SnapshotReader
	timeout   time.Duration
}

func New(snapshots SnapshotReader) *Bot {
	return &Bot{snapshots: snapshots, timeout: 5 * time.Second}
}

// Start launches the long-poller in the background and stops it when ctx
// is done. An empty token leaves the bot off.
func (b *Bot) Start(ctx context.Context, token string) error {
	if token == "" {
		logger.Log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return fmt.Errorf("create Telegram bot: %w", err)
	}

	tb.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	tb.Handle("/rate", func(c tele.Context) error {
		return c.Send(b.rateReply(ctx, c.Args()), tele.ModeMarkdown, tele.NoPreview)
	})
	tb.Handle("/best", func(c tele.Context) error {
		return c.Send(b.bestReply(ctx), tele.ModeMarkdown, tele.NoPreview)
	})

	go tb.Start()
	go func() {
		<-ctx.Done()
		tb.Stop()
	}()
	logger.Log.Info("Telegram bot started")
	return nil
}

func (b *Bot) latest(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.snapshots.Latest(ctx)
}

func (b *Bot) rateReply(ctx context.Context, args []string) string {
	supported := strings.Join(domain.CurrencyCodes(), ", ")
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /rate USD\nSupported: %s", supported)
	}
	code := strings.ToUpper(args[0])
	currency, ok := domain.LookupCurrency(code)
	if !ok {
		return fmt.Sprintf("Unknown currency: %s\nSupported: %s", code, supported)
	}

	snap, err := b.latest(ctx)
	if err != nil {
		return fmt.Sprintf("Rates are unavailable right now: %v", err)
	}

	rates := snap.Rates[code]
	if len(rates) == 0 {
		return fmt.Sprintf("%s %s to BDT\nNo rates available.", currency.Flag, code)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s to BDT*\n", currency.Flag, code)
	for i, r := range rates {
		if i == topN {
			break
		}
		fmt.Fprintf(&sb, "%d. %s: %.3f", i+1, r.Provider, r.Rate)
		if r.Fee != nil {
			fmt.Fprintf(&sb, " (fee %.2f %s)", *r.Fee, code)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "_Updated %s_", snap.UpdatedAt.Format("2006-01-02 15:04 UTC"))
	return sb.String()
}

func (b *Bot) bestReply(ctx context.Context) string {
	snap, err := b.latest(ctx)
	if err != nil {
		return fmt.Sprintf("Rates are unavailable right now: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("*Best rate to BDT*\n")
	for _, c := range domain.Currencies {
		best := snap.Best(c.Code)
		if best == nil {
			fmt.Fprintf(&sb, "%s %s: n/a\n", c.Flag, c.Code)
			continue
		}
		fmt.Fprintf(&sb, "%s %s: %.3f (%s)\n", c.Flag, c.Code, best.Rate, best.Provider)
	}
	fmt.Fprintf(&sb, "_Updated %s_", snap.UpdatedAt.Format("2006-01-02 15:04 UTC"))
	return sb.String()
}
