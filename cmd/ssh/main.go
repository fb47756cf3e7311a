// Command ssh serves the rates viewer to anyone who connects over SSH.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"

	"github.com/ikaadil/any-currency-to-bdt/internal/cache"
	"github.com/ikaadil/any-currency-to-bdt/internal/config"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
	"github.com/ikaadil/any-currency-to-bdt/internal/service"
	"github.com/ikaadil/any-currency-to-bdt/internal/tui"
	"github.com/ikaadil/any-currency-to-bdt/pkg/tracing"
)

const serviceName = "any-currency-to-bdt-ssh"

var (
	loadConfigFunc    = config.Load
	initLoggerFunc    = logger.Initialize
	initTracerFunc    = tracing.InitTracer
	connectRedisFunc  = cache.Connect
	newWishServerFunc = wish.NewServer
	setupSignalNotify = signal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
	})
	if err != nil {
		logger.Log.Fatalw("failed to initialize tracer", "error", err)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Log.Warnw("error shutting down tracer provider", "error", err)
		}
	}()

	var source service.SnapshotSource
	if cfg.RedisURL != "" {
		client, err := connectRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Warnw("redis unavailable, serving from file", "error", err)
		} else {
			source = cache.NewSnapshotStore(client)
			defer client.Close()
		}
	}
	reader := service.NewSnapshotReader(tracer, source, filepath.Join(cfg.OutputDir, cfg.JSONFile))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		authOption(cfg.SSHAuthorizedKeys),
		wish.WithMiddleware(
			bubbletea.Middleware(teaHandler(reader.Latest)),
			logging.Middleware(),
		),
	)
	if err != nil {
		logger.Log.Fatalw("failed to create SSH server", "error", err)
	}

	if srv != nil {
		go func() {
			logger.Log.Infow("ssh server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				logger.Log.Errorw("ssh server stopped", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Log.Info("shutting down ssh server")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorw("ssh server shutdown error", "error", err)
		}
	}
	logger.Log.Info("ssh server exited")
}

// authOption restricts logins to an authorized_keys file when one is
// configured. Otherwise any public key may open the read-only viewer.
func authOption(authorizedKeys string) ssh.Option {
	if authorizedKeys != "" {
		return wish.WithAuthorizedKeys(authorizedKeys)
	}
	return wish.WithPublicKeyAuth(acceptAnyKey)
}

func acceptAnyKey(ctx ssh.Context, key ssh.PublicKey) bool {
	logger.Log.Infow("ssh session accepted", "user", ctx.User(), "fingerprint", gossh.FingerprintSHA256(key))
	return true
}

func teaHandler(load tui.Loader) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		m := tui.New(load)
		if pty, _, ok := s.Pty(); ok {
			m.SetSize(pty.Window.Width, pty.Window.Height)
		}
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
