// Command cart is the shopper-side client: it owns a local cart that
// survives restarts and syncs with the API when signed in.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"glowloops/internal/config"
	"glowloops/internal/localstore"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: cart <command> [args]

commands:
  show                                   print the cart and its totals
  products                               list the catalog
  add [-qty N] [-color C] [-addon ID] <productId>
  update <lineId> <quantity>             quantity 0 removes the line
  remove <lineId>
  clear
  shipping <price>|none
  discount percentage|fixed <amount>     or: discount none
  signup <email> <password>
  login <email> <password>
  logout
  sync                                   push the cart to your account
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := newLogger(os.Getenv("CART_DEBUG") != "")
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := localstore.NewFileStorage(cfg.CartDir)
	if err != nil {
		logger.Fatal("open cart directory", zap.String("dir", cfg.CartDir), zap.Error(err))
	}

	a, err := newApp(ctx, cfg, storage, os.Stdout, logger)
	if err != nil {
		logger.Fatal("init cart", zap.Error(err))
	}
	defer a.Close()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "cart:", err)
		os.Exit(1)
	}
}

// newLogger writes warnings and above to stderr so command output stays clean.
func newLogger(debug bool) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("component", "cart"))
}
