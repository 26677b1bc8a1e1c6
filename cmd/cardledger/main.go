package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/exp/slog"

	"github.com/alovak/cardledger/internal/devnet"
	"github.com/alovak/cardledger/ledger"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout))

	cfg := ledger.DefaultConfig()
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	access := ledger.NewStaticAccess()
	for _, caller := range strings.Split(os.Getenv("OPERATOR_CALLERS"), ",") {
		if caller = strings.TrimSpace(caller); caller != "" {
			access.Grant(ledger.Caller(caller), ledger.CapOperator)
		}
	}

	// Dev collaborators; production deployments swap in real adapters.
	native := devnet.NewTokenPool()
	token := devnet.NewTokenPool()

	app := ledger.NewApp(logger, cfg, ledger.Dependencies{
		Access: access,
		Native: native,
		Token:  token,
		Oracle: devnet.FixedOracle{Price: 2000_00000000, Decimals: 8},
		Swap:   devnet.NewConstantRateRouter(2000, 1),
	})

	if err := app.Start(); err != nil {
		logger.Error("starting app", "err", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	app.Shutdown()
}
