// The simulator wires the whole engine together: it builds a small
// three-token world, provisions two pools, routes direct, multi-hop,
// and flash swaps against them on an accelerated clock, and reports
// TWAP readings. Prometheus metrics are served until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pairswap/pairswap-engine-go/factory"
	"github.com/pairswap/pairswap-engine-go/oracle"
	"github.com/pairswap/pairswap-engine-go/pool"
	"github.com/pairswap/pairswap-engine-go/router"
	"github.com/pairswap/pairswap-engine-go/statediff"
	"github.com/pairswap/pairswap-engine-go/token"
)

func main() {
	metricsAddr := flag.String("metrics-addr", ":9190", "address for the prometheus metrics endpoint")
	oraclePeriod := flag.Uint64("oracle-period", 600, "TWAP window length in simulated seconds")
	flag.Parse()

	rootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	registry := prometheus.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, rootLogger, registry, *metricsAddr, *oraclePeriod); err != nil {
		rootLogger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, registry *prometheus.Registry, metricsAddr string, oraclePeriod uint64) error {
	// Simulated time, advanced explicitly so accumulators integrate
	// deterministic intervals.
	now := uint64(time.Now().Unix())
	clock := func() uint64 { return now }

	alpha := token.NewToken("ALPHA")
	beta := token.NewToken("BETA")
	gamma := token.NewToken("GAMMA")

	assetAlpha := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	assetBeta := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	assetGamma := common.HexToAddress("0x00000000000000000000000000000000000000cc")

	ledgers := map[common.Address]*token.Token{
		assetAlpha: alpha,
		assetBeta:  beta,
		assetGamma: gamma,
	}
	resolver := func(asset common.Address) (token.Ledger, error) {
		l, ok := ledgers[asset]
		if !ok {
			return nil, factory.ErrZeroAsset
		}
		return l, nil
	}
	callbacks := make(map[common.Address]pool.SettlementCallback)

	f, err := factory.New(factory.Config{
		Ledgers: resolver,
		Callbacks: func(recipient common.Address) (pool.SettlementCallback, bool) {
			cb, ok := callbacks[recipient]
			return cb, ok
		},
		Clock:    clock,
		Logger:   logger.With("component", "factory"),
		Registry: registry,
		Events: func(ev pool.Event) {
			logger.Debug("pool event", "pool", ev.Pool())
		},
	})
	if err != nil {
		return err
	}
	r, err := router.New(router.Config{
		Factory:  f,
		Ledgers:  resolver,
		Logger:   logger.With("component", "router"),
		Registry: registry,
	})
	if err != nil {
		return err
	}

	trader := common.HexToAddress("0x0000000000000000000000000000000000000e0e")
	million := uint256.NewInt(1_000_000_000)
	alpha.Mint(trader, million)
	beta.Mint(trader, million)
	gamma.Mint(trader, million)

	// Provision ALPHA/BETA and BETA/GAMMA.
	for _, pair := range [][2]common.Address{{assetAlpha, assetBeta}, {assetBeta, assetGamma}} {
		deposit := uint256.NewInt(100_000_000)
		if _, _, _, err := r.AddLiquidity(pair[0], pair[1], deposit, deposit,
			new(uint256.Int), new(uint256.Int), trader, trader); err != nil {
			return err
		}
	}
	logger.Info("pools provisioned", "pools", f.Len())

	observer, err := oracle.New(oracle.Config{
		Pool:   f.GetPool(assetAlpha, assetBeta),
		Period: oraclePeriod,
		Clock:  clock,
	})
	if err != nil {
		return err
	}

	differ, err := statediff.NewDiffer(statediff.Config{
		Registry: registry,
		Logger:   logger.With("component", "statediff"),
	})
	if err != nil {
		return err
	}
	base := statediff.Capture(f, now)

	// Trade on an accelerated clock: one direct and one multi-hop swap
	// per simulated minute across the window.
	path := []common.Address{assetAlpha, assetBeta, assetGamma}
	for i := uint64(0); i < oraclePeriod/60; i++ {
		now += 60
		amountIn := uint256.NewInt(500_000)
		if _, err := r.SwapExactTokensForTokens(amountIn, new(uint256.Int),
			[]common.Address{assetAlpha, assetBeta}, trader, trader); err != nil {
			return err
		}
		if _, err := r.SwapExactTokensForTokens(amountIn, new(uint256.Int), path, trader, trader); err != nil {
			return err
		}
	}

	// One flash swap: borrow ALPHA against no upfront input and repay
	// it plus the fee inside the settlement callback.
	now += 60
	borrower := &flashBorrower{
		addr:   common.HexToAddress("0x0000000000000000000000000000000000000f1a"),
		ledger: alpha,
	}
	callbacks[borrower.addr] = borrower
	alpha.Mint(borrower.addr, uint256.NewInt(1_000_000))
	ab := f.GetPool(assetAlpha, assetBeta)
	borrower.pool = ab
	if err := flashBorrowAlpha(ab, borrower, uint256.NewInt(100_000)); err != nil {
		return err
	}
	logger.Info("flash swap settled", "borrower", borrower.addr)

	if err := observer.Update(); err != nil {
		return err
	}
	twap, err := observer.Consult(assetAlpha, uint256.NewInt(1_000_000))
	if err != nil {
		return err
	}
	logger.Info("TWAP reading", "alpha_in", 1_000_000, "beta_out", twap.Dec())

	head := statediff.Capture(f, now)
	diff, err := differ.Diff(base, head)
	if err != nil {
		return err
	}
	logger.Info("state advanced", "pools_changed", len(diff.Changed), "pools_added", len(diff.Added))

	server := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	return serveMetrics(ctx, logger, server, metricsAddr)
}

// flashBorrower settles a borrowed amount plus the 0.3% fee out of its
// own balance when the pool calls back.
type flashBorrower struct {
	addr   common.Address
	ledger *token.Token
	pool   *pool.Pool
}

func (b *flashBorrower) AmountsReceived(_ common.Address, amount0Out, amount1Out *uint256.Int, _ []byte) error {
	borrowed := amount0Out
	if borrowed.IsZero() {
		borrowed = amount1Out
	}
	// repay = borrowed * 1000/997, rounded up past the fee.
	repay := new(uint256.Int).Mul(borrowed, uint256.NewInt(1000))
	repay.Div(repay, uint256.NewInt(997))
	repay.AddUint64(repay, 1)
	return b.ledger.Transfer(b.addr, b.pool.Address(), repay)
}

// flashBorrowAlpha borrows token0 from the pool with a data-carrying
// swap, triggering the borrower's settlement callback.
func flashBorrowAlpha(p *pool.Pool, b *flashBorrower, amount *uint256.Int) error {
	return p.Swap(amount, new(uint256.Int), b.addr, []byte("settle"), b.addr)
}

func serveMetrics(ctx context.Context, logger *slog.Logger, server *http.Server, metricsAddr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	logger.Info("serving metrics", "addr", metricsAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
