// Package factory is the pool registry: it creates and resolves pools
// for canonicalized asset pairs and derives pool identities
// deterministically, so routers can compute a hop's pool address
// without a registry round trip.
package factory

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
	"github.com/pairswap/pairswap-engine-go/pool"
)

// addressSalt namespaces the deterministic pool-address derivation.
var addressSalt = []byte("pairswap/v1/pool")

var (
	// ErrIdenticalAssets is returned when both assets of a pair are
	// the same.
	ErrIdenticalAssets = errors.New("identical assets")

	// ErrZeroAsset is returned when an asset identity is the zero
	// address.
	ErrZeroAsset = errors.New("zero asset address")

	// ErrPoolExists is returned when a pool for the pair already
	// exists.
	ErrPoolExists = errors.New("pool already exists")

	// ErrPoolNotFound is returned when no pool exists for the pair.
	ErrPoolNotFound = errors.New("pool not found")
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SortAssets returns the pair in canonical order, lower identity first.
// Pool identity is therefore independent of caller argument order.
func SortAssets(assetA, assetB common.Address) (token0, token1 common.Address, err error) {
	switch bytes.Compare(assetA.Bytes(), assetB.Bytes()) {
	case -1:
		return assetA, assetB, nil
	case 1:
		return assetB, assetA, nil
	default:
		return common.Address{}, common.Address{}, fmt.Errorf("%w: %s", ErrIdenticalAssets, assetA)
	}
}

// PoolAddressFor derives the pool identity for a pair without touching
// the registry: keccak256 over a fixed salt and the sorted pair.
func PoolAddressFor(assetA, assetB common.Address) (common.Address, error) {
	token0, token1, err := SortAssets(assetA, assetB)
	if err != nil {
		return common.Address{}, err
	}
	hash := crypto.Keccak256(addressSalt, token0.Bytes(), token1.Bytes())
	return common.BytesToAddress(hash[12:]), nil
}

// Config carries the factory's dependencies. Pool-level dependencies
// (ledgers, callbacks, clock, events) are forwarded to every pool the
// factory creates.
type Config struct {
	Ledgers   pool.LedgerResolver
	Callbacks pool.CallbackResolver
	Clock     pool.Clock
	Events    pool.EventSink
	Logger    Logger
	Registry  prometheus.Registerer
}

func (c *Config) validate() error {
	if c.Ledgers == nil {
		return errors.New("config: Ledgers resolver is required")
	}
	return nil
}

// Factory owns the pool registry. It is not safe for concurrent
// mutation; reads and writes are serialized by the caller like every
// other engine component.
type Factory struct {
	cfg     Config
	metrics *Metrics

	pools        map[common.Address]*pool.Pool
	poolsByAsset map[common.Address][]*pool.Pool
	order        []common.Address
}

// New creates an empty registry.
func New(cfg Config) (*Factory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return &Factory{
		cfg:          cfg,
		metrics:      NewMetrics(cfg.Registry),
		pools:        make(map[common.Address]*pool.Pool),
		poolsByAsset: make(map[common.Address][]*pool.Pool),
	}, nil
}

// CreatePool creates and initializes the pool for the pair, failing
// with ErrPoolExists when one is already registered.
func (f *Factory) CreatePool(assetA, assetB common.Address) (*pool.Pool, error) {
	if assetA == (common.Address{}) || assetB == (common.Address{}) {
		return nil, ErrZeroAsset
	}
	token0, token1, err := SortAssets(assetA, assetB)
	if err != nil {
		return nil, err
	}
	addr, err := PoolAddressFor(token0, token1)
	if err != nil {
		return nil, err
	}
	if _, exists := f.pools[addr]; exists {
		return nil, fmt.Errorf("%w: %s / %s at %s", ErrPoolExists, token0, token1, addr)
	}

	p, err := pool.New(pool.Config{
		Address:   addr,
		Ledgers:   f.cfg.Ledgers,
		Callbacks: f.cfg.Callbacks,
		Clock:     f.cfg.Clock,
		Events:    f.cfg.Events,
	})
	if err != nil {
		return nil, err
	}
	if err := p.Initialize(token0, token1); err != nil {
		return nil, err
	}

	f.pools[addr] = p
	f.poolsByAsset[token0] = append(f.poolsByAsset[token0], p)
	f.poolsByAsset[token1] = append(f.poolsByAsset[token1], p)
	f.order = append(f.order, addr)
	f.metrics.poolsCreated.Inc()
	f.cfg.Logger.Info("pool created", "pool", addr, "token0", token0, "token1", token1)
	return p, nil
}

// GetPool returns the pool for the pair, or nil when none exists.
func (f *Factory) GetPool(assetA, assetB common.Address) *pool.Pool {
	addr, err := PoolAddressFor(assetA, assetB)
	if err != nil {
		return nil
	}
	return f.pools[addr]
}

// PoolByAddress returns the pool registered at addr, or nil.
func (f *Factory) PoolByAddress(addr common.Address) *pool.Pool {
	return f.pools[addr]
}

// PoolsForAsset returns every pool one of whose sides is the asset.
func (f *Factory) PoolsForAsset(asset common.Address) []*pool.Pool {
	return f.poolsByAsset[asset]
}

// AllPools returns every registered pool in creation order.
func (f *Factory) AllPools() []*pool.Pool {
	out := make([]*pool.Pool, 0, len(f.order))
	for _, addr := range f.order {
		out = append(out, f.pools[addr])
	}
	return out
}

// Len returns the number of registered pools.
func (f *Factory) Len() int {
	return len(f.pools)
}

// PairReserves implements quote.ReserveSource: reserves for the pair,
// oriented to the (assetA, assetB) argument order.
func (f *Factory) PairReserves(assetA, assetB common.Address) (reserveA, reserveB fixedpoint.Uint112, err error) {
	p := f.GetPool(assetA, assetB)
	if p == nil {
		return fixedpoint.Uint112{}, fixedpoint.Uint112{}, fmt.Errorf("%w: %s / %s", ErrPoolNotFound, assetA, assetB)
	}
	reserve0, reserve1, _ := p.GetReserves()
	token0, _ := p.Assets()
	if assetA == token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
