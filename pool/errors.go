package pool

import "errors"

var (
	// ErrAlreadyInitialized is returned when Initialize is called on a
	// pool whose asset pair is already set.
	ErrAlreadyInitialized = errors.New("pool already initialized")

	// ErrNotInitialized is returned when an operation runs before
	// Initialize.
	ErrNotInitialized = errors.New("pool not initialized")

	// ErrInvalidAssetPair is returned when Initialize receives an
	// identical or non-canonically-ordered asset pair.
	ErrInvalidAssetPair = errors.New("invalid asset pair")

	// ErrInsufficientLiquidityMinted is returned when a mint would
	// credit zero (or fewer than the locked minimum) shares.
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")

	// ErrInsufficientLiquidityBurned is returned when a burn would pay
	// out zero of either asset.
	ErrInsufficientLiquidityBurned = errors.New("insufficient liquidity burned")

	// ErrInsufficientOutputAmount is returned when a swap requests no
	// output at all.
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")

	// ErrInsufficientInputAmount is returned when a swap settles with
	// no input deposited.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")

	// ErrInsufficientLiquidity is returned when a requested output
	// meets or exceeds the reserve backing it.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInvalidK is returned when the fee-adjusted constant-product
	// check fails after settlement: the swap would devalue the pool.
	ErrInvalidK = errors.New("constant product invariant violated")

	// ErrBalanceOverflow is returned when a live balance no longer fits
	// the bounded reserve width.
	ErrBalanceOverflow = errors.New("balance exceeds reserve width")

	// ErrLocked is returned when a swap re-enters a pool whose swap is
	// already in flight.
	ErrLocked = errors.New("pool is locked")

	// ErrInvalidRecipient is returned when swap output is directed at
	// one of the pool's own asset ledgers.
	ErrInvalidRecipient = errors.New("invalid swap recipient")

	// ErrCallbackFailed is returned when a flash-swap settlement
	// callback is missing or reports failure.
	ErrCallbackFailed = errors.New("settlement callback failed")

	// ErrInsufficientShares is returned when a share transfer exceeds
	// the holder's balance.
	ErrInsufficientShares = errors.New("insufficient liquidity shares")
)
