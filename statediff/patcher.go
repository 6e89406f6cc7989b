package statediff

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Apply reconstructs the newer snapshot from a base and a diff.
//
// CONTRACT:
//  1. Immutability: neither the base snapshot nor the diff is mutated;
//     the result is a deep copy.
//  2. The diff must build on the base: a changed pool absent from the
//     base or an added pool already present fails with ErrDiffMismatch.
func Apply(base *Snapshot, diff *Diff) (*Snapshot, error) {
	if base.Timestamp != diff.FromTimestamp {
		return nil, fmt.Errorf("%w: base at %d, diff from %d", ErrDiffMismatch, base.Timestamp, diff.FromTimestamp)
	}

	out := &Snapshot{
		Timestamp: diff.ToTimestamp,
		Pools:     make(map[common.Address]PoolView, len(base.Pools)+len(diff.Added)),
	}
	for addr, view := range base.Pools {
		out.Pools[addr] = view.clone()
	}
	for _, view := range diff.Changed {
		if _, ok := out.Pools[view.Address]; !ok {
			return nil, fmt.Errorf("%w: changed pool %s not in base", ErrDiffMismatch, view.Address)
		}
		out.Pools[view.Address] = view.clone()
	}
	for _, view := range diff.Added {
		if _, ok := out.Pools[view.Address]; ok {
			return nil, fmt.Errorf("%w: added pool %s already in base", ErrDiffMismatch, view.Address)
		}
		out.Pools[view.Address] = view.clone()
	}
	return out, nil
}
