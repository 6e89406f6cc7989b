package statediff

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the differ's dependencies.
type Config struct {
	Registry prometheus.Registerer
	Logger   Logger
}

// Differ computes diffs between registry snapshots.
type Differ struct {
	metrics *Metrics
	logger  Logger
}

// NewDiffer constructs a differ from the config.
func NewDiffer(cfg Config) (*Differ, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Differ{
		metrics: NewMetrics(cfg.Registry),
		logger:  logger,
	}, nil
}

// Diff compares two snapshots, emitting only pools whose observable
// state changed and pools newly created between them. Neither input is
// mutated. A pool present in old but absent from new fails with
// ErrPoolRemoved.
func (d *Differ) Diff(old, new *Snapshot) (*Diff, error) {
	timer := prometheus.NewTimer(d.metrics.diffDuration)
	defer timer.ObserveDuration()

	diff := &Diff{
		FromTimestamp: old.Timestamp,
		ToTimestamp:   new.Timestamp,
	}
	for addr, oldView := range old.Pools {
		newView, ok := new.Pools[addr]
		if !ok {
			return nil, ErrPoolRemoved
		}
		if !oldView.equal(newView) {
			diff.Changed = append(diff.Changed, newView.clone())
		}
	}
	for addr, newView := range new.Pools {
		if _, ok := old.Pools[addr]; !ok {
			diff.Added = append(diff.Added, newView.clone())
		}
	}

	d.metrics.poolsChanged.Add(float64(len(diff.Changed) + len(diff.Added)))
	d.logger.Debug("snapshot diffed",
		"from", old.Timestamp, "to", new.Timestamp,
		"changed", len(diff.Changed), "added", len(diff.Added))
	return diff, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
