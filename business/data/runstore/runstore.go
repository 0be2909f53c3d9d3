// Package runstore persists completed simulation runs so an identical
// request can be answered without running again. Runs are keyed by the
// scenario, the full rules and the version of the market data, and a
// put for an existing key is a no-op.
package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of supported store kinds.
const (
	KindNone   = "none"
	KindDisk   = "disk"
	KindSQLite = "sqlite"
)

// Set of errors returned by the stores.
var (
	ErrNotFound    = errors.New("run not found")
	ErrUnknownKind = errors.New("unknown run store kind")
)

// Run is a completed simulation.
type Run struct {
	Key         string          `json:"key"`
	Scenario    runner.Scenario `json:"scenario"`
	Rules       rules.Rules     `json:"rules"`
	DataVersion string          `json:"dataVersion"`
	Result      runner.Result   `json:"result"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Storer is the behavior required of a run store.
type Storer interface {
	Get(ctx context.Context, key string) (Run, error)
	Put(ctx context.Context, run Run) error
	Close() error
}

// Key returns the hex encoded Keccak-256 hash that identifies a run.
func Key(scenario runner.Scenario, r rules.Rules, dataVersion string) (string, error) {
	identity := struct {
		Scenario    runner.Scenario `json:"scenario"`
		Rules       rules.Rules     `json:"rules"`
		DataVersion string          `json:"dataVersion"`
	}{
		Scenario:    scenario,
		Rules:       r,
		DataVersion: dataVersion,
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("marshal run identity: %w", err)
	}

	return crypto.Keccak256Hash(data).Hex(), nil
}

// Open constructs the store of the specified kind at the specified path.
func Open(kind string, path string) (Storer, error) {
	switch kind {
	case KindNone, "":
		return Noop{}, nil

	case KindDisk:
		return NewDisk(path)

	case KindSQLite:
		return NewSQLite(path)
	}

	return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
}

// =============================================================================

// Noop is a store that never remembers a run.
type Noop struct{}

// Get always reports the run as missing.
func (Noop) Get(ctx context.Context, key string) (Run, error) {
	return Run{}, ErrNotFound
}

// Put discards the run.
func (Noop) Put(ctx context.Context, run Run) error {
	return nil
}

// Close has nothing to release.
func (Noop) Close() error {
	return nil
}
