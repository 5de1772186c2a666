package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/querypilot/querypilot/pkg/core"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[core.EngineType]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(engine core.EngineType, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[engine] = factory
}

// Get retrieves an adapter factory by engine type.
func Get(engine core.EngineType) (func(*slog.Logger) Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[engine]
	return f, ok
}

// ListEngines returns all registered engine names, sorted.
func ListEngines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for e := range registry {
		names = append(names, string(e))
	}
	sort.Strings(names)
	return names
}

// UnknownEngineError is returned when no adapter is registered for an engine.
type UnknownEngineError struct {
	Engine    core.EngineType
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown engine type %q (registered engines: %v)", e.Engine, e.Available)
}

// New creates an unconnected adapter for the given engine type.
// A nil logger is replaced with a discard logger by the adapter constructor.
func New(engine core.EngineType, logger *slog.Logger) (Adapter, error) {
	factory, ok := Get(engine)
	if !ok {
		return nil, &UnknownEngineError{Engine: engine, Available: ListEngines()}
	}
	return factory(logger), nil
}

// Open builds and connects an adapter for cfg. It fails fast: either a
// connected, pingable adapter is returned, or an error and no adapter.
func Open(ctx context.Context, cfg core.ConnConfig, logger *slog.Logger) (Adapter, error) {
	a, err := New(cfg.Type, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return a, nil
}
