// Package duckdb provides the DuckDB engine adapter.
//
// This file registers the adapter with the engine registry. Import this
// package with a blank identifier to register the adapter:
//
//	import _ "github.com/querypilot/querypilot/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

func init() {
	adapter.Register(core.EngineDuckDB, func(l *slog.Logger) adapter.Adapter { return New(l) })
}
