// Package databricks provides the Databricks SQL warehouse engine adapter.
//
// This file registers the adapter with the engine registry. Import this
// package with a blank identifier to register the adapter:
//
//	import _ "github.com/querypilot/querypilot/pkg/adapters/databricks"
package databricks

import (
	"log/slog"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

func init() {
	adapter.Register(core.EngineDatabricks, func(l *slog.Logger) adapter.Adapter { return New(l) })
}
