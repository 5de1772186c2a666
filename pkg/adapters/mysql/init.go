// Package mysql provides the MySQL engine adapter.
//
// This file registers the adapter with the engine registry. Import this
// package with a blank identifier to register the adapter:
//
//	import _ "github.com/querypilot/querypilot/pkg/adapters/mysql"
package mysql

import (
	"log/slog"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

func init() {
	adapter.Register(core.EngineMySQL, func(l *slog.Logger) adapter.Adapter { return New(l) })
}
