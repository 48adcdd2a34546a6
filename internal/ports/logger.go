package ports

import "github.com/hoplab/panelhop/pkg/log"

// Logger re-exports the structured logging abstraction so application
// packages can declare the dependency without importing pkg/log.
type Logger = log.Logger

// Field re-exports the structured field type.
type Field = log.Field

// Field constructor re-exports, so call sites read ports.String(...).
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Hex      = log.Hex
	Err      = log.Err
	Any      = log.Any
)
