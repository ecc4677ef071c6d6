package formatters

import (
	"github.com/wayneeseguin/relay/pkg/types"
)

// Func rewrites the current text of a record. It has the same shape as
// relay.FormatFunc, so every Func can be passed to Dispatch.WithFormat.
// A Func must not keep rec after it returns.
type Func = func(msg string, rec *types.Record) string

// Formatter is implemented by configurable formatters. Its Format method
// value is a Func.
type Formatter interface {
	Format(msg string, rec *types.Record) string
}
