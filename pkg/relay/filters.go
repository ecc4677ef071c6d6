package relay

import (
	"github.com/wayneeseguin/relay/pkg/types"
)

// AllOf passes records that satisfy every filter.
func AllOf(filters ...FilterFunc) FilterFunc {
	return func(meta types.Metadata) bool {
		for _, f := range filters {
			if f != nil && !f(meta) {
				return false
			}
		}
		return true
	}
}

// AnyOf passes records that satisfy at least one filter.
func AnyOf(filters ...FilterFunc) FilterFunc {
	return func(meta types.Metadata) bool {
		for _, f := range filters {
			if f != nil && f(meta) {
				return true
			}
		}
		return false
	}
}

// Not inverts a filter.
func Not(filter FilterFunc) FilterFunc {
	return func(meta types.Metadata) bool {
		return !filter(meta)
	}
}

// TargetIn passes records whose target is one of targets or below one.
func TargetIn(targets ...string) FilterFunc {
	return func(meta types.Metadata) bool {
		for _, t := range targets {
			if targetMatches(t, meta.Target) {
				return true
			}
		}
		return false
	}
}

// LevelIn passes records at exactly one of levels.
func LevelIn(levels ...types.Level) FilterFunc {
	var set [types.LevelOff]bool
	for _, l := range levels {
		if l.Valid() {
			set[l] = true
		}
	}
	return func(meta types.Metadata) bool {
		return meta.Level.Valid() && set[meta.Level]
	}
}
