package relay

import (
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/relay/pkg/types"
)

// FormatFunc renders the text passed down to a node's sinks. msg is the
// text assembled so far: the record message at the root, or the text of
// the enclosing node when nested. Implementations must not retain rec.
type FormatFunc func(msg string, rec *types.Record) string

// FilterFunc is an extra acceptance predicate evaluated on record metadata.
type FilterFunc func(meta types.Metadata) bool

// levelOverride is a per-target minimum level.
type levelOverride struct {
	target string
	level  types.Level
}

// Dispatch builds a dispatch node. The zero value is not usable; call New.
// A Dispatch is not safe for concurrent use. Seal it, or hand it to
// IntoLogger or Install, once configured; the resulting Node is immutable.
type Dispatch struct {
	level    types.Level
	levelFor []levelOverride
	filters  []FilterFunc
	format   FormatFunc
	children []Sink
}

// New creates an empty dispatch builder that passes every level.
//
// Example:
//
//	d := relay.New().
//		WithLevel(relay.LevelInfo).
//		WithLevelFor("github.com/acme/app/db", relay.LevelWarn).
//		WithFormat(formatters.LevelPrefix).
//		Chain(relay.Stdout())
func New() *Dispatch {
	return &Dispatch{level: types.LevelTrace}
}

// WithLevel sets the minimum level of this node.
func (d *Dispatch) WithLevel(level types.Level) *Dispatch {
	d.level = level
	return d
}

// WithLevelFor overrides the minimum level for a target and everything
// below it ("app" covers "app" and "app/db"). Setting the same target
// again replaces the earlier override.
func (d *Dispatch) WithLevelFor(target string, level types.Level) *Dispatch {
	for i := range d.levelFor {
		if d.levelFor[i].target == target {
			d.levelFor[i].level = level
			return d
		}
	}
	d.levelFor = append(d.levelFor, levelOverride{target: target, level: level})
	return d
}

// WithFilter adds a predicate; records must satisfy every filter.
func (d *Dispatch) WithFilter(fn FilterFunc) *Dispatch {
	if fn != nil {
		d.filters = append(d.filters, fn)
	}
	return d
}

// WithFormat sets the formatter applied by this node. A nil formatter
// passes text through unchanged.
func (d *Dispatch) WithFormat(fn FormatFunc) *Dispatch {
	d.format = fn
	return d
}

// Chain appends sinks in the order they should receive records.
// Nil sinks are ignored.
func (d *Dispatch) Chain(sinks ...Sink) *Dispatch {
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if n, ok := s.(*Node); ok && n == nil {
			continue
		}
		d.children = append(d.children, s)
	}
	return d
}

// ChainDispatch seals child as it is now and appends the resulting node.
// Later changes to child do not affect this dispatch.
func (d *Dispatch) ChainDispatch(child *Dispatch) *Dispatch {
	if child == nil {
		return d
	}
	return d.Chain(child.Seal())
}

// Seal takes an immutable snapshot of the builder.
func (d *Dispatch) Seal() *Node {
	n := &Node{
		level:    d.level,
		levelFor: append([]levelOverride(nil), d.levelFor...),
		filters:  append([]FilterFunc(nil), d.filters...),
		format:   d.format,
		children: append([]Sink(nil), d.children...),
	}

	// Longest key first so the first match is the most specific.
	sort.SliceStable(n.levelFor, func(i, j int) bool {
		return len(n.levelFor[i].target) > len(n.levelFor[j].target)
	})

	n.maxLevel = n.computeMaxLevel()
	return n
}

// IntoLogger seals the dispatch into a logger and reports the most verbose
// level the tree can accept, for use as a fast-path gate.
func (d *Dispatch) IntoLogger(opts ...LoggerOption) (types.Level, *DispatchLogger) {
	l := NewLogger(d.Seal(), opts...)
	return l.MaxLevel(), l
}

// Install seals the dispatch and installs it as the global logger.
func (d *Dispatch) Install(opts ...LoggerOption) error {
	return Install(d, opts...)
}

// Node is a sealed dispatch node: a level gate and filters, an optional
// formatter, and an ordered list of sinks. A Node is itself a Sink, so the
// same node may be chained under several parents. Nodes are immutable and
// safe for concurrent use.
type Node struct {
	level    types.Level
	levelFor []levelOverride
	filters  []FilterFunc
	format   FormatFunc
	children []Sink
	maxLevel types.Level
}

// effectiveLevel returns the minimum level that applies to target.
func (n *Node) effectiveLevel(target string) types.Level {
	for _, o := range n.levelFor {
		if targetMatches(o.target, target) {
			return o.level
		}
	}
	return n.level
}

// passes applies the level gate and filters of this node only.
func (n *Node) passes(meta types.Metadata) bool {
	if !meta.Level.Allows(n.effectiveLevel(meta.Target)) {
		return false
	}
	for _, f := range n.filters {
		if !f(meta) {
			return false
		}
	}
	return true
}

// Accept filters rec, formats line and fans it out to every sink in order.
// A failing sink does not stop delivery to the sinks after it; all
// failures are returned together once fan-out completes. Records rejected
// by the level gate or a filter are dropped silently.
//
// Parameters:
//   - line: The text assembled so far
//   - rec: The record being logged
//
// Returns:
//   - error: nil, or a *multierror.Error of *SinkError values
func (n *Node) Accept(line string, rec *types.Record) error {
	if !n.passes(rec.Metadata()) {
		return nil
	}

	if n.format != nil {
		line = n.format(line, rec)
	}

	var result *multierror.Error
	for i, s := range n.children {
		if err := s.Accept(line, rec); err != nil {
			result = multierror.Append(result, sinkFailure(OpAccept, i, s, err))
		}
	}
	return result.ErrorOrNil()
}

// Handle delivers rec starting from its own message.
func (n *Node) Handle(rec *types.Record) error {
	return n.Accept(rec.Message(), rec)
}

// enabler is implemented by sinks that can pre-check metadata.
type enabler interface {
	Enabled(meta types.Metadata) bool
}

// Enabled reports whether a record with meta would reach at least one sink.
func (n *Node) Enabled(meta types.Metadata) bool {
	if !n.passes(meta) {
		return false
	}
	for _, s := range n.children {
		e, ok := s.(enabler)
		if !ok || e.Enabled(meta) {
			return true
		}
	}
	return false
}

// Flush flushes every sink in order, recursing into nested nodes, and
// returns all failures together.
func (n *Node) Flush() error {
	var result *multierror.Error
	for i, s := range n.children {
		if err := s.Flush(); err != nil {
			result = multierror.Append(result, sinkFailure(OpFlush, i, s, err))
		}
	}
	return result.ErrorOrNil()
}

// MaxLevel returns the most verbose level this node can pass to any sink.
// A node without sinks reports LevelOff.
func (n *Node) MaxLevel() types.Level {
	return n.maxLevel
}

// Name implements namedSink
func (n *Node) Name() string {
	return "dispatch"
}

// Len returns the number of sinks chained to this node.
func (n *Node) Len() int {
	return len(n.children)
}

func (n *Node) computeMaxLevel() types.Level {
	if len(n.children) == 0 {
		return types.LevelOff
	}

	own := n.level
	for _, o := range n.levelFor {
		own = minLevel(own, o.level)
	}

	children := types.LevelOff
	for _, s := range n.children {
		children = minLevel(children, sinkMaxLevel(s))
	}

	return maxLevel(own, children)
}
