// Package relay routes log records through a tree of dispatch nodes.
//
// Each node applies a level gate and optional filters, renders the text
// with an optional formatter, and fans the result out to its sinks in the
// order they were chained. Sinks are writers (stdout, stderr, files,
// arbitrary io.Writers), queues read by another goroutine, other Loggers,
// callbacks, or further nodes. Nested nodes format the text their parent
// produced, so layouts compose.
//
// A dispatch is configured once with the builder and then sealed; sealed
// nodes are immutable and safe for concurrent use without locks.
//
// Key Features:
//
//   - Per-node minimum levels and per-target overrides
//   - Composable formatters applied once per node
//   - Fan-out that keeps delivering past failing sinks
//   - One-time global installation with a lock-free level gate
//   - Queue sinks with blocking back-pressure and disconnect detection
//   - Error side channel and counters for delivery failures
//   - log/slog bridge
//
// Basic Usage:
//
//	err := relay.New().
//		WithLevel(relay.LevelInfo).
//		WithFormat(formatters.LevelPrefix).
//		Chain(relay.Stdout()).
//		Install()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer relay.Flush()
//
//	relay.Infof("listening on %s", addr)
//
// Multiple Outputs:
//
//	file, err := relay.LogFile("/var/log/app.log")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	relay.New().
//		WithFormat(formatters.Template("{time} [{target}][{level}] {message}")).
//		ChainDispatch(relay.New().WithLevel(relay.LevelDebug).Chain(file)).
//		ChainDispatch(relay.New().WithLevel(relay.LevelWarn).Chain(relay.Stderr())).
//		Install()
//
// Level Overrides:
//
// Targets are "/"-separated, like Go import paths. An override applies to
// the named target and everything below it; the longest matching override
// wins.
//
//	relay.New().
//		WithLevel(relay.LevelInfo).
//		WithLevelFor("github.com/acme/app/db", relay.LevelWarn).
//		WithLevelFor("github.com/acme/app/db/migrate", relay.LevelTrace)
//
// Errors:
//
// A logging call never fails. When a sink reports an error the record is
// still delivered to the remaining sinks, and the failures are passed to
// the logger's ErrorHandler and counted in its metrics. Node.Accept and
// Node.Flush return them directly for callers that drive a tree by hand.
//
// Thread Safety:
//
// Sealed nodes, loggers and the package-level functions are safe for
// concurrent use. A Dispatch builder is not.
package relay
