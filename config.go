// Package segmentwire is the top-level facade over the runtime: it wires together
// arena, layout and message into the handful of entry points most callers need --
// build a message, read one back, reuse a builder across many messages -- without
// reaching into the lower packages directly.
package segmentwire

import (
	"log/slog"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/wiremetrics"
)

// Config bundles the knobs a caller tunes across reads and writes: the reader limits
// from arena.ReaderOptions, the segment sizing policy a builder uses, optional
// metrics, and an optional logger that records a message that failed to parse.
type Config struct {
	ReaderOptions arena.ReaderOptions
	SegmentPolicy arena.SizePolicy
	Metrics       *wiremetrics.Metrics
	Logger        *slog.Logger
}

// DefaultConfig returns a Config with every field at its package default: the
// built-in traversal and nesting limits, a growing segment policy, no metrics, and
// slog's default logger.
func DefaultConfig() Config {
	return Config{
		ReaderOptions: arena.ReaderOptions{},
		SegmentPolicy: &arena.GrowingPolicy{},
		Logger:        slog.Default(),
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
