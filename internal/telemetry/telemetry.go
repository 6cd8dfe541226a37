// Package telemetry wraps log/slog for the phase-timing trace lines the
// original propagator logs around each phase (propagate+AABB, Morton
// encode+sort, BVH construction) via a stopwatch and a trace-level logger
// call. No example repo in the reference pack depends on a structured
// logging library, so this wraps the standard library instead of
// introducing one.
package telemetry

import (
	"log/slog"
	"os"
	"time"
)

// Logger is the telemetry handle threaded through the superstep driver.
type Logger struct {
	*slog.Logger
}

// New returns a Logger writing leveled, structured text to os.Stdout.
func New(level slog.Level) *Logger {
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(h)}
}

// Stopwatch mirrors the original's spdlog::stopwatch: Elapsed reports the
// duration since the Stopwatch was created.
type Stopwatch struct {
	start time.Time
}

// NewStopwatch starts a new stopwatch.
func NewStopwatch() Stopwatch {
	return Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch started.
func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// TracePhase logs a "phase=... chunk=... dur=..." trace line at Debug
// level, matching the original's logger->trace(...) calls around each
// phase boundary. chunk of -1 means the line is not chunk-scoped.
func (l *Logger) TracePhase(phase string, chunk int, sw Stopwatch) {
	if chunk < 0 {
		l.Debug("phase complete", "phase", phase, "dur", sw.Elapsed())
		return
	}
	l.Debug("phase complete", "phase", phase, "chunk", chunk, "dur", sw.Elapsed())
}
