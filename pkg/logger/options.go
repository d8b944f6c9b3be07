package logger

import (
	"io"
	"log/slog"
)

// Option configures a Logger created with New.
type Option func(*settings)

// WithDebug lowers the level to Debug; the default level is Info.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		if debug {
			s.level = slog.LevelDebug
		} else {
			s.level = slog.LevelInfo
		}
	}
}

// WithPretty selects the charmbracelet/log handler for colorized
// terminal output.
func WithPretty(pretty bool) Option {
	return func(s *settings) {
		s.pretty = pretty
	}
}

// WithJSON selects slog's JSON handler for structured logs.
func WithJSON(json bool) Option {
	return func(s *settings) {
		s.json = json
	}
}

// WithWriter directs output to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.writers = []io.Writer{w}
	}
}

// WithWriters directs output to several writers at once, combined with
// io.MultiWriter.
func WithWriters(w ...io.Writer) Option {
	return func(s *settings) {
		s.writers = w
	}
}

// WithSource annotates records with the logging call site.
func WithSource(source bool) Option {
	return func(s *settings) {
		s.source = source
	}
}
