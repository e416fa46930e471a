// Package rtapi routes zap log entries into the LinuxCNC RTAPI message log.
//
// Writing to stderr from a HAL component competes with the realtime threads
// for the terminal; rtapi_print_msg hands the text to the runtime, which
// filters it by the global message level and writes it out of band.
package rtapi

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is msg_level_t.
type Level int32

const (
	LevelNone Level = iota
	LevelErr
	LevelWarn
	LevelInfo
	LevelDebug
	LevelAll
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelErr:
		return "ERR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DBG"
	case LevelAll:
		return "ALL"
	default:
		return fmt.Sprintf("Level(%d)", int32(l))
	}
}

// FromZap maps a zap level onto the RTAPI scale. Everything above error is
// reported as an error.
func FromZap(l zapcore.Level) Level {
	switch {
	case l < zapcore.DebugLevel:
		return LevelAll
	case l == zapcore.DebugLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelErr
	}
}

// Sink is the RTAPI message facility.
type Sink interface {
	// Print emits one message at level.
	Print(level Level, msg string)
	// MsgLevel returns the runtime's current message level.
	MsgLevel() Level
}

// CoreOption configures a core.
type CoreOption func(*core)

// WithFixedLevel prints every entry at l, whatever its zap level. An entry
// is forwarded whenever l passes the sink's message level.
func WithFixedLevel(l Level) CoreOption {
	return func(c *core) {
		c.fixed = l
		c.hasFixed = true
	}
}

// WithEncoder replaces the default console encoder.
func WithEncoder(enc zapcore.Encoder) CoreOption {
	return func(c *core) { c.enc = enc }
}

const conversionFailure = "failed to build log message string"

type core struct {
	sink     Sink
	enc      zapcore.Encoder
	fixed    Level
	hasFixed bool
}

// NewCore returns a zapcore.Core writing to sink. Entries below the sink's
// message level are dropped before they are encoded.
func NewCore(sink Sink, opts ...CoreOption) zapcore.Core {
	c := &core{sink: sink}
	for _, opt := range opts {
		opt(c)
	}
	if c.enc == nil {
		c.enc = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			NameKey:        "logger",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		})
	}
	return c
}

// NewLogger is a shorthand for zap.New(NewCore(sink, opts...)).
func NewLogger(sink Sink, opts ...CoreOption) *zap.Logger {
	return zap.New(NewCore(sink, opts...))
}

func (c *core) Enabled(l zapcore.Level) bool {
	threshold := c.sink.MsgLevel()
	if threshold == LevelNone {
		return false
	}
	if c.hasFixed {
		return c.fixed <= threshold
	}
	return FromZap(l) <= threshold
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.enc = c.enc.Clone()
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return &clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	msg := buf.String()
	buf.Free()

	// rtapi_print_msg takes a C string.
	if strings.IndexByte(msg, 0) >= 0 {
		msg = conversionFailure + "\n"
	}

	level := FromZap(ent.Level)
	if c.hasFixed {
		level = c.fixed
	}
	c.sink.Print(level, msg)
	return nil
}

func (c *core) Sync() error { return nil }

// WriterSink prints to an io.Writer, prefixing each message with its level.
// It stands in for the runtime when no LinuxCNC is running.
type WriterSink struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewWriterSink returns a sink that keeps messages at or below level.
func NewWriterSink(w io.Writer, level Level) *WriterSink {
	return &WriterSink{w: w, level: level}
}

func (s *WriterSink) Print(level Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s: %s", level, msg)
}

func (s *WriterSink) MsgLevel() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetMsgLevel changes the threshold, as rtapi_set_msg_level does.
func (s *WriterSink) SetMsgLevel(l Level) {
	s.mu.Lock()
	s.level = l
	s.mu.Unlock()
}
