package goToken

import (
	"io"

	"github.com/MrEthical07/goToken/internal/audit"
	"github.com/rs/zerolog"
)

// AuditEvent is one record emitted by the Engine for issue, reissue, logout
// and their failures.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

type NoOpSink = audit.NoOpSink

type ChannelSink = audit.ChannelSink

type JSONWriterSink = audit.JSONWriterSink

type LoggerSink = audit.LoggerSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewLoggerSink writes audit events through logger.
func NewLoggerSink(logger zerolog.Logger) *LoggerSink {
	return audit.NewLoggerSink(logger)
}
