package transport

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twmccart/watchface1/internal/message"
)

// ErrTransport wraps every failure to hand a message to the device link.
var ErrTransport = errors.New("device transport failure")

// Sender delivers a message to the paired device. Delivery is
// fire-and-forget: a nil error means the message was handed to the link,
// not that the device acknowledged it.
type Sender interface {
	Send(ctx context.Context, m message.Message) error
}

// InboundHandler receives device-originated messages.
type InboundHandler func(ctx context.Context, in message.Inbound)

// DownlinkHandler receives companion-originated messages on the device side.
type DownlinkHandler func(ctx context.Context, m message.Message)

// LogSender only logs outgoing messages. Used when no device link is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, m message.Message) error {
	logFields(s.logger, "outbound message (log transport)", m)
	return nil
}

// logFields writes one debug line per field. Glyphs are private-use code
// points, so their byte length is logged alongside.
func logFields(logger *slog.Logger, msg string, m message.Message) {
	fields := m.Fields()
	logger.Debug(msg, "fields", len(fields))
	for _, f := range fields {
		if f.ID == message.FieldSkyGlyph {
			logger.Debug("field", "key", uint32(f.ID), "name", f.ID.String(), "value", f.Value.Str(), "length", len(f.Value.Str()))
			continue
		}
		logger.Debug("field", "key", uint32(f.ID), "name", f.ID.String(), "value", f.Value.String())
	}
}
