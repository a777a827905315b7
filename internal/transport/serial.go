package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/twmccart/watchface1/internal/message"
)

// refreshKey is the numeric refresh request key on the dictionary link.
const refreshKey message.FieldID = 100

// SerialConfig describes the serial device the watch (or its bridge) is on.
type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// Serial carries framed binary dictionaries over a serial line.
type Serial struct {
	cfg    SerialConfig
	role   Role
	logger *slog.Logger
	open   func() (io.ReadWriteCloser, error)

	mu   sync.Mutex
	port io.ReadWriteCloser
	wmu  sync.Mutex

	onInbound  InboundHandler
	onDownlink DownlinkHandler
}

func NewSerial(cfg SerialConfig, role Role, logger *slog.Logger) *Serial {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = time.Second
	}
	s := &Serial{cfg: cfg, role: role, logger: logger}
	s.open = func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(&serial.Config{
			Name:        cfg.Device,
			Baud:        cfg.Baud,
			ReadTimeout: cfg.ReadTimeout,
		})
	}
	return s
}

func (s *Serial) OnInbound(h InboundHandler)   { s.onInbound = h }
func (s *Serial) OnDownlink(h DownlinkHandler) { s.onDownlink = h }

func (s *Serial) openPort() (io.ReadWriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return s.port, nil
	}
	s.logger.Info("opening serial interface", "device", s.cfg.Device, "baud", s.cfg.Baud)
	p, err := s.open()
	if err != nil {
		return nil, err
	}
	s.port = p
	return p, nil
}

func (s *Serial) closePort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		s.port.Close()
		s.port = nil
	}
}

// Run reads frames until ctx is done, reopening the port after errors.
func (s *Serial) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.closePort()
	}()

	var scanner frameScanner
	buf := make([]byte, 1024)

	for ctx.Err() == nil {
		port, err := s.openPort()
		if err != nil {
			s.logger.Error("error opening serial interface", "device", s.cfg.Device, "error", err)
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}

		n, err := port.Read(buf)
		if n > 0 {
			scanner.feed(buf[:n])
			s.drain(ctx, &scanner)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// With ReadTimeout set, an idle line reads as (0, io.EOF).
			if isIdleRead(n, err) {
				continue
			}
			s.logger.Warn("error reading serial interface", "error", err)
			s.closePort()
			scanner = frameScanner{}
			if !sleepCtx(ctx, time.Second) {
				return
			}
		}
	}
}

func isIdleRead(n int, err error) bool {
	return n == 0 && errors.Is(err, io.EOF)
}

func (s *Serial) drain(ctx context.Context, scanner *frameScanner) {
	for {
		payload, ok, err := scanner.next()
		if err != nil {
			s.logger.Warn("dropping serial frame", "error", err)
			continue
		}
		if !ok {
			return
		}
		s.handlePayload(ctx, payload)
	}
}

func (s *Serial) handlePayload(ctx context.Context, payload []byte) {
	fields, err := message.DecodeDict(payload)
	if err != nil {
		s.logger.Warn("failed to decode serial dictionary", "error", err, "size", len(payload))
		return
	}

	if s.role == RoleDevice {
		m, err := message.FromFields(fields)
		if err != nil {
			s.logger.Warn("failed to read downlink message", "error", err)
			return
		}
		if s.onDownlink != nil {
			s.onDownlink(ctx, m)
		}
		return
	}

	if s.onInbound != nil {
		s.onInbound(ctx, message.InboundFromFields(fields))
	}
}

// Send writes m as one frame. The write is the whole delivery; there is no
// acknowledgement on this link.
func (s *Serial) Send(_ context.Context, m message.Message) error {
	logFields(s.logger, "sending message", m)
	return s.writeFields(m.Fields())
}

// RequestRefresh writes a refresh request under the numeric key.
func (s *Serial) RequestRefresh(_ context.Context) error {
	return s.writeFields([]message.Field{{ID: refreshKey, Value: message.Int(1)}})
}

func (s *Serial) writeFields(fields []message.Field) error {
	payload, err := message.EncodeDict(fields)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrTransport, err)
	}
	frame, err := encodeFrame(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	port, err := s.openPort()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrTransport, s.cfg.Device, err)
	}
	if _, err := port.Write(frame); err != nil {
		s.closePort()
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

// Close releases the port.
func (s *Serial) Close() {
	s.closePort()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
