package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/npat-efault/crc16"
)

const (
	frameStart      = byte(0x7e)
	frameHeader     = 3 // start + u16 length
	frameTrailer    = 2 // crc16
	maxFramePayload = 4096
)

var (
	errFrameChecksum = errors.New("frame checksum mismatch")
	errFrameTooLarge = errors.New("frame payload too large")
)

var crcConfig = &crc16.Conf{
	Poly: 0x8005, BitRev: true,
	IniVal: 0x0, FinVal: 0x0,
	BigEnd: false,
}

func checksum(b []byte) []byte {
	s := crc16.New(crcConfig)
	s.Write(b)
	return s.Sum(nil)
}

// encodeFrame wraps a dictionary payload: 0x7E, length (u16 BE), payload,
// crc16 over length and payload.
func encodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > maxFramePayload {
		return nil, errFrameTooLarge
	}

	var b bytes.Buffer
	b.WriteByte(frameStart)
	binary.Write(&b, binary.BigEndian, uint16(len(payload)))
	b.Write(payload)
	b.Write(checksum(b.Bytes()[1:]))

	return b.Bytes(), nil
}

// frameScanner extracts frames from a byte stream, resynchronising on the
// next start byte after noise or a bad checksum.
type frameScanner struct {
	buf []byte
}

func (s *frameScanner) feed(p []byte) {
	s.buf = append(s.buf, p...)
}

// next returns the next complete payload. ok is false when more bytes are
// needed. A non-nil err reports a dropped frame; scanning may continue.
func (s *frameScanner) next() (payload []byte, ok bool, err error) {
	i := bytes.IndexByte(s.buf, frameStart)
	if i < 0 {
		s.buf = s.buf[:0]
		return nil, false, nil
	}
	s.buf = s.buf[i:]

	if len(s.buf) < frameHeader {
		return nil, false, nil
	}

	n := int(binary.BigEndian.Uint16(s.buf[1:3]))
	if n > maxFramePayload {
		s.buf = s.buf[1:]
		return nil, false, fmt.Errorf("%w: %d bytes", errFrameTooLarge, n)
	}

	total := frameHeader + n + frameTrailer
	if len(s.buf) < total {
		return nil, false, nil
	}

	body := s.buf[1 : frameHeader+n]
	if !bytes.Equal(checksum(body), s.buf[frameHeader+n:total]) {
		s.buf = s.buf[1:]
		return nil, false, errFrameChecksum
	}

	payload = append([]byte{}, s.buf[frameHeader:frameHeader+n]...)
	s.buf = s.buf[total:]
	return payload, true, nil
}
