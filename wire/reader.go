package wire

import (
	"encoding/binary"
	"fmt"

	errs "github.com/firekill222/signaling-server/errors"
)

const maxTypeLen = 1<<16 - 1

func appendInt64(buf []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// reader walks an envelope buffer with bounds checking. Every failure is
// reported as a wrapped ErrMalformedMessage; it never panics on any input.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) tag() (byte, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("%w: empty buffer", errs.ErrMalformedMessage)
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) int64(field string) (int64, error) {
	if r.remaining() < 8 {
		return 0, fmt.Errorf("%w: truncated %s", errs.ErrMalformedMessage, field)
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.off : r.off+8]))
	r.off += 8
	return v, nil
}

func (r *reader) string(field string) (string, error) {
	if r.remaining() < 2 {
		return "", fmt.Errorf("%w: truncated %s length", errs.ErrMalformedMessage, field)
	}
	n := int(binary.BigEndian.Uint16(r.buf[r.off : r.off+2]))
	r.off += 2
	if r.remaining() < n {
		return "", fmt.Errorf("%w: truncated %s", errs.ErrMalformedMessage, field)
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}

func (r *reader) bytes(field string) ([]byte, error) {
	if r.remaining() < 4 {
		return nil, fmt.Errorf("%w: truncated %s length", errs.ErrMalformedMessage, field)
	}
	n := int(binary.BigEndian.Uint32(r.buf[r.off : r.off+4]))
	r.off += 4
	if r.remaining() < n {
		return nil, fmt.Errorf("%w: truncated %s", errs.ErrMalformedMessage, field)
	}
	// Copy out so the decoded message does not alias the network buffer.
	b := make([]byte, n)
	copy(b, r.buf[r.off:r.off+n])
	r.off += n
	return b, nil
}

func (r *reader) done() error {
	if r.remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", errs.ErrMalformedMessage, r.remaining())
	}
	return nil
}
