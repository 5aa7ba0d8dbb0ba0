// Package trace reads and writes binary beat-stimulus traces so harness runs
// are reproducible and shareable between machines.
package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/beatbridge/internal/bridge"
)

const (
	// Magic is "BBTR" big-endian.
	Magic   uint32 = 0x42425452
	Version uint16 = 1

	headerLen     = 16
	recordFixed   = 17 // flags(1) + byte_valid(8) + meta(8)
	flagLast      = 0x01
	maxHeaderBeat = bridge.MaxBeatBytes
)

var (
	ErrShortHeader    = errors.New("trace: short header")
	ErrBadMagic       = errors.New("trace: bad magic")
	ErrBadVersion     = errors.New("trace: unsupported version")
	ErrBadWidths      = errors.New("trace: invalid widths in header")
	ErrTooManyRecords = errors.New("trace: record count exceeds limit")
	ErrShortRecord    = errors.New("trace: truncated beat record")
)

// Header identifies a trace and the bridge geometry it was captured for.
type Header struct {
	BeatBytes int
	SegBytes  int
	Count     int
}

// Limits constrains decode memory use.
type Limits struct {
	MaxRecords int
}

func DefaultLimits() Limits {
	return Limits{MaxRecords: 1 << 20}
}

// Write encodes a header and one record per beat.
func Write(w io.Writer, hdr Header, beats []bridge.Beat) error {
	if hdr.BeatBytes < 1 || hdr.BeatBytes > maxHeaderBeat || hdr.SegBytes < 1 {
		return fmt.Errorf("%w: beat=%d seg=%d", ErrBadWidths, hdr.BeatBytes, hdr.SegBytes)
	}
	buf := make([]byte, headerLen)
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], Version)
	binary.BigEndian.PutUint16(buf[6:8], uint16(hdr.BeatBytes))
	binary.BigEndian.PutUint16(buf[8:10], uint16(hdr.SegBytes))
	binary.BigEndian.PutUint32(buf[10:14], uint32(len(beats)))
	// buf[14:16] reserved
	if _, err := w.Write(buf); err != nil {
		return err
	}

	rec := make([]byte, recordFixed+hdr.BeatBytes)
	for _, b := range beats {
		rec[0] = 0
		if b.Last {
			rec[0] |= flagLast
		}
		binary.BigEndian.PutUint64(rec[1:9], b.ByteValid)
		binary.BigEndian.PutUint64(rec[9:17], b.Meta)
		payload := rec[recordFixed:]
		for i := range payload {
			payload[i] = 0
		}
		copy(payload, b.Payload)
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a trace produced by Write.
func Read(r io.Reader, limits Limits) (Header, []bridge.Beat, error) {
	buf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil, ErrShortHeader
		}
		return Header{}, nil, err
	}
	if binary.BigEndian.Uint32(buf[0:4]) != Magic {
		return Header{}, nil, ErrBadMagic
	}
	if binary.BigEndian.Uint16(buf[4:6]) != Version {
		return Header{}, nil, ErrBadVersion
	}
	hdr := Header{
		BeatBytes: int(binary.BigEndian.Uint16(buf[6:8])),
		SegBytes:  int(binary.BigEndian.Uint16(buf[8:10])),
		Count:     int(binary.BigEndian.Uint32(buf[10:14])),
	}
	if hdr.BeatBytes < 1 || hdr.BeatBytes > maxHeaderBeat ||
		hdr.SegBytes < 1 || hdr.SegBytes > hdr.BeatBytes {
		return Header{}, nil, fmt.Errorf("%w: beat=%d seg=%d", ErrBadWidths, hdr.BeatBytes, hdr.SegBytes)
	}
	if limits.MaxRecords > 0 && hdr.Count > limits.MaxRecords {
		return Header{}, nil, fmt.Errorf("%w: %d", ErrTooManyRecords, hdr.Count)
	}

	beats := make([]bridge.Beat, 0, hdr.Count)
	rec := make([]byte, recordFixed+hdr.BeatBytes)
	for i := 0; i < hdr.Count; i++ {
		if _, err := io.ReadFull(r, rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Header{}, nil, fmt.Errorf("%w: record %d", ErrShortRecord, i)
			}
			return Header{}, nil, err
		}
		payload := make([]byte, hdr.BeatBytes)
		copy(payload, rec[recordFixed:])
		beats = append(beats, bridge.Beat{
			Payload:   payload,
			ByteValid: binary.BigEndian.Uint64(rec[1:9]),
			Last:      rec[0]&flagLast != 0,
			Meta:      binary.BigEndian.Uint64(rec[9:17]),
		})
	}
	return hdr, beats, nil
}
