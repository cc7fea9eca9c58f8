package iq

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// Sample formats
const (
	FormatU8   = "u8"   // rtl_sdr interleaved unsigned 8-bit I/Q
	FormatCF32 = "cf32" // little-endian complex float32
)

// DefaultBlockSize matches the acquisition block of 2^18 samples
const DefaultBlockSize = 1 << 18

// Reader cuts a recorded baseband stream into fixed-size sample blocks.
type Reader struct {
	src       io.Reader
	closers   []func() error
	format    string
	blockSize int
	buf       []byte
	logger    *logrus.Logger
}

// BytesPerSample returns the on-disk size of one complex sample.
func BytesPerSample(format string) (int, error) {
	switch format {
	case FormatU8:
		return 2, nil
	case FormatCF32:
		return 8, nil
	default:
		return 0, fmt.Errorf("unknown sample format %q", format)
	}
}

// NewReader wraps r. blockSize is in samples.
func NewReader(r io.Reader, format string, blockSize int, logger *logrus.Logger) (*Reader, error) {
	size, err := BytesPerSample(format)
	if err != nil {
		return nil, err
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}

	return &Reader{
		src:       r,
		format:    format,
		blockSize: blockSize,
		buf:       make([]byte, blockSize*size),
		logger:    logger,
	}, nil
}

// Input is a decompressed byte stream opened by OpenInput.
type Input struct {
	io.Reader
	closers []func() error
}

// Close releases the underlying file and decompressor.
func (s *Input) Close() error {
	err := closeAll(s.closers)
	s.closers = nil
	return err
}

// OpenInput opens path, "-" meaning stdin. Files ending in .gz or .zst are
// decompressed on the fly.
func OpenInput(path string) (*Input, error) {
	s := &Input{}

	if path == "-" {
		s.Reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		s.Reader = f
		s.closers = append(s.closers, f.Close)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(s.Reader)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		s.Reader = gz
		s.closers = append(s.closers, gz.Close)

	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(s.Reader)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		s.Reader = zr
		s.closers = append(s.closers, func() error {
			zr.Close()
			return nil
		})
	}

	return s, nil
}

// Open opens a sample recording with OpenInput and cuts it into blocks.
func Open(path, format string, blockSize int, logger *logrus.Logger) (*Reader, error) {
	input, err := OpenInput(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(input, format, blockSize, logger)
	if err != nil {
		input.Close()
		return nil, err
	}
	r.closers = []func() error{input.Close}

	logger.WithFields(logrus.Fields{
		"path":       path,
		"format":     format,
		"block_size": blockSize,
	}).Info("Opened sample input")

	return r, nil
}

// ReadBlock returns the next block. The last block of a stream may be
// shorter; after it ReadBlock returns io.EOF.
func (r *Reader) ReadBlock() ([]complex128, error) {
	n, err := io.ReadFull(r.src, r.buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	size, _ := BytesPerSample(r.format)
	count := n / size
	if count == 0 {
		return nil, io.EOF
	}

	samples := make([]complex128, count)
	switch r.format {
	case FormatU8:
		convertU8(samples, r.buf[:count*size])
	case FormatCF32:
		convertCF32(samples, r.buf[:count*size])
	}

	return samples, nil
}

// Stream reads blocks into out until EOF, an error or cancellation. out is
// not closed.
func (r *Reader) Stream(ctx context.Context, out chan<- []complex128) error {
	for {
		block, err := r.ReadBlock()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read samples: %w", err)
		}

		select {
		case out <- block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close releases the underlying file and decompressor.
func (r *Reader) Close() error {
	err := closeAll(r.closers)
	r.closers = nil
	return err
}

func closeAll(closers []func() error) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// convertU8 maps unsigned bytes centred on 127.5 to [-1, 1].
func convertU8(dst []complex128, src []byte) {
	for i := range dst {
		iSample := (float64(src[2*i]) - 127.5) / 127.5
		qSample := (float64(src[2*i+1]) - 127.5) / 127.5
		dst[i] = complex(iSample, qSample)
	}
}

func convertCF32(dst []complex128, src []byte) {
	for i := range dst {
		re := math.Float32frombits(binary.LittleEndian.Uint32(src[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(src[8*i+4:]))
		dst[i] = complex(float64(re), float64(im))
	}
}
