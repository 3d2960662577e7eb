// Copyright 2026 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package compress wraps the compression codecs used to estimate how much a
// state witness could shrink on the wire.
package compress

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// ErrRoundTrip is returned when decompressing a compressed blob does not
// reproduce the input.
var ErrRoundTrip = errors.New("compression round trip mismatch")

// Codec compresses and decompresses byte slices. Implementations are safe
// for concurrent use.
type Codec interface {
	// Name identifies the codec and its settings in metric names.
	Name() string

	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// Zstd is a zstd codec at a fixed compression level.
type Zstd struct {
	name string
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// NewZstd creates a zstd codec for a level on the reference zstd scale.
func NewZstd(level int) (*Zstd, error) {
	return newZstd(fmt.Sprintf("zstd_level_%d", level), ZstdEncoderLevel(level))
}

// ZstdEncoderLevel returns the encoder a reference zstd level maps to. The
// encoder has four speeds, so several levels share one: 3 to 5 all map to
// the default speed, for instance.
func ZstdEncoderLevel(level int) zstd.EncoderLevel {
	return zstd.EncoderLevelFromZstd(level)
}

// NewZstdFastest creates a zstd codec tuned for speed over ratio.
func NewZstdFastest() (*Zstd, error) {
	return newZstd("zstd_fastest", zstd.SpeedFastest)
}

func newZstd(name string, level zstd.EncoderLevel) (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Zstd{name: name, enc: enc, dec: dec}, nil
}

// Name implements Codec.
func (z *Zstd) Name() string { return z.name }

// Compress implements Codec.
func (z *Zstd) Compress(src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, nil), nil
}

// Decompress implements Codec.
func (z *Zstd) Decompress(src []byte) ([]byte, error) {
	return z.dec.DecodeAll(src, nil)
}

// Close releases the encoder and decoder resources.
func (z *Zstd) Close() {
	z.enc.Close()
	z.dec.Close()
}

// Snappy is the snappy block codec.
type Snappy struct{}

// Name implements Codec.
func (Snappy) Name() string { return "snappy" }

// Compress implements Codec.
func (Snappy) Compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

// Decompress implements Codec.
func (Snappy) Decompress(src []byte) ([]byte, error) {
	return snappy.Decode(nil, src)
}

// RoundTrip compresses src, decompresses the result and checks that the
// input is reproduced. It returns the compressed bytes.
func RoundTrip(c Codec, src []byte) ([]byte, error) {
	compressed, err := c.Compress(src)
	if err != nil {
		return nil, fmt.Errorf("%s compress: %w", c.Name(), err)
	}
	decompressed, err := c.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", c.Name(), err)
	}
	if !bytes.Equal(decompressed, src) {
		return nil, fmt.Errorf("%w: %s, have %d bytes, want %d", ErrRoundTrip, c.Name(), len(decompressed), len(src))
	}
	return compressed, nil
}
