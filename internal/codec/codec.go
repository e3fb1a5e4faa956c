// Package codec implements the engine's fixed-width binary layouts:
// big-endian doubles for raw point values and rollup bucket fields, and
// big-endian int64 ticks for ordering fixed-tree keys as bytes.
//
// Endianness is fixed at big-endian across the whole on-disk format: ticks
// stored as big-endian bytes sort the same way numerically and
// lexicographically, which is what lets the storage substrate use plain
// byte-ordered trees for both trees and fixed-size trees.
package codec

import (
	"encoding/binary"
	"math"
)

// DoubleWidth is the encoded size of one float64 value.
const DoubleWidth = 8

// PutDouble writes v as a big-endian IEEE-754 double into buf at offset.
func PutDouble(buf []byte, offset int, v float64) {
	binary.BigEndian.PutUint64(buf[offset:offset+DoubleWidth], math.Float64bits(v))
}

// Double reads a big-endian IEEE-754 double from buf at offset.
func Double(buf []byte, offset int) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(buf[offset : offset+DoubleWidth]))
}

// TickWidth is the encoded size of one tick (int64) key.
const TickWidth = 8

// PutTick writes tick as a big-endian int64 into buf at offset.
func PutTick(buf []byte, offset int, tick int64) {
	binary.BigEndian.PutUint64(buf[offset:offset+TickWidth], uint64(tick))
}

// Tick reads a big-endian int64 tick from buf at offset.
func Tick(buf []byte, offset int) int64 {
	return int64(binary.BigEndian.Uint64(buf[offset : offset+TickWidth]))
}

// EncodeTickKey returns the canonical byte-ordered key for tick.
func EncodeTickKey(tick int64) []byte {
	buf := make([]byte, TickWidth)
	PutTick(buf, 0, tick)
	return buf
}

// DecodeTickKey reverses EncodeTickKey.
func DecodeTickKey(buf []byte) int64 {
	return Tick(buf, 0)
}
