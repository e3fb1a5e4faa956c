package series

import "github.com/rollupdb/rollupdb/internal/codec"

// slotWidth is the per-axis rollup bucket width: six big-endian doubles
// (Volume, High, Low, Open, Close, Sum).
const slotWidth = 6 * codec.DoubleWidth

// EncodePoint serializes w axis values as w consecutive big-endian
// doubles into a caller-supplied buffer.
func EncodePoint(buf []byte, values []float64) {
	for i, v := range values {
		codec.PutDouble(buf, i*codec.DoubleWidth, v)
	}
}

// DecodePoint reverses EncodePoint for arity w.
func DecodePoint(buf []byte, w int) []float64 {
	values := make([]float64, w)
	for i := range values {
		values[i] = codec.Double(buf, i*codec.DoubleWidth)
	}
	return values
}

// EncodeBucket serializes w RangeValues into a caller-supplied buffer,
// slot order per axis: Volume, High, Low, Open, Close, Sum.
func EncodeBucket(buf []byte, values []RangeValue) {
	for i, v := range values {
		off := i * slotWidth
		codec.PutDouble(buf, off+0*codec.DoubleWidth, v.Volume)
		codec.PutDouble(buf, off+1*codec.DoubleWidth, v.High)
		codec.PutDouble(buf, off+2*codec.DoubleWidth, v.Low)
		codec.PutDouble(buf, off+3*codec.DoubleWidth, v.Open)
		codec.PutDouble(buf, off+4*codec.DoubleWidth, v.Close)
		codec.PutDouble(buf, off+5*codec.DoubleWidth, v.Sum)
	}
}

// DecodeBucket reverses EncodeBucket for arity w. As an optimization
// mirroring the functional spec, High/Low/Open/Close/Sum are read only
// when Volume != 0; an empty bucket decodes to all-zero fields.
func DecodeBucket(buf []byte, w int) []RangeValue {
	values := make([]RangeValue, w)
	for i := range values {
		off := i * slotWidth
		vol := codec.Double(buf, off+0*codec.DoubleWidth)
		values[i].Volume = vol
		if vol == 0 {
			continue
		}
		values[i].High = codec.Double(buf, off+1*codec.DoubleWidth)
		values[i].Low = codec.Double(buf, off+2*codec.DoubleWidth)
		values[i].Open = codec.Double(buf, off+3*codec.DoubleWidth)
		values[i].Close = codec.Double(buf, off+4*codec.DoubleWidth)
		values[i].Sum = codec.Double(buf, off+5*codec.DoubleWidth)
	}
	return values
}
