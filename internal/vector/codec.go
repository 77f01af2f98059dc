package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat32s serializes a vector as little-endian float32 bytes. The
// same encoding is used for embedding BLOBs in storage and for the flat
// index file, so the two stay interchangeable.
func EncodeFloat32s(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// DecodeFloat32s deserializes little-endian float32 bytes into a vector.
func DecodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
