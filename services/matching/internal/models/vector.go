package models

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vector is an embedding that can be stored in a byte-oriented cache as
// little-endian float32 values.
type Vector []float32

func (v Vector) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf, nil
}

func (v *Vector) UnmarshalBinary(data []byte) error {
	if len(data)%4 != 0 {
		return fmt.Errorf("vector payload length %d is not a multiple of 4", len(data))
	}
	out := make(Vector, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	*v = out
	return nil
}
