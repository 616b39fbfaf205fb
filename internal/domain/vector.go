package domain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vector blob layout: a uint32 little-endian dimension tag followed by one
// little-endian float32 per component. The tag makes stored blobs
// self-describing so corruption is detected before any distance math.

// StoredVector pairs a report id with its persisted narrative vector.
type StoredVector struct {
	ReportID int64
	Vector   []float32
}

// EncodeVector serializes a vector into the stored blob form.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4+len(v)*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(v)))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector deserializes a stored blob, verifying it against the
// configured dimension. Any disagreement is corruption: the error wraps
// ErrDimensionMismatch and must not be recovered by coercion.
func DecodeVector(data []byte, dimensions int) ([]float32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("vector blob too short (%d bytes): %w", len(data), ErrDimensionMismatch)
	}

	tag := int(binary.LittleEndian.Uint32(data[0:4]))
	if tag != dimensions {
		return nil, NewDimensionMismatch(dimensions, tag)
	}
	if len(data) != 4+dimensions*4 {
		return nil, fmt.Errorf(
			"vector blob length %d does not match dimension tag %d: %w",
			len(data), tag, ErrDimensionMismatch,
		)
	}

	v := make([]float32, dimensions)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+i*4:]))
	}
	return v, nil
}

// Cosine computes cosine similarity between two vectors using the full
// formula dot(a,b)/(|a|*|b|). Encoders are expected to emit unit-norm
// vectors, but the norms are computed anyway so violated invariants degrade
// scores instead of corrupting them. Zero-norm or length-mismatched inputs
// score zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
