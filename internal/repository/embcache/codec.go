package embcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Vectors are stored as packed little-endian float32, four bytes per dimension.

func encodeVector(v []float32) []byte {
	buf, _ := binary.Append(make([]byte, 0, 4*len(v)), binary.LittleEndian, v)
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, want a positive multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	if _, err := binary.Decode(data, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("decode cached vector: %w", err)
	}
	return v, nil
}

// keyFor scopes the text digest by prefix and model so that vectors from
// different models never collide.
func keyFor(prefix, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return prefix + "emb:" + model + ":" + hex.EncodeToString(sum[:])
}
