package storage

import (
	"encoding/binary"
	"math"

	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
)

// SerializeEmbedding converts an embedding to the little-endian float32
// blob format sqlite-vec expects
func SerializeEmbedding(embedding []float32) ([]byte, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding cannot be empty")
	}

	buf := make([]byte, len(embedding)*4)
	for i, val := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(val))
	}
	return buf, nil
}

// DeserializeEmbedding converts a float32 blob back to a slice
func DeserializeEmbedding(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, errors.New("embedding data is empty")
	}
	if len(data)%4 != 0 {
		return nil, errors.Newf("invalid embedding data length: %d", len(data))
	}

	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return embedding, nil
}
