package vectordb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jonathan/seo-content-machine/internal/embedding"
)

// encodeVector encodes v as a little-endian float32 blob, the layout
// sqlite-vec reads.
func encodeVector(v []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(blob))
	}
	v := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}

// distanceCosine is 1 - cosine similarity of two vector blobs.
func distanceCosine(a, b []byte) (float64, error) {
	va, err := decodeVector(a)
	if err != nil {
		return 0, err
	}
	vb, err := decodeVector(b)
	if err != nil {
		return 0, err
	}
	sim, err := embedding.CosineSimilarity(va, vb)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}
