package ws

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstd frame magic number, used to tell compressed snapshot frames apart
// from JSON control messages on a client's send channel.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Encoder compresses snapshot payloads for clients that asked for zstd
// frames.
type Encoder struct {
	zstdEncoder *zstd.Encoder
}

// NewEncoder creates a new Encoder.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc}, nil
}

// EncodeSnapshot compresses one JSON snapshot payload.
func (e *Encoder) EncodeSnapshot(jsonData []byte) []byte {
	return e.zstdEncoder.EncodeAll(jsonData, nil)
}

// Close releases the encoder's resources.
func (e *Encoder) Close() {
	e.zstdEncoder.Close()
}

func isZstdFrame(data []byte) bool {
	if len(data) < len(zstdMagic) {
		return false
	}
	for i, b := range zstdMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}
