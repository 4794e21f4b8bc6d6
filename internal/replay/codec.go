package replay

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/pixel-platformer/internal/input"
)

// Codec сжимает куски ввода: один байт маски на кадр, затем zstd
type Codec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewCodec создаёт кодек с уровнем сжатия по умолчанию
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать компрессор: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("не удалось создать декомпрессор: %w", err)
	}
	return &Codec{compressor: enc, decompressor: dec}, nil
}

// Encode упаковывает кадры ввода
func (c *Codec) Encode(frames []input.Frame) []byte {
	raw := make([]byte, len(frames))
	for i, f := range frames {
		raw[i] = byte(f)
	}
	return c.compressor.EncodeAll(raw, nil)
}

// Decode распаковывает кусок обратно в кадры
func (c *Codec) Decode(data []byte) ([]input.Frame, error) {
	raw, err := c.decompressor.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки куска: %w", err)
	}
	frames := make([]input.Frame, len(raw))
	for i, b := range raw {
		frames[i] = input.Frame(b)
	}
	return frames, nil
}

func (c *Codec) Close() {
	c.compressor.Close()
	c.decompressor.Close()
}
