package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"
)

// ByName produces the compressor with the given name.
// Level is algorithm-specific; zero means the default.
func ByName(name string, level int) (Compressor, error) {
	switch name {
	case "zstd":
		return Zstd{Level: level}, nil
	case "s2":
		return S2{}, nil
	case "flate":
		return Flate{Level: level}, nil
	case "lzma":
		return LZMA{}, nil
	}
	return nil, errors.Errorf("unknown compression algorithm %s", name)
}

// Zstd is Zstandard compression.
type Zstd struct {
	Level int // zstd level, 1-22; zero means 3
}

var zdec, _ = zstd.NewReader(nil)

func (Zstd) Name() string { return "zstd" }

func (z Zstd) Compress(inp []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = 3
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(inp, nil), nil
}

func (Zstd) Uncompress(inp []byte) ([]byte, error) {
	return zdec.DecodeAll(inp, nil)
}

// S2 is S2 block compression.
type S2 struct{}

func (S2) Name() string { return "s2" }

func (S2) Compress(inp []byte) ([]byte, error) {
	return s2.Encode(nil, inp), nil
}

func (S2) Uncompress(inp []byte) ([]byte, error) {
	return s2.Decode(nil, inp)
}

// Flate is DEFLATE compression.
type Flate struct {
	Level int
}

func (Flate) Name() string { return "flate" }

func (f Flate) Compress(inp []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	level := f.Level
	if level < -2 || level > 9 || level == 0 {
		level = flate.DefaultCompression
	}
	w, err := flate.NewWriter(buf, level)
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(inp); err != nil {
		return nil, err
	}
	err = w.Close()
	return buf.Bytes(), err
}

func (Flate) Uncompress(inp []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(inp))
	defer r.Close()
	return io.ReadAll(r)
}

// LZMA is LZMA compression.
// It is slow but compresses text well.
type LZMA struct{}

func (LZMA) Name() string { return "lzma" }

func (LZMA) Compress(inp []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(inp); err != nil {
		return nil, err
	}
	err = w.Close()
	return buf.Bytes(), err
}

func (LZMA) Uncompress(inp []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(inp))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
