package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/sctable/internal/coding"
	"github.com/hupe1980/sctable/internal/hash"
)

// Codec identifies the compression algorithm of an envelope.
type Codec uint8

const (
	// None stores the payload as is.
	None Codec = 0
	// LZ4 uses LZ4 block compression (fast, good for hot data).
	LZ4 Codec = 1
	// Zstd uses zstd (better ratio, good for cold data).
	Zstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps a codec name to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	}
	return None, fmt.Errorf("compress: unknown codec %q", s)
}

// HeaderSize is the envelope header width.
const HeaderSize = 16

var magic = [4]byte{'s', 'c', 'z', 'p'}

var (
	// ErrCorrupt is returned for malformed envelopes.
	ErrCorrupt = errors.New("compress: corrupt envelope")
	// ErrTooLarge is returned when the declared raw length exceeds the limit.
	ErrTooLarge = errors.New("compress: envelope exceeds size limit")
)

// maxDecoderMemory caps what a zstd frame may ask the decoder to allocate.
const maxDecoderMemory = 1 << 30

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecoderMemory),
	)
	return dec
}

// IsEnvelope reports whether b starts with the envelope magic.
func IsEnvelope(b []byte) bool {
	return len(b) >= HeaderSize && bytes.Equal(b[:4], magic[:])
}

// Wrap compresses raw with codec and returns the envelope.
// If compression does not shrink the payload, it is stored with codec None.
func Wrap(raw []byte, codec Codec) ([]byte, error) {
	if uint64(len(raw)) > uint64(^uint32(0)) {
		return nil, ErrTooLarge
	}

	var payload []byte
	switch codec {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("compress: lz4: %w", err)
		}
		payload = buf[:n]
	case Zstd:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unknown codec %d", codec)
	}

	// n == 0 from lz4 means incompressible.
	if codec != None && (len(payload) == 0 || len(payload) >= len(raw)) {
		codec = None
	}
	if codec == None {
		payload = raw
	}

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, magic[:]...)
	out = append(out, byte(codec), 0, 0, 0)
	out = coding.AppendFixed32(out, uint32(len(raw)))
	out = coding.AppendFixed32(out, hash.CRC32C(raw))
	return append(out, payload...), nil
}

// Unwrap returns the raw bytes held by an envelope. Input without the
// envelope magic is returned unchanged. maxSize bounds the declared raw
// length; values <= 0 disable the bound.
func Unwrap(b []byte, maxSize int) ([]byte, Codec, error) {
	if !IsEnvelope(b) {
		return b, None, nil
	}

	codec := Codec(b[4])
	rawLen := coding.Fixed32(b[8:12])
	sum := coding.Fixed32(b[12:16])
	payload := b[HeaderSize:]

	if maxSize > 0 && uint64(rawLen) > uint64(maxSize) {
		return nil, codec, ErrTooLarge
	}

	var raw []byte
	switch codec {
	case None:
		if uint64(len(payload)) != uint64(rawLen) {
			return nil, codec, fmt.Errorf("%w: length mismatch", ErrCorrupt)
		}
		raw = payload
	case LZ4:
		raw = make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, codec, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if uint32(n) != rawLen {
			return nil, codec, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	case Zstd:
		var err error
		if raw, err = decodeZstd(payload, rawLen); err != nil {
			return nil, codec, err
		}
	default:
		return nil, codec, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, codec)
	}

	if hash.CRC32C(raw) != sum {
		return nil, codec, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return raw, codec, nil
}

// decodeZstd decodes payload, which must expand to exactly rawLen bytes.
// Decoding stops as soon as the output would exceed rawLen.
func decodeZstd(payload []byte, rawLen uint32) ([]byte, error) {
	dec := getZstdDecoder()
	defer func() {
		_ = dec.Reset(nil)
		zstdDecoderPool.Put(dec)
	}()

	if err := dec.Reset(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	raw := make([]byte, rawLen)
	if _, err := io.ReadFull(dec, raw); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	var extra [1]byte
	if n, err := dec.Read(extra[:]); n > 0 || !errors.Is(err, io.EOF) {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
	}
	return raw, nil
}
