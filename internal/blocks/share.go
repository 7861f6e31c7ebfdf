package blocks

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// SharePrefix marks the share-code format version.
const SharePrefix = "kb1:"

// maxShareSize bounds the decompressed snapshot. Decoded block shapes are
// bounded separately by MaxElseIfCount.
const maxShareSize = 1 << 20

var ErrShareCode = errors.New("invalid share code")

var (
	cborEncMode cbor.EncMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("blocks: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic(fmt.Sprintf("blocks: failed to create zstd encoder: %v", err))
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxShareSize))
	if err != nil {
		panic(fmt.Sprintf("blocks: failed to create zstd decoder: %v", err))
	}
}

// EncodeShare packs a workspace into a single pasteable line. Block ids are
// dropped; positions, fields and connections are kept.
func EncodeShare(w *Workspace) (string, error) {
	data, err := cborEncMode.Marshal(toSaved(w, false))
	if err != nil {
		return "", fmt.Errorf("encode share code: %w", err)
	}
	packed := zstdEncoder.EncodeAll(data, nil)
	return SharePrefix + base64.RawURLEncoding.EncodeToString(packed), nil
}

// DecodeShare rebuilds a workspace from a share code.
func DecodeShare(code string) (*Workspace, error) {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, SharePrefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrShareCode, SharePrefix)
	}
	packed, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(code, SharePrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShareCode, err)
	}
	data, err := zstdDecoder.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShareCode, err)
	}
	var saved savedWorkspace
	if err := cbor.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShareCode, err)
	}
	return fromSaved(&saved)
}
