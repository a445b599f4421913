// Package codec provides single-frame pixel data codecs for encapsulated
// transfer syntaxes, a registry keyed by transfer syntax UID, and the byte
// encapsulator that packs encoded frames with a basic offset table.
package codec

import (
	"errors"
	"sync"
)

// Transfer syntax UIDs from DICOM PS3.6 Annex A.
const (
	// ImplicitVRLittleEndian is the default uncompressed transfer syntax.
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"

	// ExplicitVRLittleEndian is the recommended uncompressed transfer syntax.
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

	// JPEG2000Lossless compresses each frame with JPEG 2000 (lossless only).
	JPEG2000Lossless = "1.2.840.10008.1.2.4.90"

	// RLELossless compresses each frame with DICOM run-length encoding.
	RLELossless = "1.2.840.10008.1.2.5"
)

var (
	// ErrCodecNotFound is returned when no codec is registered for a
	// transfer syntax.
	ErrCodecNotFound = errors.New("codec not found")

	// ErrInvalidParameter is returned for encode parameters a codec cannot
	// honor.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IsEncapsulated reports whether a transfer syntax stores each frame as an
// independently compressed fragment rather than as concatenated raw samples.
func IsEncapsulated(transferSyntaxUID string) bool {
	switch transferSyntaxUID {
	case ImplicitVRLittleEndian, ExplicitVRLittleEndian:
		return false
	}
	return true
}

// Params describes the sample layout of the frame handed to a codec.
type Params struct {
	Rows                      int
	Columns                   int
	BitsAllocated             int
	BitsStored                int
	HighBit                   int
	PixelRepresentation       int // 0 = unsigned, 1 = signed
	PhotometricInterpretation string
}

// Codec compresses a single frame of raw little-endian samples.
type Codec interface {
	// Encode compresses one frame. The input holds Rows*Columns samples of
	// BitsAllocated/8 bytes each, row-major, little endian.
	Encode(frame []byte, p Params) ([]byte, error)

	// TransferSyntaxUID identifies the transfer syntax this codec produces.
	TransferSyntaxUID() string

	// Name returns a human-readable codec name.
	Name() string
}

// Registry maps transfer syntax UIDs to codecs.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

var defaultRegistry = &Registry{codecs: make(map[string]Codec)}

// Register adds a codec to the default registry.
func Register(c Codec) {
	defaultRegistry.Register(c)
}

// Get retrieves a codec from the default registry by transfer syntax UID.
func Get(transferSyntaxUID string) (Codec, error) {
	return defaultRegistry.Get(transferSyntaxUID)
}

// Register adds a codec, replacing any codec already registered for the
// same transfer syntax.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.TransferSyntaxUID()] = c
}

// Get retrieves a codec by transfer syntax UID.
func (r *Registry) Get(transferSyntaxUID string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[transferSyntaxUID]
	if !ok {
		return nil, ErrCodecNotFound
	}
	return c, nil
}
