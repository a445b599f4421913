package pmap

import (
	"fmt"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Representation is one of the four storage representations a parametric
// map supports. It is resolved once per document from the array's element
// kind and applies to every frame.
type Representation int

const (
	// RepSignedShort stores signed 8/16-bit input as unsigned 16-bit
	// samples shifted by the rescale intercept.
	RepSignedShort Representation = iota + 1
	// RepUnsignedShort stores unsigned 8/16-bit input as unsigned 16-bit
	// samples.
	RepUnsignedShort
	// RepFloatSingle stores single-precision samples verbatim.
	RepFloatSingle
	// RepFloatDouble stores double-precision samples verbatim.
	RepFloatDouble
)

// Policy fixes the storage attributes and the rescale transform for every
// frame of one document.
type Policy struct {
	Representation Representation
	BitsAllocated  int
	// BitsStored and HighBit are meaningful for the integer
	// representations only and are zero otherwise.
	BitsStored int
	HighBit    int
	// PixelRepresentation is always 0: integral samples are stored
	// unsigned after rescaling.
	PixelRepresentation int

	// RescaleIntercept and RescaleSlope map stored values back to the
	// original range.
	RescaleIntercept float64
	RescaleSlope     float64

	// PixelDataTag is the attribute the encoded buffer is stored under.
	PixelDataTag tag.Tag
}

// ResolvePolicy maps an element kind to its storage policy. Signed integer
// input is shifted into the unsigned 16-bit range (intercept 2^15) so
// integral storage is always unsigned; all other kinds use the identity
// transform.
func ResolvePolicy(kind ElementKind) (Policy, error) {
	switch kind {
	case KindInt8, KindInt16:
		return Policy{
			Representation:   RepSignedShort,
			BitsAllocated:    16,
			BitsStored:       16,
			HighBit:          15,
			RescaleIntercept: 1 << 15,
			RescaleSlope:     1,
			PixelDataTag:     tag.PixelData,
		}, nil
	case KindUint8, KindUint16:
		return Policy{
			Representation: RepUnsignedShort,
			BitsAllocated:  16,
			BitsStored:     16,
			HighBit:        15,
			RescaleSlope:   1,
			PixelDataTag:   tag.PixelData,
		}, nil
	case KindFloat32:
		return Policy{
			Representation: RepFloatSingle,
			BitsAllocated:  32,
			RescaleSlope:   1,
			PixelDataTag:   tag.FloatPixelData,
		}, nil
	case KindFloat64:
		return Policy{
			Representation: RepFloatDouble,
			BitsAllocated:  64,
			RescaleSlope:   1,
			PixelDataTag:   tag.DoubleFloatPixelData,
		}, nil
	}
	return Policy{}, fmt.Errorf("%w: %s", ErrUnsupportedElementType, kind)
}

// IsFloat reports whether samples are stored as floating point.
func (p Policy) IsFloat() bool {
	return p.Representation == RepFloatSingle || p.Representation == RepFloatDouble
}

// BytesPerSample returns the storage width of one sample.
func (p Policy) BytesPerSample() int {
	return p.BitsAllocated / 8
}
