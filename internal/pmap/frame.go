package pmap

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mrsinham/pmapforge/internal/codec"
)

// FrameEncoder turns one 2D sample plane into the byte payload of one
// frame. A nil codec selects native little-endian serialization; a non-nil
// codec selects encapsulated mode, where samples are cast to unsigned
// 16-bit and handed to the codec.
type FrameEncoder struct {
	policy Policy
	codec  codec.Codec
}

// NewFrameEncoder returns an encoder bound to one storage policy. Pass a
// nil codec for native transfer syntaxes.
func NewFrameEncoder(policy Policy, c codec.Codec) *FrameEncoder {
	return &FrameEncoder{policy: policy, codec: c}
}

// Encode serializes a single rank-2 plane.
func (e *FrameEncoder) Encode(plane *Array) ([]byte, error) {
	if plane.Rank() != 2 {
		return nil, fmt.Errorf("%w: rank %d input", ErrNotASinglePlane, plane.Rank())
	}
	if e.codec == nil {
		return e.encodeNative(plane), nil
	}
	return e.encodeEncapsulated(plane)
}

// encodeNative serializes the plane in row-major little-endian order.
// Unsigned 8-bit samples are widened to 16 bits, signed samples are
// shifted by the rescale intercept and widened, floats are written in
// their native width.
func (e *FrameEncoder) encodeNative(plane *Array) []byte {
	buf := make([]byte, 0, plane.Len()*e.policy.BytesPerSample())
	switch plane.kind {
	case KindUint8:
		for _, v := range plane.u8 {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
		}
	case KindUint16:
		for _, v := range plane.u16 {
			buf = binary.LittleEndian.AppendUint16(buf, v)
		}
	case KindInt8:
		offset := int32(e.policy.RescaleIntercept)
		for _, v := range plane.i8 {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(int32(v)+offset))
		}
	case KindInt16:
		offset := int32(e.policy.RescaleIntercept)
		for _, v := range plane.i16 {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(int32(v)+offset))
		}
	case KindFloat32:
		for _, v := range plane.f32 {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	case KindFloat64:
		for _, v := range plane.f64 {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}

// encodeEncapsulated casts the plane to unsigned 16-bit samples and
// delegates compression to the codec.
func (e *FrameEncoder) encodeEncapsulated(plane *Array) ([]byte, error) {
	raw := make([]byte, 0, plane.Len()*2)
	switch plane.kind {
	case KindUint8:
		for _, v := range plane.u8 {
			raw = binary.LittleEndian.AppendUint16(raw, uint16(v))
		}
	case KindUint16:
		for _, v := range plane.u16 {
			raw = binary.LittleEndian.AppendUint16(raw, v)
		}
	case KindInt8:
		for _, v := range plane.i8 {
			raw = binary.LittleEndian.AppendUint16(raw, uint16(v))
		}
	case KindInt16:
		for _, v := range plane.i16 {
			raw = binary.LittleEndian.AppendUint16(raw, uint16(v))
		}
	default:
		return nil, fmt.Errorf("%w: %s samples cannot be encapsulated", ErrUnsupportedTransferSyntax, plane.kind)
	}

	shape := plane.Shape()
	params := codec.Params{
		Rows:                      shape[0],
		Columns:                   shape[1],
		BitsAllocated:             e.policy.BitsAllocated,
		BitsStored:                e.policy.BitsStored,
		HighBit:                   e.policy.HighBit,
		PixelRepresentation:       e.policy.PixelRepresentation,
		PhotometricInterpretation: "MONOCHROME2",
	}
	out, err := e.codec.Encode(raw, params)
	if err != nil {
		return nil, fmt.Errorf("%s frame encoding: %w", e.codec.Name(), err)
	}
	return out, nil
}
