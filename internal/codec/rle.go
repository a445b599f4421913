package codec

import (
	"encoding/binary"
	"fmt"
)

// rleHeaderSize is the fixed size of the RLE segment offset header
// (16 little-endian uint32 values, PS3.5 Annex G).
const rleHeaderSize = 64

// rleMaxSegments is the number of offset slots in the RLE header.
const rleMaxSegments = 15

// RLECodec compresses frames with DICOM run-length encoding. Composite
// pixel codes are split into byte segments (most significant byte first)
// and each segment is PackBits-encoded.
type RLECodec struct{}

// Name returns the codec name.
func (RLECodec) Name() string {
	return "RLE Lossless"
}

// TransferSyntaxUID returns the RLE Lossless transfer syntax UID.
func (RLECodec) TransferSyntaxUID() string {
	return RLELossless
}

// Encode compresses one grayscale frame.
func (RLECodec) Encode(frame []byte, p Params) ([]byte, error) {
	bytesPerSample := p.BitsAllocated / 8
	if bytesPerSample < 1 || bytesPerSample > rleMaxSegments {
		return nil, fmt.Errorf("%w: %d bits allocated", ErrInvalidParameter, p.BitsAllocated)
	}
	samples := p.Rows * p.Columns
	if len(frame) != samples*bytesPerSample {
		return nil, fmt.Errorf("%w: frame is %d bytes, want %d", ErrInvalidParameter, len(frame), samples*bytesPerSample)
	}

	// One segment per byte of the composite pixel code, most significant
	// byte first. Input samples are little endian.
	segments := make([][]byte, bytesPerSample)
	for s := 0; s < bytesPerSample; s++ {
		plane := make([]byte, samples)
		byteIdx := bytesPerSample - 1 - s
		for i := 0; i < samples; i++ {
			plane[i] = frame[i*bytesPerSample+byteIdx]
		}
		segments[s] = packBits(plane)
		if len(segments[s])%2 != 0 {
			segments[s] = append(segments[s], 0)
		}
	}

	out := make([]byte, rleHeaderSize)
	binary.LittleEndian.PutUint32(out[0:], uint32(len(segments)))
	for s, seg := range segments {
		binary.LittleEndian.PutUint32(out[4*(s+1):], uint32(len(out)))
		out = append(out, seg...)
	}
	return out, nil
}

// Decode reverses Encode. It is used to verify round trips; decoding
// arbitrary third-party RLE streams is out of scope.
func (RLECodec) Decode(data []byte, p Params) ([]byte, error) {
	if len(data) < rleHeaderSize {
		return nil, fmt.Errorf("%w: truncated RLE header", ErrInvalidParameter)
	}
	numSegments := int(binary.LittleEndian.Uint32(data[0:]))
	if numSegments < 1 || numSegments > rleMaxSegments {
		return nil, fmt.Errorf("%w: %d RLE segments", ErrInvalidParameter, numSegments)
	}
	samples := p.Rows * p.Columns

	out := make([]byte, samples*numSegments)
	for s := 0; s < numSegments; s++ {
		start := int(binary.LittleEndian.Uint32(data[4*(s+1):]))
		end := len(data)
		if s+1 < numSegments {
			end = int(binary.LittleEndian.Uint32(data[4*(s+2):]))
		}
		if start < rleHeaderSize || start > end || end > len(data) {
			return nil, fmt.Errorf("%w: RLE segment %d offsets [%d,%d)", ErrInvalidParameter, s, start, end)
		}
		plane, err := unpackBits(data[start:end], samples)
		if err != nil {
			return nil, fmt.Errorf("RLE segment %d: %w", s, err)
		}
		byteIdx := numSegments - 1 - s
		for i := 0; i < samples; i++ {
			out[i*numSegments+byteIdx] = plane[i]
		}
	}
	return out, nil
}

// packBits run-length encodes one byte segment (PS3.5 G.3.1).
func packBits(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/128+2)
	n := len(src)
	for i := 0; i < n; {
		run := 1
		for i+run < n && src[i+run] == src[i] && run < 128 {
			run++
		}
		if run >= 2 {
			out = append(out, byte(257-run), src[i])
			i += run
			continue
		}
		// Literal run up to the next replicate run or 128 bytes.
		j := i + 1
		for j < n && j-i < 128 {
			if j+1 < n && src[j] == src[j+1] {
				break
			}
			j++
		}
		out = append(out, byte(j-i-1))
		out = append(out, src[i:j]...)
		i = j
	}
	return out
}

// unpackBits decodes a PackBits segment into exactly want bytes.
func unpackBits(src []byte, want int) ([]byte, error) {
	out := make([]byte, 0, want)
	for i := 0; i < len(src) && len(out) < want; {
		control := int8(src[i])
		i++
		switch {
		case control >= 0:
			count := int(control) + 1
			if i+count > len(src) {
				return nil, fmt.Errorf("literal run of %d bytes overflows segment", count)
			}
			out = append(out, src[i:i+count]...)
			i += count
		case control == -128:
			// No-op per PackBits.
		default:
			if i >= len(src) {
				return nil, fmt.Errorf("replicate run missing value byte")
			}
			count := int(-control) + 1
			for k := 0; k < count; k++ {
				out = append(out, src[i])
			}
			i++
		}
	}
	if len(out) < want {
		return nil, fmt.Errorf("segment decoded to %d bytes, want %d", len(out), want)
	}
	return out[:want], nil
}

func init() {
	Register(RLECodec{})
}
