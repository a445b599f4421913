package codec

import (
	"encoding/binary"
	"fmt"
)

// Item delimiter tag (FFFE,E000) in little-endian byte order.
var itemTag = [4]byte{0xFE, 0xFF, 0x00, 0xE0}

// Encapsulate packs already-encoded frames into the encapsulated pixel data
// layout of PS3.5 Annex A.4: a basic offset table item followed by one
// fragment item per frame, each padded to even length. The caller embeds
// the returned buffer in a pixel data element of undefined length.
func Encapsulate(frames [][]byte) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames to encapsulate", ErrInvalidParameter)
	}

	offsets := make([]uint32, len(frames))
	var running uint32
	total := 8 + 4*len(frames)
	for i, f := range frames {
		offsets[i] = running
		padded := len(f) + len(f)%2
		running += uint32(8 + padded)
		total += 8 + padded
	}

	out := make([]byte, 0, total)
	out = appendItemHeader(out, uint32(4*len(frames)))
	for _, off := range offsets {
		out = binary.LittleEndian.AppendUint32(out, off)
	}

	for _, f := range frames {
		padded := uint32(len(f) + len(f)%2)
		out = appendItemHeader(out, padded)
		out = append(out, f...)
		if len(f)%2 != 0 {
			out = append(out, 0)
		}
	}
	return out, nil
}

func appendItemHeader(buf []byte, length uint32) []byte {
	buf = append(buf, itemTag[:]...)
	return binary.LittleEndian.AppendUint32(buf, length)
}
