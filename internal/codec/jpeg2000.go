package codec

import (
	"fmt"

	"github.com/cocosip/go-dicom-codec/jpeg2000"
)

// JPEG2000LosslessCodec compresses frames into JPEG 2000 (lossless)
// codestreams.
type JPEG2000LosslessCodec struct{}

// Name returns the codec name.
func (JPEG2000LosslessCodec) Name() string {
	return "JPEG 2000 Lossless"
}

// TransferSyntaxUID returns the JPEG 2000 Lossless transfer syntax UID.
func (JPEG2000LosslessCodec) TransferSyntaxUID() string {
	return JPEG2000Lossless
}

// Encode compresses one grayscale frame.
func (JPEG2000LosslessCodec) Encode(frame []byte, p Params) ([]byte, error) {
	if p.Rows <= 0 || p.Columns <= 0 {
		return nil, fmt.Errorf("%w: %dx%d frame", ErrInvalidParameter, p.Rows, p.Columns)
	}
	if want := p.Rows * p.Columns * p.BitsAllocated / 8; len(frame) != want {
		return nil, fmt.Errorf("%w: frame is %d bytes, want %d", ErrInvalidParameter, len(frame), want)
	}

	params := jpeg2000.DefaultEncodeParams(
		p.Columns,
		p.Rows,
		1,
		p.BitsStored,
		p.PixelRepresentation != 0,
	)
	encoder := jpeg2000.NewEncoder(params)
	encoded, err := encoder.Encode(frame)
	if err != nil {
		return nil, fmt.Errorf("jpeg2000 encode: %w", err)
	}
	return encoded, nil
}

func init() {
	Register(JPEG2000LosslessCodec{})
}
