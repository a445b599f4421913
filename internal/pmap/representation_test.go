package pmap

import (
	"errors"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		kind           ElementKind
		representation Representation
		bitsAllocated  int
		intercept      float64
		pixelDataTag   tag.Tag
	}{
		{kind: KindInt8, representation: RepSignedShort, bitsAllocated: 16, intercept: 32768, pixelDataTag: tag.PixelData},
		{kind: KindInt16, representation: RepSignedShort, bitsAllocated: 16, intercept: 32768, pixelDataTag: tag.PixelData},
		{kind: KindUint8, representation: RepUnsignedShort, bitsAllocated: 16, pixelDataTag: tag.PixelData},
		{kind: KindUint16, representation: RepUnsignedShort, bitsAllocated: 16, pixelDataTag: tag.PixelData},
		{kind: KindFloat32, representation: RepFloatSingle, bitsAllocated: 32, pixelDataTag: tag.FloatPixelData},
		{kind: KindFloat64, representation: RepFloatDouble, bitsAllocated: 64, pixelDataTag: tag.DoubleFloatPixelData},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			p, err := ResolvePolicy(tt.kind)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Representation != tt.representation {
				t.Errorf("representation = %v, want %v", p.Representation, tt.representation)
			}
			if p.BitsAllocated != tt.bitsAllocated {
				t.Errorf("BitsAllocated = %d, want %d", p.BitsAllocated, tt.bitsAllocated)
			}
			if p.RescaleIntercept != tt.intercept {
				t.Errorf("RescaleIntercept = %g, want %g", p.RescaleIntercept, tt.intercept)
			}
			if p.RescaleSlope != 1 {
				t.Errorf("RescaleSlope = %g, want 1", p.RescaleSlope)
			}
			if p.PixelRepresentation != 0 {
				t.Errorf("PixelRepresentation = %d, want 0", p.PixelRepresentation)
			}
			if p.PixelDataTag != tt.pixelDataTag {
				t.Errorf("PixelDataTag = %v, want %v", p.PixelDataTag, tt.pixelDataTag)
			}
		})
	}
}

func TestResolvePolicy_Unsupported(t *testing.T) {
	if _, err := ResolvePolicy(kindInvalid); !errors.Is(err, ErrUnsupportedElementType) {
		t.Errorf("expected ErrUnsupportedElementType, got %v", err)
	}
}
