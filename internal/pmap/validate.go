package pmap

import (
	"fmt"

	"github.com/mrsinham/pmapforge/internal/codec"
	"github.com/mrsinham/pmapforge/internal/source"
)

// sourceKey is the tuple every source image of a series must agree on.
type sourceKey struct {
	studyInstanceUID    string
	seriesInstanceUID   string
	rows                int
	columns             int
	frameOfReferenceUID string
}

func keyOf(img *source.Image) sourceKey {
	return sourceKey{
		studyInstanceUID:    img.StudyInstanceUID,
		seriesInstanceUID:   img.SeriesInstanceUID,
		rows:                img.Rows,
		columns:             img.Columns,
		frameOfReferenceUID: img.FrameOfReferenceUID,
	}
}

// checkSources verifies the source images form a coherent set: at least
// one image, all from the same study, series, frame of reference and
// matrix size, and a multi-frame image standing alone.
func checkSources(images []*source.Image) error {
	if len(images) == 0 {
		return fmt.Errorf("%w: no source images", ErrInconsistentSources)
	}
	if images[0].IsMultiframe() && len(images) > 1 {
		return fmt.Errorf("%w: a multi-frame source image must be the only source", ErrInconsistentSources)
	}
	ref := keyOf(images[0])
	for _, img := range images[1:] {
		if img.IsMultiframe() {
			return fmt.Errorf("%w: a multi-frame source image must be the only source", ErrInconsistentSources)
		}
		if keyOf(img) != ref {
			return fmt.Errorf("%w: image %s differs from %s in study, series, frame of reference or matrix size",
				ErrInconsistentSources, img.SOPInstanceUID, images[0].SOPInstanceUID)
		}
	}
	return nil
}

// checkTransferSyntax verifies the requested transfer syntax is one the
// builder can produce, and that it can carry the array's element kind.
// Floating point samples have no encapsulated form.
func checkTransferSyntax(uid string, kind ElementKind) error {
	switch uid {
	case codec.ImplicitVRLittleEndian, codec.ExplicitVRLittleEndian:
		return nil
	case codec.JPEG2000Lossless, codec.RLELossless:
		if !kind.IsInteger() {
			return fmt.Errorf("%w: %s cannot carry %s samples", ErrUnsupportedTransferSyntax, uid, kind)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTransferSyntax, uid)
	}
}

// checkWindow verifies the display window is usable. The width must be
// strictly positive; the center is unconstrained.
func checkWindow(center, width float64) error {
	if width <= 0 {
		return fmt.Errorf("%w: window width %g must be greater than zero", ErrInvalidWindow, width)
	}
	return nil
}

// checkMappings verifies the mapping variant matches the array rank: a
// single-channel array takes a flat mapping set, a multi-channel array
// takes one mapping group per channel.
func checkMappings(arr *Array, cm *ChannelMappings) error {
	if cm == nil || cm.Channels() == 0 {
		return fmt.Errorf("%w: at least one value mapping is required", ErrMappingShapeMismatch)
	}
	if arr.Rank() < 4 {
		if cm.nested {
			return fmt.Errorf("%w: array of rank %d takes a single-channel mapping set", ErrMappingShapeMismatch, arr.Rank())
		}
		return nil
	}
	channels := arr.Shape()[3]
	if !cm.nested {
		return fmt.Errorf("%w: array with %d channels takes per-channel mapping groups", ErrMappingShapeMismatch, channels)
	}
	if cm.Channels() != channels {
		return fmt.Errorf("%w: %d mapping groups for %d channels", ErrMappingShapeMismatch, cm.Channels(), channels)
	}
	for j := 0; j < cm.Channels(); j++ {
		if len(cm.group(j)) == 0 {
			return fmt.Errorf("%w: channel %d has no value mapping", ErrMappingShapeMismatch, j)
		}
	}
	return nil
}
