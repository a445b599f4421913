// Package pmap assembles DICOM Parametric Map documents from a raw numeric
// array, per-channel real-world value mappings, and metadata inherited from
// source images.
package pmap

import "errors"

// Build failures. All are detected before any frame byte is emitted, except
// codec failures which abort the build as soon as one frame fails.
var (
	// ErrInconsistentSources is returned when the source images do not all
	// share the same study, series, frame of reference, and pixel matrix.
	ErrInconsistentSources = errors.New("source images are inconsistent")

	// ErrUnsupportedTransferSyntax is returned when the requested transfer
	// syntax cannot carry the array's element type.
	ErrUnsupportedTransferSyntax = errors.New("unsupported transfer syntax")

	// ErrInvalidWindow is returned when the window width is not positive.
	ErrInvalidWindow = errors.New("window width must be greater than zero")

	// ErrInvalidRank is returned when the pixel array is not 2D, 3D, or 4D.
	ErrInvalidRank = errors.New("pixel array must be a 2D, 3D, or 4D array")

	// ErrShapeMismatch is returned when the element count of the pixel data
	// does not match the product of the declared shape.
	ErrShapeMismatch = errors.New("pixel data length does not match shape")

	// ErrUnsupportedElementType is returned for array element types outside
	// 8/16-bit integers and 32/64-bit floats.
	ErrUnsupportedElementType = errors.New("unsupported pixel data element type")

	// ErrPlaneCountMismatch is returned when the number of plane positions
	// differs from the array's position dimension.
	ErrPlaneCountMismatch = errors.New("plane position count does not match pixel array")

	// ErrMappingShapeMismatch is returned when the shape of the value
	// mappings does not match the array's channel dimension.
	ErrMappingShapeMismatch = errors.New("value mapping shape does not match pixel array")

	// ErrNotASinglePlane is returned when the frame encoder is handed
	// anything but a single 2D plane.
	ErrNotASinglePlane = errors.New("only a single 2D plane can be encoded at a time")
)
