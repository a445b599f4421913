// Package geometry derives spatial ordering information for the frames of a
// multi-frame image: plane positions inherited from source images and the
// dimension index values that locate each plane along the declared
// organizational axes.
package geometry

import (
	"fmt"
	"sort"

	"github.com/mrsinham/pmapforge/internal/source"
)

// CoordinateSystem names the frame of reference the planes are defined in.
type CoordinateSystem int

const (
	// Patient is the patient-relative coordinate system of cross-sectional
	// imaging.
	Patient CoordinateSystem = iota
	// Slide is the slide-relative coordinate system of whole-slide
	// microscopy.
	Slide
)

// String returns the DICOM code string for the coordinate system.
func (c CoordinateSystem) String() string {
	if c == Slide {
		return "SLIDE"
	}
	return "PATIENT"
}

// PlanePosition locates one 2D plane. For the patient coordinate system the
// Position holds the upper-left corner in millimeters. For the slide
// coordinate system Position holds the X/Y/Z offsets in the slide frame and
// MatrixPosition the column/row position within the total pixel matrix.
type PlanePosition struct {
	CoordinateSystem CoordinateSystem
	Position         [3]float64
	MatrixPosition   [2]int
}

// Provider supplies plane positions and dimension index values. The build
// pipeline consumes these values; it never recomputes them.
type Provider interface {
	// PlanePositionsFromSeries derives one plane position per single-frame
	// source image, in the order the images are given.
	PlanePositionsFromSeries(images []*source.Image) ([]PlanePosition, error)

	// PlanePositionsFromMultiframe derives one plane position per frame of
	// a single multi-frame source image.
	PlanePositionsFromMultiframe(img *source.Image) ([]PlanePosition, error)

	// IndexValues returns, for each position, the ordered tuple of 1-based
	// dimension index values. The outer slice preserves the input order.
	IndexValues(positions []PlanePosition) ([][]int, error)
}

// StandardProvider ranks plane positions by their physical coordinates. It
// is the default Provider used by the builder.
type StandardProvider struct{}

// PlanePositionsFromSeries reads ImagePositionPatient from every image.
func (StandardProvider) PlanePositionsFromSeries(images []*source.Image) ([]PlanePosition, error) {
	positions := make([]PlanePosition, 0, len(images))
	for i, img := range images {
		if len(img.ImagePositionPatient) != 3 {
			return nil, fmt.Errorf("source image %d has no ImagePositionPatient", i)
		}
		var p PlanePosition
		copy(p.Position[:], img.ImagePositionPatient)
		positions = append(positions, p)
	}
	return positions, nil
}

// PlanePositionsFromMultiframe reads the plane position of every frame from
// the per-frame functional groups of a multi-frame image.
func (StandardProvider) PlanePositionsFromMultiframe(img *source.Image) ([]PlanePosition, error) {
	raw, err := img.PerFramePlanePositions()
	if err != nil {
		return nil, err
	}
	positions := make([]PlanePosition, 0, len(raw))
	for i, pos := range raw {
		if len(pos) != 3 {
			return nil, fmt.Errorf("frame %d has malformed plane position %v", i, pos)
		}
		var p PlanePosition
		copy(p.Position[:], pos)
		positions = append(positions, p)
	}
	return positions, nil
}

// IndexValues ranks the positions 1-based along the relevant axes. In the
// patient coordinate system there is a single in-stack dimension: positions
// are ranked by their physical coordinates, slice axis first. In the slide
// coordinate system positions are ranked by row and column within the total
// pixel matrix.
func (StandardProvider) IndexValues(positions []PlanePosition) ([][]int, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("no plane positions to index")
	}
	if positions[0].CoordinateSystem == Slide {
		return slideIndexValues(positions), nil
	}
	return patientIndexValues(positions), nil
}

func patientIndexValues(positions []PlanePosition) [][]int {
	unique := make(map[[3]float64]struct{}, len(positions))
	for _, p := range positions {
		unique[p.Position] = struct{}{}
	}
	ordered := make([][3]float64, 0, len(unique))
	for pos := range unique {
		ordered = append(ordered, pos)
	}
	// Rank along the stack: z varies fastest across slices for axial
	// acquisitions, so compare it first.
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
	rank := make(map[[3]float64]int, len(ordered))
	for i, pos := range ordered {
		rank[pos] = i + 1
	}

	values := make([][]int, len(positions))
	for i, p := range positions {
		values[i] = []int{rank[p.Position]}
	}
	return values
}

func slideIndexValues(positions []PlanePosition) [][]int {
	rowRank := matrixRank(positions, 1)
	colRank := matrixRank(positions, 0)

	values := make([][]int, len(positions))
	for i, p := range positions {
		values[i] = []int{rowRank[p.MatrixPosition[1]], colRank[p.MatrixPosition[0]]}
	}
	return values
}

// matrixRank maps the distinct values of one matrix axis to 1-based ranks.
func matrixRank(positions []PlanePosition, axis int) map[int]int {
	unique := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		unique[p.MatrixPosition[axis]] = struct{}{}
	}
	ordered := make([]int, 0, len(unique))
	for v := range unique {
		ordered = append(ordered, v)
	}
	sort.Ints(ordered)
	rank := make(map[int]int, len(ordered))
	for i, v := range ordered {
		rank[v] = i + 1
	}
	return rank
}
