package pmap

import (
	"fmt"

	"github.com/mrsinham/pmapforge/internal/geometry"
	"github.com/mrsinham/pmapforge/internal/source"
)

// planeIndex pairs each spatial plane of the array with its position and
// its dimension index values, in array order.
type planeIndex struct {
	positions   []geometry.PlanePosition
	indexValues [][]int
}

// resolvePlanes determines the position of every spatial plane. When the
// caller supplies positions they are used as given; otherwise one position
// per plane is derived from the source images. Either way the count must
// equal the number of planes in the array.
func resolvePlanes(provider geometry.Provider, images []*source.Image, supplied []geometry.PlanePosition, planes int) (*planeIndex, error) {
	positions := supplied
	if positions == nil {
		if images[0].IsSlide() {
			return nil, fmt.Errorf("slide coordinate system sources need explicit plane positions")
		}
		var err error
		if images[0].IsMultiframe() {
			positions, err = provider.PlanePositionsFromMultiframe(images[0])
		} else {
			positions, err = provider.PlanePositionsFromSeries(images)
		}
		if err != nil {
			return nil, fmt.Errorf("deriving plane positions: %w", err)
		}
	}
	if len(positions) != planes {
		return nil, fmt.Errorf("%w: %d plane positions for %d planes", ErrPlaneCountMismatch, len(positions), planes)
	}
	values, err := provider.IndexValues(positions)
	if err != nil {
		return nil, fmt.Errorf("ranking plane positions: %w", err)
	}
	return &planeIndex{positions: positions, indexValues: values}, nil
}
