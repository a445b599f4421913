package pmap

import (
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/pmapforge/internal/geometry"
	"github.com/mrsinham/pmapforge/internal/source"
	"github.com/mrsinham/pmapforge/internal/util"
)

// PixelMeasures overrides the pixel geometry inherited from the first
// source image.
type PixelMeasures struct {
	PixelSpacing         []float64 // row spacing, column spacing (mm)
	SliceThickness       float64
	SpacingBetweenSlices *float64
}

// groupAssembler builds the shared and per-frame functional group items of
// the document. The value mappings live in the shared group for a
// single-channel array and in every per-frame group otherwise.
type groupAssembler struct {
	policy      Policy
	window      Window
	mappings    *ChannelMappings
	channels    int
	measures    *PixelMeasures
	orientation []float64
}

// sharedItem builds the single item of the Shared Functional Groups
// Sequence from the geometry of the first source image.
func (g *groupAssembler) sharedItem(img *source.Image) []*dicom.Element {
	item := []*dicom.Element{
		mustNewElement(tag.PixelMeasuresSequence, [][]*dicom.Element{g.pixelMeasuresItem(img)}),
		mustNewElement(tag.PlaneOrientationSequence, [][]*dicom.Element{g.planeOrientationItem(img)}),
		mustNewElement(tag.PixelValueTransformationSequence, [][]*dicom.Element{{
			mustNewElement(tag.RescaleIntercept, []string{util.FloatToDS(g.policy.RescaleIntercept)}),
			mustNewElement(tag.RescaleSlope, []string{util.FloatToDS(g.policy.RescaleSlope)}),
			mustNewElement(tag.RescaleType, []string{"US"}),
		}}),
		mustNewElement(tag.FrameVOILUTSequence, [][]*dicom.Element{{
			mustNewElement(tag.WindowCenter, []string{util.FloatToDS(g.window.Center)}),
			mustNewElement(tag.WindowWidth, []string{util.FloatToDS(g.window.Width)}),
			mustNewElement(tag.VOILUTFunction, []string{"LINEAR_EXACT"}),
		}}),
		mustNewElement(tag.ParametricMapFrameTypeSequence, [][]*dicom.Element{{
			mustNewElement(tag.FrameType, []string{"DERIVED", "PRIMARY"}),
		}}),
	}
	if g.channels == 1 {
		item = append(item, mustNewElement(tag.RealWorldValueMappingSequence, g.mappings.sequenceItems(0, g.policy)))
	}
	return item
}

func (g *groupAssembler) pixelMeasuresItem(img *source.Image) []*dicom.Element {
	measures := g.measures
	if measures == nil {
		measures = &PixelMeasures{
			PixelSpacing:         img.PixelSpacing,
			SliceThickness:       img.SliceThickness,
			SpacingBetweenSlices: img.SpacingBetweenSlices,
		}
	}
	var item []*dicom.Element
	if len(measures.PixelSpacing) == 2 {
		item = append(item, mustNewElement(tag.PixelSpacing, []string{
			util.FloatToDS(measures.PixelSpacing[0]),
			util.FloatToDS(measures.PixelSpacing[1]),
		}))
	}
	if measures.SliceThickness > 0 {
		item = append(item, mustNewElement(tag.SliceThickness, []string{util.FloatToDS(measures.SliceThickness)}))
	}
	if measures.SpacingBetweenSlices != nil {
		item = append(item, mustNewElement(tag.SpacingBetweenSlices, []string{util.FloatToDS(*measures.SpacingBetweenSlices)}))
	}
	return item
}

func (g *groupAssembler) planeOrientationItem(img *source.Image) []*dicom.Element {
	if img.IsSlide() {
		cosines := g.orientation
		if len(cosines) == 0 {
			cosines = img.ImageOrientationSlide
		}
		return []*dicom.Element{
			mustNewElement(tag.ImageOrientationSlide, util.FloatsToDS(cosines)),
		}
	}
	cosines := g.orientation
	if len(cosines) == 0 {
		cosines = img.ImageOrientationPatient
	}
	return []*dicom.Element{
		mustNewElement(tag.ImageOrientationPatient, util.FloatsToDS(cosines)),
	}
}

// perFrameItem builds one item of the Per-frame Functional Groups Sequence
// for the frame at position i, channel j.
func (g *groupAssembler) perFrameItem(pos geometry.PlanePosition, indexValues []int, j int) []*dicom.Element {
	item := []*dicom.Element{
		mustNewElement(tag.FrameContentSequence, [][]*dicom.Element{{
			mustNewElement(tag.DimensionIndexValues, indexValues),
		}}),
		g.planePositionElement(pos),
		mustNewElement(tag.DerivationImageSequence, [][]*dicom.Element{}),
	}
	if g.channels > 1 {
		item = append(item, mustNewElement(tag.RealWorldValueMappingSequence, g.mappings.sequenceItems(j, g.policy)))
	}
	return item
}

func (g *groupAssembler) planePositionElement(pos geometry.PlanePosition) *dicom.Element {
	if pos.CoordinateSystem == geometry.Slide {
		return mustNewElement(tag.PlanePositionSlideSequence, [][]*dicom.Element{{
			mustNewElement(tag.XOffsetInSlideCoordinateSystem, []string{util.FloatToDS(pos.Position[0])}),
			mustNewElement(tag.YOffsetInSlideCoordinateSystem, []string{util.FloatToDS(pos.Position[1])}),
			mustNewElement(tag.ZOffsetInSlideCoordinateSystem, []string{util.FloatToDS(pos.Position[2])}),
			mustNewElement(tag.RowPositionInTotalImagePixelMatrix, []int{pos.MatrixPosition[1]}),
			mustNewElement(tag.ColumnPositionInTotalImagePixelMatrix, []int{pos.MatrixPosition[0]}),
		}})
	}
	return mustNewElement(tag.PlanePositionSequence, [][]*dicom.Element{{
		mustNewElement(tag.ImagePositionPatient, util.FloatsToDS(pos.Position[:])),
	}})
}
