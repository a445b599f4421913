package source

import (
	"fmt"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func testDataset(extra ...*dicom.Element) *dicom.Dataset {
	elements := []*dicom.Element{
		mustNewElement(tag.StudyInstanceUID, []string{"1.2.3.4"}),
		mustNewElement(tag.SeriesInstanceUID, []string{"1.2.3.4.5"}),
		mustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.SOPInstanceUID, []string{"1.2.3.4.5.6"}),
		mustNewElement(tag.FrameOfReferenceUID, []string{"1.2.3.4.9"}),
		mustNewElement(tag.Rows, []int{16}),
		mustNewElement(tag.Columns, []int{32}),
		mustNewElement(tag.PixelSpacing, []string{"0.5", "0.5"}),
		mustNewElement(tag.SliceThickness, []string{"1.2"}),
		mustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
		mustNewElement(tag.ImagePositionPatient, []string{"-100", "-100", "5"}),
	}
	elements = append(elements, extra...)
	return &dicom.Dataset{Elements: elements}
}

func TestFromDataset(t *testing.T) {
	img, err := FromDataset(testDataset())
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}

	if img.StudyInstanceUID != "1.2.3.4" {
		t.Errorf("StudyInstanceUID = %q", img.StudyInstanceUID)
	}
	if img.Rows != 16 || img.Columns != 32 {
		t.Errorf("matrix = %dx%d, want 16x32", img.Rows, img.Columns)
	}
	if len(img.PixelSpacing) != 2 || img.PixelSpacing[0] != 0.5 {
		t.Errorf("PixelSpacing = %v", img.PixelSpacing)
	}
	if img.SliceThickness != 1.2 {
		t.Errorf("SliceThickness = %v", img.SliceThickness)
	}
	if img.IsMultiframe() {
		t.Error("single-frame image reported as multi-frame")
	}
	if img.IsSlide() {
		t.Error("patient image reported as slide")
	}
	if len(img.ImagePositionPatient) != 3 || img.ImagePositionPatient[2] != 5 {
		t.Errorf("ImagePositionPatient = %v", img.ImagePositionPatient)
	}
}

func TestFromDataset_MissingRequired(t *testing.T) {
	ds := &dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.StudyInstanceUID, []string{"1.2.3.4"}),
	}}
	if _, err := FromDataset(ds); err == nil {
		t.Error("expected error for dataset without series/frame-of-reference/matrix attributes")
	}
}

func TestFromDataset_Multiframe(t *testing.T) {
	img, err := FromDataset(testDataset(
		mustNewElement(tag.NumberOfFrames, []string{"12"}),
	))
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}
	if !img.IsMultiframe() || img.NumberOfFrames != 12 {
		t.Errorf("NumberOfFrames = %d, want 12", img.NumberOfFrames)
	}
}

func TestFromDataset_SlideCoordinates(t *testing.T) {
	img, err := FromDataset(testDataset(
		mustNewElement(tag.ImageOrientationSlide, []string{"1", "0", "0", "0", "1", "0"}),
	))
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}
	if !img.IsSlide() {
		t.Error("image with ImageOrientationSlide not reported as slide")
	}
}

func TestPerFramePlanePositions(t *testing.T) {
	groups := make([][]*dicom.Element, 0, 3)
	for i := 0; i < 3; i++ {
		posItem := []*dicom.Element{
			mustNewElement(tag.ImagePositionPatient, []string{"0", "0", fmt.Sprintf("%d", i*2)}),
		}
		planePos := mustNewElement(tag.PlanePositionSequence, [][]*dicom.Element{posItem})
		groups = append(groups, []*dicom.Element{planePos})
	}
	img, err := FromDataset(testDataset(
		mustNewElement(tag.NumberOfFrames, []string{"3"}),
		mustNewElement(tag.PerFrameFunctionalGroupsSequence, groups),
	))
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}

	positions, err := img.PerFramePlanePositions()
	if err != nil {
		t.Fatalf("PerFramePlanePositions: %v", err)
	}
	if len(positions) != 3 {
		t.Fatalf("got %d positions, want 3", len(positions))
	}
	for i, pos := range positions {
		if pos[2] != float64(i*2) {
			t.Errorf("frame %d z = %v, want %d", i, pos[2], i*2)
		}
	}
}

func TestFromDataset_MultiframeSharedGroups(t *testing.T) {
	measuresItem := []*dicom.Element{
		mustNewElement(tag.PixelSpacing, []string{"0.25", "0.25"}),
		mustNewElement(tag.SliceThickness, []string{"2"}),
		mustNewElement(tag.SpacingBetweenSlices, []string{"2.5"}),
	}
	orientationItem := []*dicom.Element{
		mustNewElement(tag.ImageOrientationPatient, []string{"0", "1", "0", "1", "0", "0"}),
	}
	sharedItem := []*dicom.Element{
		mustNewElement(tag.PixelMeasuresSequence, [][]*dicom.Element{measuresItem}),
		mustNewElement(tag.PlaneOrientationSequence, [][]*dicom.Element{orientationItem}),
	}
	ds := &dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.StudyInstanceUID, []string{"1.2.3.4"}),
		mustNewElement(tag.SeriesInstanceUID, []string{"1.2.3.4.5"}),
		mustNewElement(tag.FrameOfReferenceUID, []string{"1.2.3.4.9"}),
		mustNewElement(tag.Rows, []int{16}),
		mustNewElement(tag.Columns, []int{32}),
		mustNewElement(tag.NumberOfFrames, []string{"4"}),
		mustNewElement(tag.SharedFunctionalGroupsSequence, [][]*dicom.Element{sharedItem}),
	}}

	img, err := FromDataset(ds)
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}
	if len(img.PixelSpacing) != 2 || img.PixelSpacing[0] != 0.25 {
		t.Errorf("PixelSpacing = %v, want shared group value 0.25", img.PixelSpacing)
	}
	if img.SliceThickness != 2 {
		t.Errorf("SliceThickness = %v, want shared group value 2", img.SliceThickness)
	}
	if img.SpacingBetweenSlices == nil || *img.SpacingBetweenSlices != 2.5 {
		t.Errorf("SpacingBetweenSlices = %v, want shared group value 2.5", img.SpacingBetweenSlices)
	}
	if len(img.ImageOrientationPatient) != 6 || img.ImageOrientationPatient[1] != 1 {
		t.Errorf("ImageOrientationPatient = %v, want shared group cosines", img.ImageOrientationPatient)
	}
}

func TestFromDataset_TopLevelWinsOverSharedGroups(t *testing.T) {
	sharedItem := []*dicom.Element{
		mustNewElement(tag.PixelMeasuresSequence, [][]*dicom.Element{{
			mustNewElement(tag.PixelSpacing, []string{"9", "9"}),
		}}),
	}
	img, err := FromDataset(testDataset(
		mustNewElement(tag.NumberOfFrames, []string{"4"}),
		mustNewElement(tag.SharedFunctionalGroupsSequence, [][]*dicom.Element{sharedItem}),
	))
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}
	if img.PixelSpacing[0] != 0.5 {
		t.Errorf("PixelSpacing = %v, want top-level value 0.5", img.PixelSpacing)
	}
}
