// Package source exposes the metadata of existing DICOM images that a
// parametric map is derived from.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/pmapforge/internal/util"
)

// Image is a read-only view over a parsed DICOM dataset. It caches the
// attributes the build pipeline needs and keeps the dataset around so
// patient and study level elements can be copied verbatim into the output.
type Image struct {
	StudyInstanceUID     string
	SeriesInstanceUID    string
	SOPClassUID          string
	SOPInstanceUID       string
	FrameOfReferenceUID  string
	Rows                 int
	Columns              int
	NumberOfFrames       int // 0 for single-frame images

	PixelSpacing            []float64 // row spacing, column spacing (mm)
	SliceThickness          float64
	SpacingBetweenSlices    *float64
	ImageOrientationPatient []float64 // six direction cosines
	ImagePositionPatient    []float64 // x, y, z (mm)

	// Slide microscopy attributes. Presence of either marks the image as
	// defined in the slide coordinate system.
	ImageOrientationSlide     []float64
	HasCenterPointCoordinates bool

	ds *dicom.Dataset
}

// FromDataset wraps a parsed dataset. It fails when attributes required to
// derive a parametric map (identifiers and pixel matrix dimensions) are
// missing.
func FromDataset(ds *dicom.Dataset) (*Image, error) {
	img := &Image{ds: ds}

	var err error
	if img.StudyInstanceUID, err = requiredString(ds, tag.StudyInstanceUID); err != nil {
		return nil, err
	}
	if img.SeriesInstanceUID, err = requiredString(ds, tag.SeriesInstanceUID); err != nil {
		return nil, err
	}
	if img.FrameOfReferenceUID, err = requiredString(ds, tag.FrameOfReferenceUID); err != nil {
		return nil, err
	}
	if img.Rows, err = requiredInt(ds, tag.Rows); err != nil {
		return nil, err
	}
	if img.Columns, err = requiredInt(ds, tag.Columns); err != nil {
		return nil, err
	}
	img.SOPClassUID, _ = optionalString(ds, tag.SOPClassUID)
	img.SOPInstanceUID, _ = optionalString(ds, tag.SOPInstanceUID)

	if n, ok := optionalString(ds, tag.NumberOfFrames); ok {
		frames, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("parse NumberOfFrames %q: %w", n, err)
		}
		img.NumberOfFrames = frames
	}

	img.PixelSpacing = optionalFloats(ds, tag.PixelSpacing)
	img.ImageOrientationPatient = optionalFloats(ds, tag.ImageOrientationPatient)
	img.ImagePositionPatient = optionalFloats(ds, tag.ImagePositionPatient)
	img.ImageOrientationSlide = optionalFloats(ds, tag.ImageOrientationSlide)
	if thickness := optionalFloats(ds, tag.SliceThickness); len(thickness) > 0 {
		img.SliceThickness = thickness[0]
	}
	if spacing := optionalFloats(ds, tag.SpacingBetweenSlices); len(spacing) > 0 {
		img.SpacingBetweenSlices = &spacing[0]
	}
	if _, err := ds.FindElementByTag(tag.ImageCenterPointCoordinatesSequence); err == nil {
		img.HasCenterPointCoordinates = true
	}
	if img.IsMultiframe() {
		img.applySharedGroups()
	}

	return img, nil
}

// applySharedGroups fills geometry attributes a multi-frame image carries
// in its Shared Functional Groups Sequence instead of at the top level.
// Top-level values win when both are present.
func (img *Image) applySharedGroups() {
	group, ok := img.sharedGroupItem()
	if !ok {
		return
	}
	if measures, ok := nestedItem(group, tag.PixelMeasuresSequence); ok {
		if len(img.PixelSpacing) == 0 {
			img.PixelSpacing = elementFloats(measures, tag.PixelSpacing)
		}
		if img.SliceThickness == 0 {
			if v := elementFloats(measures, tag.SliceThickness); len(v) > 0 {
				img.SliceThickness = v[0]
			}
		}
		if img.SpacingBetweenSlices == nil {
			if v := elementFloats(measures, tag.SpacingBetweenSlices); len(v) > 0 {
				img.SpacingBetweenSlices = &v[0]
			}
		}
	}
	if orientation, ok := nestedItem(group, tag.PlaneOrientationSequence); ok {
		if len(img.ImageOrientationPatient) == 0 {
			img.ImageOrientationPatient = elementFloats(orientation, tag.ImageOrientationPatient)
		}
	}
}

// sharedGroupItem returns the elements of the single item of the Shared
// Functional Groups Sequence, when present.
func (img *Image) sharedGroupItem() ([]*dicom.Element, bool) {
	elem, err := img.ds.FindElementByTag(tag.SharedFunctionalGroupsSequence)
	if err != nil || elem == nil {
		return nil, false
	}
	items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok || len(items) == 0 {
		return nil, false
	}
	elements, ok := items[0].GetValue().([]*dicom.Element)
	return elements, ok
}

// ReadFile parses a DICOM file into an Image.
func ReadFile(path string) (*Image, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return FromDataset(&ds)
}

// ReadDir parses every .dcm file in a directory, sorted by file name.
func ReadDir(dir string) ([]*Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".dcm") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no DICOM files found in %s", dir)
	}

	images := make([]*Image, 0, len(paths))
	for _, p := range paths {
		img, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// IsMultiframe reports whether the image carries more than one frame.
func (img *Image) IsMultiframe() bool {
	return img.NumberOfFrames > 0
}

// IsSlide reports whether the image is defined in the slide coordinate
// system rather than the patient coordinate system.
func (img *Image) IsSlide() bool {
	return len(img.ImageOrientationSlide) > 0 || img.HasCenterPointCoordinates
}

// Element returns the raw element for a tag, when present.
func (img *Image) Element(t tag.Tag) (*dicom.Element, bool) {
	elem, err := img.ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return nil, false
	}
	return elem, true
}

// Dataset returns the underlying dataset.
func (img *Image) Dataset() *dicom.Dataset {
	return img.ds
}

// PerFramePlanePositions extracts the ImagePositionPatient of every frame of
// a multi-frame image from its Per-Frame Functional Groups Sequence.
func (img *Image) PerFramePlanePositions() ([][]float64, error) {
	seqElem, err := img.ds.FindElementByTag(tag.PerFrameFunctionalGroupsSequence)
	if err != nil {
		return nil, fmt.Errorf("multi-frame source has no per-frame functional groups: %w", err)
	}
	items, ok := seqElem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil, fmt.Errorf("unexpected per-frame functional groups value type %T", seqElem.Value.GetValue())
	}

	positions := make([][]float64, 0, len(items))
	for i, item := range items {
		elements, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			return nil, fmt.Errorf("unexpected functional group item type %T", item.GetValue())
		}
		pos, err := planePositionOfGroup(elements)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// planePositionOfGroup digs the ImagePositionPatient out of one per-frame
// functional group item (Plane Position Sequence nested one level down).
func planePositionOfGroup(elements []*dicom.Element) ([]float64, error) {
	inner, ok := nestedItem(elements, tag.PlanePositionSequence)
	if !ok {
		return nil, fmt.Errorf("no plane position in functional group")
	}
	for _, e := range inner {
		if e.Tag == tag.ImagePositionPatient {
			vals, ok := e.Value.GetValue().([]string)
			if !ok {
				return nil, fmt.Errorf("unexpected ImagePositionPatient value type %T", e.Value.GetValue())
			}
			return util.ParseDSSlice(vals)
		}
	}
	return nil, fmt.Errorf("no plane position in functional group")
}

// nestedItem returns the elements of the first item of the sequence t
// among elements.
func nestedItem(elements []*dicom.Element, t tag.Tag) ([]*dicom.Element, bool) {
	for _, elem := range elements {
		if elem.Tag != t {
			continue
		}
		items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
		if !ok || len(items) == 0 {
			return nil, false
		}
		inner, ok := items[0].GetValue().([]*dicom.Element)
		return inner, ok
	}
	return nil, false
}

func elementFloats(elements []*dicom.Element, t tag.Tag) []float64 {
	for _, elem := range elements {
		if elem.Tag != t {
			continue
		}
		switch vals := elem.Value.GetValue().(type) {
		case []string:
			fs, err := util.ParseDSSlice(vals)
			if err != nil {
				return nil
			}
			return fs
		case []float64:
			return vals
		}
	}
	return nil
}

func requiredString(ds *dicom.Dataset, t tag.Tag) (string, error) {
	s, ok := optionalString(ds, t)
	if !ok {
		info, _ := tag.Find(t)
		return "", fmt.Errorf("source image is missing %s", info.Name)
	}
	return s, nil
}

func optionalString(ds *dicom.Dataset, t tag.Tag) (string, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return "", false
	}
	vals, ok := elem.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

func requiredInt(ds *dicom.Dataset, t tag.Tag) (int, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		info, _ := tag.Find(t)
		return 0, fmt.Errorf("source image is missing %s", info.Name)
	}
	vals, ok := elem.Value.GetValue().([]int)
	if !ok || len(vals) == 0 {
		info, _ := tag.Find(t)
		return 0, fmt.Errorf("source image has malformed %s", info.Name)
	}
	return vals[0], nil
}

func optionalFloats(ds *dicom.Dataset, t tag.Tag) []float64 {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return nil
	}
	switch vals := elem.Value.GetValue().(type) {
	case []string:
		fs, err := util.ParseDSSlice(vals)
		if err != nil {
			return nil
		}
		return fs
	case []float64:
		return vals
	}
	return nil
}
