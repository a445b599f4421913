package pmap

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/pmapforge/internal/codec"
	"github.com/mrsinham/pmapforge/internal/geometry"
	"github.com/mrsinham/pmapforge/internal/source"
	"github.com/mrsinham/pmapforge/internal/util"
)

// ParametricMapStorage is the SOP class of the produced documents.
const ParametricMapStorage = "1.2.840.10008.5.1.4.1.1.30"

// Document is an assembled parametric map: the complete dataset plus the
// encoded frame payloads it was built from.
type Document struct {
	dataset dicom.Dataset

	sopInstanceUID    string
	seriesInstanceUID string
	transferSyntaxUID string
	policy            Policy
	rows              int
	columns           int
	frames            [][]byte
	buffer            []byte
}

// Dataset returns the document's dataset. The element list is copied so
// callers cannot reorder or extend the document after assembly.
func (d *Document) Dataset() *dicom.Dataset {
	elements := make([]*dicom.Element, len(d.dataset.Elements))
	copy(elements, d.dataset.Elements)
	return &dicom.Dataset{Elements: elements}
}

// SOPInstanceUID returns the document's SOP instance UID.
func (d *Document) SOPInstanceUID() string { return d.sopInstanceUID }

// SeriesInstanceUID returns the document's series instance UID.
func (d *Document) SeriesInstanceUID() string { return d.seriesInstanceUID }

// TransferSyntaxUID returns the transfer syntax the document was encoded
// for.
func (d *Document) TransferSyntaxUID() string { return d.transferSyntaxUID }

// Policy returns the storage policy applied to every frame.
func (d *Document) Policy() Policy { return d.policy }

// Rows returns the frame height in pixels.
func (d *Document) Rows() int { return d.rows }

// Columns returns the frame width in pixels.
func (d *Document) Columns() int { return d.columns }

// NumberOfFrames returns the total frame count.
func (d *Document) NumberOfFrames() int { return len(d.frames) }

// FramePayload returns the encoded payload of frame k, in position-major,
// channel-minor order.
func (d *Document) FramePayload(k int) []byte { return d.frames[k] }

// PixelBuffer returns the complete pixel stream: the concatenation of all
// frame payloads for native transfer syntaxes, or the encapsulated stream
// with its basic offset table otherwise.
func (d *Document) PixelBuffer() []byte { return d.buffer }

// WriteFile writes the document to a DICOM Part 10 file.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := dicom.Write(f, d.dataset); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// patientStudyTags are copied verbatim from the first source image when
// present.
var patientStudyTags = []tag.Tag{
	tag.PatientName,
	tag.PatientID,
	tag.PatientBirthDate,
	tag.PatientSex,
	tag.StudyID,
	tag.StudyDate,
	tag.StudyTime,
	tag.AccessionNumber,
	tag.ReferringPhysicianName,
}

// assembleDocument builds the final dataset from the validated inputs and
// the encoded frames.
func assembleDocument(opts *Options, arr *Array, policy Policy, planes *planeIndex, groups *groupAssembler, frames [][]byte) (*Document, error) {
	shape := arr.Shape()
	n, rows, columns, m := shape[0], shape[1], shape[2], shape[3]
	src := opts.Sources[0]
	now := time.Now()

	doc := &Document{
		sopInstanceUID:    opts.SOPInstanceUID,
		seriesInstanceUID: opts.SeriesInstanceUID,
		transferSyntaxUID: opts.TransferSyntaxUID,
		policy:            policy,
		rows:              rows,
		columns:           columns,
		frames:            frames,
	}

	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{opts.TransferSyntaxUID}),
		mustNewElement(tag.SOPClassUID, []string{ParametricMapStorage}),
		mustNewElement(tag.SOPInstanceUID, []string{opts.SOPInstanceUID}),
		mustNewElement(tag.Modality, []string{"OT"}),
		mustNewElement(tag.StudyInstanceUID, []string{src.StudyInstanceUID}),
		mustNewElement(tag.SeriesInstanceUID, []string{opts.SeriesInstanceUID}),
		mustNewElement(tag.SeriesNumber, []string{util.IntToIS(opts.SeriesNumber)}),
		mustNewElement(tag.InstanceNumber, []string{util.IntToIS(opts.InstanceNumber)}),
		mustNewElement(tag.ContentDate, []string{now.Format("20060102")}),
		mustNewElement(tag.ContentTime, []string{now.Format("150405")}),
		mustNewElement(tag.Manufacturer, []string{opts.Manufacturer}),
		mustNewElement(tag.ManufacturerModelName, []string{opts.ManufacturerModelName}),
		mustNewElement(tag.DeviceSerialNumber, []string{opts.DeviceSerialNumber}),
		mustNewElement(tag.SoftwareVersions, []string{opts.SoftwareVersions}),
		mustNewElement(tag.FrameOfReferenceUID, []string{src.FrameOfReferenceUID}),
		mustNewElement(tag.ImageType, []string{"DERIVED", "PRIMARY"}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(tag.Rows, []int{rows}),
		mustNewElement(tag.Columns, []int{columns}),
		mustNewElement(tag.NumberOfFrames, []string{util.IntToIS(n * m)}),
		mustNewElement(tag.BurnedInAnnotation, []string{"NO"}),
		mustNewElement(tag.RecognizableVisualFeatures, []string{yesNo(opts.RecognizableVisualFeatures)}),
		mustNewElement(tag.ContentLabel, []string{"ISO_IR 192"}),
		mustNewElement(tag.ContentDescription, []string{opts.ContentDescription}),
		mustNewElement(tag.ContentCreatorName, []string{opts.ContentCreatorName}),
		mustNewElement(tag.PresentationLUTShape, []string{"IDENTITY"}),
	}

	for _, t := range patientStudyTags {
		if elem, ok := src.Element(t); ok {
			elements = append(elements, elem)
		}
	}
	if elem, ok := src.Element(tag.PositionReferenceIndicator); ok {
		elements = append(elements, elem)
	}
	elements = append(elements, lossyCompressionElements(src)...)

	elements = append(elements,
		mustNewElement(tag.BitsAllocated, []int{policy.BitsAllocated}),
	)
	if !policy.IsFloat() {
		elements = append(elements,
			mustNewElement(tag.BitsStored, []int{policy.BitsStored}),
			mustNewElement(tag.HighBit, []int{policy.HighBit}),
			mustNewElement(tag.PixelRepresentation, []int{policy.PixelRepresentation}),
		)
	}

	elements = append(elements, referenceElements(opts.Sources)...)
	elements = append(elements, dimensionElements(opts.SOPInstanceUID, planes.positions[0].CoordinateSystem)...)

	elements = append(elements,
		mustNewElement(tag.SharedFunctionalGroupsSequence, [][]*dicom.Element{groups.sharedItem(src)}),
		mustNewElement(tag.PerFrameFunctionalGroupsSequence, perFrameItems(groups, planes, n, m)),
	)

	pixelElement, buffer, err := pixelElements(opts.TransferSyntaxUID, policy, rows, columns, frames)
	if err != nil {
		return nil, err
	}
	doc.buffer = buffer
	elements = append(elements, pixelElement)
	elements = append(elements, opts.ExtraElements...)

	doc.dataset = dicom.Dataset{Elements: elements}
	return doc, nil
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

// lossyCompressionElements carries the source's lossy compression history
// forward. A parametric map derived from lossy frames stays marked lossy.
func lossyCompressionElements(src *source.Image) []*dicom.Element {
	lossy := "00"
	if elem, ok := src.Element(tag.LossyImageCompression); ok {
		if values, isStr := elem.Value.GetValue().([]string); isStr && len(values) > 0 {
			lossy = values[0]
		}
	}
	elements := []*dicom.Element{
		mustNewElement(tag.LossyImageCompression, []string{lossy}),
	}
	if lossy == "01" {
		if elem, ok := src.Element(tag.LossyImageCompressionRatio); ok {
			elements = append(elements, elem)
		}
		if elem, ok := src.Element(tag.LossyImageCompressionMethod); ok {
			elements = append(elements, elem)
		}
	}
	return elements
}

// referenceElements builds the source image and referenced series
// sequences.
func referenceElements(images []*source.Image) []*dicom.Element {
	sourceItems := make([][]*dicom.Element, 0, len(images))
	instanceItems := make([][]*dicom.Element, 0, len(images))
	for _, img := range images {
		ref := []*dicom.Element{
			mustNewElement(tag.ReferencedSOPClassUID, []string{img.SOPClassUID}),
			mustNewElement(tag.ReferencedSOPInstanceUID, []string{img.SOPInstanceUID}),
		}
		sourceItems = append(sourceItems, ref)
		instanceItems = append(instanceItems, ref)
	}
	seriesItem := []*dicom.Element{
		mustNewElement(tag.SeriesInstanceUID, []string{images[0].SeriesInstanceUID}),
		mustNewElement(tag.ReferencedInstanceSequence, instanceItems),
	}
	return []*dicom.Element{
		mustNewElement(tag.SourceImageSequence, sourceItems),
		mustNewElement(tag.ReferencedSeriesSequence, [][]*dicom.Element{seriesItem}),
	}
}

// dimensionElements declares the dimension organization and its indices.
// The patient coordinate system has one in-stack dimension indexed by the
// plane position; the slide coordinate system has two, indexed by the row
// and column within the total pixel matrix.
func dimensionElements(sopInstanceUID string, cs geometry.CoordinateSystem) []*dicom.Element {
	orgUID := util.GenerateDeterministicUID(sopInstanceUID + "_dimension_organization")

	var indexItems [][]*dicom.Element
	if cs == geometry.Slide {
		indexItems = [][]*dicom.Element{
			dimensionIndexItem(orgUID, tag.RowPositionInTotalImagePixelMatrix, tag.PlanePositionSlideSequence, "Row position"),
			dimensionIndexItem(orgUID, tag.ColumnPositionInTotalImagePixelMatrix, tag.PlanePositionSlideSequence, "Column position"),
		}
	} else {
		indexItems = [][]*dicom.Element{
			dimensionIndexItem(orgUID, tag.ImagePositionPatient, tag.PlanePositionSequence, "Plane position"),
		}
	}
	return []*dicom.Element{
		mustNewElement(tag.DimensionOrganizationSequence, [][]*dicom.Element{{
			mustNewElement(tag.DimensionOrganizationUID, []string{orgUID}),
		}}),
		mustNewElement(tag.DimensionIndexSequence, indexItems),
	}
}

func dimensionIndexItem(orgUID string, pointer, group tag.Tag, label string) []*dicom.Element {
	return []*dicom.Element{
		mustNewElement(tag.DimensionIndexPointer, []int{int(pointer.Group), int(pointer.Element)}),
		mustNewElement(tag.FunctionalGroupPointer, []int{int(group.Group), int(group.Element)}),
		mustNewElement(tag.DimensionOrganizationUID, []string{orgUID}),
		mustNewElement(tag.DimensionDescriptionLabel, []string{label}),
	}
}

// perFrameItems lays the per-frame group items out in position-major,
// channel-minor order: frame k = i*m + j.
func perFrameItems(groups *groupAssembler, planes *planeIndex, n, m int) [][]*dicom.Element {
	items := make([][]*dicom.Element, 0, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			items = append(items, groups.perFrameItem(planes.positions[i], planes.indexValues[i], j))
		}
	}
	return items
}

// pixelElements builds the pixel data element and the raw pixel stream.
func pixelElements(transferSyntaxUID string, policy Policy, rows, columns int, frames [][]byte) (*dicom.Element, []byte, error) {
	if codec.IsEncapsulated(transferSyntaxUID) {
		buffer, err := codec.Encapsulate(frames)
		if err != nil {
			return nil, nil, fmt.Errorf("encapsulating frames: %w", err)
		}
		info := dicom.PixelDataInfo{IsEncapsulated: true}
		for _, payload := range frames {
			if len(payload)%2 != 0 {
				// Fragment items must have even length.
				payload = append(append([]byte(nil), payload...), 0)
			}
			info.Frames = append(info.Frames, &frame.Frame{
				Encapsulated:     true,
				EncapsulatedData: frame.EncapsulatedFrame{Data: payload},
			})
		}
		elem := mustNewElement(tag.PixelData, info)
		// Undefined length selects the encapsulated write path.
		elem.ValueLength = tag.VLUndefinedLength
		return elem, buffer, nil
	}

	buffer := make([]byte, 0, len(frames)*len(frames[0]))
	for _, payload := range frames {
		buffer = append(buffer, payload...)
	}

	if policy.IsFloat() {
		// OF and OD elements carry their sample stream as one raw string
		// value; the writer emits those bytes verbatim.
		return mustNewElement(policy.PixelDataTag, []string{string(buffer)}), buffer, nil
	}

	info := dicom.PixelDataInfo{}
	pixelsPerFrame := rows * columns
	for _, payload := range frames {
		nativeFrame := frame.NewNativeFrame[uint16](16, rows, columns, pixelsPerFrame, 1)
		for p := 0; p < pixelsPerFrame; p++ {
			nativeFrame.RawData[p] = binary.LittleEndian.Uint16(payload[p*2:])
		}
		info.Frames = append(info.Frames, &frame.Frame{
			Encapsulated: false,
			NativeData:   nativeFrame,
		})
	}
	return mustNewElement(tag.PixelData, info), buffer, nil
}
