package pmap

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/pmapforge/internal/source"
)

// testImageConfig describes one synthetic source image.
type testImageConfig struct {
	studyUID  string
	seriesUID string
	rows      int
	columns   int
	z         float64
}

func newTestImage(t *testing.T, instance int, cfg testImageConfig) *source.Image {
	t.Helper()
	if cfg.studyUID == "" {
		cfg.studyUID = "1.2.3.4"
	}
	if cfg.seriesUID == "" {
		cfg.seriesUID = "1.2.3.4.5"
	}
	ds := &dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.StudyInstanceUID, []string{cfg.studyUID}),
		mustNewElement(tag.SeriesInstanceUID, []string{cfg.seriesUID}),
		mustNewElement(tag.FrameOfReferenceUID, []string{"1.2.3.4.6"}),
		mustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.SOPInstanceUID, []string{fmt.Sprintf("1.2.3.4.7.%d", instance)}),
		mustNewElement(tag.Rows, []int{cfg.rows}),
		mustNewElement(tag.Columns, []int{cfg.columns}),
		mustNewElement(tag.PatientName, []string{"Doe^Jane"}),
		mustNewElement(tag.PatientID, []string{"PM001"}),
		mustNewElement(tag.PixelSpacing, []string{"0.5", "0.5"}),
		mustNewElement(tag.SliceThickness, []string{"1.0"}),
		mustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
		mustNewElement(tag.ImagePositionPatient, []string{"0", "0", floatString(cfg.z)}),
	}}
	img, err := source.FromDataset(ds)
	if err != nil {
		t.Fatalf("building test image: %v", err)
	}
	return img
}

func floatString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// newTestSeries builds count single-frame images stacked along z.
func newTestSeries(t *testing.T, count, rows, columns int) []*source.Image {
	t.Helper()
	images := make([]*source.Image, count)
	for i := 0; i < count; i++ {
		images[i] = newTestImage(t, i+1, testImageConfig{rows: rows, columns: columns, z: float64(i)})
	}
	return images
}

func singleMapping() *ChannelMappings {
	return SingleChannelMappings(RealWorldValueMapping{
		Label:            "SUV",
		Explanation:      "Standardized uptake value",
		Unit:             Code{Value: "{SUVbw}g/ml", SchemeDesignator: "UCUM", Meaning: "SUVbw"},
		Slope:            1,
		Intercept:        0,
		FirstValueMapped: 0,
		LastValueMapped:  255,
	})
}
