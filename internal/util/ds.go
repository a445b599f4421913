package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatToDS converts a float64 to a DICOM Decimal String.
func FloatToDS(f float64) string {
	return fmt.Sprintf("%.6g", f)
}

// FloatsToDS converts a slice of float64 to DICOM Decimal Strings.
func FloatsToDS(fs []float64) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = FloatToDS(f)
	}
	return out
}

// IntToIS converts an int to a DICOM Integer String.
func IntToIS(i int) string {
	return fmt.Sprintf("%d", i)
}

// ParseDS parses a DICOM Decimal String value.
func ParseDS(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseDSSlice parses a multi-valued Decimal String attribute.
func ParseDSSlice(vals []string) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, s := range vals {
		f, err := ParseDS(s)
		if err != nil {
			return nil, fmt.Errorf("parse decimal string %q: %w", s, err)
		}
		out[i] = f
	}
	return out, nil
}
