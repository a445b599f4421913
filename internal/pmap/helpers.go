package pmap

import (
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// mustNewElement creates a DICOM element and panics on failure. Element
// construction only fails on a type mismatch between tag and value, which
// is a programming error here.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("creating element %v: %v", t, err))
	}
	return elem
}
