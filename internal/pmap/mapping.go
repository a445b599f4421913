package pmap

import (
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Code is a coded concept: a value from a coding scheme plus its meaning.
type Code struct {
	Value            string
	SchemeDesignator string
	Meaning          string
}

// item renders the code as a code sequence item.
func (c Code) item() []*dicom.Element {
	return []*dicom.Element{
		mustNewElement(tag.CodeValue, []string{c.Value}),
		mustNewElement(tag.CodingSchemeDesignator, []string{c.SchemeDesignator}),
		mustNewElement(tag.CodeMeaning, []string{c.Meaning}),
	}
}

// RealWorldValueMapping describes how stored sample values of one channel
// translate to real-world values: a linear transform, the stored value
// range it applies to, and the unit of the result.
type RealWorldValueMapping struct {
	// Label is a short identifier for the mapping (LUT Label).
	Label string
	// Explanation is a free-text description (LUT Explanation).
	Explanation string
	// Unit codes the real-world unit, typically from UCUM.
	Unit Code
	// Slope and Intercept define real = stored*Slope + Intercept.
	Slope     float64
	Intercept float64
	// FirstValueMapped and LastValueMapped bound the stored values the
	// mapping applies to.
	FirstValueMapped float64
	LastValueMapped  float64
}

// item renders the mapping as a Real World Value Mapping Sequence item.
// The value range attributes depend on whether samples are stored as
// integers or floating point.
func (m RealWorldValueMapping) item(p Policy) []*dicom.Element {
	elements := []*dicom.Element{
		mustNewElement(tag.LUTLabel, []string{m.Label}),
	}
	if m.Explanation != "" {
		elements = append(elements, mustNewElement(tag.LUTExplanation, []string{m.Explanation}))
	}
	if p.IsFloat() {
		elements = append(elements,
			mustNewElement(tag.DoubleFloatRealWorldValueFirstValueMapped, []float64{m.FirstValueMapped}),
			mustNewElement(tag.DoubleFloatRealWorldValueLastValueMapped, []float64{m.LastValueMapped}),
		)
	} else {
		elements = append(elements,
			mustNewElement(tag.RealWorldValueFirstValueMapped, []int{int(m.FirstValueMapped)}),
			mustNewElement(tag.RealWorldValueLastValueMapped, []int{int(m.LastValueMapped)}),
		)
	}
	elements = append(elements,
		mustNewElement(tag.RealWorldValueIntercept, []float64{m.Intercept}),
		mustNewElement(tag.RealWorldValueSlope, []float64{m.Slope}),
		mustNewElement(tag.MeasurementUnitsCodeSequence, [][]*dicom.Element{m.Unit.item()}),
	)
	return elements
}

// ChannelMappings carries the real-world value mappings for every channel
// of the pixel array. The two constructors make the flat-vs-nested input
// distinction explicit; internally everything is normalized to one group
// of mappings per channel.
type ChannelMappings struct {
	nested bool
	groups [][]RealWorldValueMapping
}

// SingleChannelMappings declares one or more mappings for the single
// channel of a 2D or 3D pixel array.
func SingleChannelMappings(mappings ...RealWorldValueMapping) *ChannelMappings {
	return &ChannelMappings{groups: [][]RealWorldValueMapping{mappings}}
}

// PerChannelMappings declares one group of mappings per channel of a 4D
// pixel array, in channel order.
func PerChannelMappings(groups ...[]RealWorldValueMapping) *ChannelMappings {
	return &ChannelMappings{nested: true, groups: groups}
}

// Channels returns the number of channels the mappings describe.
func (cm *ChannelMappings) Channels() int {
	return len(cm.groups)
}

// group returns the mappings of channel j.
func (cm *ChannelMappings) group(j int) []RealWorldValueMapping {
	return cm.groups[j]
}

// sequenceItems renders one channel's mappings as sequence items.
func (cm *ChannelMappings) sequenceItems(j int, p Policy) [][]*dicom.Element {
	group := cm.groups[j]
	items := make([][]*dicom.Element, 0, len(group))
	for _, m := range group {
		items = append(items, m.item(p))
	}
	return items
}
