package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrsinham/pmapforge/internal/pmap"
)

// config mirrors the command line flags so builds can be kept in a YAML
// file. Flags given explicitly override the file.
type config struct {
	Source         string `yaml:"source"`
	Array          string `yaml:"array"`
	Shape          []int  `yaml:"shape"`
	DType          string `yaml:"dtype"`
	Output         string `yaml:"output"`
	TransferSyntax string `yaml:"transferSyntax"`

	Window struct {
		Center float64 `yaml:"center"`
		Width  float64 `yaml:"width"`
	} `yaml:"window"`

	SeriesNumber   int    `yaml:"seriesNumber"`
	InstanceNumber int    `yaml:"instanceNumber"`
	Description    string `yaml:"description"`
	Creator        string `yaml:"creator"`

	Mappings []mappingConfig `yaml:"mappings"`
}

// mappingConfig is one real-world value mapping. Channel selects which
// channel of a multi-channel array it belongs to.
type mappingConfig struct {
	Channel     int     `yaml:"channel"`
	Label       string  `yaml:"label"`
	Explanation string  `yaml:"explanation"`
	Slope       float64 `yaml:"slope"`
	Intercept   float64 `yaml:"intercept"`
	FirstValue  float64 `yaml:"firstValueMapped"`
	LastValue   float64 `yaml:"lastValueMapped"`
	Unit        struct {
		Value   string `yaml:"value"`
		Scheme  string `yaml:"scheme"`
		Meaning string `yaml:"meaning"`
	} `yaml:"unit"`
}

func defaultConfig() *config {
	cfg := &config{
		Output:         "parametric_map.dcm",
		TransferSyntax: "explicit",
		SeriesNumber:   1,
		InstanceNumber: 1,
	}
	return cfg
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func (m mappingConfig) toMapping() pmap.RealWorldValueMapping {
	slope := m.Slope
	if slope == 0 {
		slope = 1
	}
	return pmap.RealWorldValueMapping{
		Label:            m.Label,
		Explanation:      m.Explanation,
		Unit:             pmap.Code{Value: m.Unit.Value, SchemeDesignator: m.Unit.Scheme, Meaning: m.Unit.Meaning},
		Slope:            slope,
		Intercept:        m.Intercept,
		FirstValueMapped: m.FirstValue,
		LastValueMapped:  m.LastValue,
	}
}

// channelMappings groups the configured mappings to match the array's
// channel count. A default identity mapping is used when none are
// configured for a single-channel array.
func (c *config) channelMappings(arr *pmap.Array) (*pmap.ChannelMappings, error) {
	channels := 1
	if shape := arr.Shape(); len(shape) == 4 {
		channels = shape[3]
	}

	if len(c.Mappings) == 0 {
		if channels > 1 {
			return nil, fmt.Errorf("a %d-channel array needs one mapping per channel in the config", channels)
		}
		return pmap.SingleChannelMappings(pmap.RealWorldValueMapping{
			Label: "RAW",
			Unit:  pmap.Code{Value: "1", SchemeDesignator: "UCUM", Meaning: "no units"},
			Slope: 1,
		}), nil
	}

	if channels == 1 {
		flat := make([]pmap.RealWorldValueMapping, 0, len(c.Mappings))
		for _, m := range c.Mappings {
			if m.Channel != 0 {
				return nil, fmt.Errorf("mapping %q targets channel %d of a single-channel array", m.Label, m.Channel)
			}
			flat = append(flat, m.toMapping())
		}
		return pmap.SingleChannelMappings(flat...), nil
	}

	groups := make([][]pmap.RealWorldValueMapping, channels)
	for _, m := range c.Mappings {
		if m.Channel < 0 || m.Channel >= channels {
			return nil, fmt.Errorf("mapping %q targets channel %d, array has %d channels", m.Label, m.Channel, channels)
		}
		groups[m.Channel] = append(groups[m.Channel], m.toMapping())
	}
	return pmap.PerChannelMappings(groups...), nil
}
