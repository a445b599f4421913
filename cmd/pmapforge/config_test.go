package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/pmapforge/internal/pmap"
)

func TestLoadConfig(t *testing.T) {
	content := `
source: ./series
array: perfusion.f32
shape: [3, 128, 128]
dtype: float32
output: map.dcm
transferSyntax: rle
window:
  center: 50
  width: 100
mappings:
  - label: SUV
    explanation: Standardized uptake value
    slope: 0.5
    lastValueMapped: 255
    unit:
      value: "{SUVbw}g/ml"
      scheme: UCUM
      meaning: SUVbw
`
	path := filepath.Join(t.TempDir(), "map.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != "./series" || cfg.DType != "float32" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.TransferSyntax != "rle" {
		t.Errorf("transferSyntax = %q, want rle", cfg.TransferSyntax)
	}
	if cfg.Window.Width != 100 {
		t.Errorf("window width = %g, want 100", cfg.Window.Width)
	}
	if len(cfg.Mappings) != 1 || cfg.Mappings[0].Unit.Scheme != "UCUM" {
		t.Errorf("unexpected mappings: %+v", cfg.Mappings)
	}
	if m := cfg.Mappings[0].toMapping(); m.Slope != 0.5 || m.LastValueMapped != 255 {
		t.Errorf("unexpected mapping conversion: %+v", m)
	}
}

func TestChannelMappings_Grouping(t *testing.T) {
	arr, _ := pmap.NewUint8Array(make([]uint8, 2*4*4*2), []int{2, 4, 4, 2})

	cfg := defaultConfig()
	cfg.Mappings = []mappingConfig{
		{Channel: 0, Label: "A"},
		{Channel: 1, Label: "B"},
		{Channel: 1, Label: "C"},
	}
	cm, err := cfg.channelMappings(arr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cm.Channels() != 2 {
		t.Fatalf("channels = %d, want 2", cm.Channels())
	}
}

func TestChannelMappings_ChannelOutOfRange(t *testing.T) {
	arr, _ := pmap.NewUint8Array(make([]uint8, 2*4*4), []int{2, 4, 4})
	cfg := defaultConfig()
	cfg.Mappings = []mappingConfig{{Channel: 1, Label: "A"}}
	if _, err := cfg.channelMappings(arr); err == nil {
		t.Error("expected error for channel out of range")
	}
}

func TestChannelMappings_DefaultForSingleChannel(t *testing.T) {
	arr, _ := pmap.NewUint8Array(make([]uint8, 16), []int{4, 4})
	cfg := defaultConfig()
	cm, err := cfg.channelMappings(arr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cm.Channels() != 1 {
		t.Errorf("channels = %d, want 1", cm.Channels())
	}
}

func TestChannelMappings_MissingForMultiChannel(t *testing.T) {
	arr, _ := pmap.NewUint8Array(make([]uint8, 2*4*4*2), []int{2, 4, 4, 2})
	cfg := defaultConfig()
	if _, err := cfg.channelMappings(arr); err == nil {
		t.Error("expected error when a multi-channel array has no configured mappings")
	}
}
