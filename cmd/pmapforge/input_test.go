package main

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseShape(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "24,256,256", want: []int{24, 256, 256}},
		{in: "2, 5, 5, 3", want: []int{2, 5, 5, 3}},
		{in: "128,128", want: []int{128, 128}},
		{in: "5", wantErr: true},
		{in: "1,2,3,4,5", wantErr: true},
		{in: "2,0,5", wantErr: true},
		{in: "a,b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseShape(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("dimension %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadArray_Float32(t *testing.T) {
	values := []float32{0, -1.5, 2.25, 1000}
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	path := filepath.Join(t.TempDir(), "samples.f32")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}

	arr, err := readArray(path, "float32", []int{2, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := arr.Float64s()
	for i, v := range values {
		if got[i] != float64(v) {
			t.Errorf("sample %d = %g, want %g", i, got[i], v)
		}
	}
}

func TestReadArray_SizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.u16")
	if err := os.WriteFile(path, make([]byte, 7), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readArray(path, "uint16", []int{2, 2}); err == nil {
		t.Error("expected error for truncated sample file")
	}
}

func TestReadArray_UnknownDType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.bin")
	if err := os.WriteFile(path, make([]byte, 4), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readArray(path, "complex64", []int{2, 2}); err == nil {
		t.Error("expected error for unknown dtype")
	}
}
