package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mrsinham/pmapforge/internal/pmap"
)

// parseShape parses 'n,r,c' or 'n,r,c,m' into dimensions.
func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		dim, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || dim < 1 {
			return nil, fmt.Errorf("invalid shape %q, expected positive dimensions like '24,256,256'", s)
		}
		shape = append(shape, dim)
	}
	if len(shape) < 2 || len(shape) > 4 {
		return nil, fmt.Errorf("shape %q has rank %d, expected 2 to 4", s, len(shape))
	}
	return shape, nil
}

// readArray loads a raw little-endian sample file.
func readArray(path, dtype string, shape []int) (*pmap.Array, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	count := 1
	for _, dim := range shape {
		count *= dim
	}

	switch strings.ToLower(dtype) {
	case "int8":
		if len(data) != count {
			return nil, sizeMismatch(path, len(data), count, 1)
		}
		samples := make([]int8, count)
		for i, b := range data {
			samples[i] = int8(b)
		}
		return pmap.NewInt8Array(samples, shape)
	case "uint8":
		if len(data) != count {
			return nil, sizeMismatch(path, len(data), count, 1)
		}
		return pmap.NewUint8Array(data, shape)
	case "int16":
		if len(data) != count*2 {
			return nil, sizeMismatch(path, len(data), count, 2)
		}
		samples := make([]int16, count)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		return pmap.NewInt16Array(samples, shape)
	case "uint16":
		if len(data) != count*2 {
			return nil, sizeMismatch(path, len(data), count, 2)
		}
		samples := make([]uint16, count)
		for i := range samples {
			samples[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
		return pmap.NewUint16Array(samples, shape)
	case "float32":
		if len(data) != count*4 {
			return nil, sizeMismatch(path, len(data), count, 4)
		}
		samples := make([]float32, count)
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return pmap.NewFloat32Array(samples, shape)
	case "float64":
		if len(data) != count*8 {
			return nil, sizeMismatch(path, len(data), count, 8)
		}
		samples := make([]float64, count)
		for i := range samples {
			samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return pmap.NewFloat64Array(samples, shape)
	}
	return nil, fmt.Errorf("unknown dtype %q, valid options: int8, int16, uint8, uint16, float32, float64", dtype)
}

func sizeMismatch(path string, got, count, width int) error {
	return fmt.Errorf("%s holds %d bytes, shape requires %d (%d samples x %d bytes)",
		path, got, count*width, count, width)
}
