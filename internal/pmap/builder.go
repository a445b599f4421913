// Package pmap assembles DICOM parametric map documents from a numeric
// pixel array, per-channel real-world value mappings and the metadata of
// the source images the array was derived from.
package pmap

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/suyashkumar/dicom"

	"github.com/mrsinham/pmapforge/internal/codec"
	"github.com/mrsinham/pmapforge/internal/geometry"
	"github.com/mrsinham/pmapforge/internal/source"
	"github.com/mrsinham/pmapforge/internal/util"
)

// Options configures one build. Sources, Array, Mappings and the display
// window are required; everything else has a usable default.
type Options struct {
	// Sources are the images the array was derived from. They must share
	// one study, series, frame of reference and matrix size. A
	// multi-frame source must be the only entry.
	Sources []*source.Image
	// Array is the pixel array, rank 2 to 4.
	Array *Array
	// Mappings describe the real-world meaning of the stored values, one
	// group per channel.
	Mappings *ChannelMappings
	// WindowCenter and WindowWidth define the display window. The width
	// must be greater than zero.
	WindowCenter float64
	WindowWidth  float64

	// PlanePositions overrides the positions derived from the sources.
	// When set, its length must equal the number of planes.
	PlanePositions []geometry.PlanePosition
	// PixelMeasures overrides the pixel spacing, slice thickness and slice
	// spacing inherited from the first source image.
	PixelMeasures *PixelMeasures
	// PlaneOrientation overrides the six direction cosines inherited from
	// the first source image.
	PlaneOrientation []float64
	// Provider computes plane positions and dimension index values.
	// Defaults to geometry.StandardProvider.
	Provider geometry.Provider
	// TransferSyntaxUID selects the encoding. Defaults to explicit VR
	// little endian.
	TransferSyntaxUID string

	SeriesInstanceUID string // generated when empty
	SeriesNumber      int
	SOPInstanceUID    string // generated when empty
	InstanceNumber    int

	Manufacturer          string
	ManufacturerModelName string
	DeviceSerialNumber    string
	SoftwareVersions      string

	ContentDescription         string
	ContentCreatorName         string
	RecognizableVisualFeatures bool

	// ExtraElements are appended to the dataset after assembly, for
	// caller-specific attributes.
	ExtraElements []*dicom.Element

	// Workers bounds the frame encoding parallelism. 0 means NumCPU.
	Workers int
	// Quiet suppresses progress output on stdout.
	Quiet bool
	// ProgressCallback, when set, is invoked after every encoded frame.
	ProgressCallback func(current, total int)
}

func (o *Options) applyDefaults() {
	if o.Provider == nil {
		o.Provider = geometry.StandardProvider{}
	}
	if o.TransferSyntaxUID == "" {
		o.TransferSyntaxUID = codec.ExplicitVRLittleEndian
	}
	if o.SeriesNumber == 0 {
		o.SeriesNumber = 1
	}
	if o.InstanceNumber == 0 {
		o.InstanceNumber = 1
	}
	if o.SeriesInstanceUID == "" {
		o.SeriesInstanceUID = util.GenerateUID()
	}
	if o.SOPInstanceUID == "" {
		o.SOPInstanceUID = util.GenerateUID()
	}
	if o.Manufacturer == "" {
		o.Manufacturer = "pmapforge"
	}
	if o.ManufacturerModelName == "" {
		o.ManufacturerModelName = "pmapforge"
	}
	if o.DeviceSerialNumber == "" {
		o.DeviceSerialNumber = "1"
	}
	if o.SoftwareVersions == "" {
		o.SoftwareVersions = "dev"
	}
	if o.ContentCreatorName == "" {
		o.ContentCreatorName = "pmapforge"
	}
}

// frameTask identifies one frame to encode: position i, channel j, stored
// at index k = i*m + j.
type frameTask struct {
	k, i, j int
}

// Build validates the inputs, encodes every frame and assembles the
// parametric map document. Nothing is produced on error.
func Build(opts Options) (*Document, error) {
	if opts.Array == nil {
		return nil, fmt.Errorf("%w: no pixel array", ErrInvalidRank)
	}
	opts.applyDefaults()

	if err := checkSources(opts.Sources); err != nil {
		return nil, err
	}
	if err := checkTransferSyntax(opts.TransferSyntaxUID, opts.Array.Kind()); err != nil {
		return nil, err
	}
	if err := checkWindow(opts.WindowCenter, opts.WindowWidth); err != nil {
		return nil, err
	}
	if err := checkMappings(opts.Array, opts.Mappings); err != nil {
		return nil, err
	}

	policy, err := ResolvePolicy(opts.Array.Kind())
	if err != nil {
		return nil, err
	}

	arr := opts.Array.reshape4D()
	shape := arr.Shape()
	n, rows, columns, m := shape[0], shape[1], shape[2], shape[3]
	src := opts.Sources[0]
	if rows != src.Rows || columns != src.Columns {
		return nil, fmt.Errorf("%w: array planes are %dx%d, source images %dx%d",
			ErrInconsistentSources, rows, columns, src.Rows, src.Columns)
	}

	planes, err := resolvePlanes(opts.Provider, opts.Sources, opts.PlanePositions, n)
	if err != nil {
		return nil, err
	}

	frames, err := encodeFrames(&opts, arr, policy, n, m)
	if err != nil {
		return nil, err
	}

	groups := &groupAssembler{
		policy:      policy,
		window:      Window{Center: opts.WindowCenter, Width: opts.WindowWidth},
		mappings:    opts.Mappings,
		channels:    m,
		measures:    opts.PixelMeasures,
		orientation: opts.PlaneOrientation,
	}
	return assembleDocument(&opts, arr, policy, planes, groups, frames)
}

// encodeFrames encodes all n*m planes in parallel and returns the
// payloads in position-major, channel-minor order.
func encodeFrames(opts *Options, arr *Array, policy Policy, n, m int) ([][]byte, error) {
	var frameCodec codec.Codec
	if codec.IsEncapsulated(opts.TransferSyntaxUID) {
		var err error
		frameCodec, err = codec.Get(opts.TransferSyntaxUID)
		if err != nil {
			return nil, err
		}
	}
	encoder := NewFrameEncoder(policy, frameCodec)

	tasks := make([]frameTask, 0, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			tasks = append(tasks, frameTask{k: i*m + j, i: i, j: j})
		}
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	if !opts.Quiet {
		fmt.Printf("Encoding %d frames with %d parallel workers...\n", len(tasks), numWorkers)
	}

	taskChan := make(chan frameTask, len(tasks))
	resultChan := make(chan struct {
		k       int
		payload []byte
		err     error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				payload, err := encodePlane(encoder, arr, task.i, task.j)
				resultChan <- struct {
					k       int
					payload []byte
					err     error
				}{task.k, payload, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	frames := make([][]byte, len(tasks))
	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("encode frame %d: %w", result.k, result.err)
		}
		frames[result.k] = result.payload
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(tasks))
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return frames, nil
}

func encodePlane(encoder *FrameEncoder, arr *Array, i, j int) ([]byte, error) {
	plane, err := arr.Plane(i, j)
	if err != nil {
		return nil, err
	}
	return encoder.Encode(plane)
}
