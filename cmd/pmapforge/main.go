package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/suyashkumar/dicom"
	dtag "github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/pmapforge/internal/codec"
	"github.com/mrsinham/pmapforge/internal/pmap"
	"github.com/mrsinham/pmapforge/internal/source"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	sourceDir := flag.String("source", "", "Directory holding the source image series (required)")
	arrayPath := flag.String("array", "", "Raw little-endian sample file to build the map from (required)")
	shapeFlag := flag.String("shape", "", "Array shape, comma separated: 'n,rows,cols[,channels]' (required)")
	dtypeFlag := flag.String("dtype", "", "Element type: int8, int16, uint8, uint16, float32, float64 (required)")
	output := flag.String("output", "parametric_map.dcm", "Output file path")

	windowCenter := flag.Float64("window-center", 0, "Display window center")
	windowWidth := flag.Float64("window-width", 0, "Display window width (0 = derive from the value distribution)")
	transferSyntax := flag.String("transfer-syntax", "explicit", "Transfer syntax: implicit, explicit, jpeg2000, rle or a full UID")

	seriesNumber := flag.Int("series-number", 1, "Series number of the output")
	instanceNumber := flag.Int("instance-number", 1, "Instance number of the output")
	description := flag.String("description", "", "Content description")
	creator := flag.String("creator", "", "Content creator name")

	previewPath := flag.String("preview", "", "Write a PNG preview of the first frame to this path")
	previewSize := flag.Int("preview-size", 256, "Longest edge of the preview image in pixels")

	workers := flag.Int("workers", 0, fmt.Sprintf("Number of parallel workers (default: %d = CPU cores)", runtime.NumCPU()))
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	configFile := flag.String("config", "", "Load configuration from YAML file")

	var tagFlags []string
	flag.Func("tag", "Set DICOM tag on the output: 'TagName=Value' (repeatable)", func(s string) error {
		tagFlags = append(tagFlags, s)
		return nil
	})

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("pmapforge %s\n", version)
		os.Exit(0)
	}
	if *help {
		printHelp()
		os.Exit(0)
	}

	cfg := defaultConfig()
	if *configFile != "" {
		loaded, err := loadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *sourceDir
		case "array":
			cfg.Array = *arrayPath
		case "shape":
			cfg.Shape = nil // parsed below
		case "dtype":
			cfg.DType = *dtypeFlag
		case "output":
			cfg.Output = *output
		case "window-center":
			cfg.Window.Center = *windowCenter
		case "window-width":
			cfg.Window.Width = *windowWidth
		case "transfer-syntax":
			cfg.TransferSyntax = *transferSyntax
		case "series-number":
			cfg.SeriesNumber = *seriesNumber
		case "instance-number":
			cfg.InstanceNumber = *instanceNumber
		case "description":
			cfg.Description = *description
		case "creator":
			cfg.Creator = *creator
		}
	})
	if *shapeFlag != "" {
		shape, err := parseShape(*shapeFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Shape = shape
	}

	if cfg.Source == "" {
		fmt.Fprintf(os.Stderr, "Error: --source is required\n")
		printUsage()
		os.Exit(1)
	}
	if cfg.Array == "" {
		fmt.Fprintf(os.Stderr, "Error: --array is required\n")
		printUsage()
		os.Exit(1)
	}
	if len(cfg.Shape) == 0 {
		fmt.Fprintf(os.Stderr, "Error: --shape is required\n")
		printUsage()
		os.Exit(1)
	}
	if cfg.DType == "" {
		fmt.Fprintf(os.Stderr, "Error: --dtype is required\n")
		printUsage()
		os.Exit(1)
	}

	transferSyntaxUID, err := resolveTransferSyntax(cfg.TransferSyntax)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	extraElements, err := parseTagFlags(tagFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Println("pmapforge")
		fmt.Println("=========")
		fmt.Printf("Source series:   %s\n", cfg.Source)
		fmt.Printf("Array:           %s (%s, shape %v)\n", cfg.Array, cfg.DType, cfg.Shape)
		fmt.Printf("Transfer syntax: %s\n", transferSyntaxUID)
	}

	images, err := source.ReadDir(cfg.Source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading source series: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Printf("Read %d source images\n", len(images))
	}

	arr, err := readArray(cfg.Array, cfg.DType, cfg.Shape)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading array: %v\n", err)
		os.Exit(1)
	}

	mappings, err := cfg.channelMappings(arr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	window := pmap.Window{Center: cfg.Window.Center, Width: cfg.Window.Width}
	if window.Width <= 0 {
		window = pmap.SuggestWindow(arr)
		if !*quiet {
			fmt.Printf("Derived window: center %.4g, width %.4g\n", window.Center, window.Width)
		}
	}

	doc, err := pmap.Build(pmap.Options{
		Sources:            images,
		Array:              arr,
		Mappings:           mappings,
		WindowCenter:       window.Center,
		WindowWidth:        window.Width,
		TransferSyntaxUID:  transferSyntaxUID,
		SeriesNumber:       cfg.SeriesNumber,
		InstanceNumber:     cfg.InstanceNumber,
		ContentDescription: cfg.Description,
		ContentCreatorName: cfg.Creator,
		ExtraElements:      extraElements,
		Workers:            *workers,
		Quiet:              *quiet,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building parametric map: %v\n", err)
		os.Exit(1)
	}

	if err := doc.WriteFile(cfg.Output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *previewPath != "" {
		if err := writePreview(*previewPath, arr, window, *previewSize); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing preview: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Printf("Preview written to %s\n", *previewPath)
		}
	}

	if !*quiet {
		fmt.Println("\n✓ Build complete!")
		fmt.Printf("  Output:       %s\n", cfg.Output)
		fmt.Printf("  Frames:       %d (%dx%d)\n", doc.NumberOfFrames(), doc.Rows(), doc.Columns())
		fmt.Printf("  SOP instance: %s\n", doc.SOPInstanceUID())
	}
}

// resolveTransferSyntax accepts either a short keyword or a full UID.
func resolveTransferSyntax(s string) (string, error) {
	switch strings.ToLower(s) {
	case "implicit":
		return codec.ImplicitVRLittleEndian, nil
	case "explicit", "":
		return codec.ExplicitVRLittleEndian, nil
	case "jpeg2000":
		return codec.JPEG2000Lossless, nil
	case "rle":
		return codec.RLELossless, nil
	}
	if strings.HasPrefix(s, "1.2.840.10008.") {
		return s, nil
	}
	return "", fmt.Errorf("unknown transfer syntax %q, valid options: implicit, explicit, jpeg2000, rle", s)
}

// parseTagFlags turns repeated 'TagName=Value' flags into elements.
func parseTagFlags(flags []string) ([]*dicom.Element, error) {
	elements := make([]*dicom.Element, 0, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid tag flag %q, expected 'TagName=Value'", f)
		}
		info, err := dtag.FindByName(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("unknown tag name %q", name)
		}
		elem, err := dicom.NewElement(info.Tag, []string{value})
		if err != nil {
			return nil, fmt.Errorf("building element for tag %q: %w", name, err)
		}
		elements = append(elements, elem)
	}
	return elements, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "\nUsage: pmapforge --source <dir> --array <file> --shape n,r,c[,m] --dtype <type> [options]\n")
	fmt.Fprintf(os.Stderr, "Run 'pmapforge --help' for details.\n")
}

func printHelp() {
	fmt.Println(`pmapforge - build DICOM parametric maps from raw sample arrays

Usage:
  pmapforge --source <dir> --array <file> --shape n,r,c[,m] --dtype <type> [options]

The source directory must hold the DICOM series the array was derived
from. The array file holds raw little-endian samples in position-major,
row-major, channel-minor order.

Examples:
  pmapforge --source ./t1_series --array perfusion.f32 --shape 24,256,256 \
      --dtype float32 --output perfusion_map.dcm

  pmapforge --config map.yaml --transfer-syntax rle

Options:`)
	flag.PrintDefaults()
}
