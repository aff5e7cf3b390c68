package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/halirutan/isis"
	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/dictionary"
	"github.com/halirutan/isis/pixel"
)

var baseFile = filepath.Base(os.Args[0])

func check(err error) {
	if err != nil {
		core.Fatalf("error: %v", err)
	}
}

func usage() {
	fmt.Printf("isisdcm version %s\n", core.Version)
	fmt.Printf("usage: %s [%s] [args]\n", baseFile, strings.Join([]string{"view", "png", "synth"}, " / "))
	fmt.Printf("dialects are read from ISIS_DIALECTS (%s)\n", strings.Join(core.KnownDialects, ", "))
	os.Exit(1)
}

func main() {
	core.GetConfig()
	if len(os.Args) == 1 || (os.Args[1] == "--help" || os.Args[1] == "-h") {
		usage()
	}
	switch os.Args[1] {
	case "view":
		startView()
	case "png":
		startPNG()
	case "synth":
		startSynth()
	default:
		usage()
	}
}

/*
===============================================================================
    Mode: View
===============================================================================
*/

// startView prints the properties of every chunk of a file, or tries to load
// every file below a directory.
func startView() {
	if len(os.Args) != 3 {
		fmt.Printf("usage: %s view file_or_dir\n", baseFile)
		os.Exit(1)
	}
	format := isis.NewFormat()
	stat, err := os.Stat(os.Args[2])
	check(err)
	if !stat.IsDir() {
		chunks, err := format.LoadFile(os.Args[2], nil)
		check(err)
		for i, chunk := range chunks {
			fmt.Printf("chunk %d: %s %s\n", i, chunk.SizeString(), chunk.Type)
			check(chunk.Props.Describe(os.Stdout))
		}
		return
	}

	mu := sync.Mutex{}
	errorCount := 0
	successCount := 0
	err = core.ConcurrentlyWalkDir(os.Args[2], func(path string) {
		_, err := format.LoadFile(path, nil)
		basePath := filepath.Base(path)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			core.Errorf(`error loading "%s": %v`, basePath, err)
			errorCount++
			return
		}
		successCount++
		core.Debugf(`loaded "%s"`, basePath)
	})
	check(err)
	if errorCount == 0 {
		core.Infof("loaded %d files without errors", successCount)
	} else {
		core.Infof("loaded %d files without errors, and failed to load %d files", successCount, errorCount)
	}
}

/*
===============================================================================
    Mode: PNG
===============================================================================
*/

// window returns the range mapped onto black and white.
func window(chunk *pixel.Chunk) (min, max float64) {
	lo, foundMin := chunk.Props.Get("window/min")
	hi, foundMax := chunk.Props.Get("window/max")
	if foundMin && foundMax {
		low, okMin := lo.(float64)
		high, okMax := hi.(float64)
		if okMin && okMax && high > low {
			return low, high
		}
	}
	return chunk.MinMax()
}

// slice renders slice `z` of `chunk` as an 8 bit greyscale image.
func slice(chunk *pixel.Chunk, z int, min, max float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, chunk.Size[0], chunk.Size[1]))
	scale := 255 / (max - min)
	if max <= min {
		scale = 0
	}
	for y := 0; y < chunk.Size[1]; y++ {
		for x := 0; x < chunk.Size[0]; x++ {
			v := (chunk.Float64At(x, y, z, 0) - min) * scale
			img.Pix[y*img.Stride+x] = uint8(math.Max(0, math.Min(255, math.Round(v))))
		}
	}
	return img
}

// startPNG writes one png per slice of a file.
func startPNG() {
	if len(os.Args) != 4 && len(os.Args) != 5 {
		fmt.Printf("usage: %s png file outdir [width]\n", baseFile)
		os.Exit(1)
	}
	width := 0
	if len(os.Args) == 5 {
		var err error
		width, err = strconv.Atoi(os.Args[4])
		check(err)
	}
	chunks, err := isis.NewFormat().LoadFile(os.Args[2], nil)
	check(err)
	check(os.MkdirAll(os.Args[3], 0755))

	name := strings.TrimSuffix(filepath.Base(os.Args[2]), filepath.Ext(os.Args[2]))
	for i, chunk := range chunks {
		min, max := window(chunk)
		for z := 0; z < chunk.Size[2]; z++ {
			var img image.Image = slice(chunk, z, min, max)
			if width > 0 {
				img = imaging.Resize(img, width, 0, imaging.Lanczos)
			}
			out := filepath.Join(os.Args[3], fmt.Sprintf("%s_%02d_%03d.png", name, i, z))
			check(imaging.Save(img, out))
			core.Debugf("wrote %s", out)
		}
	}
	core.Infof("wrote %d chunks of %s", len(chunks), os.Args[2])
}

/*
===============================================================================
    Mode: Synth
===============================================================================
*/

// startSynth writes a 4x4 mosaic of 32x32 gradient images, useful to try
// the loader without scanner data.
func startSynth() {
	if len(os.Args) != 3 {
		fmt.Printf("usage: %s synth out.dcm\n", baseFile)
		os.Exit(1)
	}
	const tile, tiles, matrix = 32, 16, 4
	const side = tile * matrix
	pixels := make([]byte, side*side*2)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			s := y/tile*matrix + x/tile
			binary.LittleEndian.PutUint16(pixels[2*(y*side+x):], uint16(s*100+x%tile+y%tile))
		}
	}

	buf := bytes.Buffer{}
	e := dicom.NewEncoder(&buf, dicom.ExplicitLittleEndian)
	e.WriteStrings(0x00080008, "CS", "ORIGINAL", "PRIMARY", "M", "MOSAIC")
	e.WriteStrings(0x00080060, "CS", "MR")
	e.WriteStrings(0x00100010, "PN", "Synthetic^Phantom")
	e.WriteStrings(0x00180050, "DS", "3")
	e.WriteUint16s(0x00181310, "US", 0, tile, tile, 0)
	e.WriteUint16s(0x0019100a, "US", tiles)
	e.WriteStrings(0x00200013, "IS", "1")
	e.WriteStrings(0x00200032, "DS", "-96", "-96", "0")
	e.WriteStrings(0x00200037, "DS", "1", "0", "0", "0", "1", "0")
	e.WriteStrings(0x00280004, "CS", "MONOCHROME2")
	e.WriteUint16s(0x00280010, "US", side)
	e.WriteUint16s(0x00280011, "US", side)
	e.WriteStrings(0x00280030, "DS", "1.5", "1.5")
	e.WriteUint16s(0x00280100, "US", 16)
	e.WriteUint16s(0x00280103, "US", 0)
	e.WriteElement(dictionary.PixelData, "OW", pixels)
	check(e.Err())

	file, err := dicom.EncodeFile(dicom.ExplicitVRLittleEndian, buf.Bytes())
	check(err)
	check(os.WriteFile(os.Args[2], file, 0644))
	core.Infof("wrote %d bytes to %s", len(file), os.Args[2])
}
