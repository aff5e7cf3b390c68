package isis

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/pixel"
	"github.com/halirutan/isis/property"
)

func vectorProperty(props *property.Tree, name string) (property.Vector3, bool) {
	v, found := props.Get(name)
	if !found {
		return property.Vector3{}, false
	}
	return property.AsVector3(v)
}

// mosaicTiles returns the number of images packed into the mosaic and the
// property it was read from (empty when guessed).
func mosaicTiles(src *pixel.Chunk, log *zap.SugaredLogger) (int, string, error) {
	prefix := DicomTreeName + "/"
	for _, name := range []string{
		prefix + "SiemensNumberOfImagesInMosaic",
		prefix + dicom.CSAHeaderName + "/NumberOfImagesInMosaic",
	} {
		v, found := src.Props.Get(name)
		if !found {
			continue
		}
		tiles, ok := property.AsInt64(v)
		if !ok || tiles <= 0 {
			return 0, "", core.CorruptDicomError("invalid number of images in the mosaic %s=%s", name, property.FormatValue(v))
		}
		return int(tiles), name, nil
	}

	v, _ := src.Props.Get(prefix + "AcquisitionMatrix")
	matrix, _ := property.AsFloats(v)
	acquired := 0
	for _, m := range matrix {
		// Siemens stores (frequency rows, frequency columns, phase rows, phase columns), two of them zero
		if m > 0 {
			acquired = int(m)
			break
		}
	}
	if acquired == 0 {
		return 0, "", core.CorruptDicomError("cannot guess the number of images in the mosaic without an AcquisitionMatrix")
	}
	perRow := src.Size[0] / acquired
	tiles := perRow * perRow
	if tiles == 0 {
		return 0, "", core.CorruptDicomError("acquisition matrix %d exceeds the mosaic width %d", acquired, src.Size[0])
	}
	log.Warnf("Guessing number of slices in the mosaic as %d. This might be to many", tiles)
	return tiles, "", nil
}

// ReadMosaic splits a Siemens mosaic image into a volume of its tiles.
// The properties of `src` are left untouched; the returned chunk carries an
// adapted copy (indexOrigin moved to the first tile, ImageType marked WAS_MOSAIC,
// one acquisitionTime per slice when MosaicRefAcqTimes are known).
func ReadMosaic(src *pixel.Chunk, log *zap.SugaredLogger) (*pixel.Chunk, error) {
	if log == nil {
		log = core.Logger()
	}
	if src.Props == nil {
		src.Props = property.New()
	}
	prefix := DicomTreeName + "/"

	tiles, tilesName, err := mosaicTiles(src, log)
	if err != nil {
		return nil, err
	}
	matrixSize := int(math.Ceil(math.Sqrt(float64(tiles))))
	size := [3]int{src.Size[0] / matrixSize, src.Size[1] / matrixSize, tiles}
	if size[0] == 0 || size[1] == 0 {
		return nil, core.OutOfBoundsError("a %s image cannot hold %d tiles", src.SizeString(), tiles)
	}
	log.Debugf("Decomposing a %s mosaic-image into a %dx%dx%d volume", src.SizeString(), size[0], size[1], size[2])

	props := src.Props.Clone()

	if v, found := props.Get(prefix + "ImageType"); found {
		imageType := property.AsStrings(v)
		for i, t := range imageType {
			if t == "MOSAIC" {
				imageType[i] = "WAS_MOSAIC"
			}
		}
		props.Set(prefix+"ImageType", imageType)
	}
	if tilesName != "" {
		props.Remove(tilesName)
	}

	voxelGap, _ := vectorProperty(props, "voxelGap")
	voxelSize, haveVoxelSize := vectorProperty(props, "voxelSize")
	rowVec, _ := vectorProperty(props, "rowVec")
	columnVec, _ := vectorProperty(props, "columnVec")
	origin, _ := vectorProperty(props, "indexOrigin")

	// move the origin from the corner of the mosaic to the corner of the first tile;
	// the gap between slices is not taken into account
	if haveVoxelSize {
		fovCorr := voxelSize.Add(voxelGap).
			Mul(property.Vector3{float64(size[0]), float64(size[1]), float64(size[2])}).
			Scale(float64(matrixSize-1) / 2)
		origin = origin.Add(rowVec.Scale(fovCorr[0])).Add(columnVec.Scale(fovCorr[1]))
		props.Set("indexOrigin", origin)
	} else {
		log.Warnf("Cannot correct indexOrigin of the mosaic, because voxelSize is not known")
	}

	if fov, found := vectorProperty(props, "fov"); found {
		fov[0] /= float64(matrixSize)
		fov[1] /= float64(matrixSize)
		fov[2] = math.NaN()
		if haveVoxelSize {
			fov[2] = voxelSize[2]*float64(tiles) + voxelGap[2]*float64(tiles-1)
		}
		props.Set("fov", fov)
	}

	acqTimes := sliceAcquisitionTimes(props, tiles, log)

	dest := pixel.NewChunk(src.Type, size[0], size[1], size[2], 1)
	dest.Props = props
	for slice := 0; slice < tiles; slice++ {
		column := slice % matrixSize
		row := slice / matrixSize
		for line := 0; line < size[1]; line++ {
			from := [4]int{column * size[0], row*size[1] + line, 0, 0}
			to := [4]int{0, line, slice, 0}
			if err := dest.CopyLine(src, from, to, size[0]); err != nil {
				return nil, err
			}
		}
	}
	if acqTimes != nil {
		props.Set("acquisitionTime", acqTimes)
	}
	return dest, nil
}

// sliceAcquisitionTimes removes MosaicRefAcqTimes from `props` and returns
// acquisitionTime shifted by each of its offsets (milliseconds).
func sliceAcquisitionTimes(props *property.Tree, tiles int, log *zap.SugaredLogger) []property.Timestamp {
	refName := DicomTreeName + "/" + dicom.CSAHeaderName + "/MosaicRefAcqTimes"
	ref, found := props.Extract(refName)
	if !found {
		return nil
	}
	offsets, ok := property.AsFloats(ref)
	if !ok {
		log.Warnf("Ignoring %s=%s which is not a list of numbers", refName, property.FormatValue(ref))
		return nil
	}
	log.Debugf("The acquisition time offsets of the slices in the mosaic were %s", property.FormatValue(offsets))

	baseValue, found := props.Get("acquisitionTime")
	base, ok := property.AsTimestamp(baseValue)
	if !found || !ok {
		log.Infof("Ignoring %s because there is no acquisitionTime", refName)
		return nil
	}
	if len(offsets) < tiles {
		log.Warnf("Ignoring %s, it has %d entries for %d slices", refName, len(offsets), tiles)
		return nil
	}

	times := make([]property.Timestamp, tiles)
	for slice := range times {
		times[slice] = property.Timestamp{Time: base.Add(time.Duration(offsets[slice] * float64(time.Millisecond)))}
		log.Debugf("Computed acquisitionTime for slice %d as %s", slice, times[slice])
	}
	return times
}
