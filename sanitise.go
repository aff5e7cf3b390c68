package isis

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/dictionary"
	"github.com/halirutan/isis/pixel"
	"github.com/halirutan/isis/property"
)

// fuzzyTolerance is the absolute or relative difference below which two
// vectors are considered equal when pruning redundant tags.
const fuzzyTolerance = 1e-5

var pixelSpacingNames = []string{"PixelSpacing", "ImagePlanePixelSpacing", "ImagerPixelSpacing"}

var sliceResolutionNames = []string{
	"CSASeriesHeaderInfo/SliceResolution",
	dicom.CSAHeaderName + "/SliceResolution",
}

var genders = map[byte]string{
	'M': "male",
	'F': "female",
	'O': "other",
}

// sanitiser holds the state of one pass over a chunk's properties.
// Raw tags are read from `tree` (the DICOM branch), canonical properties are
// written to `props`.
type sanitiser struct {
	props    *property.Tree
	tree     *property.Tree
	dialects core.Dialects
	log      *zap.SugaredLogger
}

// Sanitise turns the raw tags below the DICOM branch of `chunk` into the
// canonical properties (voxelSize, rowVec, indexOrigin, acquisitionTime, ...).
// Tags are removed once they were transformed, so a second run leaves the
// properties of the first one in place. A nil `log` uses the default logger.
func Sanitise(chunk *pixel.Chunk, dialects core.Dialects, log *zap.SugaredLogger) {
	if log == nil {
		log = core.Logger()
	}
	if chunk.Props == nil {
		chunk.Props = property.New()
	}
	s := &sanitiser{
		props:    chunk.Props,
		tree:     chunk.Props.MakeBranch(DicomTreeName),
		dialects: dialects,
		log:      log,
	}
	s.timestamps()
	s.renames()
	s.voxelGeometry()
	s.orientation()
	s.origin()
	s.identification()
	s.diffusion()
	s.pruneRedundant()
	s.fieldOfView()
	s.window()
	if s.tree.Len() == 0 {
		s.props.Remove(DicomTreeName)
	}
}

func (s *sanitiser) tell(lvl zapcore.Level, format string, args ...interface{}) {
	switch lvl {
	case zapcore.DebugLevel:
		s.log.Debugf(format, args...)
	case zapcore.InfoLevel:
		s.log.Infof(format, args...)
	case zapcore.WarnLevel:
		s.log.Warnf(format, args...)
	default:
		s.log.Errorf(format, args...)
	}
}

// has reports whether the raw tag `name` exists, logging its absence at `lvl`.
func (s *sanitiser) has(name string, lvl zapcore.Level) bool {
	if s.tree.Has(name) {
		return true
	}
	s.tell(lvl, "Could not find %s/%s", DicomTreeName, name)
	return false
}

// extractFirst removes and returns the first of `names` that exists.
func (s *sanitiser) extractFirst(lvl zapcore.Level, names ...string) (interface{}, string, bool) {
	for _, name := range names {
		if v, found := s.tree.Extract(name); found {
			return v, name, true
		}
	}
	if len(names) == 1 {
		s.tell(lvl, "Could not find %s/%s", DicomTreeName, names[0])
	} else {
		s.tell(lvl, "Could not find any of %s in %s", strings.Join(names, ", "), DicomTreeName)
	}
	return nil, "", false
}

// transform converts the raw tag `from` into the property `to` of kind `kind`
// and removes the tag. A missing tag is only reported when `to` is not set yet.
func (s *sanitiser) transform(from, to string, kind property.Kind, lvl zapcore.Level) bool {
	v, found := s.tree.Get(from)
	if !found {
		if !s.props.Has(to) {
			s.tell(lvl, "Could not find %s/%s, %s will not be set", DicomTreeName, from, to)
		}
		return false
	}
	converted, err := property.Convert(v, kind)
	if err != nil {
		s.log.Warnf("Failed to transform %s/%s into %s: %v", DicomTreeName, from, to, err)
		return false
	}
	s.props.Set(to, converted)
	s.tree.Remove(from)
	return true
}

func combineDateTime(date, tm interface{}) (property.Timestamp, bool) {
	d, foundDate := property.AsDate(date)
	t, foundTime := property.AsTimestamp(tm)
	if !foundDate || !foundTime {
		return property.Timestamp{}, false
	}
	return property.Combine(d, t), true
}

func (s *sanitiser) timestamps() {
	if seriesTime, _, found := s.extractFirst(zapcore.WarnLevel, "SeriesTime"); found {
		if date, name, found := s.extractFirst(zapcore.WarnLevel, "SeriesDate", "AcquisitionDate", "ContentDate"); found {
			if ts, ok := combineDateTime(date, seriesTime); ok {
				s.props.Set("sequenceStart", ts)
				s.log.Debugf("Merging SeriesTime %s and %s %s as sequenceStart=%s",
					property.FormatValue(seriesTime), name, property.FormatValue(date), ts)
			} else {
				s.log.Warnf("Cannot merge SeriesTime %s and %s %s", property.FormatValue(seriesTime), name, property.FormatValue(date))
			}
		}
	}

	if acqTime, timeName, found := s.extractFirst(zapcore.WarnLevel, "AcquisitionTime", "ContentTime"); found {
		if date, name, found := s.extractFirst(zapcore.WarnLevel, "AcquisitionDate", "ContentDate", "SeriesDate"); found {
			if ts, ok := combineDateTime(date, acqTime); ok {
				s.props.Set("acquisitionTime", ts)
				s.log.Debugf("Merging %s %s and %s %s as acquisitionTime=%s",
					timeName, property.FormatValue(acqTime), name, property.FormatValue(date), ts)
			} else {
				s.log.Warnf("Cannot merge %s %s and %s %s", timeName, property.FormatValue(acqTime), name, property.FormatValue(date))
			}
		}
	}

	if s.has("StudyTime", zapcore.WarnLevel) && s.has("StudyDate", zapcore.WarnLevel) {
		tm, _ := s.tree.Get("StudyTime")
		date, _ := s.tree.Get("StudyDate")
		if ts, ok := combineDateTime(date, tm); ok {
			s.props.Set("studyStart", ts)
			s.tree.Remove("StudyTime")
			s.tree.Remove("StudyDate")
		} else {
			s.log.Warnf("Cannot merge StudyTime %s and StudyDate %s", property.FormatValue(tm), property.FormatValue(date))
		}
	}
}

func (s *sanitiser) renames() {
	s.transform("SeriesNumber", "sequenceNumber", property.Int32Kind, zapcore.WarnLevel)
	s.transform("PatientsAge", "subjectAge", property.Uint16Kind, zapcore.InfoLevel)
	s.transform("SeriesDescription", "sequenceDescription", property.StringKind, zapcore.WarnLevel)
	s.transform("PatientsName", "subjectName", property.StringKind, zapcore.InfoLevel)
	s.transform("PatientsBirthDate", "subjectBirth", property.DateKind, zapcore.InfoLevel)
	s.transform("PatientsWeight", "subjectWeight", property.Uint16Kind, zapcore.InfoLevel)
}

// sliceResolution returns the Siemens slice resolution, if any.
func (s *sanitiser) sliceResolution() (float64, bool) {
	for _, name := range sliceResolutionNames {
		if v, found := s.tree.Get(name); found {
			if res, ok := property.AsFloat64(v); ok && res != 0 {
				return res, true
			}
		}
	}
	return 0, false
}

func (s *sanitiser) voxelGeometry() {
	s.voxelSize()

	s.transform("RepetitionTime", "repetitionTime", property.Uint16Kind, zapcore.WarnLevel)
	s.transform("EchoTime", "echoTime", property.Float32Kind, zapcore.WarnLevel)
	s.transform("FlipAngle", "flipAngle", property.Int16Kind, zapcore.WarnLevel)

	if s.has("SpacingBetweenSlices", zapcore.InfoLevel) {
		spacingValue, _ := s.tree.Get("SpacingBetweenSlices")
		spacing, okSpacing := property.AsFloat64(spacingValue)
		voxelSize, okSize := s.vector("voxelSize")
		switch {
		case !okSpacing:
			s.log.Warnf("Cannot read SpacingBetweenSlices %q", property.FormatValue(spacingValue))
		case !okSize || math.IsNaN(voxelSize[2]):
			s.log.Warnf("Cannot compute the voxel gap from the slice spacing (%s), because the slice thickness is not known",
				property.FormatValue(spacingValue))
		default:
			s.props.Set("voxelGap", property.Vector3{0, 0, spacing - voxelSize[2]})
			s.tree.Remove("SpacingBetweenSlices")
		}
	}

	s.transform("PerformingPhysiciansName", "performingPhysician", property.StringKind, zapcore.InfoLevel)
	s.transform("NumberOfAverages", "numberOfAverages", property.Uint16Kind, zapcore.WarnLevel)
}

// voxelSize sets voxelSize from the in-plane pixel spacing and the slice thickness.
// Without an in-plane spacing the property is left alone.
func (s *sanitiser) voxelSize() {
	size := property.Vector3{math.NaN(), math.NaN(), math.NaN()}
	inPlane := false
	for _, name := range pixelSpacingNames {
		v, found := s.tree.Get(name)
		if !found {
			continue
		}
		spacing, ok := property.AsFloats(v)
		if !ok || len(spacing) < 2 {
			s.log.Warnf("Cannot read the voxel size from %s=%s", name, property.FormatValue(v))
			continue
		}
		// row spacing (size along a column) comes first
		size[0], size[1] = spacing[1], spacing[0]
		s.tree.Remove(name)
		inPlane = true
		break
	}
	if !inPlane {
		if !s.props.Has("voxelSize") {
			s.log.Warnf("Could not find any of %s, voxelSize will not be set", strings.Join(pixelSpacingNames, ", "))
		}
		return
	}

	if v, found := s.tree.Get("SliceThickness"); found {
		if thickness, ok := property.AsFloat64(v); ok {
			size[2] = thickness
			s.tree.Remove("SliceThickness")
		} else {
			s.log.Warnf("Cannot read SliceThickness %q", property.FormatValue(v))
		}
	} else if res, ok := s.sliceResolution(); ok {
		size[2] = 1 / res
		s.log.Debugf("Using 1/SliceResolution=%g as slice thickness", size[2])
	} else {
		s.log.Warnf("Could not find %s/SliceThickness or a SliceResolution, the slice thickness is not known", DicomTreeName)
	}
	s.props.Set("voxelSize", size)
}

// vector returns the canonical property `name` as a Vector3.
func (s *sanitiser) vector(name string) (property.Vector3, bool) {
	v, found := s.props.Get(name)
	if !found {
		return property.Vector3{}, false
	}
	return property.AsVector3(v)
}

func (s *sanitiser) orientation() {
	if s.has("ImageOrientationPatient", zapcore.InfoLevel) {
		v, _ := s.tree.Get("ImageOrientationPatient")
		if buf, ok := property.AsFloats(v); ok && len(buf) == 6 {
			s.props.Set("rowVec", property.Vector3{buf[0], buf[1], buf[2]})
			s.props.Set("columnVec", property.Vector3{buf[3], buf[4], buf[5]})
			s.tree.Remove("ImageOrientationPatient")
		} else {
			s.log.Errorf("Could not extract row- and columnVector from %s", property.FormatValue(v))
		}

		normalName := dicom.CSAHeaderName + "/SliceNormalVector"
		if normal, found := s.tree.Get(normalName); found && !s.props.Has("sliceVec") {
			if vec, ok := property.AsVector3(normal); ok {
				s.log.Debugf("Extracting sliceVec from %s %s", normalName, vec)
				s.props.Set("sliceVec", vec)
				s.tree.Remove(normalName)
			} else {
				s.log.Warnf("Cannot use %s=%s as sliceVec", normalName, property.FormatValue(normal))
			}
		}
		return
	}
	if s.props.Has("rowVec") && s.props.Has("columnVec") {
		return
	}
	s.log.Warnf("Making up row and column vector, because the image lacks this information")
	s.props.Set("rowVec", property.Vector3{1, 0, 0})
	s.props.Set("columnVec", property.Vector3{0, 1, 0})
}

func (s *sanitiser) origin() {
	if s.has("ImagePositionPatient", zapcore.InfoLevel) {
		v, _ := s.tree.Get("ImagePositionPatient")
		if origin, ok := property.AsVector3(v); ok {
			s.props.Set("indexOrigin", origin)
			return
		}
		s.log.Errorf("Could not use ImagePositionPatient %s as indexOrigin", property.FormatValue(v))
	}
	if s.props.Has("indexOrigin") {
		return
	}
	sliceNumberName := dicom.CSAHeaderName + "/ProtocolSliceNumber"
	if v, found := s.tree.Get(sliceNumberName); found {
		number, okNumber := property.AsFloat64(v)
		res, okRes := s.sliceResolution()
		if okNumber && okRes {
			origin := property.Vector3{0, 0, number / res}
			s.log.Infof("Synthesize missing indexOrigin from %s as %s", sliceNumberName, origin)
			s.props.Set("indexOrigin", origin)
			return
		}
	}
	s.props.Set("indexOrigin", property.Vector3{})
	s.log.Warnf("Making up indexOrigin, because the image lacks this information")
}

func (s *sanitiser) identification() {
	s.transform("InstanceNumber", "acquisitionNumber", property.Uint32Kind, zapcore.ErrorLevel)

	if v, found := s.tree.Get("AcquisitionNumber"); found {
		number, err := property.Convert(v, property.Uint32Kind)
		if acq, ok := s.props.Get("acquisitionNumber"); ok && err == nil && property.Equal(number, acq) {
			s.tree.Remove("AcquisitionNumber")
		}
	}

	if s.has("PatientsSex", zapcore.InfoLevel) {
		v, _ := s.tree.Get("PatientsSex")
		code := property.AsString(v)
		gender := ""
		if code != "" {
			gender = genders[code[0]]
		}
		if gender == "" {
			s.log.Warnf("Dicom gender code %q not known", code)
		} else {
			s.props.Set("subjectGender", gender)
			s.tree.Remove("PatientsSex")
		}
	}

	s.transform(dicom.CSAHeaderName+"/UsedChannelMask", "coilChannelMask", property.Uint32Kind, zapcore.InfoLevel)
}

// bValue removes and returns the diffusion b-value.
func (s *sanitiser) bValue() (int64, bool) {
	for _, name := range []string{"DiffusionBValue", "SiemensDiffusionBValue"} {
		v, found := s.tree.Extract(name)
		if !found {
			continue
		}
		b, ok := property.AsInt64(v)
		if !ok {
			s.log.Warnf("Ignoring %s %q which is not a number", name, property.FormatValue(v))
			return 0, false
		}
		return b, true
	}
	return 0, false
}

func (s *sanitiser) diffusion() {
	bValue, found := s.bValue()
	if !found {
		return
	}
	if s.dialects.Has(core.DialectSiemens) {
		if acqTime, found := s.props.Get("acquisitionTime"); found {
			s.log.Warnf("Removing acquisitionTime=%s from siemens DWI data as it is probably broken", property.FormatValue(acqTime))
			s.props.Remove("acquisitionTime")
		}
	}

	foundGradient := false
	switch {
	case s.tree.Has("DiffusionGradientOrientation"):
		foundGradient = s.transform("DiffusionGradientOrientation", "diffusionGradient", property.Vector3Kind, zapcore.WarnLevel)
	case s.tree.Has("SiemensDiffusionGradientOrientation"):
		foundGradient = s.transform("SiemensDiffusionGradientOrientation", "diffusionGradient", property.Vector3Kind, zapcore.WarnLevel)
	case bValue != 0:
		s.log.Warnf("Found no diffusion direction for DiffusionBValue %d", bValue)
	default:
		s.log.Infof("DiffusionBValue is 0, setting (non existing) diffusionGradient to %s", property.Vector3{})
		s.props.Set("diffusionGradient", property.Vector3{})
	}

	if bValue != 0 && foundGradient {
		gradient, _ := s.vector("diffusionGradient")
		s.props.Set("diffusionGradient", gradient.Scale(float64(bValue)))
	}
}

func unknownTag(id uint32) string {
	return dictionary.UnknownTagName + dictionary.IDString(id)
}

func (s *sanitiser) pruneRedundant() {
	originName := unknownTag(0x00191015)
	if v, found := s.tree.Get(originName); found {
		origin, _ := s.vector("indexOrigin")
		comp, ok := property.AsFloats(v)
		if ok && len(comp) == 3 && floats.EqualApprox(comp, origin[:], fuzzyTolerance) {
			s.tree.Remove(originName)
		} else {
			s.log.Debugf("%s/%s: %s differs from indexOrigin: %s, won't remove it",
				DicomTreeName, originName, property.FormatValue(v), origin)
		}
	}

	timesName := unknownTag(0x00191029)
	refTimes, foundRef := s.tree.Get(dicom.CSAHeaderName + "/MosaicRefAcqTimes")
	times, foundTimes := s.tree.Get(timesName)
	if foundRef && foundTimes && property.Equal(times, refTimes) {
		s.tree.Remove(timesName)
	}
}

func (s *sanitiser) fieldOfView() {
	v, found := s.tree.Get(unknownTag(0x0051100c))
	if !found {
		return
	}
	var row, column float64
	if n, err := fmt.Sscanf(property.AsString(v), "FoV %g*%g", &column, &row); err == nil && n == 2 {
		s.props.Set("fov", property.Vector3{row, column, math.NaN()})
	} else {
		s.log.Debugf("Cannot parse the field of view from %q", property.AsString(v))
	}
}

// firstFloat returns the first number of `v`, and whether `v` held a single number.
func firstFloat(v interface{}) (first float64, scalar, ok bool) {
	values, ok := property.AsFloats(v)
	if !ok || len(values) == 0 {
		return 0, false, false
	}
	return values[0], len(values) == 1, true
}

func (s *sanitiser) window() {
	centerValue, foundCenter := s.tree.Get("WindowCenter")
	widthValue, foundWidth := s.tree.Get("WindowWidth")
	if !foundCenter || !foundWidth {
		return
	}
	center, centerScalar, okCenter := firstFloat(centerValue)
	width, widthScalar, okWidth := firstFloat(widthValue)
	if !okCenter || !okWidth {
		s.log.Warnf("Cannot compute the window from WindowCenter %s and WindowWidth %s",
			property.FormatValue(centerValue), property.FormatValue(widthValue))
		return
	}
	// several windows may be given, the first one is used
	if centerScalar {
		s.tree.Remove("WindowCenter")
	}
	if widthScalar {
		s.tree.Remove("WindowWidth")
	}
	s.props.Set("window/min", center-width/2)
	s.props.Set("window/max", center+width/2)
}
