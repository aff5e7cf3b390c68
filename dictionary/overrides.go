package dictionary

// overrides pins the names the loader and sanitiser depend on, and replaces
// standard names where the Siemens meaning differs.
var overrides = map[uint32]Entry{
	MetaGroupLength:      {"UL", "FileMetaInformationGroupLength"},
	0x00020001:           {"OB", "FileMetaInformationVersion"},
	0x00020002:           {"UI", "MediaStorageSOPClassUID"},
	0x00020003:           {"UI", "MediaStorageSOPInstanceUID"},
	TransferSyntaxUID:    {"UI", "TransferSyntaxUID"},
	0x00020012:           {"UI", "ImplementationClassUID"},
	0x00020013:           {"SH", "ImplementationVersionName"},
	SpecificCharacterSet: {"CS", "SpecificCharacterSet"},

	0x00080008: {"CS", "ImageType"},
	0x00080020: {"DA", "StudyDate"},
	0x00080021: {"DA", "SeriesDate"},
	0x00080022: {"DA", "AcquisitionDate"},
	0x00080023: {"DA", "ContentDate"},
	0x0008002A: {"DT", "AcquisitionDateTime"},
	0x00080030: {"TM", "StudyTime"},
	0x00080031: {"TM", "SeriesTime"},
	0x00080032: {"TM", "AcquisitionTime"},
	0x00080033: {"TM", "ContentTime"},
	0x00080060: {"CS", "Modality"},
	0x00080070: {"LO", "Manufacturer"},
	0x0008103E: {"LO", "SeriesDescription"},
	0x00081050: {"PN", "PerformingPhysiciansName"},

	0x00100010: {"PN", "PatientsName"},
	0x00100030: {"DA", "PatientsBirthDate"},
	0x00100040: {"CS", "PatientsSex"},
	0x00101010: {"AS", "PatientsAge"},
	0x00101030: {"DS", "PatientsWeight"},

	0x00180050: {"DS", "SliceThickness"},
	0x00180080: {"DS", "RepetitionTime"},
	0x00180081: {"DS", "EchoTime"},
	0x00180083: {"DS", "NumberOfAverages"},
	0x00180088: {"DS", "SpacingBetweenSlices"},
	0x00181164: {"DS", "ImagerPixelSpacing"},
	0x00181310: {"US", "AcquisitionMatrix"},
	0x00181314: {"DS", "FlipAngle"},
	0x00189087: {"FD", "DiffusionBValue"},
	0x00189089: {"FD", "DiffusionGradientOrientation"},

	// Siemens reuses these for mosaic and diffusion information; the VR only
	// matters for implicit VR streams
	0x0019100a: {"US", "SiemensNumberOfImagesInMosaic"},
	0x0019100c: {"IS", "SiemensDiffusionBValue"},
	0x0019100e: {"FD", "SiemensDiffusionGradientOrientation"},

	0x00200011: {"IS", "SeriesNumber"},
	0x00200012: {"IS", "AcquisitionNumber"},
	0x00200013: {"IS", "InstanceNumber"},
	0x00200032: {"DS", "ImagePositionPatient"},
	0x00200037: {"DS", "ImageOrientationPatient"},

	0x00280002: {"US", "SamplesPerPixel"},
	0x00280004: {"CS", "PhotometricInterpretation"},
	0x00280010: {"US", "Rows"},
	0x00280011: {"US", "Columns"},
	0x00280030: {"DS", "PixelSpacing"},
	0x00280100: {"US", "BitsAllocated"},
	0x00280101: {"US", "BitsStored"},
	0x00280102: {"US", "HighBit"},
	0x00280103: {"US", "PixelRepresentation"},
	0x00281050: {"DS", "WindowCenter"},
	0x00281051: {"DS", "WindowWidth"},

	CSAImageHeaderInfo:  {"OB", "CSAImageHeaderInfo"},
	CSASeriesHeaderInfo: {"OB", "CSASeriesHeaderInfo"},

	0x30020011: {"DS", "ImagePlanePixelSpacing"},

	PixelData: {"OW", "PixelData"},

	ItemTag:              {"--", "Item"},
	ItemDelimitationTag:  {"--", "ItemDelimitationItem"},
	SequenceDelimitation: {"--", "SequenceDelimitationItem"},
}
