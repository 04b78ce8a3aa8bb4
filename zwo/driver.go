package zwo

// Enum behaves a bit like a C enum
type Enum map[string]int

// ControlType identifies one of the camera's adjustable controls
type ControlType int

// Control types from the ASI SDK.  The numeric values are the SDK's.
const (
	ControlGain ControlType = iota
	ControlExposure
	ControlGamma
	ControlWhiteBalanceRed
	ControlWhiteBalanceBlue
	ControlOffset
	ControlBandwidthOverload
	ControlOverclock
	ControlTemperature
	ControlFlip
	ControlAutoMaxGain
	ControlAutoMaxExp
	ControlAutoTargetBrightness
	ControlHardwareBin
	ControlHighSpeedMode
	ControlCoolerPowerPercent
	ControlTargetTemp
	ControlCoolerOn
	ControlMonoBin
	ControlFanOn
	ControlPatternAdjust
	ControlAntiDewHeater
)

// ControlTypes maps control names to the values used by the SDK
var ControlTypes = Enum{
	"Gain":                    int(ControlGain),
	"Exposure":                int(ControlExposure),
	"Gamma":                   int(ControlGamma),
	"WB_R":                    int(ControlWhiteBalanceRed),
	"WB_B":                    int(ControlWhiteBalanceBlue),
	"Offset":                  int(ControlOffset),
	"BandwidthOverload":       int(ControlBandwidthOverload),
	"Overclock":               int(ControlOverclock),
	"Temperature":             int(ControlTemperature),
	"Flip":                    int(ControlFlip),
	"AutoExpMaxGain":          int(ControlAutoMaxGain),
	"AutoExpMaxExpMS":         int(ControlAutoMaxExp),
	"AutoExpTargetBrightness": int(ControlAutoTargetBrightness),
	"HardwareBin":             int(ControlHardwareBin),
	"HighSpeedMode":           int(ControlHighSpeedMode),
	"CoolerPowerPerc":         int(ControlCoolerPowerPercent),
	"TargetTemp":              int(ControlTargetTemp),
	"CoolerOn":                int(ControlCoolerOn),
	"MonoBin":                 int(ControlMonoBin),
	"FanOn":                   int(ControlFanOn),
	"PatternAdjust":           int(ControlPatternAdjust),
	"AntiDewHeater":           int(ControlAntiDewHeater),
}

// ImageType is the pixel format of the readout
type ImageType int

// Pixel formats from the ASI SDK
const (
	Raw8 ImageType = iota
	RGB24
	Raw16
	Y8
)

// BytesPerPixel returns the storage size of one pixel in the given format
func (t ImageType) BytesPerPixel() int {
	switch t {
	case Raw16:
		return 2
	case RGB24:
		return 3
	default:
		return 1
	}
}

// ExposureStatus is the hardware-reported state of an exposure
type ExposureStatus int

// Exposure states from the ASI SDK
const (
	ExposureIdle ExposureStatus = iota
	ExposureWorking
	ExposureSuccess
	ExposureFailed
)

func (s ExposureStatus) String() string {
	switch s {
	case ExposureIdle:
		return "IDLE"
	case ExposureWorking:
		return "WORKING"
	case ExposureSuccess:
		return "SUCCESS"
	case ExposureFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// CameraInfo is the decoded sensor property record for one camera
type CameraInfo struct {
	Name string `json:"name"`

	CameraID int `json:"cameraID"`

	// MaxWidth and MaxHeight are the unbinned sensor extent in pixels
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`

	IsColorCam bool `json:"isColorCam"`

	// BayerPattern is the raw SDK index of the color filter layout,
	// only meaningful when IsColorCam is true
	BayerPattern int `json:"bayerPattern"`

	// SupportedBins holds the binning factors the sensor supports, in the
	// order the SDK reports them
	SupportedBins []int `json:"supportedBins"`

	SupportedVideoFormats []ImageType `json:"supportedVideoFormats"`

	// PixelSize is the pixel pitch in micron
	PixelSize float64 `json:"pixelSize"`

	MechanicalShutter bool `json:"mechanicalShutter"`

	ST4Port bool `json:"st4Port"`

	IsCoolerCam bool `json:"isCoolerCam"`

	IsUSB3Host bool `json:"isUSB3Host"`

	IsUSB3Camera bool `json:"isUSB3Camera"`

	ElecPerADU float64 `json:"elecPerADU"`

	BitDepth int `json:"bitDepth"`

	IsTriggerCam bool `json:"isTriggerCam"`
}

// ControlCaps is the decoded capability record for one camera control
type ControlCaps struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	MaxValue     int `json:"maxValue"`
	MinValue     int `json:"minValue"`
	DefaultValue int `json:"defaultValue"`

	IsAutoSupported bool `json:"isAutoSupported"`
	IsWritable      bool `json:"isWritable"`

	ControlType ControlType `json:"controlType"`
}

// DecodeName converts a fixed-length C name buffer to a Go string,
// stopping at the first NUL
func DecodeName(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// DecodeBins extracts the supported binning factors from the SDK's
// fixed-length array; the list ends at the first zero entry
func DecodeBins(raw []int) []int {
	out := []int{}
	for _, b := range raw {
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return out
}

// DecodeVideoFormats extracts the supported video formats from the SDK's
// fixed-length array; the list ends at the first -1 sentinel
func DecodeVideoFormats(raw []int) []ImageType {
	out := []ImageType{}
	for _, f := range raw {
		if f == -1 {
			break
		}
		out = append(out, ImageType(f))
	}
	return out
}

// Driver is the native call surface of the ASI SDK.  The concrete
// implementation lives in the sdk subpackage; tests substitute fakes.
// All camera-scoped calls take the integer camera ID used by the SDK and
// return errors decoded from the SDK's numeric codes (see ErrCodes).
type Driver interface {
	// NumCameras returns the count of connected cameras.  The SDK requires
	// this to be called before any ID is usable.
	NumCameras() int

	// CameraProperty reads the sensor property record
	CameraProperty(id int) (CameraInfo, error)

	// Open acquires the camera handle
	Open(id int) error

	// Init readies an opened camera for use
	Init(id int) error

	// Close releases the camera handle
	Close(id int) error

	// NumControls returns the number of control capability records
	NumControls(id int) (int, error)

	// ControlCaps reads the capability record at the given index
	ControlCaps(id int, index int) (ControlCaps, error)

	// GetControlValue reads a control value and whether it is in auto mode
	GetControlValue(id int, ctrl ControlType) (int, bool, error)

	// SetControlValue writes a control value
	SetControlValue(id int, ctrl ControlType, value int, auto bool) error

	// GetROIFormat reads the current readout geometry and pixel format
	GetROIFormat(id int) (width, height, bins int, imgType ImageType, err error)

	// SetROIFormat writes the readout geometry and pixel format
	SetROIFormat(id int, width, height, bins int, imgType ImageType) error

	// GetStartPosition reads the readout start position
	GetStartPosition(id int) (x, y int, err error)

	// SetStartPosition writes the readout start position
	SetStartPosition(id int, x, y int) error

	// StartExposure begins a hardware exposure
	StartExposure(id int, isDark bool) error

	// StopExposure aborts an in-flight exposure
	StopExposure(id int) error

	// ExposureStatus polls the state of the current exposure
	ExposureStatus(id int) (ExposureStatus, error)

	// DownloadImage fills buf with the pixel data of a successful
	// exposure.  The SDK writes exactly len(buf) bytes or errors.
	DownloadImage(id int, buf []byte) error

	// StopVideoCapture aborts any in-flight video capture
	StopVideoCapture(id int) error

	// DisableDarkSubtract turns off in-camera dark frame subtraction
	DisableDarkSubtract(id int) error
}
