/*Package sdk exposes the native ZWO ASICamera2 library as a zwo.Driver.

This package is a thin call table: every method shells out to the vendor
SDK and maps its numeric return code through zwo.Error.  No policy lives
here; capture orchestration, validation, and buffer ownership are in the
parent package, which this package never imports for behavior, only for
types.

The native library is linked at process start; a missing libASICamera2
fails at load time, before any runtime driver error can occur.  The SDK
requires ASIGetNumOfConnectedCameras to be called before camera IDs are
usable, so Driver performs the enumeration once, lazily, ahead of the
first Open.
*/
package sdk

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lASICamera2
#include <stdlib.h>
#include <ASICamera2.h>
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/sdsobservatory/skycam/zwo"
)

// Driver implements zwo.Driver against the native library
type Driver struct {
	enumerate sync.Once
}

// New returns a Driver ready for use
func New() *Driver {
	return &Driver{}
}

func boolToASI(b bool) C.ASI_BOOL {
	if b {
		return C.ASI_TRUE
	}
	return C.ASI_FALSE
}

// NumCameras returns the count of connected cameras
func (d *Driver) NumCameras() int {
	return int(C.ASIGetNumOfConnectedCameras())
}

// CameraProperty reads and decodes the sensor property record
func (d *Driver) CameraProperty(id int) (zwo.CameraInfo, error) {
	var prop C.ASI_CAMERA_INFO
	err := zwo.Error(int(C.ASIGetCameraProperty(&prop, C.int(id))))
	if err != nil {
		return zwo.CameraInfo{}, err
	}
	rawBins := make([]int, len(prop.SupportedBins))
	for i := range prop.SupportedBins {
		rawBins[i] = int(prop.SupportedBins[i])
	}
	rawFormats := make([]int, len(prop.SupportedVideoFormat))
	for i := range prop.SupportedVideoFormat {
		rawFormats[i] = int(prop.SupportedVideoFormat[i])
	}
	info := zwo.CameraInfo{
		Name:                  zwo.DecodeName(C.GoBytes(unsafe.Pointer(&prop.Name[0]), C.int(len(prop.Name)))),
		CameraID:              int(prop.CameraID),
		MaxHeight:             int(prop.MaxHeight),
		MaxWidth:              int(prop.MaxWidth),
		IsColorCam:            prop.IsColorCam == C.ASI_TRUE,
		BayerPattern:          int(prop.BayerPattern),
		SupportedBins:         zwo.DecodeBins(rawBins),
		SupportedVideoFormats: zwo.DecodeVideoFormats(rawFormats),
		PixelSize:             float64(prop.PixelSize),
		MechanicalShutter:     prop.MechanicalShutter == C.ASI_TRUE,
		ST4Port:               prop.ST4Port == C.ASI_TRUE,
		IsCoolerCam:           prop.IsCoolerCam == C.ASI_TRUE,
		IsUSB3Host:            prop.IsUSB3Host == C.ASI_TRUE,
		IsUSB3Camera:          prop.IsUSB3Camera == C.ASI_TRUE,
		ElecPerADU:            float64(prop.ElecPerADU),
		BitDepth:              int(prop.BitDepth),
		IsTriggerCam:          prop.IsTriggerCam == C.ASI_TRUE,
	}
	return info, nil
}

// Open acquires the camera handle
func (d *Driver) Open(id int) error {
	// the SDK ignores IDs until cameras have been enumerated
	d.enumerate.Do(func() { C.ASIGetNumOfConnectedCameras() })
	return zwo.Error(int(C.ASIOpenCamera(C.int(id))))
}

// Init readies an opened camera for use
func (d *Driver) Init(id int) error {
	return zwo.Error(int(C.ASIInitCamera(C.int(id))))
}

// Close releases the camera handle
func (d *Driver) Close(id int) error {
	return zwo.Error(int(C.ASICloseCamera(C.int(id))))
}

// NumControls returns the number of control capability records
func (d *Driver) NumControls(id int) (int, error) {
	var n C.int
	errCode := int(C.ASIGetNumOfControls(C.int(id), &n))
	return int(n), zwo.Error(errCode)
}

// ControlCaps reads and decodes the capability record at the given index
func (d *Driver) ControlCaps(id int, index int) (zwo.ControlCaps, error) {
	var caps C.ASI_CONTROL_CAPS
	err := zwo.Error(int(C.ASIGetControlCaps(C.int(id), C.int(index), &caps)))
	if err != nil {
		return zwo.ControlCaps{}, err
	}
	out := zwo.ControlCaps{
		Name:            zwo.DecodeName(C.GoBytes(unsafe.Pointer(&caps.Name[0]), C.int(len(caps.Name)))),
		Description:     zwo.DecodeName(C.GoBytes(unsafe.Pointer(&caps.Description[0]), C.int(len(caps.Description)))),
		MaxValue:        int(caps.MaxValue),
		MinValue:        int(caps.MinValue),
		DefaultValue:    int(caps.DefaultValue),
		IsAutoSupported: caps.IsAutoSupported == C.ASI_TRUE,
		IsWritable:      caps.IsWritable == C.ASI_TRUE,
		ControlType:     zwo.ControlType(caps.ControlType),
	}
	return out, nil
}

// GetControlValue reads a control value and whether it is in auto mode
func (d *Driver) GetControlValue(id int, ctrl zwo.ControlType) (int, bool, error) {
	var value C.long
	var auto C.ASI_BOOL
	errCode := int(C.ASIGetControlValue(C.int(id), C.ASI_CONTROL_TYPE(ctrl), &value, &auto))
	return int(value), auto == C.ASI_TRUE, zwo.Error(errCode)
}

// SetControlValue writes a control value
func (d *Driver) SetControlValue(id int, ctrl zwo.ControlType, value int, auto bool) error {
	return zwo.Error(int(C.ASISetControlValue(C.int(id), C.ASI_CONTROL_TYPE(ctrl), C.long(value), boolToASI(auto))))
}

// GetROIFormat reads the current readout geometry and pixel format
func (d *Driver) GetROIFormat(id int) (int, int, int, zwo.ImageType, error) {
	var width, height, bins C.int
	var imgType C.ASI_IMG_TYPE
	errCode := int(C.ASIGetROIFormat(C.int(id), &width, &height, &bins, &imgType))
	return int(width), int(height), int(bins), zwo.ImageType(imgType), zwo.Error(errCode)
}

// SetROIFormat writes the readout geometry and pixel format
func (d *Driver) SetROIFormat(id int, width, height, bins int, imgType zwo.ImageType) error {
	return zwo.Error(int(C.ASISetROIFormat(C.int(id), C.int(width), C.int(height), C.int(bins), C.ASI_IMG_TYPE(imgType))))
}

// GetStartPosition reads the readout start position
func (d *Driver) GetStartPosition(id int) (int, int, error) {
	var x, y C.int
	errCode := int(C.ASIGetStartPos(C.int(id), &x, &y))
	return int(x), int(y), zwo.Error(errCode)
}

// SetStartPosition writes the readout start position
func (d *Driver) SetStartPosition(id int, x, y int) error {
	return zwo.Error(int(C.ASISetStartPos(C.int(id), C.int(x), C.int(y))))
}

// StartExposure begins a hardware exposure
func (d *Driver) StartExposure(id int, isDark bool) error {
	return zwo.Error(int(C.ASIStartExposure(C.int(id), boolToASI(isDark))))
}

// StopExposure aborts an in-flight exposure
func (d *Driver) StopExposure(id int) error {
	return zwo.Error(int(C.ASIStopExposure(C.int(id))))
}

// ExposureStatus polls the state of the current exposure
func (d *Driver) ExposureStatus(id int) (zwo.ExposureStatus, error) {
	var status C.ASI_EXPOSURE_STATUS
	errCode := int(C.ASIGetExpStatus(C.int(id), &status))
	return zwo.ExposureStatus(status), zwo.Error(errCode)
}

// DownloadImage fills buf with the pixel data of a successful exposure
func (d *Driver) DownloadImage(id int, buf []byte) error {
	if len(buf) == 0 {
		return zwo.Error(int(C.ASI_ERROR_BUFFER_TOO_SMALL))
	}
	ptr := (*C.uchar)(unsafe.Pointer(&buf[0]))
	return zwo.Error(int(C.ASIGetDataAfterExp(C.int(id), ptr, C.long(len(buf)))))
}

// StopVideoCapture aborts any in-flight video capture
func (d *Driver) StopVideoCapture(id int) error {
	return zwo.Error(int(C.ASIStopVideoCapture(C.int(id))))
}

// DisableDarkSubtract turns off in-camera dark frame subtraction
func (d *Driver) DisableDarkSubtract(id int) error {
	return zwo.Error(int(C.ASIDisableDarkSubtract(C.int(id))))
}
