package zwo

import (
	"errors"
	"fmt"
)

var (
	// ErrExposureInProgress is generated when a capture is requested while
	// another one is running
	ErrExposureInProgress = errors.New("an exposure is already in progress")

	// ErrNotConnected is generated when the camera is used before Open or
	// after Close
	ErrNotConnected = errors.New("camera is not connected")

	// ErrCodes is a map of error codes (ints) to error strings
	ErrCodes = map[DRVError]string{
		0:  "ASI_SUCCESS",
		1:  "ASI_ERROR_INVALID_INDEX",
		2:  "ASI_ERROR_INVALID_ID",
		3:  "ASI_ERROR_INVALID_CONTROL_TYPE",
		4:  "ASI_ERROR_CAMERA_CLOSED",
		5:  "ASI_ERROR_CAMERA_REMOVED",
		6:  "ASI_ERROR_INVALID_PATH",
		7:  "ASI_ERROR_INVALID_FILEFORMAT",
		8:  "ASI_ERROR_INVALID_SIZE",
		9:  "ASI_ERROR_INVALID_IMGTYPE",
		10: "ASI_ERROR_OUTOF_BOUNDARY",
		11: "ASI_ERROR_TIMEOUT",
		12: "ASI_ERROR_INVALID_SEQUENCE",
		13: "ASI_ERROR_BUFFER_TOO_SMALL",
		14: "ASI_ERROR_VIDEO_MODE_ACTIVE",
		15: "ASI_ERROR_EXPOSURE_IN_PROGRESS",
		16: "ASI_ERROR_GENERAL_ERROR",
		17: "ASI_ERROR_INVALID_MODE",
	}
)

// DRVError represents a driver error
type DRVError int

func (e DRVError) Error() string {
	if s, ok := ErrCodes[e]; ok {
		return fmt.Sprintf("%d - %s", int(e), s)
	}
	return fmt.Sprintf("%d - UNKNOWN_ERROR_CODE", int(e))
}

// Error returns nil on success codes or an error object on failing ones
func Error(code int) error {
	if code == 0 {
		return nil
	}
	return DRVError(code)
}

// ExposureFailure is generated when the hardware reports a terminal
// non-success status after polling
type ExposureFailure struct {
	// Status is the terminal status the hardware reported
	Status ExposureStatus
}

func (e ExposureFailure) Error() string {
	return fmt.Sprintf("image capture failed as %s", e.Status)
}

// ErrUndefinedBayerPattern is generated when a color sensor reports a
// Bayer index outside the four canonical patterns
type ErrUndefinedBayerPattern struct {
	// Index is the raw index the sensor reported
	Index int
}

func (e ErrUndefinedBayerPattern) Error() string {
	return fmt.Sprintf("bayer pattern index %d is not one of the four canonical patterns", e.Index)
}
