package zwo

import (
	"fmt"
	"sync/atomic"

	"github.com/sdsobservatory/skycam/util"
)

// quirkModels are sensors whose readout requires width*height to be a
// multiple of 1024
var quirkModels = map[string]bool{
	"ZWO ASI120MM": true,
	"ZWO ASI120MC": true,
}

// ROI is the readout window of the sensor at a given binning factor
type ROI struct {
	// X and Y are the start position of the window in binned pixels
	X int `json:"x"`
	Y int `json:"y"`

	// Width and Height are the window extent in binned pixels
	Width  int `json:"width"`
	Height int `json:"height"`

	// Bins is the binning factor
	Bins int `json:"bins"`

	// ImageType is the pixel format of the readout
	ImageType ImageType `json:"imageType"`
}

// ImageSizeBytes is the size of one frame at this ROI in bytes
func (r ROI) ImageSizeBytes() int {
	return r.Width * r.Height * r.ImageType.BytesPerPixel()
}

// ROIRequest is a partially-specified ROI.  Nil fields take defaults from
// the current ROI and the sensor geometry, see ResolveROI.
type ROIRequest struct {
	X         *int       `json:"x"`
	Y         *int       `json:"y"`
	Width     *int       `json:"width"`
	Height    *int       `json:"height"`
	Bins      *int       `json:"bins"`
	ImageType *ImageType `json:"imageType"`
}

// ResolveROI computes a fully-specified ROI from a partial request, the
// sensor properties, and the current ROI, then validates it.
//
// Defaults: bins and pixel format come from the current ROI; width and
// height span the binned sensor rounded down to the required multiple
// (8 for width, 2 for height); x and y center the window.
func ResolveROI(info CameraInfo, cur ROI, req ROIRequest) (ROI, error) {
	roi := ROI{}

	bins := cur.Bins
	if req.Bins != nil {
		bins = *req.Bins
	}
	roi.Bins = bins

	roi.ImageType = cur.ImageType
	if req.ImageType != nil {
		roi.ImageType = *req.ImageType
	}

	if bins < 1 {
		return roi, fmt.Errorf("ROI bins too small")
	}
	if req.Bins != nil && len(info.SupportedBins) > 0 && !util.IntSliceContains(info.SupportedBins, bins) {
		return roi, fmt.Errorf("unsupported bins, camera only supports %v", info.SupportedBins)
	}

	binnedW := info.MaxWidth / bins
	binnedH := info.MaxHeight / bins

	width := binnedW - binnedW%8
	if req.Width != nil {
		width = *req.Width
	}
	roi.Width = width

	height := binnedH - binnedH%2
	if req.Height != nil {
		height = *req.Height
	}
	roi.Height = height

	x := (binnedW - width) / 2
	if req.X != nil {
		x = *req.X
	}
	roi.X = x

	y := (binnedH - height) / 2
	if req.Y != nil {
		y = *req.Y
	}
	roi.Y = y

	switch {
	case width < 8:
		return roi, fmt.Errorf("ROI width too small")
	case width > binnedW:
		return roi, fmt.Errorf("ROI width larger than binned sensor width")
	case width%8 != 0:
		return roi, fmt.Errorf("ROI width must be a multiple of 8")
	}

	switch {
	case height < 2:
		return roi, fmt.Errorf("ROI height too small")
	case height > binnedH:
		return roi, fmt.Errorf("ROI height larger than binned sensor height")
	case height%2 != 0:
		return roi, fmt.Errorf("ROI height must be a multiple of 2")
	}

	if quirkModels[info.Name] && (width*height)%1024 != 0 {
		return roi, fmt.Errorf("ROI width * height must be multiple of 1024 for %s", info.Name)
	}

	if x < 0 || x+width > binnedW {
		return roi, fmt.Errorf("ROI and start position larger than binned sensor width")
	}
	if y < 0 || y+height > binnedH {
		return roi, fmt.Errorf("ROI and start position larger than binned sensor height")
	}

	return roi, nil
}

// SetROI resolves req against the sensor and the current hardware ROI and
// applies it to the camera as two driver calls, format then start position.
// The exposing flag is held for the duration of the change, so a capture
// can neither be running nor be admitted while the ROI moves; callers get
// ErrExposureInProgress instead.  No copy of the applied ROI is cached;
// ROI() always re-reads the hardware.
func (c *Camera) SetROI(req ROIRequest) error {
	if !c.connected {
		return ErrNotConnected
	}
	if !atomic.CompareAndSwapInt32(&c.exposing, 0, 1) {
		return ErrExposureInProgress
	}
	defer atomic.StoreInt32(&c.exposing, 0)
	return c.setROI(req)
}

// setROI is SetROI without the admission check, for the capture path which
// already holds the exposing flag
func (c *Camera) setROI(req ROIRequest) error {
	if !c.connected {
		return ErrNotConnected
	}
	info, err := c.Info()
	if err != nil {
		return err
	}
	cur, err := c.ROI()
	if err != nil {
		return err
	}
	roi, err := ResolveROI(info, cur, req)
	if err != nil {
		return err
	}
	err = c.drv.SetROIFormat(c.id, roi.Width, roi.Height, roi.Bins, roi.ImageType)
	if err != nil {
		return err
	}
	return c.drv.SetStartPosition(c.id, roi.X, roi.Y)
}

// resetROI returns the camera to the full unbinned frame with the origin
// at the top-left corner
func (c *Camera) resetROI() error {
	info, err := c.Info()
	if err != nil {
		return err
	}
	zero := 0
	one := 1
	return c.setROI(ROIRequest{
		X:      &zero,
		Y:      &zero,
		Width:  &info.MaxWidth,
		Height: &info.MaxHeight,
		Bins:   &one,
	})
}

// ROI reads the current readout window from the hardware
func (c *Camera) ROI() (ROI, error) {
	if !c.connected {
		return ROI{}, ErrNotConnected
	}
	x, y, err := c.drv.GetStartPosition(c.id)
	if err != nil {
		return ROI{}, err
	}
	w, h, bins, typ, err := c.drv.GetROIFormat(c.id)
	if err != nil {
		return ROI{}, err
	}
	return ROI{X: x, Y: y, Width: w, Height: h, Bins: bins, ImageType: typ}, nil
}
