/*Package zwo exposes control of ZWO ASI astronomy cameras in Go.

This package wraps the native ASI SDK call surface behind the Driver
interface and builds the capture machinery on top of it: ROI validation,
a reusable frame buffer, an exposure session that polls the hardware to
completion without blocking other work, and FITS assembly of the result.
The cgo binding to the vendor library lives in the sdk subpackage; this
package has no native dependencies and is fully testable with a fake
Driver.

One Camera serves one physical device.  At most one exposure runs at a
time; concurrent capture requests are refused while one is in flight.

Users are encouraged to write packages that build on this driver for more
complex functionality.  An example in the same repository, cmd/skycam,
wraps the camera in an HTTP server.
*/
package zwo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sdsobservatory/skycam/util"
)

// minPollInterval is the floor on the exposure status poll cadence
const minPollInterval = 10 * time.Millisecond

// ExposureParameters are the per-capture settings.  They are immutable for
// the duration of one capture.
type ExposureParameters struct {
	// ExposureSec is the exposure duration in seconds
	ExposureSec float64 `json:"exposure"`

	// Gain is the sensor amplification
	Gain int `json:"gain"`

	// Offset is the sensor black level
	Offset int `json:"offset"`

	// WhiteBalanceBlue and WhiteBalanceRed are optional color balance
	// controls, applied only when non-nil
	WhiteBalanceBlue *int `json:"wb_b"`
	WhiteBalanceRed  *int `json:"wb_r"`

	// IsDark marks the capture as a dark frame (shutter intent only; the
	// sensor is exposed with no intentional light input)
	IsDark bool `json:"is_dark"`
}

// PollInterval is the cadence at which the hardware is polled for exposure
// completion, max(10ms, exposure/25)
func (p ExposureParameters) PollInterval() time.Duration {
	d := util.SecsToDuration(p.ExposureSec / 25)
	if d < minPollInterval {
		return minPollInterval
	}
	return d
}

// exposureMicroseconds is the exposure time in the unit the SDK accepts
func (p ExposureParameters) exposureMicroseconds() int {
	return int(math.Round(p.ExposureSec * 1e6))
}

// Camera represents one ZWO ASI camera
type Camera struct {
	drv Driver

	// id is the SDK camera ID, valid only while connected
	id int

	// connected is true between a successful Open and Close
	connected bool

	// exposing is the capture admission flag, manipulated atomically so
	// that exactly one request wins the seat
	exposing int32

	// buf is the reusable download buffer, touched only by the goroutine
	// that won the exposing flag
	buf frameBuffer

	// captures tracks in-flight capture goroutines so Close can wait for
	// them before releasing the handle
	captures sync.WaitGroup

	// mu guards fits
	mu sync.RWMutex

	// fits holds the serialized most recent image, empty when the last
	// capture failed or none has run
	fits []byte
}

// New returns a Camera bound to the connected camera at the given index.
// The driver's enumeration is consulted; an out of range index is an error.
func New(drv Driver, index int) (*Camera, error) {
	n := drv.NumCameras()
	if index < 0 || index >= n {
		return nil, fmt.Errorf("invalid camera id %d, %d cameras found", index, n)
	}
	return &Camera{drv: drv, id: index}, nil
}

// NewByModel returns a Camera bound to the first connected camera whose
// model name matches model or "ZWO "+model
func NewByModel(drv Driver, model string) (*Camera, error) {
	n := drv.NumCameras()
	for i := 0; i < n; i++ {
		info, err := drv.CameraProperty(i)
		if err != nil {
			return nil, err
		}
		if info.Name == model || info.Name == "ZWO "+model {
			return &Camera{drv: drv, id: i}, nil
		}
	}
	return nil, fmt.Errorf("could not find camera model %s", model)
}

// Open acquires the camera and forces a known baseline: dark subtraction
// off, no video capture running, no exposure running.  If any step fails
// the handle is closed before the original error is returned, so a failed
// Open never leaks a partially-open camera.
func (c *Camera) Open() error {
	err := c.drv.Open(c.id)
	if err != nil {
		c.drv.Close(c.id)
		return err
	}
	err = c.drv.Init(c.id)
	if err != nil {
		c.Close()
		return err
	}
	c.connected = true
	err = c.drv.DisableDarkSubtract(c.id)
	if err != nil {
		c.Close()
		return err
	}
	// these two may error if nothing is in flight, which is the baseline
	// we are after anyway
	c.drv.StopVideoCapture(c.id)
	c.drv.StopExposure(c.id)
	return nil
}

// Close waits for any in-flight capture to finish, then releases the
// camera.  Cancel the capture's context first to stop it promptly.
// connected is cleared even when the SDK release call fails.
func (c *Camera) Close() error {
	c.captures.Wait()
	err := c.drv.Close(c.id)
	c.connected = false
	return err
}

// Connected returns true if the camera is open
func (c *Camera) Connected() bool {
	return c.connected
}

// Info reads the sensor property record
func (c *Camera) Info() (CameraInfo, error) {
	return c.drv.CameraProperty(c.id)
}

// Controls reads every control capability record, keyed by control name
func (c *Camera) Controls() (map[string]ControlCaps, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	n, err := c.drv.NumControls(c.id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ControlCaps, n)
	for i := 0; i < n; i++ {
		caps, err := c.drv.ControlCaps(c.id, i)
		if err != nil {
			return nil, err
		}
		out[caps.Name] = caps
	}
	return out, nil
}

// GetControlValue reads one control value and its auto flag
func (c *Camera) GetControlValue(ctrl ControlType) (int, bool, error) {
	if !c.connected {
		return 0, false, ErrNotConnected
	}
	return c.drv.GetControlValue(c.id, ctrl)
}

// SetControlValue writes one control value
func (c *Camera) SetControlValue(ctrl ControlType, value int, auto bool) error {
	if !c.connected {
		return ErrNotConnected
	}
	return c.drv.SetControlValue(c.id, ctrl, value, auto)
}

// Exposing returns true while a capture is in progress
func (c *Camera) Exposing() bool {
	return atomic.LoadInt32(&c.exposing) == 1
}

// MostRecentImage returns the serialized FITS bytes of the last successful
// capture, or an empty slice if there is none
func (c *Camera) MostRecentImage() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fits
}

// StartCapture admits a capture and runs it on a new goroutine.  The
// exposing flag is taken atomically before the goroutine is scheduled, so
// two admitted requests can never both proceed; the loser gets
// ErrExposureInProgress and no side effects.  The result is observable
// through Exposing and MostRecentImage.
func (c *Camera) StartCapture(ctx context.Context, p ExposureParameters) error {
	if !c.connected {
		return ErrNotConnected
	}
	if !atomic.CompareAndSwapInt32(&c.exposing, 0, 1) {
		return ErrExposureInProgress
	}
	c.captures.Add(1)
	go func() {
		defer c.captures.Done()
		c.capture(ctx, p)
	}()
	return nil
}

// CaptureImage admits a capture and runs it to completion on the calling
// goroutine.  See StartCapture for the admission semantics.
func (c *Camera) CaptureImage(ctx context.Context, p ExposureParameters) error {
	if !c.connected {
		return ErrNotConnected
	}
	if !atomic.CompareAndSwapInt32(&c.exposing, 0, 1) {
		return ErrExposureInProgress
	}
	c.captures.Add(1)
	defer c.captures.Done()
	return c.capture(ctx, p)
}

// capture runs one admitted exposure end to end.  The caller must hold the
// exposing flag; it is released on every exit path.
func (c *Camera) capture(ctx context.Context, p ExposureParameters) (err error) {
	defer atomic.StoreInt32(&c.exposing, 0)
	defer func() {
		if err == nil {
			return
		}
		c.buf.Clear()
		// a cancelled capture stops the hardware and walks away; the
		// previously published artifact stays valid.  Any other failure
		// resets the artifact so clients observe the error state.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.discard()
		}
	}()

	err = c.resetROI()
	if err != nil {
		return err
	}
	err = c.drv.SetControlValue(c.id, ControlGain, p.Gain, false)
	if err != nil {
		return err
	}
	err = c.drv.SetControlValue(c.id, ControlOffset, p.Offset, false)
	if err != nil {
		return err
	}
	if p.WhiteBalanceBlue != nil {
		err = c.drv.SetControlValue(c.id, ControlWhiteBalanceBlue, *p.WhiteBalanceBlue, false)
		if err != nil {
			return err
		}
	}
	if p.WhiteBalanceRed != nil {
		err = c.drv.SetControlValue(c.id, ControlWhiteBalanceRed, *p.WhiteBalanceRed, false)
		if err != nil {
			return err
		}
	}
	typ := Raw16
	err = c.setROI(ROIRequest{ImageType: &typ})
	if err != nil {
		return err
	}

	roi, err := c.ROI()
	if err != nil {
		return err
	}
	c.buf.EnsureCapacity(roi.ImageSizeBytes())
	c.buf.Clear()

	utc := time.Now().UTC()
	local := time.Now()

	err = c.expose(ctx, p)
	if err != nil {
		return err
	}
	err = c.drv.DownloadImage(c.id, c.buf.Bytes())
	if err != nil {
		return err
	}

	info, err := c.Info()
	if err != nil {
		return err
	}
	cards, err := collectHeaderMetadata(info, p, utc, local)
	if err != nil {
		return err
	}
	w := &bytes.Buffer{}
	err = writeFits(w, cards, c.buf.Bytes(), roi.Width, roi.Height)
	if err != nil {
		return err
	}
	// only after the new artifact is fully built does it replace the old
	// one; readers never see a half-written image
	c.mu.Lock()
	c.fits = w.Bytes()
	c.mu.Unlock()
	return nil
}

// expose programs the exposure time, starts the hardware exposure, and
// polls until a terminal status.  Cancellation is observed at each poll
// iteration; the hardware is stopped before the cancellation propagates.
func (c *Camera) expose(ctx context.Context, p ExposureParameters) error {
	err := c.drv.SetControlValue(c.id, ControlExposure, p.exposureMicroseconds(), false)
	if err != nil {
		return err
	}
	err = c.drv.StartExposure(c.id, p.IsDark)
	if err != nil {
		return err
	}
	interval := p.PollInterval()
	for {
		if err := ctx.Err(); err != nil {
			c.drv.StopExposure(c.id)
			return err
		}
		status, err := c.drv.ExposureStatus(c.id)
		if err != nil {
			return err
		}
		if status != ExposureWorking {
			if status != ExposureSuccess {
				return ExposureFailure{Status: status}
			}
			return nil
		}
		select {
		case <-ctx.Done():
			c.drv.StopExposure(c.id)
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// discard resets the stored artifact after a failed capture so no partial
// data survives
func (c *Camera) discard() {
	c.mu.Lock()
	c.fits = nil
	c.mu.Unlock()
}

// StatusString reports the capture state for the HTTP surface: "exposing"
// while a capture runs, "complete" when a non-empty artifact exists, and
// "error" otherwise
func (c *Camera) StatusString() string {
	if c.Exposing() {
		return "exposing"
	}
	if len(c.MostRecentImage()) > 0 {
		return "complete"
	}
	return "error"
}

// ListCameras returns the model names of every connected camera
func ListCameras(drv Driver) ([]string, error) {
	n := drv.NumCameras()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		info, err := drv.CameraProperty(i)
		if err != nil {
			return names, err
		}
		names = append(names, info.Name)
	}
	return names, nil
}

// FormatControls renders control capability records in a stable,
// human-readable layout for CLI use
func FormatControls(controls map[string]ControlCaps) string {
	names := make([]string, 0, len(controls))
	for name := range controls {
		names = append(names, name)
	}
	sort.Strings(names)
	b := strings.Builder{}
	for _, name := range names {
		caps := controls[name]
		fmt.Fprintf(&b, "%s:\n", name)
		fmt.Fprintf(&b, "    Description: %s\n", caps.Description)
		fmt.Fprintf(&b, "    Min: %d  Max: %d  Default: %d\n", caps.MinValue, caps.MaxValue, caps.DefaultValue)
		fmt.Fprintf(&b, "    Writable: %v  AutoSupported: %v\n", caps.IsWritable, caps.IsAutoSupported)
	}
	return b.String()
}
