package zwo

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/sdsobservatory/skycam/generichttp"
)

// HTTPCamera wraps a Camera in the HTTP interface consumed by clients.
// Captures scheduled over HTTP run in the background under the wrapper's
// context, so a process shutdown cancels an in-flight exposure.
type HTTPCamera struct {
	*Camera

	// ctx bounds the lifetime of background captures
	ctx context.Context

	routeTable generichttp.RouteTable
}

// NewHTTPCamera returns a new wrapper with the route table populated
func NewHTTPCamera(ctx context.Context, c *Camera) HTTPCamera {
	h := HTTPCamera{Camera: c, ctx: ctx}
	h.routeTable = generichttp.RouteTable{
		// the capture surface
		{Method: http.MethodPost, Path: "/expose"}: h.Expose,
		{Method: http.MethodGet, Path: "/status"}:  h.Status,
		{Method: http.MethodGet, Path: "/image"}:   h.Image,

		// introspection
		{Method: http.MethodGet, Path: "/camera-info"}: h.CameraInfo,
		{Method: http.MethodGet, Path: "/roi"}:         h.GetROI,
		{Method: http.MethodPost, Path: "/roi"}:        h.SetROIHTTP,
		{Method: http.MethodGet, Path: "/controls"}:    h.GetControls,

		// thermal
		{Method: http.MethodGet, Path: "/temperature"}:  h.Temperature,
		{Method: http.MethodPost, Path: "/temperature"}: h.SetTargetTemperature,

		// individual control manipulation
		{Method: http.MethodGet, Path: "/control/{control}"}:  h.GetControl,
		{Method: http.MethodPost, Path: "/control/{control}"}: h.SetControl,
	}
	return h
}

// RT satisfies generichttp.HTTPer
func (h HTTPCamera) RT() generichttp.RouteTable {
	return h.routeTable
}

// Expose schedules a capture on a POST request.  Replies 200 and schedules
// if the camera is idle, 409 with no side effects if a capture is already
// running.
func (h HTTPCamera) Expose(w http.ResponseWriter, r *http.Request) {
	p := ExposureParameters{}
	err := json.NewDecoder(r.Body).Decode(&p)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.ExposureSec <= 0 {
		http.Error(w, "exposure must be positive", http.StatusBadRequest)
		return
	}
	err = h.Camera.StartCapture(h.ctx, p)
	if err == ErrExposureInProgress {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("{}"))
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{}"))
}

// Status reports the capture state: exposing, complete, or error
func (h HTTPCamera) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": h.Camera.StatusString()})
}

// Image replies with the FITS bytes of the most recent capture
func (h HTTPCamera) Image(w http.ResponseWriter, r *http.Request) {
	img := h.Camera.MostRecentImage()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// CameraInfo replies with the decoded sensor property record as JSON
func (h HTTPCamera) CameraInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.Camera.Info()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(info)
}

// GetROI re-reads the readout window from the hardware and replies as JSON
func (h HTTPCamera) GetROI(w http.ResponseWriter, r *http.Request) {
	roi, err := h.Camera.ROI()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(roi)
}

// SetROIHTTP applies a partially-specified ROI from a JSON body.
// Validation failures reply 400 before any hardware call is made; a
// capture in flight replies 409.  SetROI itself holds the capture
// admission flag, so there is no window for an exposure to slip in
// between the busy check and the hardware calls.
func (h HTTPCamera) SetROIHTTP(w http.ResponseWriter, r *http.Request) {
	req := ROIRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.Camera.SetROI(req)
	if err == ErrExposureInProgress {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		if _, ok := err.(DRVError); ok {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetControls replies with every control capability record as JSON
func (h HTTPCamera) GetControls(w http.ResponseWriter, r *http.Request) {
	controls, err := h.Camera.Controls()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(controls)
}

// GetControl reads one control value by name and replies as json
// {'int': value}, e.g. GET /control/Gain
func (h HTTPCamera) GetControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "control")
	ctrl, known := ControlTypes[name]
	if !known {
		http.Error(w, "unknown control "+name, http.StatusBadRequest)
		return
	}
	generichttp.GetInt(func() (int, error) {
		value, _, err := h.Camera.GetControlValue(ControlType(ctrl))
		return value, err
	})(w, r)
}

// SetControl writes one control value by name from a json {'int': value}
// body, e.g. POST /control/Gain
func (h HTTPCamera) SetControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "control")
	ctrl, known := ControlTypes[name]
	if !known {
		http.Error(w, "unknown control "+name, http.StatusBadRequest)
		return
	}
	generichttp.SetInt(func(value int) error {
		return h.Camera.SetControlValue(ControlType(ctrl), value, false)
	})(w, r)
}

// Temperature reads the sensor temperature as json {'f64': value}.  The
// SDK reports tenths of a degree Celsius.
func (h HTTPCamera) Temperature(w http.ResponseWriter, r *http.Request) {
	generichttp.GetFloat(func() (float64, error) {
		value, _, err := h.Camera.GetControlValue(ControlTemperature)
		return float64(value) / 10, err
	})(w, r)
}

// SetTargetTemperature writes the cooler setpoint in whole degrees Celsius
// from a json {'f64': value} body; a no-op on cameras without a cooler
func (h HTTPCamera) SetTargetTemperature(w http.ResponseWriter, r *http.Request) {
	generichttp.SetFloat(func(value float64) error {
		return h.Camera.SetControlValue(ControlTargetTemp, int(value), false)
	})(w, r)
}
