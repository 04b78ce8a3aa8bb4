package zwo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi"

	"github.com/sdsobservatory/skycam/generichttp"
)

func testServer(t *testing.T, drv *fakeDriver) (*Camera, *httptest.Server) {
	t.Helper()
	c := openTestCamera(t, drv)
	w := NewHTTPCamera(context.Background(), c)
	mux := chi.NewRouter()
	w.RT().Bind(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return c, srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf := &bytes.Buffer{}
	err := json.NewEncoder(buf).Encode(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func getStatus(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := map[string]string{}
	err = json.NewDecoder(resp.Body).Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	return out["status"]
}

func TestHTTPExposeLifecycle(t *testing.T) {
	drv := newFakeDriver()
	drv.release = make(chan struct{})
	cam, srv := testServer(t, drv)

	if getStatus(t, srv.URL) != "error" {
		t.Errorf("expected status error before any capture")
	}

	resp := postJSON(t, srv.URL+"/expose", ExposureParameters{ExposureSec: 0.01})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	// second request while the first is in flight is refused
	for i := 0; i < 200; i++ {
		if cam.Exposing() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if getStatus(t, srv.URL) != "exposing" {
		t.Errorf("expected status exposing during capture")
	}
	resp2 := postJSON(t, srv.URL+"/expose", ExposureParameters{ExposureSec: 0.01})
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 got %d", resp2.StatusCode)
	}

	close(drv.release)
	waitIdle(t, cam)
	if getStatus(t, srv.URL) != "complete" {
		t.Errorf("expected status complete after capture")
	}

	imResp, err := http.Get(srv.URL + "/image")
	if err != nil {
		t.Fatal(err)
	}
	defer imResp.Body.Close()
	if imResp.Header.Get("Content-Type") != "application/octet-stream" {
		t.Errorf("expected octet-stream got %s", imResp.Header.Get("Content-Type"))
	}
	expected := strconv.Itoa(len(cam.MostRecentImage()))
	if imResp.Header.Get("Content-Length") != expected {
		t.Errorf("expected Content-Length %s got %s", expected, imResp.Header.Get("Content-Length"))
	}
}

func TestHTTPExposeRejectsNonpositiveExposure(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)
	resp := postJSON(t, srv.URL+"/expose", ExposureParameters{ExposureSec: 0})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 got %d", resp.StatusCode)
	}
}

func TestHTTPCameraInfo(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)
	resp, err := http.Get(srv.URL + "/camera-info")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	info := CameraInfo{}
	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "ZWO ASI1600MM Pro" {
		t.Errorf("expected camera name in info, got %q", info.Name)
	}
}

func TestHTTPROIRoundTrip(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)

	width := 32
	height := 24
	resp := postJSON(t, srv.URL+"/roi", ROIRequest{Width: &width, Height: &height})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/roi")
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	roi := ROI{}
	err = json.NewDecoder(getResp.Body).Decode(&roi)
	if err != nil {
		t.Fatal(err)
	}
	if roi.Width != 32 || roi.Height != 24 {
		t.Errorf("expected 32x24 got %dx%d", roi.Width, roi.Height)
	}
	// 32x24 centered on a 64x48 sensor
	if roi.X != 16 || roi.Y != 12 {
		t.Errorf("expected centered origin (16,12) got (%d,%d)", roi.X, roi.Y)
	}
}

func TestHTTPROIConflictDuringCapture(t *testing.T) {
	drv := newFakeDriver()
	drv.release = make(chan struct{})
	cam, srv := testServer(t, drv)
	resp := postJSON(t, srv.URL+"/expose", ExposureParameters{ExposureSec: 0.01})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	for i := 0; i < 200; i++ {
		if cam.Exposing() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	width := 32
	roiResp := postJSON(t, srv.URL+"/roi", ROIRequest{Width: &width})
	defer roiResp.Body.Close()
	if roiResp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 while a capture is in flight, got %d", roiResp.StatusCode)
	}
	close(drv.release)
	waitIdle(t, cam)
}

func TestHTTPROIValidationFailure(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)
	width := 100
	resp := postJSON(t, srv.URL+"/roi", ROIRequest{Width: &width})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 got %d", resp.StatusCode)
	}
}

func TestHTTPControlByName(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)

	resp := postJSON(t, srv.URL+"/control/Gain", map[string]int{"int": 250})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/control/Gain", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "application/json")
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	out := generichttp.IntT{}
	err = json.NewDecoder(getResp.Body).Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if out.Int != 250 {
		t.Errorf("expected 250 got %d", out.Int)
	}
}

func TestHTTPTemperature(t *testing.T) {
	drv := newFakeDriver()
	drv.controls[ControlTemperature] = 253
	_, srv := testServer(t, drv)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/temperature", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := generichttp.FloatT{}
	err = json.NewDecoder(resp.Body).Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if out.F64 != 25.3 {
		t.Errorf("expected 25.3 got %v", out.F64)
	}

	setResp := postJSON(t, srv.URL+"/temperature", generichttp.FloatT{F64: -10})
	defer setResp.Body.Close()
	if setResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", setResp.StatusCode)
	}
	drv.mu.Lock()
	defer drv.mu.Unlock()
	if drv.controls[ControlTargetTemp] != -10 {
		t.Errorf("expected cooler setpoint -10 got %d", drv.controls[ControlTargetTemp])
	}
}

func TestHTTPUnknownControl(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)
	resp, err := http.Get(srv.URL + "/control/FluxCapacitor")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 got %d", resp.StatusCode)
	}
}

func TestHTTPControlsList(t *testing.T) {
	drv := newFakeDriver()
	_, srv := testServer(t, drv)
	resp, err := http.Get(srv.URL + "/controls")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := map[string]ControlCaps{}
	err = json.NewDecoder(resp.Body).Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out["Gain"]; !ok {
		t.Errorf("expected Gain in control list, got %v", out)
	}
}
