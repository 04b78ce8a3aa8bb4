package zwo

import (
	"errors"
	"testing"
	"time"

	"github.com/astrogo/fitsio"
)

func cardByName(cards []fitsio.Card, name string) *fitsio.Card {
	for i := range cards {
		if cards[i].Name == name {
			return &cards[i]
		}
	}
	return nil
}

func TestHeaderMetadataBayerPattern(t *testing.T) {
	info := CameraInfo{Name: "ZWO ASI294MC", IsColorCam: true, BayerPattern: 2}
	cards, err := collectHeaderMetadata(info, ExposureParameters{ExposureSec: 1}, time.Now().UTC(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	pat := cardByName(cards, "BAYERPAT")
	colortyp := cardByName(cards, "COLORTYP")
	if pat == nil || pat.Value != "GRBG" {
		t.Errorf("expected BAYERPAT GRBG got %v", pat)
	}
	if colortyp == nil || colortyp.Value != "GRBG" {
		t.Errorf("expected COLORTYP GRBG got %v", colortyp)
	}
}

func TestHeaderMetadataUndefinedBayerPattern(t *testing.T) {
	info := CameraInfo{Name: "ZWO ASI294MC", IsColorCam: true, BayerPattern: 7}
	_, err := collectHeaderMetadata(info, ExposureParameters{ExposureSec: 1}, time.Now().UTC(), time.Now())
	if err == nil {
		t.Fatal("expected error for Bayer index 7")
	}
	var undef ErrUndefinedBayerPattern
	if !errors.As(err, &undef) {
		t.Errorf("expected ErrUndefinedBayerPattern got %v", err)
	}
	if undef.Index != 7 {
		t.Errorf("expected index 7 got %d", undef.Index)
	}
}

func TestHeaderMetadataMonoOmitsBayer(t *testing.T) {
	info := CameraInfo{Name: "ZWO ASI1600MM Pro", IsColorCam: false, BayerPattern: 7}
	cards, err := collectHeaderMetadata(info, ExposureParameters{ExposureSec: 1}, time.Now().UTC(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if cardByName(cards, "BAYERPAT") != nil {
		t.Error("expected no BAYERPAT card for a mono sensor")
	}
}

func TestExposureMicroseconds(t *testing.T) {
	cases := []struct {
		sec      float64
		expected int
	}{
		{1, 1000000},
		{0.5, 500000},
		{0.0000015, 2},
		{300, 300000000},
	}
	for _, c := range cases {
		p := ExposureParameters{ExposureSec: c.sec}
		out := p.exposureMicroseconds()
		if out != c.expected {
			t.Errorf("exposureMicroseconds(%v) expected %d got %d", c.sec, c.expected, out)
		}
	}
}
