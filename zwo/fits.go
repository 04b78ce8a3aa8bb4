package zwo

import (
	"io"
	"time"
	"unsafe"

	"github.com/astrogo/fitsio"
)

// bayerPatterns resolves the sensor's raw Bayer index to the canonical
// two-axis pattern name
var bayerPatterns = map[int]string{
	0: "RGGB",
	1: "BGGR",
	2: "GRBG",
	3: "GBRG",
}

// collectHeaderMetadata produces the FITS cards describing one capture
func collectHeaderMetadata(info CameraInfo, p ExposureParameters, utc, local time.Time) ([]fitsio.Card, error) {
	kind := "LIGHT"
	if p.IsDark {
		kind = "DARK"
	}
	cards := []fitsio.Card{
		{Name: "IMAGETYP", Value: kind, Comment: "Type of exposure"},
		{Name: "INSTRUME", Value: info.Name, Comment: "Imaging instrument name"},
		{Name: "EXPOSURE", Value: p.ExposureSec, Comment: "[s] Exposure time"},
		{Name: "EXPTIME", Value: p.ExposureSec, Comment: "[s] Exposure time"},
		{Name: "DATE-OBS", Value: utc.Format("2006-01-02T15:04:05.000000"), Comment: "Time of observation (UTC)"},
		{Name: "DATE-LOC", Value: local.Format("2006-01-02T15:04:05.000000"), Comment: "Time of observation (Local)"},
		{Name: "GAIN", Value: p.Gain, Comment: "Sensor gain"},
		{Name: "OFFSET", Value: p.Offset, Comment: "Sensor offset"},
	}
	if info.IsColorCam {
		pattern, ok := bayerPatterns[info.BayerPattern]
		if !ok {
			return nil, ErrUndefinedBayerPattern{Index: info.BayerPattern}
		}
		cards = append(cards,
			fitsio.Card{Name: "BAYERPAT", Value: pattern, Comment: "Bayer pattern"},
			fitsio.Card{Name: "COLORTYP", Value: pattern, Comment: "Bayer pattern"},
		)
	}
	return cards, nil
}

// writeFits streams a 16-bit FITS file to w.  buffer is the raw download,
// interpreted as height rows of width 16-bit pixels in row-major order.
func writeFits(w io.Writer, metadata []fitsio.Card, buffer []byte, width, height int) error {
	metadata = append(metadata,
		fitsio.Card{Name: "BZERO", Value: 32768},
		fitsio.Card{Name: "BSCALE", Value: 1.0},
	)
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	im := fitsio.NewImage(16, []int{width, height})
	defer im.Close()
	err = im.Header().Append(metadata...)
	if err != nil {
		return err
	}
	pix := bytesToUint(buffer)
	// scale uint16 to int16.  Underflow on uint16 produces the appropriate
	// wrapping for the FITS standard
	out := make([]int16, len(pix))
	for idx := 0; idx < len(pix); idx++ {
		out[idx] = int16(pix[idx] - 32768)
	}
	err = im.Write(out)
	if err != nil {
		return err
	}
	return fits.Write(im)
}

func bytesToUint(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}
