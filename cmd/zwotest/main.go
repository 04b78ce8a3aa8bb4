// Command zwotest is a bench checkout tool for ZWO ASI cameras.  It lists
// the connected cameras, dumps the control table of the first one (or the
// camera named by -camera), takes a single exposure, and writes the FITS
// file to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sdsobservatory/skycam/util"
	"github.com/sdsobservatory/skycam/zwo"
	"github.com/sdsobservatory/skycam/zwo/sdk"

	"github.com/theckman/yacspin"
)

func parseExposure(s string) (float64, error) {
	if util.AllElementsNumbers(s) {
		return strconv.ParseFloat(s, 64)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

func run() error {
	camID := flag.String("camera", "0", "camera index or model name")
	expT := flag.String("exposure", "1", "exposure time, seconds or a duration like 500ms")
	gain := flag.Int("gain", 120, "gain, e-/ADU scaled per ZWO convention")
	offset := flag.Int("offset", 30, "offset (brightness floor), ADU")
	dark := flag.Bool("dark", false, "take a dark (shutter closed on cameras with a shutter)")
	out := flag.String("o", "zwotest.fits", "output file name")
	flag.Parse()

	exposure, err := parseExposure(*expT)
	if err != nil {
		return err
	}

	drv := sdk.New()
	names, err := zwo.ListCameras(drv)
	if err != nil {
		return err
	}
	fmt.Printf("%d cameras\n", len(names))
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	if len(names) == 0 {
		return fmt.Errorf("no cameras connected")
	}

	var cam *zwo.Camera
	if util.AllElementsNumbers(*camID) {
		index, err := strconv.Atoi(*camID)
		if err != nil {
			return err
		}
		cam, err = zwo.New(drv, index)
		if err != nil {
			return err
		}
	} else {
		cam, err = zwo.NewByModel(drv, *camID)
		if err != nil {
			return err
		}
	}
	err = cam.Open()
	if err != nil {
		return err
	}
	defer cam.Close()

	controls, err := cam.Controls()
	if err != nil {
		return err
	}
	fmt.Println(zwo.FormatControls(controls))

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[59],
		Suffix:          " exposing",
		StopCharacter:   "done",
		SuffixAutoColon: true,
	})
	if err != nil {
		return err
	}
	spinner.Start()
	err = cam.CaptureImage(context.Background(), zwo.ExposureParameters{
		ExposureSec: exposure,
		Gain:        *gain,
		Offset:      *offset,
		IsDark:      *dark,
	})
	spinner.Stop()
	if err != nil {
		return err
	}
	img := cam.MostRecentImage()
	fmt.Printf("captured %d bytes\n", len(img))
	return os.WriteFile(*out, img, 0666)
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
