package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sdsobservatory/skycam/generichttp"
	"github.com/sdsobservatory/skycam/server/middleware/locker"
	"github.com/sdsobservatory/skycam/util"
	"github.com/sdsobservatory/skycam/zwo"
	"github.com/sdsobservatory/skycam/zwo/sdk"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "skycam.yml"
	k              = koanf.New(".")
)

type config struct {
	Addr string `yaml:"Addr"`
	Root string `yaml:"Root"`

	// Camera is either a numeric index or a model name, e.g. "ASI1600MM Pro"
	Camera string `yaml:"Camera"`
}

func setupconfig() {
	k.Load(structs.Provider(config{
		Addr:   ":8000",
		Root:   "/camera",
		Camera: "0"}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `skycam exposes control of ZWO ASI cameras over HTTP
This enables a server-client architecture,
and the clients can leverage the excellent HTTP
libraries for any programming language,
instead of custom socket logic.

Usage:
	skycam <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `skycam is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used.  Keys are not case-sensitive.
The command mkconf generates the configuration file with the default values.

Camera may be a numeric index ("0" selects the first connected camera) or a
model name such as "ASI1600MM Pro", matched with or without the leading "ZWO ".

The server serves one camera.  To serve several, run one process per camera
on distinct addresses.`
	fmt.Println(str)
}

func mkconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	err = yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("skycam version %v\n", Version)
}

// selectCamera builds the Camera from the config identifier, which is
// either a numeric index or a model name
func selectCamera(drv zwo.Driver, identifier string) (*zwo.Camera, error) {
	if util.AllElementsNumbers(identifier) {
		index, err := strconv.Atoi(identifier)
		if err != nil {
			return nil, err
		}
		return zwo.New(drv, index)
	}
	return zwo.NewByModel(drv, identifier)
}

func run() {
	cfg := config{}
	k.Unmarshal("", &cfg)

	drv := sdk.New()
	cam, err := selectCamera(drv, cfg.Camera)
	if err != nil {
		log.Fatal(err)
	}
	// USB enumeration right after plug-in can be flaky, retry the open
	err = backoff.Retry(cam.Open, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		log.Fatal(err)
	}
	defer cam.Close()

	info, err := cam.Info()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("connected to %s, %dx%d px", info.Name, info.MaxWidth, info.MaxHeight)

	// ctx bounds background captures; cancelled on shutdown so an
	// in-flight exposure is stopped before the camera handle closes
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := zwo.NewHTTPCamera(ctx, cam)
	lock := locker.New()
	locker.Inject(w, lock)

	hndlrS := generichttp.SubMuxSanitize(cfg.Root)
	rootR := chi.NewRouter()
	rootR.Use(middleware.Logger)
	mux := chi.NewRouter()
	mux.Use(lock.Check)
	rootR.Mount(hndlrS, mux)
	w.RT().Bind(mux)

	srv := &http.Server{Addr: cfg.Addr, Handler: rootR}
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		cancel()
		srv.Shutdown(context.Background())
	}()
	log.Println("routes below", hndlrS, "-", strings.Join(w.RT().Endpoints(), ", "))
	log.Println("now listening for requests at ", cfg.Addr+hndlrS)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
