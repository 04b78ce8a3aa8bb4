package locker_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"

	"github.com/sdsobservatory/skycam/generichttp"
	"github.com/sdsobservatory/skycam/server/middleware/locker"
)

type fakeHTTPer struct {
	rt generichttp.RouteTable
}

func (f fakeHTTPer) RT() generichttp.RouteTable { return f.rt }

func newTestServer(t *testing.T) (*locker.Locker, *httptest.Server) {
	t.Helper()
	l := locker.New()
	h := fakeHTTPer{rt: generichttp.RouteTable{
		{Method: http.MethodGet, Path: "/thing"}: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	}}
	locker.Inject(h, l)
	mux := chi.NewRouter()
	mux.Use(l.Check)
	h.RT().Bind(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return l, srv
}

func TestLockedRoutesReturn423(t *testing.T) {
	l, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/thing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 while unlocked, got %d", resp.StatusCode)
	}

	l.Lock()
	resp, err = http.Get(srv.URL + "/thing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusLocked {
		t.Errorf("expected 423 while locked, got %d", resp.StatusCode)
	}
}

func TestLockRouteBypassesLock(t *testing.T) {
	l, srv := newTestServer(t)
	l.Lock()
	resp, err := http.Get(srv.URL + "/lock")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected the lock route to bypass the lock, got %d", resp.StatusCode)
	}
}

func TestLockOverHTTP(t *testing.T) {
	l, srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/lock", "application/json", strings.NewReader(`{"bool": true}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !l.Locked() {
		t.Error("expected POST /lock to lock")
	}

	resp, err = http.Post(srv.URL+"/lock", "application/json", strings.NewReader(`{"bool": false}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if l.Locked() {
		t.Error("expected POST /lock to unlock")
	}
}
