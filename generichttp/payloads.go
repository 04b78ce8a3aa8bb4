package generichttp

import (
	"encoding/json"
	"fmt"
	"go/types"
	"net/http"
	"strings"
)

// StrT is a wrapper around a string for json {"str": value}
type StrT struct {
	Str string `json:"str"`
}

// IntT is a wrapper around an int for json {"int": value}
type IntT struct {
	Int int `json:"int"`
}

// FloatT is a wrapper around a float for json {"f64": value}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// BoolT is a wrapper around a bool for json {"bool": value}
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload is a struct that holds the payload of a single-valued
// response and can reply either in JSON or as plain text based on the
// request's Accept header
type HumanPayload struct {
	// T is the type of the data
	T types.BasicKind

	Int    int
	Float  float64
	String string
	Bool   bool
}

// EncodeAndRespond writes the payload to w.  If the request accepts
// application/json the typed envelope is used, otherwise the bare value is
// written as text/plain.
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		var err error
		enc := json.NewEncoder(w)
		switch hp.T {
		case types.Int:
			err = enc.Encode(IntT{Int: hp.Int})
		case types.Float64:
			err = enc.Encode(FloatT{F64: hp.Float})
		case types.String:
			err = enc.Encode(StrT{Str: hp.String})
		case types.Bool:
			err = enc.Encode(BoolT{Bool: hp.Bool})
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	switch hp.T {
	case types.Int:
		fmt.Fprintln(w, hp.Int)
	case types.Float64:
		fmt.Fprintln(w, hp.Float)
	case types.String:
		fmt.Fprintln(w, hp.String)
	case types.Bool:
		fmt.Fprintln(w, hp.Bool)
	}
}

// GetFloat calls a float-getting function and returns the response
// as json {'f64': value}
func GetFloat(fcn func() (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.Float64, Float: f}
		hp.EncodeAndRespond(w, r)
	}
}

// SetFloat parses a JSON input of {'f64': value} and calls fcn with it
func SetFloat(fcn func(float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := FloatT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = fcn(f.F64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetInt calls an int-getting function and returns the response
// as json {'int': value}
func GetInt(fcn func() (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.Int, Int: i}
		hp.EncodeAndRespond(w, r)
	}
}

// SetInt parses a JSON input of {'int': value} and calls fcn with it
func SetInt(fcn func(int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := IntT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = fcn(f.Int)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetBool calls a bool-getting function and returns the response
// as json {'bool': value}
func GetBool(fcn func() (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.Bool, Bool: b}
		hp.EncodeAndRespond(w, r)
	}
}

// SetBool parses a JSON input of {'bool': value} and calls fcn with it
func SetBool(fcn func(bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := BoolT{}
		err := json.NewDecoder(r.Body).Decode(&b)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = fcn(b.Bool)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
