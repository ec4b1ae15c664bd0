// Package server contains the route table and payload plumbing shared by
// the HTTP wrappers in this module.
package server

import (
	"encoding/json"
	"fmt"
	"go/types"
	"log"
	"net/http"
	"sort"

	"goji.io"
)

// RouteTable maps goji patterns to handler funcs
type RouteTable map[goji.Pattern]http.HandlerFunc

// Bind attaches every route in the table to the mux
func (rt RouteTable) Bind(m *goji.Mux) {
	for p, h := range rt {
		m.Handle(p, h)
	}
}

// Endpoints lists the patterns in the table, sorted
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		routes = append(routes, fmt.Sprint(k))
	}
	sort.Strings(routes)
	return routes
}

// HTTPer is a type which exposes a route table to be bound to a mux
type HTTPer interface {
	RT() RouteTable
}

// FloatT is a struct with a single float64 field, "f64"
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct with a single int field, "int"
type IntT struct {
	Int int `json:"int"`
}

// StrT is a struct with a single string field, "str"
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single bool field, "bool"
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload is a wrapper for a parameter of variable type that knows how
// to put itself on the wire as the matching single-field JSON object
type HumanPayload struct {
	// T holds the type of the payload
	T types.BasicKind

	// Int holds the int value, if T == types.Int
	Int int

	// Float holds the float value, if T == types.Float64
	Float float64

	// String holds the string value, if T == types.String
	String string

	// Bool holds the bool value, if T == types.Bool
	Bool bool
}

// EncodeAndRespond writes the payload to w as JSON
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var err error
	switch hp.T {
	case types.Float64:
		err = json.NewEncoder(w).Encode(FloatT{F64: hp.Float})
	case types.Int:
		err = json.NewEncoder(w).Encode(IntT{Int: hp.Int})
	case types.String:
		err = json.NewEncoder(w).Encode(StrT{Str: hp.String})
	case types.Bool:
		err = json.NewEncoder(w).Encode(BoolT{Bool: hp.Bool})
	default:
		err = fmt.Errorf("unsupported payload type %v", hp.T)
	}
	if err != nil {
		fstr := fmt.Sprintf("error encoding payload to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}
