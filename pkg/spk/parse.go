package spk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnparsable is returned by Parse when a body decodes in neither shape.
var ErrUnparsable = errors.New("catalog body matches no known shape")

// Shape identifies how a catalog body was laid out.
type Shape int

const (
	// ShapeEmpty is an empty or whitespace-only body.
	ShapeEmpty Shape = iota
	// ShapeObject is {"packages": [...]}.
	ShapeObject
	// ShapeArray is a bare array of records.
	ShapeArray
)

// String returns the shape name used in logs.
func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return "empty"
	}
}

var (
	packagesKey   = []byte(`"packages"`)
	doubleNewline = []byte(`\\n`)
	escNewline    = []byte(`\n`)
)

// Parse decodes a catalog body.
//
// A body containing the literal key "packages" is first decoded as
// ShapeObject; if that fails, and for every other body, it is decoded as
// ShapeArray. Double-escaped newlines (\\n in the raw JSON) are collapsed to
// regular newline escapes first, so descriptions contain real line breaks.
//
// Empty bodies return ShapeEmpty and an empty catalog. A null packages
// field or a null body decodes to an empty catalog as well; callers detect
// it with len(c.Packages) == 0.
func Parse(body []byte) (Catalog, Shape, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Catalog{}, ShapeEmpty, nil
	}
	body = bytes.ReplaceAll(body, doubleNewline, escNewline)

	if bytes.Contains(body, packagesKey) {
		var c Catalog
		if err := json.Unmarshal(body, &c); err == nil {
			return c, ShapeObject, nil
		}
	}

	var list []RawPackage
	if err := json.Unmarshal(body, &list); err != nil {
		return Catalog{}, ShapeArray, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return Catalog{Packages: list}, ShapeArray, nil
}

// Unmarshal decodes data produced by Marshal. Unlike Parse it applies no
// provider-side rewrites, so a Marshal/Unmarshal round trip is lossless.
func Unmarshal(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Marshal serializes c in ShapeObject form.
func (c Catalog) Marshal() ([]byte, error) {
	if c.Packages == nil {
		c.Packages = []RawPackage{}
	}
	return json.Marshal(c)
}
