package geom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidEPSG is returned for EPSG codes outside 1024..32767.
var ErrInvalidEPSG = errors.New("geoobject: invalid EPSG code")

// EpsgCode is an EPSG coordinate reference system code.
type EpsgCode int

// NewEpsgCode validates code.
func NewEpsgCode(code int) (EpsgCode, error) {
	if code < 1024 || code > 32767 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidEPSG, code)
	}
	return EpsgCode(code), nil
}

// ParseEpsgCode accepts "4326" or "EPSG:4326".
func ParseEpsgCode(s string) (EpsgCode, error) {
	s = strings.TrimSpace(s)
	if len(s) > 5 && strings.EqualFold(s[:5], "EPSG:") {
		s = s[5:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEPSG, s)
	}
	return NewEpsgCode(n)
}

// String formats the code as "EPSG:<n>".
func (c EpsgCode) String() string { return "EPSG:" + strconv.Itoa(int(c)) }

// CRS is a coordinate reference system: unspecified (the zero value), an
// EPSG code, or OGC WKT text.
type CRS struct {
	EPSG EpsgCode
	WKT  string
}

// EPSG returns an EPSG-coded CRS.
func EPSG(code EpsgCode) CRS { return CRS{EPSG: code} }

// WKT returns a WKT-described CRS.
func WKT(wkt string) CRS { return CRS{WKT: wkt} }

// IsUnspecified reports whether the CRS is unknown.
func (c CRS) IsUnspecified() bool { return c.EPSG == 0 && c.WKT == "" }

func (c CRS) String() string {
	switch {
	case c.EPSG != 0:
		return c.EPSG.String()
	case c.WKT != "":
		return c.WKT
	}
	return "unspecified"
}
