package geom

import (
	"fmt"

	"github.com/jacentio/geoobject/model"
)

func triple(raw any, what string) ([3]float64, error) {
	vals, err := model.DecodeFloats(raw)
	if err != nil || len(vals) != 3 {
		return [3]float64{}, fmt.Errorf("%w: %s needs 3 numbers, got %v", model.ErrDecode, what, raw)
	}
	return [3]float64{vals[0], vals[1], vals[2]}, nil
}

// Document codecs.
var (
	// Point3Codec stores a point as [x, y, z].
	Point3Codec model.Codec[Point3] = model.CodecFuncs[Point3]{
		DecodeFunc: func(raw any) (Point3, error) {
			v, err := triple(raw, "point")
			return Point3{v[0], v[1], v[2]}, err
		},
		EncodeFunc: func(p Point3) (any, error) { return []any{p.X, p.Y, p.Z}, nil },
	}

	// Size3dCodec stores an extent as [dx, dy, dz].
	Size3dCodec model.Codec[Size3d] = model.CodecFuncs[Size3d]{
		DecodeFunc: func(raw any) (Size3d, error) {
			v, err := triple(raw, "size")
			return Size3d{v[0], v[1], v[2]}, err
		},
		EncodeFunc: func(s Size3d) (any, error) { return []any{s.DX, s.DY, s.DZ}, nil },
	}

	// Size3iCodec stores a grid size as [nx, ny, nz].
	Size3iCodec model.Codec[Size3i] = model.CodecFuncs[Size3i]{
		DecodeFunc: func(raw any) (Size3i, error) {
			list, ok := raw.([]any)
			if !ok || len(list) != 3 {
				return Size3i{}, fmt.Errorf("%w: grid size needs 3 integers, got %v", model.ErrDecode, raw)
			}
			var out [3]int
			for i, v := range list {
				n, ok := model.ToInt(v)
				if !ok {
					return Size3i{}, fmt.Errorf("%w: grid size needs 3 integers, got %v", model.ErrDecode, raw)
				}
				out[i] = n
			}
			return Size3i{out[0], out[1], out[2]}, nil
		},
		EncodeFunc: func(s Size3i) (any, error) { return []any{s.NX, s.NY, s.NZ}, nil },
	}

	// RotationCodec stores a rotation as {dip_azimuth, dip, pitch}. Absent
	// rotations decode to nil.
	RotationCodec model.Codec[*Rotation] = model.CodecFuncs[*Rotation]{
		DecodeFunc: func(raw any) (*Rotation, error) {
			if raw == nil {
				return nil, nil
			}
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: rotation must be an object, got %T", model.ErrDecode, raw)
			}
			var r Rotation
			for key, dst := range map[string]*float64{"dip_azimuth": &r.DipAzimuth, "dip": &r.Dip, "pitch": &r.Pitch} {
				if v, present := m[key]; present {
					f, ok := model.ToFloat(v)
					if !ok {
						return nil, fmt.Errorf("%w: rotation %s is %T", model.ErrDecode, key, v)
					}
					*dst = f
				}
			}
			return &r, nil
		},
		EncodeFunc: func(r *Rotation) (any, error) {
			if r == nil {
				return nil, nil
			}
			return map[string]any{"dip_azimuth": r.DipAzimuth, "dip": r.Dip, "pitch": r.Pitch}, nil
		},
	}

	// BoundingBoxCodec stores a box as {min_x, max_x, min_y, max_y, min_z, max_z}.
	BoundingBoxCodec model.Codec[BoundingBox] = model.CodecFuncs[BoundingBox]{
		DecodeFunc: func(raw any) (BoundingBox, error) {
			m, ok := raw.(map[string]any)
			if !ok {
				return BoundingBox{}, fmt.Errorf("%w: bounding box must be an object, got %T", model.ErrDecode, raw)
			}
			var b BoundingBox
			fields := []struct {
				key string
				dst *float64
			}{
				{"min_x", &b.MinX}, {"max_x", &b.MaxX},
				{"min_y", &b.MinY}, {"max_y", &b.MaxY},
				{"min_z", &b.MinZ}, {"max_z", &b.MaxZ},
			}
			for _, f := range fields {
				v, ok := model.ToFloat(m[f.key])
				if !ok {
					return BoundingBox{}, fmt.Errorf("%w: bounding box %s is missing", model.ErrDecode, f.key)
				}
				*f.dst = v
			}
			return b, nil
		},
		EncodeFunc: func(b BoundingBox) (any, error) {
			return map[string]any{
				"min_x": b.MinX, "max_x": b.MaxX,
				"min_y": b.MinY, "max_y": b.MaxY,
				"min_z": b.MinZ, "max_z": b.MaxZ,
			}, nil
		},
	}

	// CRSCodec stores a CRS as "unspecified", {"epsg_code": n} or
	// {"ogc_wkt": s}. Absent values decode as unspecified.
	CRSCodec model.Codec[CRS] = model.CodecFuncs[CRS]{
		DecodeFunc: decodeCRS,
		EncodeFunc: func(c CRS) (any, error) {
			switch {
			case c.EPSG != 0:
				if _, err := NewEpsgCode(int(c.EPSG)); err != nil {
					return nil, err
				}
				return map[string]any{"epsg_code": int(c.EPSG)}, nil
			case c.WKT != "":
				return map[string]any{"ogc_wkt": c.WKT}, nil
			}
			return "unspecified", nil
		},
	}
)

func decodeCRS(raw any) (CRS, error) {
	switch v := raw.(type) {
	case nil:
		return CRS{}, nil
	case string:
		if v == "unspecified" {
			return CRS{}, nil
		}
	case map[string]any:
		if code, present := v["epsg_code"]; present {
			n, ok := model.ToInt(code)
			if !ok {
				return CRS{}, fmt.Errorf("%w: epsg_code %v", ErrInvalidEPSG, code)
			}
			epsg, err := NewEpsgCode(n)
			return EPSG(epsg), err
		}
		if wkt, ok := v["ogc_wkt"].(string); ok {
			return WKT(wkt), nil
		}
	}
	return CRS{}, fmt.Errorf("%w: unrecognized coordinate reference system %v", model.ErrDecode, raw)
}
