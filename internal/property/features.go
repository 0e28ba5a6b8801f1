package property

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/estatebid/estatebid-api/internal/apperror"
)

var ErrInvalidFeature = apperror.Validation("feature values must be numbers, booleans or strings")

type FeatureKind uint8

const (
	FeatureNumber FeatureKind = iota + 1
	FeatureBool
	FeatureString
)

// FeatureValue is a single listing attribute: a number, a boolean or a string
type FeatureValue struct {
	kind FeatureKind
	num  float64
	b    bool
	s    string
}

func Number(v float64) FeatureValue { return FeatureValue{kind: FeatureNumber, num: v} }
func Bool(v bool) FeatureValue      { return FeatureValue{kind: FeatureBool, b: v} }
func String(v string) FeatureValue  { return FeatureValue{kind: FeatureString, s: v} }

func (v FeatureValue) Kind() FeatureKind { return v.kind }

// Value returns the underlying float64, bool or string
func (v FeatureValue) Value() any {
	switch v.kind {
	case FeatureNumber:
		return v.num
	case FeatureBool:
		return v.b
	case FeatureString:
		return v.s
	}
	return nil
}

func (v FeatureValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case FeatureNumber:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case FeatureBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case FeatureString:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

func (v *FeatureValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidFeature
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidFeature
		}
		*v = String(s)
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return ErrInvalidFeature
		}
		*v = Bool(b)
	case c == '-' || (c >= '0' && c <= '9'):
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrInvalidFeature
		}
		*v = Number(n)
	default:
		// objects, arrays and null
		return ErrInvalidFeature
	}

	return nil
}

// Features maps an attribute name to its value
type Features map[string]FeatureValue

func (f Features) toDB() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		if v.kind != 0 {
			out[k] = v.Value()
		}
	}
	return out
}

// featuresFromDB converts a decoded jsonb object. Values of any other shape
// are dropped.
func featuresFromDB(m map[string]any) Features {
	out := make(Features, len(m))
	for k, raw := range m {
		switch val := raw.(type) {
		case float64:
			out[k] = Number(val)
		case json.Number:
			if n, err := val.Float64(); err == nil {
				out[k] = Number(n)
			}
		case bool:
			out[k] = Bool(val)
		case string:
			out[k] = String(val)
		}
	}
	return out
}
