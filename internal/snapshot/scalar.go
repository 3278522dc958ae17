package snapshot

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cwbudde/codecity/internal/errors"
	"github.com/cwbudde/codecity/internal/values"
)

// Special-scalar tags (spec §4.7: "undefined, Infinity, -Infinity, NaN,
// and -0 all need a representation JSON's number/null/bool/string alphabet
// doesn't have natively").
const (
	tagUndefined = "$undefined"
	tagNegZero   = "$negZero"
	tagInfinity  = "$inf" // value is +1 or -1
)

type taggedUndefined struct {
	Tag bool `json:"$undefined"`
}

type taggedNegZero struct {
	Tag bool `json:"$negZero"`
}

type taggedInf struct {
	Sign int `json:"$inf"`
}

type taggedNaN struct {
	Tag bool `json:"$nan"`
}

// encodeScalar renders a primitive Value (everything but *values.Object) as
// a JSON scalar, using the tagged forms above for the values JSON has no
// native spelling for.
func encodeScalar(v values.Value) (json.RawMessage, error) {
	switch x := v.(type) {
	case values.Undefined:
		return json.Marshal(taggedUndefined{Tag: true})
	case values.Null:
		return json.Marshal(nil)
	case values.Boolean:
		return json.Marshal(bool(x))
	case values.String:
		return json.Marshal(string(x))
	case values.Number:
		f := float64(x)
		switch {
		case math.IsNaN(f):
			return json.Marshal(taggedNaN{Tag: true})
		case math.IsInf(f, 1):
			return json.Marshal(taggedInf{Sign: 1})
		case math.IsInf(f, -1):
			return json.Marshal(taggedInf{Sign: -1})
		case x.IsNegativeZero():
			return json.Marshal(taggedNegZero{Tag: true})
		default:
			return json.Marshal(f)
		}
	default:
		return nil, fmt.Errorf("snapshot: %T is not a primitive scalar", v)
	}
}

// decodeScalar is the inverse of encodeScalar for every shape that isn't a
// {"#":n} reference (refs are handled by the caller, which knows how to
// resolve them against the record table).
func decodeScalar(raw json.RawMessage, record int) (values.Value, error) {
	trimmed := trimSpace(raw)
	if string(trimmed) == "null" {
		return values.Null{}, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err == nil {
		if _, ok := probe["$undefined"]; ok {
			return values.Undefined{}, nil
		}
		if _, ok := probe["$negZero"]; ok {
			return values.Number(math.Copysign(0, -1)), nil
		}
		if _, ok := probe["$nan"]; ok {
			return values.Number(math.NaN()), nil
		}
		if signRaw, ok := probe["$inf"]; ok {
			var sign int
			if err := json.Unmarshal(signRaw, &sign); err != nil {
				return nil, errors.NewDecodeError(errors.ShapeMismatch, record, "malformed $inf payload: %v", err)
			}
			if sign >= 0 {
				return values.Number(math.Inf(1)), nil
			}
			return values.Number(math.Inf(-1)), nil
		}
		if _, ok := probe["#"]; ok {
			return nil, fmt.Errorf("snapshot: decodeScalar called on a reference; caller must check for refs first")
		}
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return values.Boolean(b), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return values.String(s), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return values.Number(f), nil
	}
	return nil, errors.NewDecodeError(errors.ShapeMismatch, record, "unrecognized scalar encoding %q", string(raw))
}

// asRef reports whether raw is a {"#":n} reference, returning its index.
func asRef(raw json.RawMessage) (int, bool) {
	var ref Ref
	if err := json.Unmarshal(raw, &ref); err != nil {
		return 0, false
	}
	// A bare number would also unmarshal into Ref{} with Index==0 only if
	// the JSON literally had an object with "#"; json.Unmarshal into a
	// struct from a scalar fails, so this is already precise. Guard against
	// an empty object decoding to the zero Ref by requiring the raw text to
	// contain the "#" key.
	trimmed := trimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, false
	}
	if _, ok := probe["#"]; !ok {
		return 0, false
	}
	return ref.Index, true
}

func trimSpace(raw json.RawMessage) json.RawMessage {
	i, j := 0, len(raw)
	for i < j && isJSONSpace(raw[i]) {
		i++
	}
	for j > i && isJSONSpace(raw[j-1]) {
		j--
	}
	return raw[i:j]
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
