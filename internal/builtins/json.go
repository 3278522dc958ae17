package builtins

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// registerJSONNamespace installs JSON.parse/JSON.stringify. Serialization
// goes through sjson.SetRaw rather than encoding/json so property order
// (spec §3's insertion-order invariant) survives the round trip — Go's
// encoding/json sorts map keys alphabetically, which would silently
// violate it. Parsing goes through gjson.Parse/ForEach for the same
// "already in the stack, already used for config/patch elsewhere" reason
// rather than reaching for encoding/json's Unmarshal-into-interface{}.
func registerJSONNamespace(en *engine.Engine) {
	ns := namespace(en)

	defineMethod(en, ns, "stringify", "JSON.stringify", func(_ values.Value, args []values.Value) (values.Value, error) {
		raw, err := marshalJSON(argAt(args, 0))
		if err != nil {
			return values.Undefined{}, err
		}
		return values.String(raw), nil
	})

	defineMethod(en, ns, "parse", "JSON.parse", func(_ values.Value, args []values.Value) (values.Value, error) {
		text := string(values.ToString(argAt(args, 0)))
		if !gjson.Valid(text) {
			return values.Undefined{}, errSyntax("JSON.parse: invalid JSON")
		}
		return unmarshalJSON(en, gjson.Parse(text)), nil
	})

	en.Global.Declare("JSON", ns)
}

type syntaxError string

func errSyntax(msg string) error { return syntaxError(msg) }
func (e syntaxError) Error() string { return string(e) }

// marshalJSON walks a value tree and builds a JSON document via
// sjson.SetRaw, preserving object key insertion order and Array's numeric
// own keys in index order.
func marshalJSON(v values.Value) (string, error) {
	switch val := v.(type) {
	case values.Undefined:
		return "null", nil
	case values.Null:
		return "null", nil
	case values.Boolean:
		if val {
			return "true", nil
		}
		return "false", nil
	case values.Number:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case values.String:
		raw, err := json.Marshal(string(val))
		return string(raw), err
	case *values.Object:
		if val.Class == values.ClassArray {
			return marshalArray(val)
		}
		return marshalObject(val)
	default:
		return "null", nil
	}
}

func marshalArray(arr *values.Object) (string, error) {
	doc := "[]"
	elems := arrayElements(arr)
	if len(elems) == 0 {
		return doc, nil
	}
	for i, el := range elems {
		raw, err := marshalJSON(el)
		if err != nil {
			return "", err
		}
		var err2 error
		doc, err2 = sjson.SetRawOptions(doc, strconv.Itoa(i), raw, &sjson.Options{Optimistic: true})
		if err2 != nil {
			return "", err2
		}
	}
	return doc, nil
}

// escapeSjsonPath backslash-escapes the path metacharacters sjson's Set
// path syntax treats specially, so an arbitrary property name can be used
// as a literal one-segment path.
func escapeSjsonPath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func marshalObject(obj *values.Object) (string, error) {
	doc := "{}"
	for _, k := range obj.OwnKeys() {
		slot, _ := obj.GetOwnProperty(k)
		if slot == nil || !slot.Enumerable {
			continue
		}
		if _, isUndef := slot.Value.(values.Undefined); isUndef {
			continue
		}
		raw, err := marshalJSON(slot.Value)
		if err != nil {
			return "", err
		}
		var err2 error
		doc, err2 = sjson.SetRawOptions(doc, escapeSjsonPath(k), raw, &sjson.Options{Optimistic: true})
		if err2 != nil {
			return "", err2
		}
	}
	return doc, nil
}

// unmarshalJSON builds a value tree from a parsed gjson.Result, the
// inverse of marshalJSON.
func unmarshalJSON(en *engine.Engine, r gjson.Result) values.Value {
	switch r.Type {
	case gjson.Null:
		return values.Null{}
	case gjson.True:
		return values.Boolean(true)
	case gjson.False:
		return values.Boolean(false)
	case gjson.Number:
		return values.Number(r.Num)
	case gjson.String:
		return values.String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var elems []values.Value
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, unmarshalJSON(en, v))
				return true
			})
			return newArray(en, elems)
		}
		obj := values.NewObject(en.ObjectProto, values.ClassObject)
		en.Heap.Track(obj)
		r.ForEach(func(k, v gjson.Result) bool {
			obj.SetProperty(k.Str, unmarshalJSON(en, v))
			return true
		})
		return obj
	default:
		return values.Undefined{}
	}
}
