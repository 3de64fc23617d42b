package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
)

// object is one decoded JSON object of a backend payload.
type object map[string]any

// decoder walks a payload and keeps the first shape error it meets, so
// mapping code reads straight through and checks d.err once.
type decoder struct {
	endpoint string
	scale    int32
	err      error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = apperror.NewUnexpectedResponseShape(d.endpoint, fmt.Sprintf(format, args...))
	}
}

func parseJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// unwrap strips a {"data": ...} envelope.
func unwrap(v any) any {
	o, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if data, ok := o["data"]; ok && data != nil {
		if _, isDoc := o["id"]; !isDoc {
			return data
		}
	}
	return v
}

// items finds the document array of a list payload: a bare array, or an
// object holding it under items/results/data.
func items(v any) ([]any, bool) {
	v = unwrap(v)
	if arr, ok := v.([]any); ok {
		return arr, true
	}
	o, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range []string{"items", "results", "data"} {
		if arr, ok := o[key].([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// lookup returns the first present, non-null field among names.
func (o object) lookup(names ...string) (any, string, bool) {
	for _, name := range names {
		if v, ok := o[name]; ok && v != nil {
			return v, name, true
		}
	}
	return nil, "", false
}

func (o object) child(name string) (object, bool) {
	v, ok := o[name].(map[string]any)
	return object(v), ok
}

func (d *decoder) str(o object, path string, names ...string) string {
	v, name, ok := o.lookup(names...)
	if !ok {
		return ""
	}
	s, ok := scalar(v)
	if !ok {
		d.fail("%s%s: expected a string", path, name)
	}
	return s
}

func (d *decoder) number(path, name string, v any) decimal.Decimal {
	s, ok := scalar(v)
	if !ok {
		d.fail("%s%s: expected a number", path, name)
		return decimal.Zero
	}
	m, err := decimal.NewFromString(s)
	if err != nil {
		d.fail("%s%s: %q is not a decimal", path, name, s)
		return decimal.Zero
	}
	return m
}

// money reads an amount under names, falling back to the "<name>Minor"
// integer fields in the configured currency scale.
func (d *decoder) money(o object, path string, names ...string) (decimal.Decimal, bool) {
	if v, name, ok := o.lookup(names...); ok {
		return d.number(path, name, v), true
	}
	for _, name := range names {
		v, ok := o[name+"Minor"]
		if !ok || v == nil {
			continue
		}
		n, ok := v.(json.Number)
		if !ok {
			d.fail("%s%sMinor: expected an integer", path, name)
			return decimal.Zero, true
		}
		minor, err := n.Int64()
		if err != nil {
			d.fail("%s%sMinor: %q is not an integer", path, name, n.String())
			return decimal.Zero, true
		}
		return types.FromMinor(types.MinorUnits(minor), d.scale), true
	}
	return decimal.Zero, false
}

// percent reads an optional percentage; absent means zero.
func (d *decoder) percent(o object, path string, names ...string) decimal.Decimal {
	v, name, ok := o.lookup(names...)
	if !ok {
		return decimal.Zero
	}
	return d.number(path, name, v)
}

func (d *decoder) quantity(o object, path string, names ...string) types.Quantity {
	v, name, ok := o.lookup(names...)
	if !ok {
		return 0
	}
	s, ok := scalar(v)
	if !ok {
		d.fail("%s%s: expected a number", path, name)
		return 0
	}
	q, err := types.ParseQuantity(s)
	if err != nil {
		d.fail("%s%s: %v", path, name, err)
		return 0
	}
	return q
}

func (d *decoder) integer(o object, path string, names ...string) int {
	v, name, ok := o.lookup(names...)
	if !ok {
		return 0
	}
	n, ok := v.(json.Number)
	if !ok {
		d.fail("%s%s: expected an integer", path, name)
		return 0
	}
	i, err := n.Int64()
	if err != nil {
		d.fail("%s%s: %q is not an integer", path, name, n.String())
		return 0
	}
	return int(i)
}

// timestamp reads an RFC 3339 timestamp or a plain date. Absent is the zero time.
func (d *decoder) timestamp(o object, path string, names ...string) time.Time {
	s := d.str(o, path, names...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	d.fail("%s%s: %q is not a timestamp", path, names[0], s)
	return time.Time{}
}

func (d *decoder) optionalTime(o object, path string, names ...string) *time.Time {
	t := d.timestamp(o, path, names...)
	if t.IsZero() {
		return nil
	}
	return &t
}

// ref reads a reference given either as a nested object under one of
// objectKeys or as flat fields.
func (d *decoder) ref(o object, path string, objectKeys, idKeys, codeKeys, nameKeys []string) Ref {
	for _, key := range objectKeys {
		if v, ok := o[key]; ok && v != nil {
			switch t := v.(type) {
			case map[string]any:
				c := object(t)
				p := path + key + "."
				// the flat aliases are accepted inside the object too
				return Ref{
					ID:   d.str(c, p, append([]string{"id", "uuid"}, idKeys...)...),
					Code: d.str(c, p, append([]string{"code", "sku"}, codeKeys...)...),
					Name: d.str(c, p, append([]string{"name", "title"}, nameKeys...)...),
				}
			case string:
				// a bare string is the identifier
				return Ref{ID: strings.TrimSpace(t)}
			default:
				d.fail("%s%s: expected an object", path, key)
				return Ref{}
			}
		}
	}
	return Ref{
		ID:   d.str(o, path, idKeys...),
		Code: d.str(o, path, codeKeys...),
		Name: d.str(o, path, nameKeys...),
	}
}

func (d *decoder) array(o object, path string, names ...string) []object {
	v, name, ok := o.lookup(names...)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		d.fail("%s%s: expected an array", path, name)
		return nil
	}
	out := make([]object, 0, len(arr))
	for i, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			d.fail("%s%s[%d]: expected an object", path, name, i)
			return nil
		}
		out = append(out, object(m))
	}
	return out
}
