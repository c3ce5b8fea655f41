package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// itemRepairer decodes list items of one section and records every repair
// on the outcome.
type itemRepairer struct {
	section string
	out     *Outcome
}

func (r *itemRepairer) record(path, reason, detail string) {
	r.out.Repairs = append(r.out.Repairs, Repair{Section: r.section, Path: path, Reason: reason, Detail: detail})
}

// decodeItems decodes each raw item as T. An item that fails its schema has
// its misfit fields coerced or removed; an item that is not an object is
// dropped. Valid siblings are always kept.
func decodeItems[T any](r *itemRepairer, prefix, kind string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, body := range raw {
		path := prefix + "/" + strconv.Itoa(i)
		body, ok := r.repairItem(path, kind, body)
		if !ok {
			continue
		}
		var item T
		if err := json.Unmarshal(body, &item); err != nil {
			r.record(path, RepairDropped, err.Error())
			continue
		}
		out = append(out, item)
	}
	return out
}

func (r *itemRepairer) repairItem(path, kind string, body json.RawMessage) (json.RawMessage, bool) {
	generic, err := decodeGeneric(body)
	if err != nil {
		r.record(path, RepairDropped, err.Error())
		return nil, false
	}
	if ValidateItem(kind, generic) == nil {
		return body, true
	}
	obj, ok := generic.(map[string]any)
	if !ok {
		r.record(path, RepairDropped, "item is "+jsonType(generic)+", want object")
		return nil, false
	}

	fields := itemFields[kind]
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, present := obj[name]
		if !present {
			continue
		}
		fixed, keep, changed := coerceField(fields[name], v)
		if !changed {
			continue
		}
		detail := "got " + jsonType(v)
		if !keep {
			delete(obj, name)
			r.record(path+"/"+name, RepairDropped, detail)
			continue
		}
		obj[name] = fixed
		r.record(path+"/"+name, RepairCoerced, detail)
	}

	fixedBody, err := json.Marshal(obj)
	if err != nil {
		r.record(path, RepairDropped, err.Error())
		return nil, false
	}
	return fixedBody, true
}

// strings decodes a list of text lines. Numbers and booleans are stringified;
// nulls, objects and arrays are dropped.
func (r *itemRepairer) strings(prefix string, raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for i, body := range raw {
		path := prefix + "/" + strconv.Itoa(i)
		generic, err := decodeGeneric(body)
		if err != nil {
			r.record(path, RepairDropped, err.Error())
			continue
		}
		switch v := generic.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
			r.record(path, RepairCoerced, "got number")
		case bool:
			out = append(out, strconv.FormatBool(v))
			r.record(path, RepairCoerced, "got boolean")
		default:
			r.record(path, RepairDropped, "got "+jsonType(v))
		}
	}
	return out
}

// coerceField converts v into a value fk accepts. keep is false when the
// field has to be removed; changed is false when v was already acceptable.
func coerceField(fk fieldKind, v any) (fixed any, keep, changed bool) {
	switch val := v.(type) {
	case nil, string:
		return v, true, false
	case json.Number:
		if fk == scalarField {
			return v, true, false
		}
		return val.String(), true, true
	case bool:
		return strconv.FormatBool(val), true, true
	default:
		if fk == scalarField {
			return nil, false, true
		}
		// Text fields keep structured values as compact JSON text so a
		// range object like {"low":13,"high":17} is not lost.
		b, err := json.Marshal(val)
		if err != nil {
			return nil, false, true
		}
		return string(b), true, true
	}
}

func decodeGeneric(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
