// Package attrs implements Attrs: an ordered key->value mapping with a
// dirty bit, a closed set of value kinds, typed accessors with defaults,
// and a JSON round-trip for list/option-shaped payloads (spec §3).
//
// Modeled on the teacher's typed option-struct idiom (willow's
// EmitterConfig, DisplayConfig-style structs) generalized to a dynamic,
// ordered bag since spec.md's Attrs must hold an open set of named
// properties whose keys are not known at compile time (node names, layer
// transforms, per-format metadata).
package attrs

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the closed set of value types Attrs can hold.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindUUID
	KindVec3
	KindVec4
	KindMat3
	KindMat4
	KindJSON
	KindList
)

// Vec3 is a 3-component vector value.
type Vec3 [3]float64

// Vec4 is a 4-component vector value.
type Vec4 [4]float64

// Mat3 is a row-major 3x3 matrix value.
type Mat3 [9]float64

// Mat4 is a row-major 4x4 matrix value.
type Mat4 [16]float64

// Value is one Attrs entry's payload: exactly one field is meaningful,
// selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Uint   uint64
	Float  float64
	Str    string
	Vec3   Vec3
	Vec4   Vec4
	Mat3   Mat3
	Mat4   Mat4
	JSON   json.RawMessage
	List   []Value
}

// entry preserves insertion order alongside the key->value map.
type entry struct {
	key   string
	value Value
}

// Attrs is an ordered key->value mapping with a dirty bit.
type Attrs struct {
	order []string
	index map[string]int // key -> position in order
	data  []entry
	dirty bool
}

// New creates an empty Attrs.
func New() *Attrs {
	return &Attrs{index: make(map[string]int)}
}

// Set inserts or updates key, marking Attrs dirty. Order is preserved for
// existing keys; new keys append.
func (a *Attrs) Set(key string, v Value) {
	if i, ok := a.index[key]; ok {
		a.data[i].value = v
	} else {
		a.index[key] = len(a.data)
		a.data = append(a.data, entry{key: key, value: v})
		a.order = append(a.order, key)
	}
	a.dirty = true
}

// Get returns the raw Value for key and whether it is present.
func (a *Attrs) Get(key string) (Value, bool) {
	i, ok := a.index[key]
	if !ok {
		return Value{}, false
	}
	return a.data[i].value, true
}

// Delete removes key if present, marking Attrs dirty.
func (a *Attrs) Delete(key string) {
	i, ok := a.index[key]
	if !ok {
		return
	}
	a.data = append(a.data[:i], a.data[i+1:]...)
	a.order = append(a.order[:i], a.order[i+1:]...)
	delete(a.index, key)
	for k, idx := range a.index {
		if idx > i {
			a.index[k] = idx - 1
		}
	}
	a.dirty = true
}

// Keys returns keys in insertion order.
func (a *Attrs) Keys() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Dirty reports whether a mutation has occurred since the last ClearDirty.
func (a *Attrs) Dirty() bool {
	return a.dirty
}

// ClearDirty resets the dirty bit; called by the owner after propagating
// the change (spec §3: "the owner clears it after propagation").
func (a *Attrs) ClearDirty() {
	a.dirty = false
}

// --- typed accessors with defaults ---

// Bool returns key's bool value, or def if absent or of a different kind.
func (a *Attrs) Bool(key string, def bool) bool {
	if v, ok := a.Get(key); ok && v.Kind == KindBool {
		return v.Bool
	}
	return def
}

// Int returns key's int value, or def if absent or of a different kind.
func (a *Attrs) Int(key string, def int64) int64 {
	if v, ok := a.Get(key); ok && v.Kind == KindInt {
		return v.Int
	}
	return def
}

// Uint returns key's uint value, or def if absent or of a different kind.
func (a *Attrs) Uint(key string, def uint64) uint64 {
	if v, ok := a.Get(key); ok && v.Kind == KindUint {
		return v.Uint
	}
	return def
}

// Float returns key's float value, or def if absent or of a different kind.
func (a *Attrs) Float(key string, def float64) float64 {
	if v, ok := a.Get(key); ok && v.Kind == KindFloat {
		return v.Float
	}
	return def
}

// String returns key's string value, or def if absent or of a different kind.
func (a *Attrs) String(key string, def string) string {
	if v, ok := a.Get(key); ok && v.Kind == KindString {
		return v.Str
	}
	return def
}

// Vec3 returns key's 3-vector value, or def if absent or of a different kind.
func (a *Attrs) Vec3(key string, def Vec3) Vec3 {
	if v, ok := a.Get(key); ok && v.Kind == KindVec3 {
		return v.Vec3
	}
	return def
}

// Vec4 returns key's 4-vector value, or def if absent or of a different kind.
func (a *Attrs) Vec4(key string, def Vec4) Vec4 {
	if v, ok := a.Get(key); ok && v.Kind == KindVec4 {
		return v.Vec4
	}
	return def
}

// SetBool is a convenience wrapper around Set for KindBool.
func (a *Attrs) SetBool(key string, v bool) { a.Set(key, Value{Kind: KindBool, Bool: v}) }

// SetInt is a convenience wrapper around Set for KindInt.
func (a *Attrs) SetInt(key string, v int64) { a.Set(key, Value{Kind: KindInt, Int: v}) }

// SetUint is a convenience wrapper around Set for KindUint.
func (a *Attrs) SetUint(key string, v uint64) { a.Set(key, Value{Kind: KindUint, Uint: v}) }

// SetFloat is a convenience wrapper around Set for KindFloat.
func (a *Attrs) SetFloat(key string, v float64) { a.Set(key, Value{Kind: KindFloat, Float: v}) }

// SetString is a convenience wrapper around Set for KindString.
func (a *Attrs) SetString(key string, v string) { a.Set(key, Value{Kind: KindString, Str: v}) }

// SetList is a convenience wrapper around Set for KindList.
func (a *Attrs) SetList(key string, v []Value) { a.Set(key, Value{Kind: KindList, List: v}) }

// jsonEntry is the wire shape for one Attrs entry.
type jsonEntry struct {
	Key   string          `json:"key"`
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON round-trips list/option-shaped payloads as an ordered array
// of {key, kind, value} entries, preserving insertion order (a plain JSON
// object would not).
func (a *Attrs) MarshalJSON() ([]byte, error) {
	entries := make([]jsonEntry, 0, len(a.data))
	for _, e := range a.data {
		raw, err := marshalValue(e.value)
		if err != nil {
			return nil, fmt.Errorf("attrs: marshal %q: %w", e.key, err)
		}
		entries = append(entries, jsonEntry{Key: e.key, Kind: e.value.Kind, Value: raw})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON restores an Attrs previously produced by MarshalJSON.
func (a *Attrs) UnmarshalJSON(data []byte) error {
	var entries []jsonEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*a = *New()
	for _, je := range entries {
		v, err := unmarshalValue(je.Kind, je.Value)
		if err != nil {
			return fmt.Errorf("attrs: unmarshal %q: %w", je.Key, err)
		}
		a.Set(je.Key, v)
	}
	a.dirty = false
	return nil
}

func marshalValue(v Value) (json.RawMessage, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int)
	case KindUint:
		return json.Marshal(v.Uint)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindUUID:
		return json.Marshal(v.Str)
	case KindVec3:
		return json.Marshal(v.Vec3)
	case KindVec4:
		return json.Marshal(v.Vec4)
	case KindMat3:
		return json.Marshal(v.Mat3)
	case KindMat4:
		return json.Marshal(v.Mat4)
	case KindJSON:
		return v.JSON, nil
	case KindList:
		raws := make([]json.RawMessage, len(v.List))
		for i, elem := range v.List {
			r, err := marshalValue(elem)
			if err != nil {
				return nil, err
			}
			raws[i] = r
		}
		return json.Marshal(raws)
	default:
		return nil, fmt.Errorf("attrs: unknown kind %d", v.Kind)
	}
}

func unmarshalValue(kind Kind, raw json.RawMessage) (Value, error) {
	v := Value{Kind: kind}
	var err error
	switch kind {
	case KindBool:
		err = json.Unmarshal(raw, &v.Bool)
	case KindInt:
		err = json.Unmarshal(raw, &v.Int)
	case KindUint:
		err = json.Unmarshal(raw, &v.Uint)
	case KindFloat:
		err = json.Unmarshal(raw, &v.Float)
	case KindString, KindUUID:
		err = json.Unmarshal(raw, &v.Str)
	case KindVec3:
		err = json.Unmarshal(raw, &v.Vec3)
	case KindVec4:
		err = json.Unmarshal(raw, &v.Vec4)
	case KindMat3:
		err = json.Unmarshal(raw, &v.Mat3)
	case KindMat4:
		err = json.Unmarshal(raw, &v.Mat4)
	case KindJSON:
		v.JSON = raw
	case KindList:
		var raws []json.RawMessage
		if err = json.Unmarshal(raw, &raws); err != nil {
			break
		}
		v.List = make([]Value, len(raws))
		for i, r := range raws {
			// List elements carry no per-element kind tag in this shape;
			// callers needing heterogeneous lists should use KindJSON.
			var f float64
			if jerr := json.Unmarshal(r, &f); jerr == nil {
				v.List[i] = Value{Kind: KindFloat, Float: f}
				continue
			}
			v.List[i] = Value{Kind: KindJSON, JSON: r}
		}
	default:
		err = fmt.Errorf("attrs: unknown kind %d", kind)
	}
	return v, err
}
