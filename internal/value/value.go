// Package value defines the typed, string-valued record held by the store.
package value

import (
	"github.com/loykin/varstore/internal/util"
	"github.com/tidwall/gjson"
)

// Value is a named, typed variable. All three fields are opaque strings.
type Value struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
}

// New builds a Value.
func New(name, data, typ string) Value {
	return Value{Type: typ, Name: name, Data: data}
}

// IsValid reports whether type, name and data are all non-empty.
func (v Value) IsValid() bool {
	return v.Type != "" && v.Name != "" && v.Data != ""
}

// ToJSON returns the object form of v.
func (v Value) ToJSON() map[string]string {
	return map[string]string{
		"type": v.Type,
		"name": v.Name,
		"data": v.Data,
	}
}

// FromJSON converts one JSON object into a Value. The zero Value is returned
// when any of name, data or type is missing or is not a JSON string. When a
// key is repeated inside the object, its first occurrence is used.
func FromJSON(obj gjson.Result) Value {
	if !obj.IsObject() {
		return Value{}
	}
	name, data, typ := obj.Get("name"), obj.Get("data"), obj.Get("type")
	if name.Type != gjson.String || data.Type != gjson.String || typ.Type != gjson.String {
		return Value{}
	}
	return Value{Type: typ.Str, Name: name.Str, Data: data.Str}
}

// Parse is FromJSON on raw bytes.
func Parse(raw []byte) Value {
	if !gjson.ValidBytes(raw) {
		return Value{}
	}
	return FromJSON(gjson.ParseBytes(raw))
}

// SendData is the compact wire form returned by /get_object: keys sorted,
// no HTML escaping.
func (v Value) SendData() string {
	s, _ := util.MarshalJSON(v.ToJSON(), "")
	return s
}
