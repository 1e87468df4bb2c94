package intacct

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Kind is the variant held by a SettingValue.
type Kind uint8

const (
	KindUnset Kind = iota
	KindBool
	KindText
)

// SettingValue is a connection setting value: unset, a boolean or a string.
// The zero value is Unset.
type SettingValue struct {
	kind Kind
	b    bool
	s    string
}

// Unset returns the absent value. It is stored and sent as null.
func Unset() SettingValue {
	return SettingValue{}
}

// Bool returns a boolean value.
func Bool(b bool) SettingValue {
	return SettingValue{kind: KindBool, b: b}
}

// Text returns a string value. Text("") is not Unset.
func Text(s string) SettingValue {
	return SettingValue{kind: KindText, s: s}
}

// Kind returns the variant.
func (v SettingValue) Kind() Kind {
	return v.kind
}

// IsUnset reports whether v is Unset.
func (v SettingValue) IsUnset() bool {
	return v.kind == KindUnset
}

// Value returns nil, a bool or a string.
func (v SettingValue) Value() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindText:
		return v.s
	default:
		return nil
	}
}

// JSON returns the JSON encoding of the value: null, true, false or a
// quoted string.
func (v SettingValue) JSON() string {
	data, _ := v.MarshalJSON()
	return string(data)
}

// MarshalJSON implements json.Marshaler.
func (v SettingValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *SettingValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Unset()
	case bool:
		*v = Bool(x)
	case string:
		*v = Text(x)
	default:
		return fmt.Errorf("intacct: setting value must be null, a boolean or a string, got %T", raw)
	}
	return nil
}

// String returns the JSON form.
func (v SettingValue) String() string {
	return v.JSON()
}
