package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

// SettingValue is a single knob position or preset: either a number or a
// string. Numbers keep the literal they were written with, so "7.50" comes
// back as 7.50 and not 7.5.
type SettingValue struct {
	raw    string
	number bool
}

// Number returns a numeric setting.
func Number(v float64) SettingValue {
	return SettingValue{raw: strconv.FormatFloat(v, 'g', -1, 64), number: true}
}

// Int returns an integral numeric setting.
func Int(v int) SettingValue {
	return SettingValue{raw: strconv.Itoa(v), number: true}
}

// Text returns a string setting.
func Text(s string) SettingValue {
	return SettingValue{raw: s}
}

// NumberLiteral returns a numeric setting holding literal exactly. It fails
// when literal is not a JSON number.
func NumberLiteral(literal string) (SettingValue, error) {
	if !isJSONNumber(literal) {
		return SettingValue{}, fmt.Errorf("%q is not a number", literal)
	}
	return SettingValue{raw: literal, number: true}, nil
}

// IsNumber reports whether the value is numeric.
func (v SettingValue) IsNumber() bool { return v.number }

// String returns the string value, or the number's literal.
func (v SettingValue) String() string { return v.raw }

// Float64 returns the numeric value. ok is false for strings.
func (v SettingValue) Float64() (f float64, ok bool) {
	if !v.number {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	return f, err == nil
}

// MarshalJSON implements json.Marshaler.
func (v SettingValue) MarshalJSON() ([]byte, error) {
	if v.number {
		if v.raw == "" {
			return []byte("0"), nil
		}
		return []byte(v.raw), nil
	}
	return json.Marshal(v.raw)
}

// UnmarshalJSON accepts a JSON number or string. Booleans, null, arrays and
// objects are rejected.
func (v *SettingValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty setting value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	literal := string(data)
	if !isJSONNumber(literal) {
		return fmt.Errorf("setting value must be a number or string, got %s", literal)
	}
	*v = SettingValue{raw: literal, number: true}
	return nil
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var anyValue any
	if err := dec.Decode(&anyValue); err != nil || dec.More() {
		return false
	}
	n, ok := anyValue.(json.Number)
	return ok && n.String() == s
}

// Settings maps a control name to its value. The schema varies per gear, so
// keys are free-form; they only have to be non-empty.
type Settings map[string]SettingValue

// Validate checks the settings are well formed.
func (s Settings) Validate() error {
	for k := range s {
		if k == "" {
			return domainerrors.InvalidField("settings", "setting names must not be empty")
		}
	}
	return nil
}

// Clone returns a copy that never aliases s. A nil receiver yields an empty map.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	maps.Copy(out, s)
	return out
}

// Encode returns the JSON representation used by the stores.
func (s Settings) Encode() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]SettingValue(s))
}

// DecodeSettings parses JSON produced by Encode or sent by a client.
// Empty input yields an empty map.
func DecodeSettings(data []byte) (Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return Settings{}, nil
	}
	var m map[string]SettingValue
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domainerrors.InvalidField("settings", "settings must map names to numbers or strings").WithCause(err)
	}
	if m == nil {
		m = map[string]SettingValue{}
	}
	return Settings(m), nil
}

// SettingsFromMap converts loosely typed input, such as arguments decoded by
// a JSON-RPC layer, into Settings. Float values lose their original literal.
func SettingsFromMap(in map[string]any) (Settings, error) {
	out := make(Settings, len(in))
	for k, raw := range in {
		switch v := raw.(type) {
		case string:
			out[k] = Text(v)
		case float64:
			out[k] = Number(v)
		case int:
			out[k] = Int(v)
		case int64:
			out[k] = SettingValue{raw: strconv.FormatInt(v, 10), number: true}
		case json.Number:
			out[k] = SettingValue{raw: v.String(), number: true}
		default:
			return nil, domainerrors.InvalidField("settings", fmt.Sprintf("setting %q must be a number or string", k))
		}
	}
	return out, out.Validate()
}
