// Package settings models per-source configuration: named keys grouped into
// sections, a flat map from key to text value, and decoding of a section
// into a typed struct.
//
// A section is a struct type whose fields carry a `setting:"Human name"` tag.
// Fields may also carry `default:"..."` (applied with creasty/defaults) and
// `validate:"..."` (checked with go-playground/validator) tags.
package settings

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks settings that are present but cannot be used.
var ErrInvalid = errors.New("invalid settings")

// Key names one configuration field inside a section.
type Key struct {
	Section string
	Name    string
}

func (k Key) String() string { return k.Section + "." + k.Name }

// Map holds settings values keyed by Key. A Map handed to a source is
// treated as read-only.
type Map map[Key]string

// Get returns the value for k, or "" when unset.
func (m Map) Get(k Key) string { return m[k] }

// Section returns a copy of the values belonging to the named section, keyed
// by setting name.
func (m Map) Section(name string) map[string]string {
	out := make(map[string]string)
	for k, v := range m {
		if k.Section == name {
			out[k.Name] = v
		}
	}
	return out
}

// Keys returns the map's keys sorted by section, then name.
func (m Map) Keys() []Key {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b Key) int {
		if c := strings.Compare(a.Section, b.Section); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return keys
}

// Merge layers maps left to right; a later non-empty value overrides an
// earlier one. The inputs are not modified.
func Merge(layers ...Map) Map {
	out := make(Map)
	for _, layer := range layers {
		for k, v := range layer {
			if v == "" {
				if _, ok := out[k]; ok {
					continue
				}
			}
			out[k] = v
		}
	}
	return out
}

// Section is implemented by settings structs.
type Section interface {
	SectionName() string
}

// Keys lists the keys declared by section in field order.
func Keys(section Section) []Key {
	t := reflect.TypeOf(section)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var keys []Key
	for f := range fieldsOf(t) {
		keys = append(keys, Key{Section: section.SectionName(), Name: f.Tag.Get("setting")})
	}
	return keys
}

// fieldsOf yields the exported struct fields that carry a setting tag.
func fieldsOf(t reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("setting") == "" {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("setting")
	})
	return v
}

// Decode fills dst, a pointer to a settings struct, from the keys of its own
// section in m.
//
// configured is false, and dst untouched, when none of the section's keys
// holds a non-blank value. Otherwise defaults are applied, values converted
// and the struct validated; conversion and validation failures wrap
// ErrInvalid.
func Decode(m Map, dst Section) (configured bool, err error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return false, fmt.Errorf("settings: Decode needs a pointer to a struct, got %T", dst)
	}
	name := dst.SectionName()
	values := m.Section(name)

	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			configured = true
			break
		}
	}
	if !configured {
		return false, nil
	}

	if err := defaults.Set(dst); err != nil {
		return true, fmt.Errorf("%w: section %s defaults: %w", ErrInvalid, name, err)
	}

	elem := rv.Elem()
	for f := range fieldsOf(elem.Type()) {
		raw := strings.TrimSpace(values[f.Tag.Get("setting")])
		if raw == "" {
			continue
		}
		if err := setField(elem.FieldByIndex(f.Index), raw); err != nil {
			return true, fmt.Errorf("%w: %s.%s: %w", ErrInvalid, name, f.Tag.Get("setting"), err)
		}
	}

	if err := validate.Struct(dst); err != nil {
		return true, fmt.Errorf("%w: section %s: %w", ErrInvalid, name, err)
	}
	return true, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		field.Set(reflect.ValueOf(parts).Convert(field.Type()))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
