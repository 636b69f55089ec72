// Package mask flattens structs into ordered key/value pairs with sensitive fields hidden.
package mask

import (
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	tagName = "mask"

	// Hidden replaces every non-zero masked value.
	Hidden = "***"
)

// Flatten returns the exported fields of v as ordered pairs. Nested structs are
// expanded into dotted keys. Fields tagged `mask:"true"` are replaced with
// Hidden unless they hold a zero value.
// Keys come from the yaml tag, then the json tag, then the field name.
// Fields tagged "-" are skipped.
func Flatten(v any) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	if v == nil {
		return om
	}
	flatten(om, reflect.ValueOf(v), "")
	return om
}

func flatten(om *orderedmap.OrderedMap[string, any], val reflect.Value, prefix string) {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			om.Set(prefix, nil)
			return
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		om.Set(prefix, val.Interface())
		return
	}

	typ := val.Type()
	for i := range val.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name, skip := fieldName(field)
		if skip {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		fv := val.Field(i)
		switch {
		case strings.EqualFold(field.Tag.Get(tagName), "true"):
			om.Set(name, hide(fv))
		case expandable(fv):
			flatten(om, fv, name)
		default:
			om.Set(name, fv.Interface())
		}
	}
}

func expandable(val reflect.Value) bool {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return false
		}
		val = val.Elem()
	}
	// time.Time and friends print better as values.
	return val.Kind() == reflect.Struct && val.NumField() > 0 && val.Type().PkgPath() != "time"
}

func hide(val reflect.Value) any {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.IsZero() {
		return val.Interface()
	}
	return Hidden
}

func fieldName(field reflect.StructField) (string, bool) {
	for _, tag := range []string{"yaml", "json"} {
		v, ok := field.Tag.Lookup(tag)
		if !ok {
			continue
		}
		if v == "-" {
			return "", true
		}
		if name, _, _ := strings.Cut(v, ","); name != "" {
			return name, false
		}
	}
	return field.Name, false
}
