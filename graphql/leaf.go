/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package graphql

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
)

// serializeLeaf coerces a resolved value into the result representation of a Scalar or Enum type.
func serializeLeaf(def *ast.Definition, value interface{}) (interface{}, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if def.Kind == ast.Enum {
		return serializeEnum(def, v)
	}

	switch def.Name {
	case "Int":
		return serializeInt(v)
	case "Float":
		return serializeFloat(v)
	case "String":
		return serializeString(v)
	case "Boolean":
		if v.Kind() == reflect.Bool {
			return v.Bool(), nil
		}
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", v.Interface())
	case "ID":
		return serializeID(v)
	}

	// Custom scalars are written as-is.
	if marshaler, ok := value.(json.Marshaler); ok {
		return marshaler, nil
	}
	return v.Interface(), nil
}

func serializeInt(v reflect.Value) (interface{}, error) {
	var i int64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", u)
		}
		i = int64(u)
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", f)
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", f)
		}
		i = int64(f)
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v.Interface())
	}

	if i < math.MinInt32 || i > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", i)
	}
	return i, nil
}

func serializeFloat(v reflect.Value) (interface{}, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %v", f)
		}
		return f, nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", v.Interface())
}

func serializeString(v reflect.Value) (interface{}, error) {
	if v.Kind() == reflect.String {
		return v.String(), nil
	}
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
	}
	return nil, fmt.Errorf("String cannot represent value: %v", v.Interface())
}

func serializeID(v reflect.Value) (interface{}, error) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	}
	return nil, fmt.Errorf("ID cannot represent value: %v", v.Interface())
}

func serializeEnum(def *ast.Definition, v reflect.Value) (interface{}, error) {
	name, err := serializeString(v)
	if err != nil {
		return nil, fmt.Errorf("Enum %q cannot represent value: %v", def.Name, v.Interface())
	}
	if def.EnumValues.ForName(name.(string)) == nil {
		return nil, fmt.Errorf("Enum %q cannot represent value: %q", def.Name, name)
	}
	return name, nil
}
