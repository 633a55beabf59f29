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
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/botobag/bookshelf/internal/util"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// DefaultFieldResolverOption configures the resolver created by NewDefaultFieldResolver.
type DefaultFieldResolverOption func(*defaultFieldResolver)

// defaultFieldResolver is used when no resolver is mapped to a field. It resolves the field to the
// value of the property in source whose name matches the field name, or if it's a method, returns
// the result of calling it.
type defaultFieldResolver struct {
	UnresolvedAsError   bool   // default: true
	ScanAnonymousFields bool   // default: true
	ScanMethods         bool   // default: true
	FieldTagName        string // default: "graphql"
}

// NewDefaultFieldResolver creates a FieldResolver that reads values from source objects.
//
// When source is a map with string keys, the entry keyed by the field name is the result. When
// source is a struct (or a pointer to one), the exported field tagged with `graphql:"<name>"` or
// the field whose name matches the field name in CamelCase is the result. Failing that, an
// exported method with the CamelCase name is called. The method may take a context.Context as the
// first parameter followed by the field arguments in the order of their definition, and may return
// a value optionally followed by an error.
func NewDefaultFieldResolver(opts ...DefaultFieldResolverOption) FieldResolver {
	resolver := &defaultFieldResolver{
		UnresolvedAsError:   true,
		ScanAnonymousFields: true,
		ScanMethods:         true,
		FieldTagName:        "graphql",
	}

	for _, opt := range opts {
		opt(resolver)
	}

	return resolver
}

// UnresolvedAsError specifies whether fields that cannot be resolved produce an error or null.
func UnresolvedAsError(enabled bool) DefaultFieldResolverOption {
	return func(resolver *defaultFieldResolver) {
		resolver.UnresolvedAsError = enabled
	}
}

// ScanAnonymousFields specifies whether embedded structs are searched for matching fields.
func ScanAnonymousFields(enabled bool) DefaultFieldResolverOption {
	return func(resolver *defaultFieldResolver) {
		resolver.ScanAnonymousFields = enabled
	}
}

// ScanMethods specifies whether exported methods of the source are considered.
func ScanMethods(enabled bool) DefaultFieldResolverOption {
	return func(resolver *defaultFieldResolver) {
		resolver.ScanMethods = enabled
	}
}

// FieldTagName specifies the struct tag that gives custom field names. For example,
//
//	type Book struct {
//		Name string `graphql:"title"`
//	}
//
// resolves field "title" from Name. FieldTagName("") disables the feature.
func FieldTagName(name string) DefaultFieldResolverOption {
	return func(resolver *defaultFieldResolver) {
		resolver.FieldTagName = name
	}
}

// Resolve implements FieldResolver.
func (resolver *defaultFieldResolver) Resolve(ctx context.Context, source interface{}, info *ResolveInfo) (interface{}, error) {
	value := reflect.ValueOf(source)
	for value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, resolver.unresolvedError(info)
		}
		if value.Kind() == reflect.Ptr && resolver.ScanMethods {
			// Methods with pointer receivers are only visible from the pointer.
			if result, found, err := resolver.resolveFromMethod(ctx, value, info); found {
				return result, err
			}
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		return resolver.resolveFromStruct(ctx, value, info)
	case reflect.Map:
		return resolver.resolveFromMap(value, info)
	}

	return nil, resolver.unresolvedError(info)
}

func (resolver *defaultFieldResolver) unresolvedError(info *ResolveInfo) error {
	if !resolver.UnresolvedAsError {
		return nil
	}
	return fmt.Errorf(`default resolver cannot resolve value for "%s.%s"`,
		info.ParentType.Name, info.FieldDefinition.Name)
}

func (resolver *defaultFieldResolver) resolveFromStruct(ctx context.Context, sourceValue reflect.Value, info *ResolveInfo) (interface{}, error) {
	targetFieldName := info.FieldDefinition.Name
	camelTargetFieldName := util.CamelCase(targetFieldName)
	tagName := resolver.FieldTagName
	queue := []reflect.Value{sourceValue}

	for len(queue) > 0 {
		source := queue[0]
		queue = queue[1:]

		sourceType := source.Type()
		for i := 0; i < source.NumField(); i++ {
			field := sourceType.Field(i)

			if resolver.ScanAnonymousFields && field.Anonymous && field.Type.Kind() == reflect.Struct {
				queue = append(queue, source.Field(i))
				continue
			}

			if len(tagName) > 0 && field.IsExported() {
				tagOptions := strings.Split(field.Tag.Get(tagName), ",")
				if tagOptions[0] == targetFieldName {
					return source.Field(i).Interface(), nil
				}
			}
		}

		if field, found := sourceType.FieldByName(camelTargetFieldName); found && field.IsExported() {
			return source.FieldByIndex(field.Index).Interface(), nil
		}
	}

	if resolver.ScanMethods {
		if result, found, err := resolver.resolveFromMethod(ctx, sourceValue, info); found {
			return result, err
		}
	}

	return nil, resolver.unresolvedError(info)
}

func (resolver *defaultFieldResolver) resolveFromMap(sourceValue reflect.Value, info *ResolveInfo) (interface{}, error) {
	if sourceValue.Type().Key().Kind() != reflect.String {
		return nil, resolver.unresolvedError(info)
	}

	key := reflect.ValueOf(info.FieldDefinition.Name).Convert(sourceValue.Type().Key())
	value := sourceValue.MapIndex(key)
	if !value.IsValid() {
		return nil, resolver.unresolvedError(info)
	}
	return value.Interface(), nil
}

// resolveFromMethod calls the method named after the field. found is false if there's no such
// method.
func (resolver *defaultFieldResolver) resolveFromMethod(ctx context.Context, sourceValue reflect.Value, info *ResolveInfo) (result interface{}, found bool, err error) {
	methodName := util.CamelCase(info.FieldDefinition.Name)
	method := sourceValue.MethodByName(methodName)
	if !method.IsValid() {
		return nil, false, nil
	}

	methodType := method.Type()
	numOut := methodType.NumOut()
	if numOut == 0 || numOut > 2 || (numOut == 2 && methodType.Out(1) != errorType) {
		return nil, true, fmt.Errorf("method %s.%s for resolving %s.%s must return a value and an "+
			"optional error but has type %s", sourceValue.Type(), methodName, info.ParentType.Name,
			info.FieldDefinition.Name, methodType)
	}

	var params []reflect.Value
	argDefs := info.FieldDefinition.Arguments
	numIn := methodType.NumIn()
	in := 0
	if numIn > 0 && methodType.In(0) == contextType {
		params = append(params, reflect.ValueOf(ctx))
		in++
	}
	if numIn-in != len(argDefs) {
		return nil, true, fmt.Errorf("method %s.%s for resolving %s.%s takes %d arguments but the "+
			"field defines %d", sourceValue.Type(), methodName, info.ParentType.Name,
			info.FieldDefinition.Name, numIn-in, len(argDefs))
	}

	for i, argDef := range argDefs {
		paramType := methodType.In(in + i)
		param, err := convertArgument(info.Args[argDef.Name], paramType)
		if err != nil {
			return nil, true, fmt.Errorf(`argument "%s" of %s.%s: %w`,
				argDef.Name, info.ParentType.Name, info.FieldDefinition.Name, err)
		}
		params = append(params, param)
	}

	out := method.Call(params)
	if numOut == 2 && !out[1].IsNil() {
		return nil, true, out[1].Interface().(error)
	}
	return out[0].Interface(), true, nil
}

func convertArgument(value interface{}, paramType reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(paramType), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(paramType) {
		return v, nil
	}

	targetType := paramType
	if targetType.Kind() == reflect.Ptr {
		targetType = targetType.Elem()
	}
	// Numbers are convertible to strings in Go but that yields a rune.
	if (targetType.Kind() == reflect.String) != (v.Kind() == reflect.String) ||
		!v.Type().ConvertibleTo(targetType) {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", value, paramType)
	}

	converted := v.Convert(targetType)
	if targetType == paramType {
		return converted, nil
	}
	p := reflect.New(targetType)
	p.Elem().Set(converted)
	return p, nil
}
