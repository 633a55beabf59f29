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

	"github.com/vektah/gqlparser/v2/ast"
)

// ResolveInfo exposes execution state of the field being resolved.
type ResolveInfo struct {
	// The schema being executed against
	Schema *ast.Schema

	// The object type that owns the field
	ParentType *ast.Definition

	// Definition of the field in ParentType
	FieldDefinition *ast.FieldDefinition

	// All field nodes in the selection sets that share the same response key
	Fields []*ast.Field

	// Path to the field from the root of the response
	Path ast.Path

	// Argument values coerced from the first field node and the variables
	Args map[string]interface{}

	// The operation being executed
	Operation *ast.OperationDefinition

	// Coerced variable values of the operation
	VariableValues map[string]interface{}
}

// FieldResolver resolves the value for a field. The returned value could be a future.Future of any
// value type when it is not yet available in which case the executor polls it after dispatching
// the pending data loaders.
type FieldResolver interface {
	Resolve(ctx context.Context, source interface{}, info *ResolveInfo) (interface{}, error)
}

// FieldResolverFunc is an adapter to allow the use of ordinary functions as FieldResolver.
type FieldResolverFunc func(ctx context.Context, source interface{}, info *ResolveInfo) (interface{}, error)

// Resolve calls f(ctx, source, info).
func (f FieldResolverFunc) Resolve(ctx context.Context, source interface{}, info *ResolveInfo) (interface{}, error) {
	return f(ctx, source, info)
}

// FieldCoordinate names a field in an object type.
type FieldCoordinate struct {
	Type  string
	Field string
}

func (c FieldCoordinate) String() string {
	return c.Type + "." + c.Field
}

// ResolverMap binds field coordinates to resolvers.
type ResolverMap map[FieldCoordinate]FieldResolver

// Set adds resolver for typeName.fieldName and returns the map for chaining.
func (m ResolverMap) Set(typeName, fieldName string, resolver FieldResolver) ResolverMap {
	m[FieldCoordinate{typeName, fieldName}] = resolver
	return m
}

// SetFunc is like Set but takes a function.
func (m ResolverMap) SetFunc(
	typeName, fieldName string,
	f func(ctx context.Context, source interface{}, info *ResolveInfo) (interface{}, error)) ResolverMap {
	return m.Set(typeName, fieldName, FieldResolverFunc(f))
}

// validate checks m against schema. Every mapping must name a field of an object type and every
// root field that returns a composite type must have a resolver.
func (m ResolverMap) validate(schema *ast.Schema) error {
	for coordinate, resolver := range m {
		if resolver == nil {
			return fmt.Errorf("resolver for %s is nil", coordinate)
		}

		def := schema.Types[coordinate.Type]
		if def == nil {
			return fmt.Errorf(`resolver for %s names unknown type "%s"`, coordinate, coordinate.Type)
		}
		if def.Kind != ast.Object {
			return fmt.Errorf(`resolver for %s names %s type "%s" which is not an object type`,
				coordinate, def.Kind, coordinate.Type)
		}
		if def.Fields.ForName(coordinate.Field) == nil {
			return fmt.Errorf(`resolver for %s names unknown field "%s" in type "%s"`,
				coordinate, coordinate.Field, coordinate.Type)
		}
	}

	for _, root := range []*ast.Definition{schema.Query, schema.Mutation} {
		if root == nil {
			continue
		}
		for _, field := range root.Fields {
			if isMetaFieldName(field.Name) {
				continue
			}
			fieldType := schema.Types[field.Type.Name()]
			if fieldType == nil || fieldType.IsLeafType() {
				continue
			}
			if _, exists := m[FieldCoordinate{root.Name, field.Name}]; !exists {
				return fmt.Errorf("root field %s.%s returns %s but has no resolver",
					root.Name, field.Name, field.Type.String())
			}
		}
	}

	return nil
}

// TypeResolver determines the object type of a value returned for an abstract type.
type TypeResolver interface {
	ResolveType(ctx context.Context, value interface{}, abstractType *ast.Definition) (string, error)
}

// TypeResolverFunc is an adapter to allow the use of ordinary functions as TypeResolver.
type TypeResolverFunc func(ctx context.Context, value interface{}, abstractType *ast.Definition) (string, error)

// ResolveType calls f(ctx, value, abstractType).
func (f TypeResolverFunc) ResolveType(ctx context.Context, value interface{}, abstractType *ast.Definition) (string, error) {
	return f(ctx, value, abstractType)
}

// TypeNamer is implemented by values that know their GraphQL object type name. It is consulted
// when no TypeResolver is configured.
type TypeNamer interface {
	TypeName() string
}
