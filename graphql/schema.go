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
	"errors"
	"fmt"

	"github.com/botobag/bookshelf/dataloader"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// SchemaConfig provides the definition of a Schema.
type SchemaConfig struct {
	// SDL sources that define the type system
	Sources []*ast.Source

	// Resolvers bound to fields; Fields without a resolver use DefaultFieldResolver.
	Resolvers ResolverMap

	// Resolver for fields that are not in Resolvers; If not given, NewDefaultFieldResolver() is used.
	DefaultFieldResolver FieldResolver

	// Resolver for values of interface and union types; If not given, the value must implement
	// TypeNamer unless the abstract type has exactly one possible type.
	TypeResolver TypeResolver

	// Loaders creates the dataloader.Manager for an execution that doesn't carry one in its context.
	// If not given, an empty Manager is created.
	Loaders func() *dataloader.Manager
}

// Schema is an executable GraphQL schema.
type Schema struct {
	schema               *ast.Schema
	resolvers            ResolverMap
	defaultFieldResolver FieldResolver
	typeResolver         TypeResolver
	loaders              func() *dataloader.Manager
}

// NewSchema parses the SDL and validates the resolvers against it.
func NewSchema(config SchemaConfig) (*Schema, error) {
	if len(config.Sources) == 0 {
		return nil, errors.New("schema requires at least one source")
	}

	schema, err := gqlparser.LoadSchema(config.Sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	resolvers := config.Resolvers
	if resolvers == nil {
		resolvers = ResolverMap{}
	}
	if err := resolvers.validate(schema); err != nil {
		return nil, err
	}

	defaultFieldResolver := config.DefaultFieldResolver
	if defaultFieldResolver == nil {
		defaultFieldResolver = NewDefaultFieldResolver()
	}

	loaders := config.Loaders
	if loaders == nil {
		loaders = dataloader.NewManager
	}

	return &Schema{
		schema:               schema,
		resolvers:            resolvers,
		defaultFieldResolver: defaultFieldResolver,
		typeResolver:         config.TypeResolver,
		loaders:              loaders,
	}, nil
}

// MustNewSchema is like NewSchema but panics on error.
func MustNewSchema(config SchemaConfig) *Schema {
	schema, err := NewSchema(config)
	if err != nil {
		panic(err)
	}
	return schema
}

// AST returns the parsed type system.
func (schema *Schema) AST() *ast.Schema {
	return schema.schema
}

// NewLoaders creates a dataloader.Manager for a new request.
func (schema *Schema) NewLoaders() *dataloader.Manager {
	return schema.loaders()
}

func (schema *Schema) resolverFor(typeName, fieldName string) FieldResolver {
	if resolver, exists := schema.resolvers[FieldCoordinate{typeName, fieldName}]; exists {
		return resolver
	}
	return schema.defaultFieldResolver
}
