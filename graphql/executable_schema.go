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

	gqlgen "github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

// ExecutableSchema adapts a Schema to gqlgen's graphql.ExecutableSchema so it can be served by
// gqlgen's handler and transports. The handler parses and validates the query before Exec is
// called.
type ExecutableSchema struct {
	schema    *Schema
	rootValue interface{}
}

var _ gqlgen.ExecutableSchema = (*ExecutableSchema)(nil)

// NewExecutableSchema wraps schema. rootValue is given to the resolvers of the root fields.
func NewExecutableSchema(schema *Schema, rootValue interface{}) *ExecutableSchema {
	return &ExecutableSchema{
		schema:    schema,
		rootValue: rootValue,
	}
}

// Executable returns the wrapped Schema.
func (es *ExecutableSchema) Executable() *Schema {
	return es.schema
}

// Schema implements gqlgen's graphql.ExecutableSchema.
func (es *ExecutableSchema) Schema() *ast.Schema {
	return es.schema.AST()
}

// Complexity implements gqlgen's graphql.ExecutableSchema. Fields don't declare a complexity.
func (es *ExecutableSchema) Complexity(typeName, fieldName string, childComplexity int, args map[string]interface{}) (int, bool) {
	return 0, false
}

// Exec implements gqlgen's graphql.ExecutableSchema.
func (es *ExecutableSchema) Exec(ctx context.Context) gqlgen.ResponseHandler {
	oc := gqlgen.GetOperationContext(ctx)

	result := es.schema.Execute(ctx, ExecuteParams{
		Document:             oc.Doc,
		OperationName:        oc.OperationName,
		Variables:            oc.Variables,
		RootValue:            es.rootValue,
		DisableIntrospection: oc.DisableIntrospection,
	})

	return gqlgen.OneShot(&gqlgen.Response{
		Errors: result.Errors,
		Data:   result.Data,
	})
}
