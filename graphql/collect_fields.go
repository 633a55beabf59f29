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
	"github.com/vektah/gqlparser/v2/ast"
)

// collectedFields groups field nodes by response key in the order the keys first appear.
type collectedFields struct {
	keys   []string
	fields map[string][]*ast.Field
}

func (c *collectedFields) add(key string, field *ast.Field) {
	if c.fields == nil {
		c.fields = map[string][]*ast.Field{}
	}
	if _, exists := c.fields[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.fields[key] = append(c.fields[key], field)
}

// collectFields gathers the fields in selectionSet that apply to runtimeType, expanding fragments
// and honoring @skip and @include.
func (ec *executionContext) collectFields(
	runtimeType *ast.Definition,
	selectionSet ast.SelectionSet,
	fields *collectedFields,
	visitedFragmentNames map[string]bool) {

	for _, selection := range selectionSet {
		switch selection := selection.(type) {
		case *ast.Field:
			if !ec.shouldIncludeNode(selection.Directives) {
				continue
			}
			fields.add(responseKey(selection), selection)

		case *ast.InlineFragment:
			if !ec.shouldIncludeNode(selection.Directives) ||
				!ec.doesFragmentConditionMatch(selection.TypeCondition, runtimeType) {
				continue
			}
			ec.collectFields(runtimeType, selection.SelectionSet, fields, visitedFragmentNames)

		case *ast.FragmentSpread:
			name := selection.Name
			if visitedFragmentNames[name] || !ec.shouldIncludeNode(selection.Directives) {
				continue
			}
			visitedFragmentNames[name] = true

			fragment := ec.fragments.ForName(name)
			if fragment == nil || !ec.doesFragmentConditionMatch(fragment.TypeCondition, runtimeType) {
				continue
			}
			ec.collectFields(runtimeType, fragment.SelectionSet, fields, visitedFragmentNames)
		}
	}
}

// collectSubfields merges the selection sets of all field nodes that share a response key.
func (ec *executionContext) collectSubfields(runtimeType *ast.Definition, fieldNodes []*ast.Field) *collectedFields {
	fields := &collectedFields{}
	visitedFragmentNames := map[string]bool{}
	for _, field := range fieldNodes {
		ec.collectFields(runtimeType, field.SelectionSet, fields, visitedFragmentNames)
	}
	return fields
}

// shouldIncludeNode determines whether a selection is included by @include and @skip. @skip has
// higher precedence than @include.
func (ec *executionContext) shouldIncludeNode(directives ast.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := skip.ArgumentMap(ec.variables)["if"].(bool); ok && v {
			return false
		}
	}

	if include := directives.ForName("include"); include != nil {
		if v, ok := include.ArgumentMap(ec.variables)["if"].(bool); ok && !v {
			return false
		}
	}

	return true
}

func (ec *executionContext) doesFragmentConditionMatch(typeCondition string, runtimeType *ast.Definition) bool {
	if typeCondition == "" {
		return true
	}

	conditionalType := ec.schema.schema.Types[typeCondition]
	if conditionalType == nil {
		return false
	}
	if conditionalType == runtimeType {
		return true
	}
	if conditionalType.IsAbstractType() {
		for _, possibleType := range ec.schema.schema.GetPossibleTypes(conditionalType) {
			if possibleType == runtimeType {
				return true
			}
		}
	}
	return false
}

func responseKey(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}
	return field.Name
}
