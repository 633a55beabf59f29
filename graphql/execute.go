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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/botobag/bookshelf/concurrent/future"
	"github.com/botobag/bookshelf/dataloader"

	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
)

// ExecuteParams specifies the operation to execute.
type ExecuteParams struct {
	// The query string; Ignored when Document is given.
	Query string

	// A parsed and validated document
	Document *ast.QueryDocument

	// The name of the operation to execute in the document; It can be empty if the document contains
	// only one operation.
	OperationName string

	// Raw variable values for the operation
	Variables map[string]interface{}

	// The source value of the root fields
	RootValue interface{}

	// Reject __schema and __type
	DisableIntrospection bool
}

var (
	schemaMetaFieldDef = &ast.FieldDefinition{
		Name: "__schema",
		Type: ast.NonNullNamedType("__Schema", nil),
	}

	typeMetaFieldDef = &ast.FieldDefinition{
		Name: "__type",
		Type: ast.NamedType("__Type", nil),
		Arguments: ast.ArgumentDefinitionList{
			{Name: "name", Type: ast.NonNullNamedType("String", nil)},
		},
	}
)

func isMetaFieldName(name string) bool {
	return strings.HasPrefix(name, "__")
}

// executionContext contains the states of an execution.
type executionContext struct {
	schema               *Schema
	operation            *ast.OperationDefinition
	fragments            ast.FragmentDefinitionList
	variables            map[string]interface{}
	loaders              *dataloader.Manager
	disableIntrospection bool
	logger               *zerolog.Logger

	errors gqlerror.List
}

// fieldTask resolves and completes one field of an object in the result.
type fieldTask struct {
	parentType *ast.Definition
	source     interface{}
	fields     []*ast.Field
	definition *ast.FieldDefinition
	node       *resultNode
	path       ast.Path
}

// resolvedField holds the outcome of resolving a fieldTask within a tick.
type resolvedField struct {
	task    *fieldTask
	value   interface{}
	pending future.Future[any]
	err     error
}

// Execute runs an operation. The data loaders are taken from the dataloader.Manager in ctx; If ctx
// doesn't have one, a new Manager is created for this execution.
func (schema *Schema) Execute(ctx context.Context, params ExecuteParams) *Result {
	document := params.Document
	if document == nil {
		doc, errs := gqlparser.LoadQuery(schema.schema, params.Query)
		if len(errs) > 0 {
			return &Result{Errors: errs}
		}
		document = doc
	}

	operation, err := selectOperation(document, params.OperationName)
	if err != nil {
		return &Result{Errors: gqlerror.List{err}}
	}

	variables, varErr := validator.VariableValues(schema.schema, operation, params.Variables)
	if varErr != nil {
		return &Result{Errors: gqlerror.List{toGQLError(varErr)}}
	}

	var rootType *ast.Definition
	switch operation.Operation {
	case ast.Query:
		rootType = schema.schema.Query
	case ast.Mutation:
		rootType = schema.schema.Mutation
	case ast.Subscription:
		return &Result{Errors: gqlerror.List{
			gqlerror.ErrorPosf(operation.Position, "subscriptions are not supported"),
		}}
	}
	if rootType == nil {
		return &Result{Errors: gqlerror.List{
			gqlerror.ErrorPosf(operation.Position, "schema is not configured for %ss", operation.Operation),
		}}
	}

	loaders := dataloader.FromContext(ctx)
	if loaders == nil {
		loaders = schema.NewLoaders()
		ctx = dataloader.NewContext(ctx, loaders)
	}

	ec := &executionContext{
		schema:               schema,
		operation:            operation,
		fragments:            document.Fragments,
		variables:            variables,
		loaders:              loaders,
		disableIntrospection: params.DisableIntrospection,
		logger:               zerolog.Ctx(ctx),
	}

	root := newResultNode(nil, false)
	fields := &collectedFields{}
	ec.collectFields(rootType, operation.SelectionSet, fields, map[string]bool{})
	tasks := ec.objectTasks(rootType, fields, params.RootValue, root, nil)

	if operation.Operation == ast.Mutation {
		// Top-level mutation fields run serially.
		for _, task := range tasks {
			ec.execute(ctx, []*fieldTask{task})
		}
	} else {
		ec.execute(ctx, tasks)
	}

	data, encErr := marshalResultNode(root)
	if encErr != nil {
		ec.errors = append(ec.errors, gqlerror.Errorf("failed to encode result: %s", encErr))
		return &Result{Errors: ec.errors}
	}

	return &Result{
		Errors: ec.errors,
		Data:   data,
	}
}

func selectOperation(document *ast.QueryDocument, operationName string) (*ast.OperationDefinition, *gqlerror.Error) {
	if operationName == "" {
		if len(document.Operations) != 1 {
			if len(document.Operations) == 0 {
				return nil, gqlerror.Errorf("must provide an operation")
			}
			return nil, gqlerror.Errorf("must provide operation name if query contains multiple operations")
		}
		return document.Operations[0], nil
	}

	operation := document.Operations.ForName(operationName)
	if operation == nil {
		return nil, gqlerror.Errorf(`unknown operation named "%s"`, operationName)
	}
	return operation, nil
}

// execute runs tasks level by level. Every level resolves all of its fields, flushes the data
// loaders once if any resolver returned a future, then completes the values and schedules the
// fields of the next level.
func (ec *executionContext) execute(ctx context.Context, tasks []*fieldTask) {
	for tick := 0; len(tasks) > 0; tick++ {
		resolved := make([]resolvedField, 0, len(tasks))
		numPending := 0

		for _, task := range tasks {
			if task.node.detached() {
				continue
			}

			value, err := ec.resolveField(ctx, task)
			result := resolvedField{
				task:  task,
				value: value,
				err:   err,
			}
			if f, ok := future.AsAny(value); ok && err == nil {
				result.pending = f
				numPending++
			}
			resolved = append(resolved, result)
		}

		if numPending > 0 {
			ec.logger.Debug().
				Int("tick", tick).
				Int("pending", numPending).
				Msg("dispatching data loaders")
			ec.loaders.DispatchAll(ctx)
		}

		var next []*fieldTask
		for _, result := range resolved {
			task := result.task
			if result.pending != nil {
				result.value, result.err = future.BlockOn(ctx, result.pending)
			}
			if result.err != nil {
				ec.addError(task.node, task.path, task.fields, result.err)
				continue
			}
			if task.node.detached() {
				continue
			}
			next = append(next, ec.completeValue(ctx, task, task.definition.Type, task.node, task.path, result.value)...)
		}

		tasks = next
	}
}

func (ec *executionContext) resolveField(ctx context.Context, task *fieldTask) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred while resolving %s.%s: %v",
				task.parentType.Name, task.definition.Name, r)
		}
	}()

	info := &ResolveInfo{
		Schema:          ec.schema.schema,
		ParentType:      task.parentType,
		FieldDefinition: task.definition,
		Fields:          task.fields,
		Path:            task.path,
		Args:            ec.argumentValues(task.fields[0], task.definition),
		Operation:       ec.operation,
		VariableValues:  ec.variables,
	}

	if task.parentType == ec.schema.schema.Query &&
		(task.definition.Name == schemaMetaFieldDef.Name || task.definition.Name == typeMetaFieldDef.Name) {
		return ec.resolveMetaField(info)
	}

	return ec.schema.resolverFor(task.parentType.Name, task.definition.Name).Resolve(ctx, task.source, info)
}

func (ec *executionContext) argumentValues(field *ast.Field, definition *ast.FieldDefinition) map[string]interface{} {
	if field.Definition == nil {
		withDefinition := *field
		withDefinition.Definition = definition
		return withDefinition.ArgumentMap(ec.variables)
	}
	return field.ArgumentMap(ec.variables)
}

func (ec *executionContext) resolveMetaField(info *ResolveInfo) (interface{}, error) {
	if ec.disableIntrospection {
		return nil, errors.New("introspection disabled")
	}

	schema := ec.schema.schema
	if info.FieldDefinition.Name == schemaMetaFieldDef.Name {
		return introspection.WrapSchema(schema), nil
	}

	name, _ := info.Args["name"].(string)
	def := schema.Types[name]
	if def == nil {
		return nil, nil
	}
	return introspection.WrapTypeFromDef(schema, def), nil
}

func (ec *executionContext) fieldDefinition(parentType *ast.Definition, name string) *ast.FieldDefinition {
	if def := parentType.Fields.ForName(name); def != nil {
		return def
	}
	if parentType == ec.schema.schema.Query {
		switch name {
		case schemaMetaFieldDef.Name:
			return schemaMetaFieldDef
		case typeMetaFieldDef.Name:
			return typeMetaFieldDef
		}
	}
	return nil
}

// objectTasks turns node into an object with an entry for each collected field and returns the
// tasks to resolve them.
func (ec *executionContext) objectTasks(
	runtimeType *ast.Definition,
	fields *collectedFields,
	source interface{},
	node *resultNode,
	path ast.Path) []*fieldTask {

	node.setObject(len(fields.keys))
	tasks := make([]*fieldTask, 0, len(fields.keys))

	for _, key := range fields.keys {
		fieldNodes := fields.fields[key]
		name := fieldNodes[0].Name

		if name == "__typename" {
			node.appendField(key, true).setLeaf(runtimeType.Name)
			continue
		}

		definition := ec.fieldDefinition(runtimeType, name)
		if definition == nil {
			// Validation rejects unknown fields so this only happens with an unvalidated document.
			continue
		}

		tasks = append(tasks, &fieldTask{
			parentType: runtimeType,
			source:     source,
			fields:     fieldNodes,
			definition: definition,
			node:       node.appendField(key, definition.Type.NonNull),
			path:       appendPath(path, ast.PathName(key)),
		})
	}

	return tasks
}

// completeValue fills node with value. Errors are recorded and null out the node.
func (ec *executionContext) completeValue(
	ctx context.Context,
	task *fieldTask,
	returnType *ast.Type,
	node *resultNode,
	path ast.Path,
	value interface{}) []*fieldTask {

	tasks, err := ec.tryCompleteValue(ctx, task, returnType, node, path, value)
	if err != nil {
		ec.addError(node, path, task.fields, err)
		return nil
	}
	return tasks
}

func (ec *executionContext) tryCompleteValue(
	ctx context.Context,
	task *fieldTask,
	returnType *ast.Type,
	node *resultNode,
	path ast.Path,
	value interface{}) ([]*fieldTask, error) {

	if isNullish(value) {
		if returnType.NonNull {
			return nil, fmt.Errorf("cannot return null for non-nullable field %s.%s",
				task.parentType.Name, task.definition.Name)
		}
		node.setNil()
		return nil, nil
	}

	if returnType.Elem != nil {
		return ec.completeListValue(ctx, task, returnType, node, path, value)
	}

	def := ec.schema.schema.Types[returnType.NamedType]
	if def == nil {
		return nil, fmt.Errorf("cannot complete value of unknown type %s", returnType.NamedType)
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		result, err := serializeLeaf(def, value)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return ec.tryCompleteValue(ctx, task, returnType, node, path, nil)
		}
		node.setLeaf(result)
		return nil, nil

	case ast.Object:
		return ec.completeObjectValue(task, def, node, path, value), nil

	case ast.Interface, ast.Union:
		runtimeType, err := ec.resolveAbstractType(ctx, task, def, value)
		if err != nil {
			return nil, err
		}
		return ec.completeObjectValue(task, runtimeType, node, path, value), nil
	}

	return nil, fmt.Errorf("cannot complete value of unexpected output type %s", returnType.String())
}

func (ec *executionContext) completeListValue(
	ctx context.Context,
	task *fieldTask,
	returnType *ast.Type,
	node *resultNode,
	path ast.Path,
	value interface{}) ([]*fieldTask, error) {

	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf(`expected a list for field "%s.%s" but got %T`,
			task.parentType.Name, task.definition.Name, value)
	}

	size := v.Len()
	node.setList(size)

	var tasks []*fieldTask
	for i := 0; i < size; i++ {
		item := v.Index(i)
		// Pass structs by reference so that methods with pointer receivers are visible to resolvers.
		if item.Kind() == reflect.Struct && item.CanAddr() {
			item = item.Addr()
		}
		child := node.appendItem(returnType.Elem.NonNull)
		tasks = append(tasks, ec.completeValue(ctx, task, returnType.Elem, child, appendPath(path, ast.PathIndex(i)), item.Interface())...)
	}

	return tasks, nil
}

func (ec *executionContext) completeObjectValue(
	task *fieldTask,
	runtimeType *ast.Definition,
	node *resultNode,
	path ast.Path,
	value interface{}) []*fieldTask {
	return ec.objectTasks(runtimeType, ec.collectSubfields(runtimeType, task.fields), value, node, path)
}

func (ec *executionContext) resolveAbstractType(
	ctx context.Context,
	task *fieldTask,
	abstractType *ast.Definition,
	value interface{}) (*ast.Definition, error) {

	schema := ec.schema.schema
	possibleTypes := schema.GetPossibleTypes(abstractType)

	var typeName string
	if ec.schema.typeResolver != nil {
		name, err := ec.schema.typeResolver.ResolveType(ctx, value, abstractType)
		if err != nil {
			return nil, err
		}
		typeName = name
	} else if namer, ok := value.(TypeNamer); ok {
		typeName = namer.TypeName()
	} else if len(possibleTypes) == 1 {
		typeName = possibleTypes[0].Name
	}

	if typeName == "" {
		return nil, fmt.Errorf(`abstract type %s must resolve to an object type at runtime for field `+
			`%s.%s with value %T`, abstractType.Name, task.parentType.Name, task.definition.Name, value)
	}

	runtimeType := schema.Types[typeName]
	if runtimeType == nil || runtimeType.Kind != ast.Object {
		return nil, fmt.Errorf(`abstract type %s was resolved to "%s" which is not an object type `+
			`in the schema`, abstractType.Name, typeName)
	}

	for _, possibleType := range possibleTypes {
		if possibleType == runtimeType {
			return runtimeType, nil
		}
	}
	return nil, fmt.Errorf(`runtime object type "%s" is not a possible type for "%s"`,
		typeName, abstractType.Name)
}

// addError records err for the field at path and nulls out its node. Errors for a node whose
// ancestor was already nulled out are dropped.
func (ec *executionContext) addError(node *resultNode, path ast.Path, fields []*ast.Field, err error) {
	if node.detached() {
		return
	}

	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		// The error may be shared by multiple fields.
		copied := *gqlErr
		gqlErr = &copied
	} else {
		gqlErr = gqlerror.WrapPath(path, err)
	}
	if len(gqlErr.Path) == 0 {
		gqlErr.Path = path
	}
	if len(gqlErr.Locations) == 0 && len(fields) > 0 && fields[0].Position != nil {
		gqlErr.Locations = []gqlerror.Location{{
			Line:   fields[0].Position.Line,
			Column: fields[0].Position.Column,
		}}
	}

	ec.logger.Debug().
		Err(err).
		Str("path", path.String()).
		Msg("field error")

	ec.errors = append(ec.errors, gqlErr)
	node.nullify()
}

func toGQLError(err error) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}
	return gqlerror.WrapPath(nil, err)
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	result := make(ast.Path, len(path), len(path)+1)
	copy(result, path)
	return append(result, elem)
}

func isNullish(value interface{}) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
