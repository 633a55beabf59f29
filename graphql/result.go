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

	jsoniter "github.com/json-iterator/go"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Result is the response of executing an operation. Data is nil when execution never started (for
// example, because the query failed validation) and "null" when a non-null error propagated to the
// root.
type Result struct {
	Errors gqlerror.List   `json:"errors,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// resultKind specifies which kind of value is held in a resultNode.
type resultKind uint8

// Enumeration of resultKind
const (
	// The node was not yet completed.
	resultKindUnresolved resultKind = iota

	// The node was resolved to null, either because the field resolved to a nil value or because an
	// error occurred.
	resultKindNil

	// The node holds a list in items.
	resultKindList

	// The node holds an object in keys and fields.
	resultKindObject

	// The node holds a serialized Scalar or Enum value.
	resultKindLeaf
)

// resultNode holds a field value. Nodes form a tree that mirrors the response data.
type resultNode struct {
	parent  *resultNode
	kind    resultKind
	nonNull bool

	// Value of a leaf node
	value interface{}

	// Children of a list node
	items []*resultNode

	// Children of an object node with their response keys
	keys   []string
	fields []*resultNode
}

func newResultNode(parent *resultNode, nonNull bool) *resultNode {
	return &resultNode{
		parent:  parent,
		nonNull: nonNull,
	}
}

func (node *resultNode) setLeaf(value interface{}) {
	node.kind = resultKindLeaf
	node.value = value
}

func (node *resultNode) setNil() {
	node.kind = resultKindNil
	node.value = nil
	node.items = nil
	node.keys = nil
	node.fields = nil
}

func (node *resultNode) setList(size int) {
	node.kind = resultKindList
	node.items = make([]*resultNode, 0, size)
}

func (node *resultNode) setObject(size int) {
	node.kind = resultKindObject
	node.keys = make([]string, 0, size)
	node.fields = make([]*resultNode, 0, size)
}

func (node *resultNode) appendItem(nonNull bool) *resultNode {
	child := newResultNode(node, nonNull)
	node.items = append(node.items, child)
	return child
}

func (node *resultNode) appendField(key string, nonNull bool) *resultNode {
	child := newResultNode(node, nonNull)
	node.keys = append(node.keys, key)
	node.fields = append(node.fields, child)
	return child
}

// detached returns true if the node or one of its ancestors has been nulled out. Values and errors
// of a detached node never make it into the response.
func (node *resultNode) detached() bool {
	for ; node != nil; node = node.parent {
		if node.kind == resultKindNil {
			return true
		}
	}
	return false
}

// nullify sets the node to null. If the node is non-null, the null propagates to the parent field
// until a nullable node (or the root) absorbs it.
func (node *resultNode) nullify() {
	for node != nil {
		node.setNil()
		if !node.nonNull {
			return
		}
		node = node.parent
	}
}

// marshalResultNode encodes the tree rooted at node into JSON. Fields appear in the order of the
// selection set.
func marshalResultNode(node *resultNode) (json.RawMessage, error) {
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	writeResultNode(stream, node)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append(json.RawMessage(nil), stream.Buffer()...), nil
}

func writeResultNode(stream *jsoniter.Stream, node *resultNode) {
	switch node.kind {
	case resultKindLeaf:
		stream.WriteVal(node.value)

	case resultKindList:
		if len(node.items) == 0 {
			stream.WriteEmptyArray()
			return
		}
		stream.WriteArrayStart()
		for i, item := range node.items {
			if i > 0 {
				stream.WriteMore()
			}
			writeResultNode(stream, item)
		}
		stream.WriteArrayEnd()

	case resultKindObject:
		if len(node.fields) == 0 {
			stream.WriteEmptyObject()
			return
		}
		stream.WriteObjectStart()
		for i, field := range node.fields {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(node.keys[i])
			writeResultNode(stream, field)
		}
		stream.WriteObjectEnd()

	default:
		stream.WriteNil()
	}
}
