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

// Package graphql executes GraphQL operations against a schema written in SDL.
//
// A Schema pairs the parsed type system with a ResolverMap that binds (type, field) coordinates to
// FieldResolver. Fields without a mapping fall back to the default field resolver which reads the
// value from the source object by name.
//
// # Execution Model
//
// Operations are executed breadth-first. Each level of the selection tree is a "tick": every field
// at the level is resolved first, and resolvers are free to return a future.Future instead of a
// value. When a level produced futures, the executor dispatches every pending dataloader.Loader
// registered in the request's dataloader.Manager once, then completes the level and schedules the
// fields of the next one. Keys requested by sibling fields are therefore coalesced into a single
// batch.
package graphql
