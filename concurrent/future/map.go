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

package future

import "reflect"

var (
	wakerType = reflect.TypeOf((*Waker)(nil)).Elem()
	boolType  = reflect.TypeOf(false)
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// mapFuture implements Future returned by Map.
type mapFuture[T, U any] struct {
	input Future[T]
	fn    func(T) (U, error)
}

// Poll implements Future.
func (f *mapFuture[T, U]) Poll(waker Waker) (U, bool, error) {
	var zero U

	value, ready, err := f.input.Poll(waker)
	if err != nil {
		return zero, false, err
	} else if !ready {
		return zero, false, nil
	}

	result, err := f.fn(value)
	if err != nil {
		return zero, false, err
	}
	return result, true, nil
}

// Map creates a Future that transforms the value of f with fn once f is ready. Errors from f are
// passed through without calling fn.
func Map[T, U any](f Future[T], fn func(T) (U, error)) Future[U] {
	return &mapFuture[T, U]{
		input: f,
		fn:    fn,
	}
}

// Any erases the value type of f. It is useful for passing typed futures through interfaces that
// carry arbitrary values such as GraphQL field resolvers.
func Any[T any](f Future[T]) Future[any] {
	return Map(f, func(value T) (any, error) {
		return value, nil
	})
}

// AsAny returns v as a Future[any] if v is a Future of any value type. Typed futures are polled
// through reflection.
func AsAny(v interface{}) (Future[any], bool) {
	if f, ok := v.(Future[any]); ok {
		return f, true
	}
	if v == nil {
		return nil, false
	}

	poll := reflect.ValueOf(v).MethodByName("Poll")
	if !poll.IsValid() {
		return nil, false
	}
	pollType := poll.Type()
	if pollType.NumIn() != 1 || pollType.In(0) != wakerType ||
		pollType.NumOut() != 3 || pollType.Out(1) != boolType || pollType.Out(2) != errorType {
		return nil, false
	}
	return &erasedFuture{poll: poll}, true
}

// erasedFuture adapts a typed Future found by AsAny.
type erasedFuture struct {
	poll reflect.Value
}

// Poll implements Future.
func (f *erasedFuture) Poll(waker Waker) (any, bool, error) {
	out := f.poll.Call([]reflect.Value{reflect.ValueOf(&waker).Elem()})
	if err, _ := out[2].Interface().(error); err != nil {
		return nil, false, err
	} else if !out[1].Bool() {
		return nil, false, nil
	}
	return out[0].Interface(), true, nil
}
