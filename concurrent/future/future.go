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

// A Future represents an asynchronous computation that eventually produces a value of type T or
// fails with an error.
//
// Futures are inert; they must be polled to make progress. Poll must never block. When the value
// is not available yet, Poll returns ready == false and keeps the given Waker, which is woken once
// the future can make progress. The owner of the future should then poll it again.
//
// Once a future has finished (either with a value or an error), clients should not poll it again.
// Only the most recent Waker passed to Poll is guaranteed to receive the wakeup.
type Future[T any] interface {
	// Poll attempts to resolve the future to a final value:
	//
	//	* (_, _, err): the future finished with an error;
	//	* (_, false, nil): the value is not ready yet and waker will be notified;
	//	* (value, true, nil): the future finished successfully with value.
	Poll(waker Waker) (value T, ready bool, err error)
}

// readyFuture is a Future that is immediately ready with a value or an error.
type readyFuture[T any] struct {
	value T
	err   error
}

// Poll implements Future.
func (f readyFuture[T]) Poll(waker Waker) (T, bool, error) {
	return f.value, true, f.err
}

// Ready creates a Future that is immediately ready with the value.
func Ready[T any](value T) Future[T] {
	return readyFuture[T]{value: value}
}

// Err creates a Future that is immediately finished with the error.
func Err[T any](err error) Future[T] {
	if err == nil {
		err = errNilError
	}
	return readyFuture[T]{err: err}
}
