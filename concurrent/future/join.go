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

// join implements Future returned by Join.
type join[T any] struct {
	inputs  []Future[T]
	done    []bool
	results []T
}

// Poll implements Future.
func (f *join[T]) Poll(waker Waker) ([]T, bool, error) {
	ready := true

	for i, input := range f.inputs {
		if f.done[i] {
			continue
		}

		value, ok, err := input.Poll(waker)
		if err != nil {
			return nil, false, err
		}

		if ok {
			f.results[i] = value
			f.done[i] = true
		} else {
			ready = false
		}
	}

	if ready {
		return f.results, true, nil
	}
	return nil, false, nil
}

// Join creates a Future which aggregates values from a collection of Futures.
//
// The returned Future drives execution of the input futures and collects the results into a slice
// in the same order as they're given. It fails with the first error returned by any input.
func Join[T any](f ...Future[T]) Future[[]T] {
	return &join[T]{
		inputs:  f,
		done:    make([]bool, len(f)),
		results: make([]T, len(f)),
	}
}
