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

import (
	"context"
	"errors"
)

var errNilError = errors.New("future: finished with a nil error")

// BlockOn polls f until it finishes, blocking the current goroutine between polls. It gives up
// and returns ctx.Err() when ctx is done before f finishes.
func BlockOn[T any](ctx context.Context, f Future[T]) (T, error) {
	var (
		zero  T
		wakeC = make(chan struct{}, 1)
		waker = WakerFunc(func() error {
			select {
			case wakeC <- struct{}{}:
			default:
			}
			return nil
		})
	)

	for {
		value, ready, err := f.Poll(waker)
		if err != nil {
			return zero, err
		} else if ready {
			return value, nil
		}

		select {
		case <-wakeC:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
