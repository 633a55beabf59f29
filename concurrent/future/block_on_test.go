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

package future_test

import (
	"context"
	"sync"

	"github.com/botobag/bookshelf/concurrent/future"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// manualFuture is completed by calling complete from another goroutine.
type manualFuture struct {
	mutex sync.Mutex
	value int
	ready bool
	waker future.Waker
}

func (f *manualFuture) Poll(waker future.Waker) (int, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.ready {
		return f.value, true, nil
	}
	f.waker = waker
	return 0, false, nil
}

func (f *manualFuture) complete(value int) {
	f.mutex.Lock()
	f.value = value
	f.ready = true
	waker := f.waker
	f.mutex.Unlock()
	if waker != nil {
		waker.Wake()
	}
}

var _ = Describe("BlockOn", func() {
	It("waits until the future is woken", func() {
		f := &manualFuture{}
		go f.complete(42)
		Expect(future.BlockOn(context.Background(), future.Future[int](f))).Should(Equal(42))
	})

	It("gives up when context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := future.BlockOn(ctx, future.Future[int](&manualFuture{}))
		Expect(err).Should(MatchError(context.Canceled))
	})
})
