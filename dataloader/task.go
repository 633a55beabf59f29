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

package dataloader

import (
	"fmt"
	"sync"

	"github.com/botobag/bookshelf/concurrent/future"
)

//===----------------------------------------------------------------------------------------====//
// Task
//===----------------------------------------------------------------------------------------====//

// Task specifies a key for BatchFunc to load and provides storage for the result. A task can be
// completed only once with either a value or an error. Every Load of the same key shares one task
// while it is cached.
type Task[K comparable, V any] struct {
	key K

	mutex sync.Mutex

	// Whether the task was completed
	completed bool
	value     V
	err       error

	// Wakers for the futures waiting on the task; Indexed by the slot allocated in newFuture.
	wakers []future.Waker
}

func newTask[K comparable, V any](key K) *Task[K, V] {
	return &Task[K, V]{
		key: key,
	}
}

// Key returns t.key.
func (t *Task[K, V]) Key() K {
	return t.key
}

// Completed returns true if the task has been completed (with either a value or an error.)
func (t *Task[K, V]) Completed() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.completed
}

func (t *Task[K, V]) complete(value V, err error) error {
	t.mutex.Lock()
	if t.completed {
		t.mutex.Unlock()
		return fmt.Errorf("task for key %v was already completed", t.key)
	}
	t.completed = true
	t.value = value
	t.err = err
	wakers := t.wakers
	t.wakers = nil
	t.mutex.Unlock()

	for _, waker := range wakers {
		// Waking only schedules a poll; failures are left to the waiting side.
		_ = waker.Wake()
	}
	return nil
}

// Complete the task with the given value.
func (t *Task[K, V]) Complete(value V) error {
	return t.complete(value, nil)
}

// SetError completes the task with an error value.
func (t *Task[K, V]) SetError(err error) error {
	var zero V
	return t.complete(zero, err)
}

// newFuture creates a future.Future that accesses the value loaded by the task.
func (t *Task[K, V]) newFuture() future.Future[V] {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.completed {
		if t.err != nil {
			return future.Err[V](t.err)
		}
		return future.Ready(t.value)
	}

	slot := len(t.wakers)
	t.wakers = append(t.wakers, future.NopWaker)
	return &resultFuture[K, V]{
		task:      t,
		wakerSlot: slot,
	}
}

//===----------------------------------------------------------------------------------------====//
// resultFuture
//===----------------------------------------------------------------------------------------====//

// resultFuture implements future.Future. It represents the pending value of a Task.
type resultFuture[K comparable, V any] struct {
	task *Task[K, V]

	// The slot that stores waker for the future
	wakerSlot int
}

// Poll implements future.Future.
func (f *resultFuture[K, V]) Poll(waker future.Waker) (V, bool, error) {
	t := f.task
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.completed {
		if waker == nil {
			waker = future.NopWaker
		}
		t.wakers[f.wakerSlot] = waker
		var zero V
		return zero, false, nil
	}

	if t.err != nil {
		var zero V
		return zero, false, t.err
	}
	return t.value, true, nil
}
