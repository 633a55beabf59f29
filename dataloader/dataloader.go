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
	"context"
	"sync"
	"time"

	"github.com/botobag/bookshelf/concurrent/future"
)

// taskQueue holds the tasks requested since the last dispatch in the order of first occurrence.
type taskQueue[K comparable, V any] struct {
	tasks []*Task[K, V]

	// index deduplicates keys within the queue even when cache is disabled.
	index map[K]*Task[K, V]
}

func newTaskQueue[K comparable, V any]() *taskQueue[K, V] {
	return &taskQueue[K, V]{
		index: map[K]*Task[K, V]{},
	}
}

// A Loader loads data from a data backend with unique keys such as the id column of a SQL table.
// Loads requested before a dispatch are coalesced into one call to Config.BatchFunc.
//
// Loader never dispatches on its own unless Config.Wait is set. The owner (usually a GraphQL
// executor via Manager) calls Dispatch once the current unit of work cannot make progress without
// the loaded data. Dispatching a batch always happens-before the collection of the next batch
// begins.
type Loader[K comparable, V any] struct {
	config Config[K, V]

	// Lock that guards accesses to queue
	queueMutex sync.Mutex

	// Queue containing the pending tasks; nil when nothing has been requested since the last
	// dispatch.
	queue *taskQueue[K, V]

	// cacheMap caches loaded data. It is nil if the cache is disabled.
	cacheMap CacheMap[K, V]
}

// New creates a Loader instance from given config.
func New[K comparable, V any](config Config[K, V]) (*Loader[K, V], error) {
	if config.BatchFunc == nil {
		return nil, ErrMissingBatchFunc
	}

	// Determine storage for cache.
	cacheMap := config.CacheMap
	if cacheMap == nil {
		cacheMap = &DefaultCacheMap[K, V]{}
	} else if _, disabled := cacheMap.(noCacheMap[K, V]); disabled {
		cacheMap = nil
	}

	return &Loader[K, V]{
		config:   config,
		cacheMap: cacheMap,
	}, nil
}

// Load loads a data identified by the key. It returns a Future for the value represented by that
// key. The Future stays pending until the queue containing the key is dispatched.
func (loader *Loader[K, V]) Load(key K) future.Future[V] {
	// Check cache.
	if cacheMap := loader.cacheMap; cacheMap != nil {
		if task := cacheMap.Get(key); task != nil {
			return task.newFuture()
		}
	}

	loader.queueMutex.Lock()
	task, queue, created := loader.enqueue(key)
	loader.queueMutex.Unlock()

	if created && loader.config.Wait > 0 {
		time.AfterFunc(loader.config.Wait, func() {
			loader.dispatchQueue(context.Background(), queue)
		})
	}

	return task.newFuture()
}

// enqueue must be called with queueMutex held. It reports whether a new queue was created for the
// key.
func (loader *Loader[K, V]) enqueue(key K) (task *Task[K, V], queue *taskQueue[K, V], created bool) {
	queue = loader.queue
	if queue == nil {
		queue = newTaskQueue[K, V]()
		loader.queue = queue
		created = true
	}

	// Key requested more than once in this tick.
	if task := queue.index[key]; task != nil {
		return task, queue, created
	}

	task = newTask[K, V](key)
	if cacheMap := loader.cacheMap; cacheMap != nil {
		if cachedTask := cacheMap.Set(task); cachedTask != task {
			// Someone filled the cache after our lookup in Load.
			return cachedTask, queue, created
		}
	}

	queue.index[key] = task
	queue.tasks = append(queue.tasks, task)
	return task, queue, created
}

// LoadMany loads collection of data identified by multiple keys. It returns a Future for the values
// in the same order as keys.
func (loader *Loader[K, V]) LoadMany(keys ...K) future.Future[[]V] {
	futures := make([]future.Future[V], len(keys))
	for i, key := range keys {
		futures[i] = loader.Load(key)
	}
	return future.Join(futures...)
}

// Pending returns true if there are keys waiting for dispatch.
func (loader *Loader[K, V]) Pending() bool {
	loader.queueMutex.Lock()
	defer loader.queueMutex.Unlock()
	return loader.queue != nil && len(loader.queue.tasks) > 0
}

// Dispatch calls the batch function for the keys in current queue as of the time this function is
// called. It returns after every task in the queue is completed.
func (loader *Loader[K, V]) Dispatch(ctx context.Context) {
	loader.dispatchQueue(ctx, nil)
}

// dispatchQueue detaches the current queue from the loader and runs batch jobs for it. If
// expected is not nil, the queue is only dispatched when it is still the current one.
func (loader *Loader[K, V]) dispatchQueue(ctx context.Context, expected *taskQueue[K, V]) {
	queueMutex := &loader.queueMutex
	queueMutex.Lock()

	queue := loader.queue
	if queue == nil || (expected != nil && queue != expected) {
		queueMutex.Unlock()
		return
	}

	// The next Load creates a new queue.
	loader.queue = nil
	queueMutex.Unlock()

	tasks := queue.tasks
	maxBatchSize := loader.config.MaxBatchSize
	if maxBatchSize <= 0 {
		maxBatchSize = len(tasks)
	}

	for len(tasks) > 0 {
		n := maxBatchSize
		if n > len(tasks) {
			n = len(tasks)
		}

		job := &batchJob[K, V]{
			loader: loader,
			tasks:  tasks[:n],
		}
		job.run(ctx)

		tasks = tasks[n:]
	}
}

// Clear the value for the given key from the cache.
func (loader *Loader[K, V]) Clear(key K) {
	if cacheMap := loader.cacheMap; cacheMap != nil {
		cacheMap.Delete(key)
	}
}

// ClearAll clears the entire cache.
func (loader *Loader[K, V]) ClearAll() {
	if cacheMap := loader.cacheMap; cacheMap != nil {
		cacheMap.Clear()
	}
}

// Prime adds the provided key and value to the cache. If the key already exists, no change is made.
func (loader *Loader[K, V]) Prime(key K, value V) {
	if cacheMap := loader.cacheMap; cacheMap != nil {
		task := newTask[K, V](key)
		task.Complete(value)
		cacheMap.Set(task)
	}
}

// PrimeError adds the provided key with an error value to the cache. If the key already exists, no
// change is made.
func (loader *Loader[K, V]) PrimeError(key K, err error) {
	if cacheMap := loader.cacheMap; cacheMap != nil {
		task := newTask[K, V](key)
		task.SetError(err)
		cacheMap.Set(task)
	}
}
