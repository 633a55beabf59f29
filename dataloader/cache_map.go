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
	"sync"
)

// CacheMap defines interfaces required by Loader to cache task that loads a value identified by
// key. Note that all methods must be safe for concurrent use by multiple goroutines.
type CacheMap[K comparable, V any] interface {
	// Get returns the task stored in the cache for a key or nil if no task is present.
	Get(key K) *Task[K, V]

	// Set caches the task. If the key associated with the given task exists, return the task that was
	// previously set. Otherwise, the given task is added to the cache and returned.
	Set(task *Task[K, V]) *Task[K, V]

	// Delete deletes cached task for loading value at given key.
	Delete(key K)

	// Clear resets the cache.
	Clear()
}

//===----------------------------------------------------------------------------------------====//
// DefaultCacheMap
//===----------------------------------------------------------------------------------------====//

// DefaultCacheMap is used when Config.CacheMap is not set. It is backed by a sync.Map.
type DefaultCacheMap[K comparable, V any] struct {
	m sync.Map
}

// Get implements CacheMap.
func (cacheMap *DefaultCacheMap[K, V]) Get(key K) *Task[K, V] {
	task, ok := cacheMap.m.Load(key)
	if !ok {
		return nil
	}
	return task.(*Task[K, V])
}

// Set implements CacheMap.
func (cacheMap *DefaultCacheMap[K, V]) Set(task *Task[K, V]) *Task[K, V] {
	t, _ := cacheMap.m.LoadOrStore(task.Key(), task)
	return t.(*Task[K, V])
}

// Delete implements CacheMap.
func (cacheMap *DefaultCacheMap[K, V]) Delete(key K) {
	cacheMap.m.Delete(key)
}

// Clear implements CacheMap.
func (cacheMap *DefaultCacheMap[K, V]) Clear() {
	m := &cacheMap.m
	m.Range(func(key, _ interface{}) bool {
		m.Delete(key)
		return true
	})
}

//===----------------------------------------------------------------------------------------====//
// NoCache
//===----------------------------------------------------------------------------------------====//

// noCacheMap is a placeholder given to Config.CacheMap to disable cache for a Loader.
type noCacheMap[K comparable, V any] struct{}

// Get implements CacheMap.
func (noCacheMap[K, V]) Get(key K) *Task[K, V] {
	return nil
}

// Set implements CacheMap.
func (noCacheMap[K, V]) Set(task *Task[K, V]) *Task[K, V] {
	return task
}

// Delete implements CacheMap.
func (noCacheMap[K, V]) Delete(key K) {}

// Clear implements CacheMap.
func (noCacheMap[K, V]) Clear() {}

// NoCache returns a CacheMap that disables cache for a Loader. Keys requested in the same tick are
// still deduplicated.
func NoCache[K comparable, V any]() CacheMap[K, V] {
	return noCacheMap[K, V]{}
}
