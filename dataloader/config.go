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
	"time"
)

// BatchFunc loads values for keys in one round trip to the backend. It must return exactly one
// value for each key in the same order as the keys were given. An unmatched key must still occupy
// its position (e.g., with an empty collection). Returning an error fails every key in the batch.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Config specifies:
//
//  1. The way to fetch data;
//  2. Various configurations for batching;
//  3. Various configurations for caching.
type Config[K comparable, V any] struct {
	// (Required) BatchFunc specifies the way to load data in batch from given keys.
	BatchFunc BatchFunc[K, V]

	// (Optional) Set the batch size. Default is 0 which means unlimited. Setting it to 1 causes
	// Loader to send only one key to its BatchFunc which disables batch load.
	MaxBatchSize int

	// (Optional) When greater than zero, the first Load after the queue drained arms a timer that
	// dispatches the queue after Wait elapses. Dispatch can still be called explicitly before that.
	Wait time.Duration

	// (Optional) CacheMap specifies cache instance to cache requested and loaded data. 3 possible
	// values can be provided:
	//
	//  1. nil (when CacheMap is not set): cache is enabled and a DefaultCacheMap instance will be
	//     used.
	//  2. NoCache[K, V](): cache is disabled.
	//  3. Others: Custom cache instance that implements CacheMap interfaces.
	CacheMap CacheMap[K, V]

	// (Optional) Keep failed keys in cache. By default, keys in a failed batch are evicted so that a
	// later Load retries them.
	CacheFailures bool
}
