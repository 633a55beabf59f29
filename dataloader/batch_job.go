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
	"fmt"

	"github.com/rs/zerolog"
)

// batchJob performs a batch load to fetch data required by a list of tasks.
type batchJob[K comparable, V any] struct {
	loader *Loader[K, V]

	// Tasks processed by this job in the order of first occurrence of their keys
	tasks []*Task[K, V]
}

func (job *batchJob[K, V]) run(ctx context.Context) {
	tasks := job.tasks
	keys := make([]K, len(tasks))
	for i, task := range tasks {
		keys[i] = task.Key()
	}

	zerolog.Ctx(ctx).Debug().
		Interface("keys", keys).
		Msg("dataloader: dispatching batch")

	values, err := job.call(ctx, keys)
	if err != nil {
		job.fail(&BatchFetchError{
			Keys: keysOf(keys),
			Err:  err,
		})
		return
	}

	if len(values) != len(keys) {
		job.fail(&ContractViolation{
			Requested: len(keys),
			Returned:  len(values),
		})
		return
	}

	for i, task := range tasks {
		task.Complete(values[i])
	}
}

// call invokes BatchFunc. A panic is turned into an error so that no task is left pending.
func (job *batchJob[K, V]) call(ctx context.Context, keys []K) (values []V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch function panicked: %v", r)
		}
	}()
	return job.loader.config.BatchFunc(ctx, keys)
}

// fail completes every task with err. Failed tasks are evicted from cache before completion unless
// Config.CacheFailures is set so that callers woken by the failure may retry.
func (job *batchJob[K, V]) fail(err error) {
	loader := job.loader
	cacheMap := loader.cacheMap
	evict := cacheMap != nil && !loader.config.CacheFailures

	for _, task := range job.tasks {
		if evict && cacheMap.Get(task.Key()) == task {
			cacheMap.Delete(task.Key())
		}
		task.SetError(err)
	}
}

func keysOf[K comparable](keys []K) []interface{} {
	result := make([]interface{}, len(keys))
	for i, key := range keys {
		result[i] = key
	}
	return result
}
