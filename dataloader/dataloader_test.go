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

package dataloader_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/botobag/bookshelf/concurrent/future"
	"github.com/botobag/bookshelf/dataloader"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// batchLoadLogger records the keys sent to a batch function.
type batchLoadLogger[K comparable] struct {
	// mutex that guards loadCalls
	loadCallsMutex sync.Mutex

	loadCalls [][]K
}

func (logger *batchLoadLogger[K]) LoadCalls() [][]K {
	mutex := &logger.loadCallsMutex
	mutex.Lock()
	defer mutex.Unlock()
	return logger.loadCalls
}

func (logger *batchLoadLogger[K]) LogKeys(keys []K) {
	mutex := &logger.loadCallsMutex
	mutex.Lock()
	logger.loadCalls = append(logger.loadCalls, append([]K(nil), keys...))
	mutex.Unlock()
}

//===----------------------------------------------------------------------------------------====//
// identityLoader
//===----------------------------------------------------------------------------------------====//

// identityLoader resolves each key to itself and logs the batches it received.
type identityLoader struct {
	*dataloader.Loader[string, string]
	logger *batchLoadLogger[string]
}

func (loader identityLoader) LoadCalls() [][]string {
	return loader.logger.LoadCalls()
}

func newIdentityLoader(config dataloader.Config[string, string]) identityLoader {
	Expect(config.BatchFunc).Should(BeNil())

	logger := &batchLoadLogger[string]{}
	config.BatchFunc = func(ctx context.Context, keys []string) ([]string, error) {
		logger.LogKeys(keys)
		return keys, nil
	}

	loader, err := dataloader.New(config)
	Expect(err).ShouldNot(HaveOccurred())

	return identityLoader{loader, logger}
}

//===----------------------------------------------------------------------------------------====//
// flakyLoader
//===----------------------------------------------------------------------------------------====//

// flakyLoader fails the first failures batches and resolves keys to their length afterwards.
type flakyLoader struct {
	*dataloader.Loader[string, int]
	logger   *batchLoadLogger[string]
	fetchErr error
}

func newFlakyLoader(failures int, config dataloader.Config[string, int]) flakyLoader {
	var (
		logger   = &batchLoadLogger[string]{}
		fetchErr = errors.New("backend unavailable")
		calls    = 0
	)

	config.BatchFunc = func(ctx context.Context, keys []string) ([]int, error) {
		logger.LogKeys(keys)
		calls++
		if calls <= failures {
			return nil, fetchErr
		}

		values := make([]int, len(keys))
		for i, key := range keys {
			values[i] = len(key)
		}
		return values, nil
	}

	loader, err := dataloader.New(config)
	Expect(err).ShouldNot(HaveOccurred())

	return flakyLoader{loader, logger, fetchErr}
}

// await dispatches loader and blocks on f.
func await[V any](loader dataloader.Dispatcher, f future.Future[V]) (V, error) {
	loader.Dispatch(context.Background())
	return future.BlockOn(context.Background(), f)
}

//===----------------------------------------------------------------------------------------====//
// SimpleMap
//===----------------------------------------------------------------------------------------====//

// SimpleMap is a Go map that remembers insertion order of keys.
type SimpleMap struct {
	mutex  sync.Mutex
	keys   []string
	values map[string]*dataloader.Task[string, string]
}

var _ dataloader.CacheMap[string, string] = (*SimpleMap)(nil)

func newSimpleMap() *SimpleMap {
	return &SimpleMap{
		values: map[string]*dataloader.Task[string, string]{},
	}
}

func (m *SimpleMap) Get(key string) *dataloader.Task[string, string] {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.values[key]
}

func (m *SimpleMap) Set(task *dataloader.Task[string, string]) *dataloader.Task[string, string] {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if existing, exists := m.values[task.Key()]; exists {
		return existing
	}
	m.keys = append(m.keys, task.Key())
	m.values[task.Key()] = task
	return task
}

func (m *SimpleMap) Delete(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.values[key]; !exists {
		return
	}
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	delete(m.values, key)
}

func (m *SimpleMap) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.keys = nil
	m.values = map[string]*dataloader.Task[string, string]{}
}

func (m *SimpleMap) Keys() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.keys...)
}

var _ = Describe("Loader: Primary API", func() {
	var idLoader identityLoader

	BeforeEach(func() {
		idLoader = newIdentityLoader(dataloader.Config[string, string]{})
	})

	It("throws error if batch function is not given", func() {
		_, err := dataloader.New(dataloader.Config[string, string]{})
		Expect(err).Should(MatchError(dataloader.ErrMissingBatchFunc))
	})

	It("builds a really really simple data loader", func() {
		f := idLoader.Load("1")
		Expect(await(idLoader, f)).Should(Equal("1"))
	})

	It("supports loading multiple keys in one call", func() {
		f := idLoader.LoadMany("1", "2")
		Expect(await(idLoader, f)).Should(Equal([]string{"1", "2"}))

		empty := idLoader.LoadMany()
		Expect(await(idLoader, empty)).Should(BeEmpty())
	})

	It("keeps futures pending until dispatch", func() {
		f := idLoader.Load("1")
		_, ready, err := f.Poll(future.NopWaker)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ready).Should(BeFalse())
		Expect(idLoader.Pending()).Should(BeTrue())
		Expect(idLoader.LoadCalls()).Should(BeEmpty())

		idLoader.Dispatch(context.Background())
		Expect(idLoader.Pending()).Should(BeFalse())

		value, ready, err := f.Poll(future.NopWaker)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ready).Should(BeTrue())
		Expect(value).Should(Equal("1"))
	})

	It("wakes the waiting future when the batch completes", func() {
		f := idLoader.Load("1")

		woken := false
		_, ready, _ := f.Poll(future.WakerFunc(func() error {
			woken = true
			return nil
		}))
		Expect(ready).Should(BeFalse())

		idLoader.Dispatch(context.Background())
		Expect(woken).Should(BeTrue())
	})

	It("batches multiple requests in one tick", func() {
		f1 := idLoader.Load("1")
		f2 := idLoader.Load("2")

		idLoader.Dispatch(context.Background())
		Expect(future.BlockOn(context.Background(), f1)).Should(Equal("1"))
		Expect(future.BlockOn(context.Background(), f2)).Should(Equal("2"))

		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"1", "2"}}))
	})

	It("passes keys in first-occurrence order", func() {
		f := idLoader.LoadMany("c", "a", "c", "b", "a")
		Expect(await(idLoader, f)).Should(Equal([]string{"c", "a", "c", "b", "a"}))
		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"c", "a", "b"}}))
	})

	It("batches multiple requests with max batch sizes", func() {
		loader := newIdentityLoader(dataloader.Config[string, string]{
			MaxBatchSize: 2,
		})

		f := loader.LoadMany("1", "2", "3")
		Expect(await(loader, f)).Should(Equal([]string{"1", "2", "3"}))
		Expect(loader.LoadCalls()).Should(Equal([][]string{{"1", "2"}, {"3"}}))
	})

	It("coalesces identical requests", func() {
		f1a := idLoader.Load("1")
		f1b := idLoader.Load("1")

		idLoader.Dispatch(context.Background())
		Expect(future.BlockOn(context.Background(), f1a)).Should(Equal("1"))
		Expect(future.BlockOn(context.Background(), f1b)).Should(Equal("1"))

		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"1"}}))
	})

	It("caches repeated requests", func() {
		f := idLoader.LoadMany("A", "B")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B"}))

		f = idLoader.LoadMany("A", "C")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "C"}))

		f = idLoader.LoadMany("A", "B", "C")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B", "C"}))

		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"A", "B"}, {"C"}}))
	})

	It("returns cached value without pending work", func() {
		Expect(await(idLoader, idLoader.Load("A"))).Should(Equal("A"))

		f := idLoader.Load("A")
		Expect(idLoader.Pending()).Should(BeFalse())

		value, ready, err := f.Poll(future.NopWaker)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ready).Should(BeTrue())
		Expect(value).Should(Equal("A"))
	})

	It("starts a new batch after dispatch", func() {
		f1 := idLoader.Load("1")
		idLoader.Dispatch(context.Background())
		f2 := idLoader.Load("2")
		idLoader.Dispatch(context.Background())

		Expect(future.BlockOn(context.Background(), f1)).Should(Equal("1"))
		Expect(future.BlockOn(context.Background(), f2)).Should(Equal("2"))
		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"1"}, {"2"}}))
	})

	It("ignores dispatch when nothing is pending", func() {
		idLoader.Dispatch(context.Background())
		Expect(idLoader.LoadCalls()).Should(BeEmpty())
	})

	It("clears single value in loader", func() {
		f := idLoader.LoadMany("A", "B")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B"}))

		idLoader.Clear("A")

		f = idLoader.LoadMany("A", "B")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B"}))

		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"A", "B"}, {"A"}}))
	})

	It("clears all values in loader", func() {
		f := idLoader.LoadMany("A", "B")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B"}))

		idLoader.ClearAll()

		f = idLoader.LoadMany("A", "B")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B"}))

		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"A", "B"}, {"A", "B"}}))
	})

	It("allows priming the cache", func() {
		idLoader.Prime("A", "A")

		f := idLoader.LoadMany("A", "B")
		Expect(await(idLoader, f)).Should(Equal([]string{"A", "B"}))

		Expect(idLoader.LoadCalls()).Should(Equal([][]string{{"B"}}))
	})

	It("does not prime keys that already exist", func() {
		idLoader.Prime("A", "X")
		idLoader.Prime("A", "Y")

		Expect(await(idLoader, idLoader.Load("A"))).Should(Equal("X"))
		Expect(idLoader.LoadCalls()).Should(BeEmpty())
	})

	It("allows priming the cache with an error", func() {
		primeErr := errors.New("primed error")
		idLoader.PrimeError("A", primeErr)

		_, err := await(idLoader, idLoader.Load("A"))
		Expect(err).Should(MatchError(primeErr))
		Expect(idLoader.LoadCalls()).Should(BeEmpty())
	})

	It("accepts loads from multiple goroutines into one batch", func() {
		var (
			wg      sync.WaitGroup
			futures = make([]future.Future[string], 8)
		)
		for i := range futures {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				futures[i] = idLoader.Load(fmt.Sprint(i % 4))
			}(i)
		}
		wg.Wait()

		idLoader.Dispatch(context.Background())
		for i, f := range futures {
			Expect(future.BlockOn(context.Background(), f)).Should(Equal(fmt.Sprint(i % 4)))
		}

		Expect(idLoader.LoadCalls()).Should(HaveLen(1))
		Expect(idLoader.LoadCalls()[0]).Should(ConsistOf("0", "1", "2", "3"))
	})
})

var _ = Describe("Loader: Represents Errors", func() {
	It("rejects every key of a failed batch with BatchFetchError", func() {
		loader := newFlakyLoader(1, dataloader.Config[string, int]{})

		f1 := loader.Load("Kate Chopin")
		f2 := loader.Load("Paul Auster")
		loader.Dispatch(context.Background())

		_, err1 := future.BlockOn(context.Background(), f1)
		_, err2 := future.BlockOn(context.Background(), f2)

		var fetchErr *dataloader.BatchFetchError
		Expect(errors.As(err1, &fetchErr)).Should(BeTrue())
		Expect(fetchErr.Keys).Should(Equal([]interface{}{"Kate Chopin", "Paul Auster"}))
		Expect(errors.Is(err1, loader.fetchErr)).Should(BeTrue())
		Expect(err2).Should(BeIdenticalTo(err1))
	})

	It("retries keys of a failed batch on a later load", func() {
		loader := newFlakyLoader(1, dataloader.Config[string, int]{})

		_, err := await(loader, loader.Load("abc"))
		Expect(err).Should(HaveOccurred())

		Expect(await(loader, loader.Load("abc"))).Should(Equal(3))
		Expect(loader.logger.LoadCalls()).Should(Equal([][]string{{"abc"}, {"abc"}}))
	})

	It("keeps failed keys in cache when configured to", func() {
		loader := newFlakyLoader(1, dataloader.Config[string, int]{
			CacheFailures: true,
		})

		_, err := await(loader, loader.Load("abc"))
		Expect(err).Should(HaveOccurred())

		_, err = await(loader, loader.Load("abc"))
		Expect(errors.Is(err, loader.fetchErr)).Should(BeTrue())
		Expect(loader.logger.LoadCalls()).Should(HaveLen(1))
	})

	It("fails loudly when batch function returns misaligned values", func() {
		loader, err := dataloader.New(dataloader.Config[string, string]{
			BatchFunc: func(ctx context.Context, keys []string) ([]string, error) {
				return keys[:len(keys)-1], nil
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		f1 := loader.Load("1")
		f2 := loader.Load("2")
		loader.Dispatch(context.Background())

		for _, f := range []future.Future[string]{f1, f2} {
			_, err := future.BlockOn(context.Background(), f)
			var violation *dataloader.ContractViolation
			Expect(errors.As(err, &violation)).Should(BeTrue())
			Expect(violation.Requested).Should(Equal(2))
			Expect(violation.Returned).Should(Equal(1))
		}
	})

	It("fails the batch when batch function panics", func() {
		loader, err := dataloader.New(dataloader.Config[string, string]{
			BatchFunc: func(ctx context.Context, keys []string) ([]string, error) {
				panic("boom")
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		_, err = await(loader, loader.Load("1"))
		Expect(err).Should(MatchError(ContainSubstring("boom")))
	})

	It("fails only the batch that errored when split by max batch size", func() {
		loader := newFlakyLoader(1, dataloader.Config[string, int]{
			MaxBatchSize: 1,
		})

		fa := loader.Load("a")
		fbb := loader.Load("bb")
		loader.Dispatch(context.Background())

		_, err := future.BlockOn(context.Background(), fa)
		Expect(err).Should(HaveOccurred())
		Expect(future.BlockOn(context.Background(), fbb)).Should(Equal(2))
	})
})

var _ = Describe("Loader: Accepts options", func() {
	It("may disable caching", func() {
		loader := newIdentityLoader(dataloader.Config[string, string]{
			CacheMap: dataloader.NoCache[string, string](),
		})

		f := loader.LoadMany("A", "A")
		Expect(await(loader, f)).Should(Equal([]string{"A", "A"}))

		f = loader.LoadMany("A", "B")
		Expect(await(loader, f)).Should(Equal([]string{"A", "B"}))

		Expect(loader.LoadCalls()).Should(Equal([][]string{{"A"}, {"A", "B"}}))
	})

	It("accepts a custom cache map implementation", func() {
		aCustomMap := newSimpleMap()
		loader := newIdentityLoader(dataloader.Config[string, string]{
			CacheMap: aCustomMap,
		})

		f := loader.LoadMany("a", "b")
		Expect(await(loader, f)).Should(Equal([]string{"a", "b"}))
		Expect(aCustomMap.Keys()).Should(Equal([]string{"a", "b"}))

		f = loader.LoadMany("c", "a")
		Expect(await(loader, f)).Should(Equal([]string{"c", "a"}))
		Expect(aCustomMap.Keys()).Should(Equal([]string{"a", "b", "c"}))

		loader.Clear("b")
		Expect(aCustomMap.Keys()).Should(Equal([]string{"a", "c"}))

		loader.ClearAll()
		Expect(aCustomMap.Keys()).Should(BeEmpty())

		Expect(loader.LoadCalls()).Should(Equal([][]string{{"a", "b"}, {"c"}}))
	})

	It("dispatches automatically after wait", func() {
		loader := newIdentityLoader(dataloader.Config[string, string]{
			Wait: 5 * time.Millisecond,
		})

		f1 := loader.Load("1")
		f2 := loader.Load("2")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(future.BlockOn(ctx, f1)).Should(Equal("1"))
		Expect(future.BlockOn(ctx, f2)).Should(Equal("2"))
		Expect(loader.LoadCalls()).Should(Equal([][]string{{"1", "2"}}))
	})

	It("does not dispatch twice when dispatched before the wait elapses", func() {
		loader := newIdentityLoader(dataloader.Config[string, string]{
			Wait: 20 * time.Millisecond,
		})

		Expect(await(loader, loader.Load("1"))).Should(Equal("1"))
		Consistently(loader.LoadCalls, 50*time.Millisecond).Should(HaveLen(1))
	})
})
