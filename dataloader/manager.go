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
	"sync"
)

// Dispatcher is implemented by every Loader regardless of its key and value types.
type Dispatcher interface {
	Dispatch(ctx context.Context)
	Pending() bool
}

var _ Dispatcher = (*Loader[string, int])(nil)

// Factory creates a Loader.
type Factory[K comparable, V any] interface {
	Create() (*Loader[K, V], error)
}

// The FactoryFunc type is an adapter to allow the use of ordinary functions as Factory. If f is a
// function with the appropriate signature, FactoryFunc(f) is a Factory that calls f.
type FactoryFunc[K comparable, V any] func() (*Loader[K, V], error)

// Create implements Factory by simply calling f()
func (f FactoryFunc[K, V]) Create() (*Loader[K, V], error) {
	return f()
}

// RegisterInfo provides necessary information to register a Loader.
type RegisterInfo[K comparable, V any] struct {
	// A string key that uniquely identifies the Loader registered in a Manager by this Info.
	Key string

	// Factory that creates Loader
	Factory Factory[K, V]
}

// Manager provides a way to register and dispatch a collection of Loaders. A Manager is usually
// created for each request so that cached values never leak across requests.
type Manager struct {
	mutex sync.Mutex

	// Registered loaders in the order of registration
	keys    []string
	loaders map[string]Dispatcher

	// Mutex that prevents multiple DispatchAll's to be executed concurrently.
	dispatchMutex sync.Mutex
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		loaders: map[string]Dispatcher{},
	}
}

// GetOrCreate creates and adds a new Loader to manager if one does not already exist with the key
// given in info.Key.
func GetOrCreate[K comparable, V any](manager *Manager, info *RegisterInfo[K, V]) (*Loader[K, V], error) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if registered, found := manager.loaders[info.Key]; found {
		loader, ok := registered.(*Loader[K, V])
		if !ok {
			return nil, fmt.Errorf(`Loader registered for "%s" is a %T instead of %T`,
				info.Key, registered, loader)
		}
		return loader, nil
	}

	if info.Factory == nil {
		return nil, fmt.Errorf(`Loader factory for "%s" is not provided`, info.Key)
	}

	loader, err := info.Factory.Create()
	if err != nil {
		return nil, err
	}

	// Reject nil loader.
	if loader == nil {
		return nil, fmt.Errorf(`Loader factory for "%s" returns a nil instance which is not `+
			`valid for registration`, info.Key)
	}

	manager.keys = append(manager.keys, info.Key)
	manager.loaders[info.Key] = loader
	return loader, nil
}

// snapshot returns registered loaders in the order of registration.
func (manager *Manager) snapshot() []Dispatcher {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	loaders := make([]Dispatcher, len(manager.keys))
	for i, key := range manager.keys {
		loaders[i] = manager.loaders[key]
	}
	return loaders
}

// HasPending returns true if any registered Loader has keys waiting for dispatch.
func (manager *Manager) HasPending() bool {
	for _, loader := range manager.snapshot() {
		if loader.Pending() {
			return true
		}
	}
	return false
}

// DispatchAll dispatches all registered Loaders. Dispatching a Loader may request data from
// another Loader, so it keeps dispatching until no Loader is pending.
func (manager *Manager) DispatchAll(ctx context.Context) {
	mutex := &manager.dispatchMutex
	mutex.Lock()
	defer mutex.Unlock()

	for {
		dispatched := false
		for _, loader := range manager.snapshot() {
			if loader.Pending() {
				loader.Dispatch(ctx)
				dispatched = true
			}
		}
		if !dispatched {
			return
		}
	}
}

type managerContextKey struct{}

// NewContext returns a copy of ctx that carries manager.
func NewContext(ctx context.Context, manager *Manager) context.Context {
	return context.WithValue(ctx, managerContextKey{}, manager)
}

// FromContext returns the Manager stored in ctx or nil if there's none.
func FromContext(ctx context.Context) *Manager {
	manager, _ := ctx.Value(managerContextKey{}).(*Manager)
	return manager
}
