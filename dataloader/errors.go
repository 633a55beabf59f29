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
	"errors"
	"fmt"
)

// ErrMissingBatchFunc is returned by New when Config.BatchFunc is not given.
var ErrMissingBatchFunc = errors.New("batch function is required to construct a Loader")

// BatchFetchError fails every key of a batch whose BatchFunc returned an error.
type BatchFetchError struct {
	// Keys requested by the failed batch in the order they were given to BatchFunc
	Keys []interface{}

	// Err is the error returned from BatchFunc.
	Err error
}

// Error implements error.
func (e *BatchFetchError) Error() string {
	return fmt.Sprintf("batch fetch for %d key(s) failed: %v", len(e.Keys), e.Err)
}

// Unwrap returns the underlying cause.
func (e *BatchFetchError) Unwrap() error {
	return e.Err
}

// ContractViolation fails every key of a batch whose BatchFunc returned a number of values that
// differs from the number of requested keys. Values are never realigned with keys in such case.
type ContractViolation struct {
	Requested int
	Returned  int
}

// Error implements error.
func (e *ContractViolation) Error() string {
	return fmt.Sprintf("batch function must return one value per key: requested %d key(s) but "+
		"got %d value(s)", e.Requested, e.Returned)
}
