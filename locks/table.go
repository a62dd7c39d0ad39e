// Copyright 2025 Open PDF Studio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package locks keeps files open on behalf of the viewer so that other
// programs cannot modify them while a document is being edited.
package locks

import (
	"errors"
	"io"
	"sort"
	"sync"
)

// Handle is an open OS handle owned by a Table. Closing it releases
// whatever OS-level lock the handle carries.
type Handle interface {
	io.Closer
}

// OpenFunc opens the handle for a path that is not yet in the table.
type OpenFunc func(path string) (Handle, error)

// Table maps a path to the single handle this process holds for it.
// All methods are safe for concurrent use. The table's mutex covers the
// whole check-then-open-then-insert sequence and the remove-then-close
// sequence, so a concurrent Acquire/Release on one path always leaves
// either exactly one open handle or none.
type Table struct {
	mu      sync.Mutex
	entries map[string]Handle
}

func NewTable() *Table {
	return &Table{entries: make(map[string]Handle)}
}

// Acquire inserts a handle for path using open unless one already exists.
// created reports whether open was called and its handle stored.
func (t *Table) Acquire(path string, open OpenFunc) (created bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[path]; ok {
		return false, nil
	}
	h, err := open(path)
	if err != nil {
		return false, err
	}
	t.entries[path] = h
	return true, nil
}

// Release removes the entry for path and closes its handle before
// returning. found is false when there was nothing to release. The entry
// is dropped even if Close fails.
func (t *Table) Release(path string) (found bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.entries[path]
	if !ok {
		return false, nil
	}
	delete(t.entries, path)
	return true, h.Close()
}

// ReleaseAll closes every handle and empties the table.
func (t *Table) ReleaseAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for path, h := range t.entries {
		if err := h.Close(); err != nil {
			errs = append(errs, &IOError{Op: "unlock", Path: path, Err: err})
		}
		delete(t.entries, path)
	}
	return errors.Join(errs...)
}

func (t *Table) Has(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[path]
	return ok
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Paths returns the locked paths in sorted order.
func (t *Table) Paths() []string {
	t.mu.Lock()
	paths := make([]string, 0, len(t.entries))
	for p := range t.entries {
		paths = append(paths, p)
	}
	t.mu.Unlock()

	sort.Strings(paths)
	return paths
}
