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

package locks

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Manager grants and releases file locks. Each locked path owns exactly
// one handle in the Table; re-locking and unlocking an unknown path are
// both successful no-ops.
type Manager struct {
	table     *Table
	strategy  Strategy
	Verbosity int
}

// NewManager creates a Manager over an explicitly owned table.
func NewManager(table *Table, strategy Strategy) *Manager {
	if table == nil {
		table = NewTable()
	}
	return &Manager{table: table, strategy: strategy}
}

// NewDefaultManager creates a Manager with a fresh table and the platform
// strategy on the real filesystem.
func NewDefaultManager() *Manager {
	return NewManager(NewTable(), DefaultStrategy(afero.NewOsFs()))
}

// Lock opens path with the strategy's sharing mode and records the handle.
// It returns true when path is locked after the call, including when it
// already was.
func (m *Manager) Lock(path string) (bool, error) {
	key, err := normalize(path)
	if err != nil {
		return false, &IOError{Op: "lock", Path: path, Err: err}
	}

	created, err := m.table.Acquire(key, m.strategy.Acquire)
	if err != nil {
		return false, &IOError{Op: "lock", Path: key, Err: err}
	}
	if created && m.Verbosity >= 2 {
		log.Printf("DEBUG: locked %s (strategy=%s, mandatory=%v)", key, m.strategy.Name(), m.strategy.Mandatory())
	}
	return true, nil
}

// Unlock closes the handle for path, releasing the OS lock, before it
// returns. Unlocking a path that is not locked succeeds.
func (m *Manager) Unlock(path string) (bool, error) {
	key, err := normalize(path)
	if err != nil {
		return false, &IOError{Op: "unlock", Path: path, Err: err}
	}

	found, err := m.table.Release(key)
	if err != nil {
		return false, &IOError{Op: "unlock", Path: key, Err: err}
	}
	if found && m.Verbosity >= 2 {
		log.Printf("DEBUG: unlocked %s", key)
	}
	return true, nil
}

func (m *Manager) IsLocked(path string) bool {
	key, err := normalize(path)
	if err != nil {
		return false
	}
	return m.table.Has(key)
}

func (m *Manager) Paths() []string {
	return m.table.Paths()
}

// Mandatory reports whether locks taken by this manager are enforced by
// the OS against non-cooperating writers.
func (m *Manager) Mandatory() bool {
	return m.strategy.Mandatory()
}

func (m *Manager) StrategyName() string {
	return m.strategy.Name()
}

// Close releases every lock held by the manager.
func (m *Manager) Close() error {
	return m.table.ReleaseAll()
}

func normalize(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(path)
}
