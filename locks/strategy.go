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
	"github.com/spf13/afero"
)

// Strategy opens a file using the strongest sharing mode the platform
// offers. Implementations never write to the file.
type Strategy interface {
	// Acquire opens path for reading and returns the handle that keeps
	// the lock alive.
	Acquire(path string) (Handle, error)
	// Mandatory reports whether the OS rejects writes from other
	// processes while the handle is open. When false the lock is only
	// respected by cooperating processes and is not a security boundary.
	Mandatory() bool
	Name() string
}

// DefaultStrategy returns the platform strategy: deny-write sharing on
// Windows, advisory flock(2) everywhere else. fs is used by strategies
// that open through afero; it may be ignored.
func DefaultStrategy(fs afero.Fs) Strategy {
	return newPlatformStrategy(fs)
}
