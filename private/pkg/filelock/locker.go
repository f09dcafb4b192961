// Copyright 2020-2024 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filelock

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

func lock(ctx context.Context, path string, options ...LockOption) (Unlocker, error) {
	lockOptions := newLockOptions()
	for _, option := range options {
		option(lockOptions)
	}
	var cancel context.CancelFunc
	lockCtx := ctx
	if lockOptions.timeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, lockOptions.timeout)
		defer cancel()
	}
	fileLock := flock.New(path)
	locked, err := fileLock.TryLockContext(lockCtx, lockOptions.retryDelay)
	if err != nil {
		// The parent context being done is not a timeout.
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, lockTimeoutError(path)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, lockTimeoutError(path)
	}
	return newUnlocker(fileLock), nil
}

type unlocker struct {
	fileLock *flock.Flock
}

func newUnlocker(fileLock *flock.Flock) *unlocker {
	return &unlocker{
		fileLock: fileLock,
	}
}

func (u *unlocker) Unlock() error {
	return u.fileLock.Unlock()
}
