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

// Package filelock provides cross-process advisory file locks.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultLockTimeout is the default lock timeout.
	DefaultLockTimeout = 10 * time.Second
	// DefaultLockRetryDelay is the default lock retry delay.
	DefaultLockRetryDelay = 50 * time.Millisecond
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Unlocker unlocks a file lock.
type Unlocker interface {
	Unlock() error
}

// Lock locks the file at path, creating it if needed.
//
// It retries until the lock is acquired, the timeout passes or ctx is done.
func Lock(ctx context.Context, path string, options ...LockOption) (Unlocker, error) {
	return lock(ctx, path, options...)
}

// LockOption is an option for Lock.
type LockOption func(*lockOptions)

// LockWithTimeout returns a new LockOption that sets the lock timeout.
//
// Lock returns ErrLockTimeout if the lock is still held by another process
// after the timeout.
func LockWithTimeout(timeout time.Duration) LockOption {
	return func(lockOptions *lockOptions) {
		lockOptions.timeout = timeout
	}
}

// LockWithRetryDelay returns a new LockOption that sets the delay between
// attempts to take the lock.
func LockWithRetryDelay(retryDelay time.Duration) LockOption {
	return func(lockOptions *lockOptions) {
		lockOptions.retryDelay = retryDelay
	}
}

type lockOptions struct {
	timeout    time.Duration
	retryDelay time.Duration
}

func newLockOptions() *lockOptions {
	return &lockOptions{
		timeout:    DefaultLockTimeout,
		retryDelay: DefaultLockRetryDelay,
	}
}

func lockTimeoutError(path string) error {
	return fmt.Errorf("%s: %w", path, ErrLockTimeout)
}
