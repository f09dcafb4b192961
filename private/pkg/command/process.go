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

package command

import (
	"context"
	"errors"
	"os/exec"

	"go.uber.org/multierr"
)

type process struct {
	cmd        *exec.Cmd
	terminated bool
}

func newProcess(cmd *exec.Cmd) *process {
	return &process{
		cmd: cmd,
	}
}

func (p *process) start() error {
	return p.cmd.Start()
}

func (p *process) Wait(ctx context.Context) error {
	// There will not be a second call to wait.
	if p.terminated {
		return errors.New("process already terminated")
	}
	p.terminated = true
	wait := make(chan error, 1)
	go func() {
		wait <- p.cmd.Wait()
	}()
	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		// Timed out. Send a kill signal and release our handle to it.
		return multierr.Combine(
			ctx.Err(),
			p.cmd.Process.Kill(),
			p.cmd.Process.Release(),
		)
	}
}
