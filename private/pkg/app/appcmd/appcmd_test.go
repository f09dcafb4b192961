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

package appcmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/agtrack/ag/private/pkg/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Parallel()
	var force bool
	var gotArgs []string
	command := &Command{
		Use: "ag",
		SubCommands: []*Command{
			{
				Use:   "rm <id>",
				Short: "Remove a record",
				Args:  cobra.ExactArgs(1),
				BindFlags: func(flagSet *pflag.FlagSet) {
					flagSet.BoolVar(&force, "force", false, "")
				},
				Run: func(_ context.Context, container app.Container) error {
					gotArgs = app.Args(container)
					return nil
				},
			},
			{
				Use:   "fail",
				Short: "Fail",
				Run: func(context.Context, app.Container) error {
					return app.NewError(2, "internal")
				},
			},
			{
				Use:   "invalid",
				Short: "Invalid",
				Run: func(context.Context, app.Container) error {
					return NewInvalidArgumentError("bad argument")
				},
			},
		},
	}
	run := func(args ...string) (int, string) {
		stderr := bytes.NewBuffer(nil)
		err := Run(
			context.Background(),
			app.NewContainer(nil, nil, nil, stderr, append([]string{"ag"}, args...)...),
			command,
			"0.1.0",
		)
		return app.GetExitCode(err), stderr.String()
	}

	exitCode, _ := run("rm", "--force", "ab1234")
	assert.Equal(t, 0, exitCode)
	assert.True(t, force)
	assert.Equal(t, []string{"ab1234"}, gotArgs)

	exitCode, stderr := run("fail")
	assert.Equal(t, 2, exitCode)
	assert.Equal(t, "internal\n", stderr)

	exitCode, stderr = run("invalid")
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "bad argument")

	exitCode, _ = run("rm")
	assert.Equal(t, 1, exitCode)
	exitCode, _ = run("nope")
	assert.Equal(t, 1, exitCode)
}

func TestCommandValidate(t *testing.T) {
	t.Parallel()
	assert.Error(t, commandValidate(&Command{}))
	assert.Error(t, commandValidate(&Command{Use: "ag"}))
	assert.Error(t, commandValidate(&Command{Use: "ag", Long: "long"}))
	require.NoError(t, commandValidate(&Command{Use: "ag", Run: func(context.Context, app.Container) error { return nil }}))

	var invalidArgumentError *invalidArgumentError
	assert.True(t, errors.As(NewInvalidArgumentErrorf("%d args", 2), &invalidArgumentError))
}
