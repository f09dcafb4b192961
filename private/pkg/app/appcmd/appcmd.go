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

// Package appcmd contains helper functionality for applications using commands.
package appcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agtrack/ag/private/pkg/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Command is a command.
type Command struct {
	// Use is the one-line usage message.
	// Required.
	Use string
	// Aliases are aliases that can be used instead of the first word in Use.
	Aliases []string
	// Short is the short message shown in the 'help' output.
	// Required if Long is set.
	Short string
	// Long is the long message shown in the 'help <this-command>' output.
	// The Short field will be prepended to the Long field with a newline.
	// Must be unset if short is unset.
	Long string
	// Args are the expected arguments.
	Args cobra.PositionalArgs
	// BindFlags allows binding of flags on build.
	BindFlags func(*pflag.FlagSet)
	// BindPersistentFlags allows binding of flags inherited by sub-commands.
	BindPersistentFlags func(*pflag.FlagSet)
	// Run is the command to run.
	// Required if there are no sub-commands.
	// Must be unset if there are sub-commands.
	Run func(context.Context, app.Container) error
	// SubCommands are the sub-commands. Optional.
	// Must be unset if there is a run function.
	SubCommands []*Command
	// Hidden hides the command from help output.
	Hidden bool
}

// NewInvalidArgumentError creates a new invalidArgumentError, indicating that
// the error was caused by argument validation. This causes us to print the usage
// help text for the command that it is returned from.
func NewInvalidArgumentError(message string) error {
	return newInvalidArgumentError(errors.New(message))
}

// NewInvalidArgumentErrorf creates a new InvalidArgumentError, indicating that
// the error was caused by argument validation. This causes us to print the usage
// help text for the command that it is returned from.
func NewInvalidArgumentErrorf(format string, args ...interface{}) error {
	return newInvalidArgumentError(fmt.Errorf(format, args...))
}

// Main runs the application using the OS runtime and calling os.Exit on the return value of Run.
func Main(ctx context.Context, command *Command, version string) {
	app.Main(ctx, newRunFunc(command, version))
}

// Run runs the application using the container.
func Run(ctx context.Context, container app.Container, command *Command, version string) error {
	return app.Run(ctx, container, newRunFunc(command, version))
}

// BindMultiple is a convenience function for binding multiple flag functions.
func BindMultiple(bindFuncs ...func(*pflag.FlagSet)) func(*pflag.FlagSet) {
	return func(flagSet *pflag.FlagSet) {
		for _, bindFunc := range bindFuncs {
			bindFunc(flagSet)
		}
	}
}

func newRunFunc(command *Command, version string) func(context.Context, app.Container) error {
	return func(ctx context.Context, container app.Container) error {
		return run(ctx, container, command, version)
	}
}

func run(
	ctx context.Context,
	container app.Container,
	command *Command,
	version string,
) error {
	var runErr error
	cobraCommand, err := commandToCobra(ctx, container, command, &runErr)
	if err != nil {
		return err
	}
	cobraCommand.SetVersionTemplate("{{.Version}}\n")
	cobraCommand.Version = version
	cobraCommand.CompletionOptions.DisableDefaultCmd = true
	cobraCommand.SetArgs(app.Args(container)[1:])
	cobraCommand.SetOut(container.Stdout())
	cobraCommand.SetErr(container.Stderr())
	// Errors are printed once by app.Run.
	cobraCommand.SilenceErrors = true
	cobraCommand.SilenceUsage = true
	if err := cobraCommand.Execute(); err != nil {
		// Errors from cobra itself are argument and flag parsing errors.
		return app.WrapError(1, err)
	}
	return runErr
}

func commandToCobra(
	ctx context.Context,
	container app.Container,
	command *Command,
	runErrAddr *error,
) (*cobra.Command, error) {
	if err := commandValidate(command); err != nil {
		return nil, err
	}
	cobraCommand := &cobra.Command{
		Use:     command.Use,
		Aliases: command.Aliases,
		Args:    command.Args,
		Short:   strings.TrimSpace(command.Short),
		Hidden:  command.Hidden,
	}
	if command.Long != "" {
		cobraCommand.Long = cobraCommand.Short + "\n\n" + strings.TrimSpace(command.Long)
	}
	if command.BindFlags != nil {
		command.BindFlags(cobraCommand.Flags())
	}
	if command.BindPersistentFlags != nil {
		command.BindPersistentFlags(cobraCommand.PersistentFlags())
	}
	if command.Run != nil {
		cobraCommand.Run = func(cmd *cobra.Command, args []string) {
			runErr := command.Run(ctx, app.NewContainerForArgs(container, args...))
			var invalidArgumentError *invalidArgumentError
			if errors.As(runErr, &invalidArgumentError) {
				// Print usage for failed commands on invalid arguments.
				_, _ = fmt.Fprintln(container.Stderr(), cmd.UsageString())
			}
			*runErrAddr = runErr
		}
	}
	for _, subCommand := range command.SubCommands {
		subCobraCommand, err := commandToCobra(ctx, container, subCommand, runErrAddr)
		if err != nil {
			return nil, err
		}
		cobraCommand.AddCommand(subCobraCommand)
	}
	return cobraCommand, nil
}

func commandValidate(command *Command) error {
	if command.Use == "" {
		return errors.New("must set Command.Use")
	}
	if command.Long != "" && command.Short == "" {
		return errors.New("must set Command.Short if Command.Long is set")
	}
	if command.Run != nil && len(command.SubCommands) > 0 {
		return errors.New("cannot set both Command.Run and Command.SubCommands")
	}
	if command.Run == nil && len(command.SubCommands) == 0 {
		return errors.New("must set one of Command.Run and Command.SubCommands")
	}
	return nil
}

type invalidArgumentError struct {
	err error
}

func newInvalidArgumentError(err error) *invalidArgumentError {
	return &invalidArgumentError{
		err: err,
	}
}

func (e *invalidArgumentError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *invalidArgumentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
