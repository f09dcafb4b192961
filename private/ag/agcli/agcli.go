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

// Package agcli holds what the commands of the ag CLI share.
package agcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agtrack/ag/private/ag/agctl"
	"github.com/agtrack/ag/private/agpkg/agconfig"
	"github.com/agtrack/ag/private/agpkg/agedit"
	"github.com/agtrack/ag/private/pkg/app"
	"github.com/agtrack/ag/private/pkg/app/appflag"
	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/osext"
	"github.com/agtrack/ag/private/pkg/syserror"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// Version is the version of ag.
	Version = "0.4.0-dev"

	// ForceFlagName is the name of the flag that skips confirmation.
	ForceFlagName = "force"

	dirFlagName      = "dir"
	dirFlagShortName = "C"
)

// ErrNotATTY is returned when an interactive command runs without a
// terminal.
var ErrNotATTY = errors.New("reading input from a non-TTY device is not supported")

// GlobalFlags are the flags of the root command.
type GlobalFlags struct {
	// Dir is the directory the repository is discovered from.
	Dir string
}

// NewGlobalFlags returns new GlobalFlags.
func NewGlobalFlags() *GlobalFlags {
	return &GlobalFlags{}
}

// BindRoot binds the flags to the root command.
func (g *GlobalFlags) BindRoot(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(
		&g.Dir,
		dirFlagName,
		dirFlagShortName,
		"",
		"Run as if ag was started in this directory",
	)
}

// Run discovers the repository and calls f with a controller for it.
//
// The commit message hook is installed first if it is missing.
func Run(
	ctx context.Context,
	container appflag.Container,
	globalFlags *GlobalFlags,
	f func(context.Context, agctl.Controller, *agconfig.Config) error,
) (retErr error) {
	dirPath := globalFlags.Dir
	if dirPath == "" {
		var err error
		dirPath, err = osext.Getwd()
		if err != nil {
			return err
		}
	}
	runner := command.NewRunner()
	env := app.EnvironMap(container)
	repository, err := git.OpenRepository(
		ctx,
		runner,
		env,
		dirPath,
		git.OpenRepositoryWithLogger(container.Logger()),
	)
	if err != nil {
		if errors.Is(err, git.ErrNotRepository) {
			return fmt.Errorf("%s: %w", dirPath, err)
		}
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, repository.Close())
	}()
	config, err := agconfig.ReadConfig(ctx, repository, env)
	if err != nil {
		return err
	}
	controller := agctl.NewController(
		container.Logger(),
		repository,
		config,
		agedit.NewEditor(
			container.Logger(),
			runner,
			config.Editor,
			env,
			container.Stdin(),
			container.Stdout(),
			container.Stderr(),
		),
		agctl.ControllerWithTracer(container.Tracer()),
	)
	if _, err := controller.EnsureHook(ctx); err != nil {
		container.Logger().Warn("could not install git hook", zap.Error(err))
	}
	return f(ctx, controller, config)
}

// Confirm asks the user a yes or no question. Anything but "y" or "yes" is
// no.
//
// ErrNotATTY is returned if stdin is not a terminal.
func Confirm(container app.Container, question string) (bool, error) {
	if !app.IsTerminal(container.Stdin()) {
		return false, ErrNotATTY
	}
	if _, err := fmt.Fprintf(container.Stderr(), "%s [y/N] ", question); err != nil {
		return false, syserror.Wrap(err)
	}
	answer, err := app.ReadLine(container)
	if err != nil {
		return false, syserror.Wrap(err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
