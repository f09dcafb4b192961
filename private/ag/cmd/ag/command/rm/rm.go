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

package rm

import (
	"context"

	"github.com/agtrack/ag/private/ag/agcli"
	"github.com/agtrack/ag/private/ag/agctl"
	"github.com/agtrack/ag/private/agpkg/agconfig"
	"github.com/agtrack/ag/private/pkg/app/appcmd"
	"github.com/agtrack/ag/private/pkg/app/appflag"
	"github.com/agtrack/ag/private/pkg/text"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewCommand returns a new Command.
func NewCommand(
	name string,
	builder appflag.Builder,
	globalFlags *agcli.GlobalFlags,
) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <id>",
		Short: "Remove an issue or a category.",
		Long: `A category can only be removed once no issue and no other category refers to it.
You are asked for confirmation unless --force is given.`,
		Args: cobra.ExactArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appflag.Container) error {
				return run(ctx, container, globalFlags, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	Force bool
}

func newFlags() *flags {
	return &flags{}
}

func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.BoolVarP(
		&f.Force,
		agcli.ForceFlagName,
		"f",
		false,
		"Remove without asking for confirmation",
	)
}

func run(
	ctx context.Context,
	container appflag.Container,
	globalFlags *agcli.GlobalFlags,
	flags *flags,
) error {
	return agcli.Run(ctx, container, globalFlags, func(ctx context.Context, controller agctl.Controller, _ *agconfig.Config) error {
		record, removed, err := controller.Remove(
			ctx,
			container.Arg(0),
			func(oneline string) (bool, error) {
				if flags.Force {
					return true, nil
				}
				return agcli.Confirm(container, "Remove "+oneline+"?")
			},
		)
		if err != nil {
			return err
		}
		printer := text.NewPrinter(container.Stdout())
		if removed {
			printer.Pf("Removed %s [%s]: %s", record.Type(), record.ID(), record.Summary())
		} else {
			printer.Pf("Kept %s [%s]", record.Type(), record.ID())
		}
		return printer.Err()
	})
}
