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

package categorynew

import (
	"context"

	"github.com/agtrack/ag/private/ag/agcli"
	"github.com/agtrack/ag/private/ag/agctl"
	"github.com/agtrack/ag/private/agpkg/agconfig"
	"github.com/agtrack/ag/private/pkg/app/appcmd"
	"github.com/agtrack/ag/private/pkg/app/appflag"
	"github.com/agtrack/ag/private/pkg/text"
	"github.com/spf13/cobra"
)

// NewCommand returns a new Command.
func NewCommand(
	name string,
	builder appflag.Builder,
	globalFlags *agcli.GlobalFlags,
) *appcmd.Command {
	return &appcmd.Command{
		Use:   name + " [parent]",
		Short: "Create a new category.",
		Long:  `The category is written in your editor. If a parent is given, the category is created under it.`,
		Args:  cobra.MaximumNArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appflag.Container) error {
				return run(ctx, container, globalFlags)
			},
		),
	}
}

func run(
	ctx context.Context,
	container appflag.Container,
	globalFlags *agcli.GlobalFlags,
) error {
	var parentRef string
	if container.NumArgs() > 0 {
		parentRef = container.Arg(0)
	}
	return agcli.Run(ctx, container, globalFlags, func(ctx context.Context, controller agctl.Controller, _ *agconfig.Config) error {
		category, err := controller.NewCategory(ctx, parentRef)
		if err != nil {
			return err
		}
		printer := text.NewPrinter(container.Stdout())
		printer.Pf("Created category [%s]: %s", category.ID(), category.Summary())
		return printer.Err()
	})
}
