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

package ag

import (
	"context"

	"github.com/agtrack/ag/private/ag/agcli"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/branchsync"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/categorylist"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/categorynew"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/categoryreparent"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/edit"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/history"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/hookpreparecommitmsg"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/issuenew"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/link"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/list"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/log"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/oneline"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/rm"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/search"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/show"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/start"
	"github.com/agtrack/ag/private/ag/cmd/ag/command/unlink"
	"github.com/agtrack/ag/private/pkg/app/appcmd"
	"github.com/agtrack/ag/private/pkg/app/appflag"
)

// Main is the main.
func Main(name string) {
	appcmd.Main(context.Background(), NewRootCommand(name), agcli.Version)
}

// NewRootCommand returns a new root command.
//
// This is public for use in testing.
func NewRootCommand(name string) *appcmd.Command {
	builder := appflag.NewBuilder(name)
	globalFlags := agcli.NewGlobalFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Track issues and categories in the git repository they belong to.",
		SubCommands: []*appcmd.Command{
			issuenew.NewCommand("new", builder, globalFlags),
			show.NewCommand("show", builder, globalFlags),
			edit.NewCommand("edit", builder, globalFlags),
			rm.NewCommand("rm", builder, globalFlags),
			link.NewCommand("link", builder, globalFlags),
			unlink.NewCommand("unlink", builder, globalFlags),
			list.NewCommand("list", builder, globalFlags),
			search.NewCommand("search", builder, globalFlags),
			log.NewCommand("log", builder, globalFlags),
			history.NewCommand("history", builder, globalFlags),
			oneline.NewCommand("oneline", builder, globalFlags),
			start.NewCommand("start", builder, globalFlags),
			branchsync.NewCommand("sync", builder, globalFlags),
			{
				Use:   "category",
				Short: "Work with categories.",
				SubCommands: []*appcmd.Command{
					categorynew.NewCommand("new", builder, globalFlags),
					categorylist.NewCommand("list", builder, globalFlags),
					categoryreparent.NewCommand("reparent", builder, globalFlags),
				},
			},
			{
				Use:    "hook",
				Short:  "Entry points for git hooks.",
				Hidden: true,
				SubCommands: []*appcmd.Command{
					hookpreparecommitmsg.NewCommand("prepare-commit-msg", builder, globalFlags),
				},
			},
		},
		BindPersistentFlags: appcmd.BindMultiple(builder.BindRoot, globalFlags.BindRoot),
	}
}
