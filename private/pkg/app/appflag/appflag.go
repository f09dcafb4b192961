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

// Package appflag binds the global flags of a command line application and
// builds its logger and tracer from them.
package appflag

import (
	"context"

	"github.com/agtrack/ag/private/pkg/app"
	"github.com/agtrack/ag/private/pkg/app/applog"
	"github.com/agtrack/ag/private/pkg/tracing"
	"github.com/spf13/pflag"
)

// Container is a container with a logger and a tracer.
type Container interface {
	applog.Container

	// Tracer is the tracer to create spans with. It is tracing.NopTracer
	// unless debug output is enabled.
	Tracer() tracing.Tracer
}

// Builder builds run functions for sub-commands.
type Builder interface {
	// BindRoot binds the global flags to the root command.
	BindRoot(flagSet *pflag.FlagSet)
	// NewRunFunc returns a run function that builds the Container from the
	// bound flags and calls f.
	NewRunFunc(f func(context.Context, Container) error) func(context.Context, app.Container) error
}

// NewBuilder returns a new Builder.
func NewBuilder(appName string) Builder {
	return newBuilder(appName)
}
