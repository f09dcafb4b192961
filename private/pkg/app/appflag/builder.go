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

package appflag

import (
	"context"

	"github.com/agtrack/ag/private/pkg/app"
	"github.com/agtrack/ag/private/pkg/app/applog"
	"github.com/agtrack/ag/private/pkg/interrupt"
	"github.com/agtrack/ag/private/pkg/observabilityzap"
	"github.com/agtrack/ag/private/pkg/syserror"
	"github.com/agtrack/ag/private/pkg/tracing"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// internalErrorExitCode is the exit code of errors that indicate a bug.
const internalErrorExitCode = 2

type builder struct {
	appName string

	logLevel  string
	logFormat string
	debug     bool
}

func newBuilder(appName string) *builder {
	return &builder{
		appName: appName,
	}
}

func (b *builder) BindRoot(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&b.logLevel, "log-level", "warn", "The log level [debug,info,warn,error]")
	flagSet.StringVar(&b.logFormat, "log-format", "color", "The log format [text,color,json]")
	flagSet.BoolVar(&b.debug, "debug", false, "Turn on debug logging and log every traced operation")
}

func (b *builder) NewRunFunc(
	f func(context.Context, Container) error,
) func(context.Context, app.Container) error {
	return func(ctx context.Context, appContainer app.Container) error {
		return b.run(ctx, appContainer, f)
	}
}

func (b *builder) run(
	ctx context.Context,
	appContainer app.Container,
	f func(context.Context, Container) error,
) (retErr error) {
	logLevel := b.logLevel
	if b.debug {
		logLevel = "debug"
	}
	logger, err := applog.NewLogger(appContainer.Stderr(), logLevel, b.logFormat)
	if err != nil {
		return err
	}
	logger = logger.Named(b.appName)
	defer func() {
		// Sync fails on terminals on some platforms, nothing to do about it.
		_ = logger.Sync()
	}()
	tracer := tracing.NopTracer
	if b.debug {
		tracerProviderCloser := observabilityzap.Start(logger.Named("trace"))
		defer func() {
			retErr = multierr.Append(retErr, tracerProviderCloser.Close())
		}()
		tracer = tracing.NewTracerForProvider(tracerProviderCloser, b.appName)
	}
	ctx, cancel := interrupt.WithCancel(ctx)
	defer cancel()
	if err := f(ctx, newContainer(appContainer, logger, tracer)); err != nil {
		if syserror.Is(err) {
			return app.WrapError(internalErrorExitCode, err)
		}
		return err
	}
	return nil
}

type container struct {
	applog.Container

	tracer tracing.Tracer
}

func newContainer(appContainer app.Container, logger *zap.Logger, tracer tracing.Tracer) *container {
	return &container{
		Container: applog.NewContainer(appContainer, logger),
		tracer:    tracer,
	}
}

func (c *container) Tracer() tracing.Tracer {
	return c.tracer
}
