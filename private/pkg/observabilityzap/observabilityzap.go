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

// Package observabilityzap exports OpenTelemetry spans as zap debug entries.
package observabilityzap

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// TracerProviderCloser is a tracer provider that flushes its spans on Close.
type TracerProviderCloser interface {
	oteltrace.TracerProvider
	io.Closer
}

// Start returns a new TracerProviderCloser that logs every ended span to
// logger at debug level.
//
// Spans are exported synchronously as they end, so nothing is lost when the
// process exits right after a command.
func Start(logger *zap.Logger) TracerProviderCloser {
	return newTracerProviderCloser(
		trace.NewTracerProvider(
			trace.WithSampler(trace.AlwaysSample()),
			trace.WithSpanProcessor(trace.NewSimpleSpanProcessor(newZapExporter(logger))),
		),
	)
}

type tracerProviderCloser struct {
	*trace.TracerProvider
}

func newTracerProviderCloser(tracerProvider *trace.TracerProvider) *tracerProviderCloser {
	return &tracerProviderCloser{
		TracerProvider: tracerProvider,
	}
}

func (t *tracerProviderCloser) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return t.TracerProvider.Shutdown(ctx)
}
