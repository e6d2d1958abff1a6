// Copyright 2025 Best Day Labs.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracing instruments verification runs with spans.
//
// The default build carries a no-op tracer and adds no overhead and no
// OpenTelemetry dependency. Building with -tags=otel and configuring the
// usual OTEL_* environment variables exports spans over OTLP, which is
// useful when the verifier runs inside a larger evidence-processing
// service.
package tracing

import "context"

// Span is one named, timed operation in a trace. End must be called when
// the operation completes.
type Span interface {
	// SetAttribute attaches key-value metadata to the span.
	SetAttribute(key string, value interface{})
	// End marks the span finished.
	End()
}

// Tracer starts spans. The no-op implementation keeps call sites uniform
// when tracing is not configured.
type Tracer interface {
	// Start begins a span with the given name. The returned context carries
	// the span for child operations.
	Start(ctx context.Context, name string) (context.Context, Span)
}

var globalTracer Tracer = NoopTracer{}

// SetTracer installs the global tracer. Passing nil restores the no-op
// tracer.
func SetTracer(t Tracer) {
	if t == nil {
		globalTracer = NoopTracer{}
		return
	}
	globalTracer = t
}

// GetTracer returns the global tracer, never nil.
func GetTracer() Tracer {
	return globalTracer
}

// Start begins a span using the global tracer.
func Start(ctx context.Context, name string) (context.Context, Span) {
	return globalTracer.Start(ctx, name)
}

// Enabled reports whether a real tracer is installed. Always false in the
// default build.
func Enabled() bool {
	_, noop := globalTracer.(NoopTracer)
	return !noop
}

// Run wraps fn in a span with the given name and attributes and returns
// fn's error. When no real tracer is installed, fn runs directly.
func Run(ctx context.Context, name string, attrs map[string]interface{}, fn func(context.Context) error) error {
	if !Enabled() {
		return fn(ctx)
	}
	ctx, span := globalTracer.Start(ctx, name)
	defer span.End()
	for k, v := range attrs {
		span.SetAttribute(k, v)
	}
	return fn(ctx)
}
