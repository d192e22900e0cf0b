package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one classify invocation.
	FieldRunID = "run_id"
	// FieldSampleID is the opaque sample identifier echoed from the caller.
	FieldSampleID = "sample_id"
	// FieldClusterID is the opaque cluster identifier echoed from the caller.
	FieldClusterID = "cluster_id"
	// FieldSource names the classifier a record concerns.
	FieldSource = "source"
	// FieldPath is the file a record concerns.
	FieldPath = "path"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType tags decision logs.
	FieldDecisionType = "decision_type"
)

type contextKey int

const (
	runIDKey contextKey = iota
	sampleIDKey
	clusterIDKey
)

// WithRun attaches run identifiers to ctx so downstream loggers pick them up.
func WithRun(ctx context.Context, runID, sampleID, clusterID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if runID = strings.TrimSpace(runID); runID != "" {
		ctx = context.WithValue(ctx, runIDKey, runID)
	}
	if sampleID = strings.TrimSpace(sampleID); sampleID != "" {
		ctx = context.WithValue(ctx, sampleIDKey, sampleID)
	}
	if clusterID = strings.TrimSpace(clusterID); clusterID != "" {
		ctx = context.WithValue(ctx, clusterIDKey, clusterID)
	}
	return ctx
}

// RunIDFromContext returns the run identifier stored by WithRun.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if sample, ok := ctx.Value(sampleIDKey).(string); ok {
		fields = append(fields, slog.String(FieldSampleID, sample))
	}
	if cluster, ok := ctx.Value(clusterIDKey).(string); ok {
		fields = append(fields, slog.String(FieldClusterID, cluster))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
