// Package diag provides process introspection and diagnostic capture services.
package diag

import (
	"log/slog"

	"github.com/hostlens/hostlens-agent/internal/services/filesystem"
	"github.com/hostlens/hostlens-agent/internal/tracing"
)

// NewServices creates a fully wired diagnostics service.
func NewServices(logger *slog.Logger, tracer tracing.Tracer, fs *filesystem.Service) *Service {
	tree := NewTreeResolver()
	registry := NewRegistry(logger, tree)
	builder := NewSnapshotBuilder(tree)
	dump := NewDumpCapture(logger, fs)
	return NewService(logger, tracer, registry, builder, dump, fs)
}
