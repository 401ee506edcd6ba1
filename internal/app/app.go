package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/vk/flowgrid/internal/access"
	"github.com/vk/flowgrid/internal/blocktype"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/loader"
	"github.com/vk/flowgrid/internal/resolver"
	"github.com/vk/flowgrid/internal/variables"
	"github.com/vk/flowgrid/internal/workflow"
)

// App encapsulates the harness's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	wf       *workflow.Workflow
	vars     *variables.Store
	types    *blocktype.Registry
	resolver *resolver.Resolver
}

// NewApp is the constructor for the harness. It returns a fully initialized
// App instance, including its own isolated logger, with the workflow loaded,
// its graph validated, and the resolver wired against the accessibility map.
func NewApp(outW io.Writer, cfg *Config, fsys afero.Fs) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	wf, vars, err := loader.Load(ctx, fsys, cfg.WorkflowPath)
	if err != nil {
		// A failure to load the workflow is a fatal startup error.
		panic(fmt.Errorf("failed to load workflow: %w", err))
	}

	if err := access.ValidateGraph(wf); err != nil {
		panic(fmt.Errorf("invalid workflow graph: %w", err))
	}
	logger.Debug("Workflow graph validation passed.")

	types := blocktype.Defaults()
	if err := types.Validate(); err != nil {
		// A mismatch inside the built-in palette is a programmer error.
		panic(err)
	}

	m := access.Build(wf)
	logger.Debug("Accessibility map built.", "blocks", len(m))

	return &App{
		outW:     outW,
		logger:   logger,
		wf:       wf,
		vars:     vars,
		types:    types,
		resolver: resolver.New(wf, types, vars, m),
	}
}

// Workflow returns the loaded workflow. This is primarily for testing.
func (a *App) Workflow() *workflow.Workflow {
	return a.wf
}

// Resolver returns the wired resolver. This is primarily for testing.
func (a *App) Resolver() *resolver.Resolver {
	return a.resolver
}
