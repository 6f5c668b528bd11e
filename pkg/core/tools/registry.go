// Package tools dispatches model-requested function calls to local executors.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// Executor runs one named tool. Execute returns the result object sent back
// to the model; an error is reported to the model as {"error": msg}.
type Executor interface {
	Name() string
	Definition() types.Tool
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Registry maps tool names to executors.
type Registry struct {
	byName map[string]Executor
	logger *slog.Logger
}

// NewRegistry builds a registry. Nil executors are skipped; a later executor
// with the same name replaces an earlier one.
func NewRegistry(logger *slog.Logger, executors ...Executor) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	registry := &Registry{byName: make(map[string]Executor, len(executors)), logger: logger}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		registry.byName[ex.Name()] = ex
	}
	return registry
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns every tool declaration ordered by name.
func (r *Registry) Definitions() []types.Tool {
	names := r.Names()
	out := make([]types.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name].Definition())
	}
	return out
}

// Dispatch runs call and always yields exactly one response keyed by the
// call's ID. Unknown tools and executor failures become error results.
func (r *Registry) Dispatch(ctx context.Context, call types.ToolCall) types.ToolResponse {
	resp := types.ToolResponse{ID: call.ID, Name: call.Name}
	if r == nil {
		resp.Result = map[string]any{"error": "unknown tool"}
		return resp
	}
	ex, ok := r.byName[strings.TrimSpace(call.Name)]
	if !ok {
		r.logger.Warn("unknown tool call", "tool", call.Name, "id", call.ID)
		resp.Result = map[string]any{"error": "unknown tool"}
		return resp
	}

	input := call.Args
	if input == nil {
		input = map[string]any{}
	}
	result, err := ex.Execute(ctx, input)
	if err != nil {
		r.logger.Warn("tool call failed", "tool", call.Name, "id", call.ID, "error", err)
		resp.Result = map[string]any{"error": err.Error()}
		return resp
	}
	if result == nil {
		result = map[string]any{}
	}
	resp.Result = result
	return resp
}

func (r *Registry) String() string {
	return fmt.Sprintf("tools.Registry%v", r.Names())
}
