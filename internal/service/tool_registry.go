package service

import (
	"fmt"

	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
)

// ToolRegistry is the immutable catalog of MCP tools, each tagged with the
// minimum role required to see and invoke it. Construction validates every
// entry; a malformed catalog rejects startup instead of surfacing per-request.
type ToolRegistry struct {
	tools []domain.ToolDefinition
	index map[string]int
}

func NewToolRegistry(tools []domain.ToolDefinition) (*ToolRegistry, error) {
	index := make(map[string]int, len(tools))
	for i, tool := range tools {
		if tool.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tool at position %d has no name", i)}
		}
		if tool.Description == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tool %q has no description", tool.Name)}
		}
		if len(tool.InputSchema) == 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tool %q has no input schema", tool.Name)}
		}
		if !tool.RequiredRole.Valid() {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tool %q has an unknown required role", tool.Name)}
		}
		if _, dup := index[tool.Name]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate tool name %q", tool.Name)}
		}
		index[tool.Name] = i
	}
	registered := make([]domain.ToolDefinition, len(tools))
	copy(registered, tools)
	return &ToolRegistry{tools: registered, index: index}, nil
}

// ListAll returns every definition in fixed registration order.
func (r *ToolRegistry) ListAll() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, len(r.tools))
	copy(out, r.tools)
	return out
}

// FilterByRole returns the definitions the role may invoke, preserving
// registration order. Pure: same inputs, same output, no side effects.
func (r *ToolRegistry) FilterByRole(role domain.Role) []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		if role.Satisfies(tool.RequiredRole) {
			out = append(out, tool)
		}
	}
	return out
}

// Authorize re-checks permission for a single invocation. Exposure filtering
// is not the only gate: a client calling an unlisted tool directly is
// rejected here. Unknown tools are indistinguishable from forbidden ones.
func (r *ToolRegistry) Authorize(name string, role domain.Role) error {
	i, ok := r.index[name]
	if !ok || !role.Satisfies(r.tools[i].RequiredRole) {
		observability.RecordToolAuthorization("deny")
		return ErrForbidden
	}
	observability.RecordToolAuthorization("allow")
	return nil
}
