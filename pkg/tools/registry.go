package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lokutor-ai/gibberish/pkg/inference"
)

// Registry holds the set of tools available for dispatch.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool, replacing any previous tool of the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted for deterministic
// prompt construction.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FunctionDeclarations renders every registered tool into the prompt
// declaration block consumed by pkg/inference.BuildFunctionDeclarations.
func (r *Registry) FunctionDeclarations() []inference.FunctionDeclaration {
	names := r.Names()
	decls := make([]inference.FunctionDeclaration, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		t := r.tools[name]
		decls = append(decls, inference.FunctionDeclaration{
			Name:           t.Name(),
			Description:    t.Description(),
			ParametersJSON: t.ArgsSchema(),
		})
	}
	return decls
}

// ErrUnknownTool is returned when a Proposal names a tool that was
// never registered.
type ErrUnknownTool struct{ Name string }

func (e ErrUnknownTool) Error() string {
	return fmt.Sprintf("tools: unknown tool %q", e.Name)
}
