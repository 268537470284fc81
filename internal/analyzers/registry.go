package analyzers

import "github.com/benmeehan/imgmapon/internal/models"

// Registry keeps analyzers in registration order.
type Registry struct {
	analyzers map[string]Analyzer
	order     []string
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		analyzers: make(map[string]Analyzer),
	}
}

// Register adds an analyzer, replacing one with the same name.
func (r *Registry) Register(a Analyzer) {
	if _, exists := r.analyzers[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.analyzers[a.Name()] = a
}

// Get returns the analyzer registered under name.
func (r *Registry) Get(name string) (Analyzer, bool) {
	a, ok := r.analyzers[name]
	return a, ok
}

// Enabled returns the analyzers req asks for, in registration order.
func (r *Registry) Enabled(req models.AnalysisRequest) []Analyzer {
	var out []Analyzer
	for _, name := range r.order {
		if a := r.analyzers[name]; a.IsEnabled(req) {
			out = append(out, a)
		}
	}
	return out
}
