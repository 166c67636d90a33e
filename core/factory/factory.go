package factory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleConfig selects a module by Type and carries its raw settings.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory builds a T from raw settings.
type Factory[T any] func(conf map[string]any) (T, error)

// Registry maps module types to factories. It is safe for concurrent use.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]Factory[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: map[string]Factory[T]{}}
}

// Register binds name to f. Names are unique.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	switch {
	case name == "":
		return fmt.Errorf("factory name is empty")
	case f == nil:
		return fmt.Errorf("factory nil for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[name]; dup {
		return fmt.Errorf("factory already registered for %s", name)
	}
	r.entries[name] = f
	return nil
}

// Create builds the module selected by cfg.Type.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	var zero T
	r.mu.RLock()
	f, ok := r.entries[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("unknown module type %q (known: %v)", cfg.Type, r.Types())
	}
	v, err := f(cfg.Conf)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", cfg.Type, err)
	}
	return v, nil
}

// Types lists the registered names in lexical order.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Decode copies raw settings into out using json tags. Values coming from
// environment overrides arrive as strings and are converted, durations are
// parsed from strings such as "1500ms", and unknown keys are rejected.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
