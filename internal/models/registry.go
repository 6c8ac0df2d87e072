// Package models maps short model aliases to provider model identifiers.
package models

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultAlias is used when neither an alias nor an explicit id is given.
const DefaultAlias = "gpt-5-mini"

// Entry declares one alias target. Synonyms resolve to the same Model.
type Entry struct {
	Alias    string   `yaml:"alias" json:"alias"`
	Model    string   `yaml:"model" json:"model"`
	Synonyms []string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
}

// Builtin is the alias table shipped with Harmony.
var Builtin = []Entry{
	{Alias: "gpt-5-mini", Model: "openai/gpt-5-mini", Synonyms: []string{"5-mini", "gpt5", "gpt5-mini"}},
	{Alias: "gpt-4.1-mini", Model: "openai/gpt-4.1-mini", Synonyms: []string{"4.1-mini", "gpt4.1-mini", "gpt4-mini"}},
	{Alias: "gemini", Model: "google/gemini-2.5-flash", Synonyms: []string{"google"}},
	{Alias: "grok", Model: "xai/grok-4.1-fast-reasoning", Synonyms: []string{"xai"}},
	{Alias: "deepseek", Model: "deepseek/deepseek-v3.2-thinking"},
}

// Selector carries the caller's model choice. At most one field may be set;
// blank values count as unset.
type Selector struct {
	Alias       string
	ModelString string
}

// Registry resolves Selectors against an immutable alias table. It is safe
// for concurrent use.
type Registry struct {
	entries      []Entry
	lookup       map[string]string
	defaultAlias string
}

// New builds a Registry from entries. A later entry with the same alias
// replaces the earlier model and keeps its synonyms. defaultAlias must resolve within the table; an empty
// value selects DefaultAlias.
func New(entries []Entry, defaultAlias string) (*Registry, error) {
	r := &Registry{lookup: make(map[string]string)}

	for _, e := range entries {
		alias := normalize(e.Alias)
		model := strings.TrimSpace(e.Model)
		if alias == "" || model == "" {
			return nil, fmt.Errorf("model entry requires alias and model: %+v", e)
		}

		e.Alias = alias
		e.Model = model
		e.Synonyms = slices.Clone(e.Synonyms)
		if i := slices.IndexFunc(r.entries, func(x Entry) bool { return x.Alias == alias }); i >= 0 {
			for _, syn := range r.entries[i].Synonyms {
				if !slices.Contains(e.Synonyms, syn) {
					e.Synonyms = append(e.Synonyms, syn)
				}
			}
			r.entries[i] = e
		} else {
			r.entries = append(r.entries, e)
		}
	}

	for _, e := range r.entries {
		r.lookup[e.Alias] = e.Model
		for _, syn := range e.Synonyms {
			if s := normalize(syn); s != "" {
				r.lookup[s] = e.Model
			}
		}
	}
	// Primary aliases win over synonyms of other entries.
	for _, e := range r.entries {
		r.lookup[e.Alias] = e.Model
	}

	if defaultAlias == "" {
		defaultAlias = DefaultAlias
	}
	r.defaultAlias = normalize(defaultAlias)
	if _, ok := r.lookup[r.defaultAlias]; !ok {
		return nil, fmt.Errorf("default model alias %q is not in the alias table", defaultAlias)
	}

	return r, nil
}

// Default returns a Registry over the Builtin table.
func Default() *Registry {
	r, err := New(Builtin, DefaultAlias)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the provider model id for sel. An explicit ModelString is
// returned verbatim; otherwise the alias is matched case-insensitively, and
// an empty selector yields the default model.
func (r *Registry) Resolve(sel Selector) (string, error) {
	alias := normalize(sel.Alias)
	explicit := strings.TrimSpace(sel.ModelString)

	switch {
	case alias != "" && explicit != "":
		return "", &ResolutionError{Err: ErrConflictingSelectors}
	case explicit != "":
		return explicit, nil
	case alias == "":
		return r.lookup[r.defaultAlias], nil
	}

	if model, ok := r.lookup[alias]; ok {
		return model, nil
	}

	return "", &ResolutionError{
		Err:       ErrUnknownAlias,
		Alias:     strings.TrimSpace(sel.Alias),
		Supported: r.Names(),
	}
}

// DefaultAlias returns the alias used for empty selectors.
func (r *Registry) DefaultAlias() string {
	return r.defaultAlias
}

// Names returns the primary aliases in table order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Alias
	}
	return names
}

// Entries returns a copy of the alias table.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		e.Synonyms = slices.Clone(e.Synonyms)
		out[i] = e
	}
	return out
}

func normalize(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
