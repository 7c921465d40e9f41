// Package transform composes AST-to-AST rewrite plugins and the
// serializer into a pipeline the shell runs before executing a
// script.
package transform

import (
	"github.com/josephlewis42/sandsh/core/syntax"
)

// Metadata is an open record plugins contribute to; records are
// merged shallowly in plugin order.
type Metadata map[string]interface{}

// Plugin rewrites a script. It receives the metadata accumulated so
// far and returns its own contribution.
type Plugin interface {
	Apply(script *syntax.Script, meta Metadata) (*syntax.Script, Metadata, error)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(script *syntax.Script, meta Metadata) (*syntax.Script, Metadata, error)

func (f PluginFunc) Apply(script *syntax.Script, meta Metadata) (*syntax.Script, Metadata, error) {
	return f(script, meta)
}

// Pipeline applies plugins in registration order.
type Pipeline struct {
	plugins []Plugin
}

func NewPipeline(plugins ...Plugin) *Pipeline {
	return &Pipeline{plugins: plugins}
}

// Use appends a plugin to the pipeline.
func (p *Pipeline) Use(plugin Plugin) {
	p.plugins = append(p.plugins, plugin)
}

// Len returns the number of installed plugins.
func (p *Pipeline) Len() int {
	return len(p.plugins)
}

// Apply runs every plugin over the script, merging metadata deltas.
func (p *Pipeline) Apply(script *syntax.Script) (*syntax.Script, Metadata, error) {
	meta := Metadata{}
	for _, plugin := range p.plugins {
		next, delta, err := plugin.Apply(script, meta)
		if err != nil {
			return nil, nil, err
		}
		if next != nil {
			script = next
		}
		for key, value := range delta {
			meta[key] = value
		}
	}
	return script, meta, nil
}

// Result is the outcome of transforming source without executing it.
type Result struct {
	Script   string
	AST      *syntax.Script
	Metadata Metadata
}

// Transform parses source, applies the pipeline and serializes the
// result.
func (p *Pipeline) Transform(src, name string) (*Result, error) {
	script, err := syntax.Parse(src, name)
	if err != nil {
		return nil, err
	}
	script, meta, err := p.Apply(script)
	if err != nil {
		return nil, err
	}
	return &Result{
		Script:   syntax.Print(script),
		AST:      script,
		Metadata: meta,
	}, nil
}
