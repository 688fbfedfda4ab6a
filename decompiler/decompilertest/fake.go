// Package decompilertest provides an in-memory decompiler engine for tests,
// with injectable open, list and per-type failures.
package decompilertest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/publicrust/DotnetDllParser/decompiler"
	"github.com/publicrust/DotnetDllParser/errors"
)

// Type describes one type of a fake module
type Type struct {
	Name     string
	FullName string
	Kind     string
	Source   string // Returned by Decompile; generated from FullName when empty
	Err      error  // Returned by Decompile when set, marked ErrDecompile unless already ErrUnaddressable
}

// Module describes a fake module
type Module struct {
	Types   []Type
	ListErr error // Returned by Types when set
}

// Engine is a decompiler.Engine backed by in-memory module descriptions.
// Modules are looked up by path first, then by base name without extension.
type Engine struct {
	mu        sync.Mutex
	modules   map[string]*Module
	openErrs  map[string]error
	opened    []string
	resolvers []decompiler.Resolver
	bindings  []*Binding
}

// NewEngine returns an empty fake engine
func NewEngine() *Engine {
	return &Engine{
		modules:  make(map[string]*Module),
		openErrs: make(map[string]error),
	}
}

// AddModule registers a module under key (a path or a base name)
func (e *Engine) AddModule(key string, types ...Type) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modules[key] = &Module{Types: types}
	return e
}

// SetModule registers a full module description under key
func (e *Engine) SetModule(key string, m *Module) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modules[key] = m
	return e
}

// FailOpen makes Open fail for key with err
func (e *Engine) FailOpen(key string, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.openErrs[key] = err
	return e
}

// Open implements decompiler.Engine
func (e *Engine) Open(ctx context.Context, path string, resolver decompiler.Resolver) (decompiler.Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opened = append(e.opened, path)
	e.resolvers = append(e.resolvers, resolver)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, key := range []string{path, base} {
		if err, ok := e.openErrs[key]; ok {
			return nil, decompiler.OpenError(err, path)
		}
	}

	m, ok := e.modules[path]
	if !ok {
		m, ok = e.modules[base]
	}
	if !ok {
		return nil, decompiler.OpenError(errors.New("not a .NET module"), path)
	}

	b := &Binding{module: m, path: path}
	e.bindings = append(e.bindings, b)
	return b, nil
}

// Opened returns the paths passed to Open, in call order
func (e *Engine) Opened() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.opened...)
}

// Resolvers returns the resolvers passed to Open, in call order
func (e *Engine) Resolvers() []decompiler.Resolver {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]decompiler.Resolver(nil), e.resolvers...)
}

// Bindings returns every binding handed out, in call order
func (e *Engine) Bindings() []*Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Binding(nil), e.bindings...)
}

// Binding is the decompiler.Module returned by Engine.Open
type Binding struct {
	module     *Module
	path       string
	closed     bool
	decompiled []string
}

// Types implements decompiler.Module
func (b *Binding) Types(ctx context.Context) ([]decompiler.TypeDescriptor, error) {
	if b.closed {
		return nil, errors.New("binding used after Close")
	}
	if b.module.ListErr != nil {
		return nil, decompiler.OpenError(b.module.ListErr, b.path)
	}
	types := make([]decompiler.TypeDescriptor, len(b.module.Types))
	for i, t := range b.module.Types {
		types[i] = decompiler.TypeDescriptor{
			Name:     t.Name,
			FullName: t.FullName,
			Kind:     t.Kind,
			Handle:   decompiler.Handle(strconv.Itoa(i)),
		}
	}
	return types, nil
}

// Decompile implements decompiler.Module
func (b *Binding) Decompile(ctx context.Context, h decompiler.Handle) (string, error) {
	if b.closed {
		return "", errors.New("binding used after Close")
	}
	idx, err := strconv.Atoi(string(h))
	if err != nil || idx < 0 || idx >= len(b.module.Types) {
		return "", decompiler.DecompileError(errors.Newf("unknown handle %q", h), string(h))
	}

	t := b.module.Types[idx]
	b.decompiled = append(b.decompiled, t.FullName)
	if t.Err != nil {
		if decompiler.IsUnaddressable(t.Err) {
			return "", t.Err
		}
		return "", decompiler.DecompileError(t.Err, t.FullName)
	}
	if t.Source != "" {
		return t.Source, nil
	}
	return SourceFor(t), nil
}

// Close implements decompiler.Module
func (b *Binding) Close() error {
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *Binding) Closed() bool { return b.closed }

// Decompiled returns the full names passed to Decompile, in call order
func (b *Binding) Decompiled() []string { return append([]string(nil), b.decompiled...) }

// SourceFor is the text Decompile returns for t when t.Source is empty
func SourceFor(t Type) string {
	return fmt.Sprintf("// %s\nclass %s\n{\n}\n", t.FullName, t.Name)
}

// Authored returns a type named name in namespace ns
func Authored(ns, name string) Type {
	full := name
	if ns != "" {
		full = ns + "." + name
	}
	return Type{Name: name, FullName: full, Kind: "class"}
}

// Failing returns a type whose decompilation fails with err
func Failing(ns, name string, err error) Type {
	t := Authored(ns, name)
	t.Err = err
	return t
}

// Unaddressable returns a type the engine lists but cannot decompile by name
func Unaddressable(ns, name string) Type {
	t := Authored(ns, name)
	t.Err = decompiler.UnaddressableError(errors.New("no matching type definition"), t.FullName)
	return t
}
