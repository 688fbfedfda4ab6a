package ilspy

import (
	"bytes"
	"context"
	"strconv"

	"github.com/publicrust/DotnetDllParser/decompiler"
	"github.com/publicrust/DotnetDllParser/errors"
)

// notFoundMarker is how ilspycmd reports a -t name that matches no type
// definition in the module.
const notFoundMarker = "Could not find type definition"

// MaxGenericArity bounds the arities tried for a type whose listed name
// matches no definition.
const MaxGenericArity = 4

// module is the binding for one opened assembly. The type list is captured
// at Open; each Decompile is a separate engine invocation.
type module struct {
	engine *Engine
	path   string
	refs   []string
	types  []decompiler.TypeDescriptor
	closed bool

	resolved map[decompiler.Handle]string // handle -> reflection name that worked
	claimed  map[string]decompiler.Handle // reflection name -> handle it resolved
}

func (m *module) Types(ctx context.Context) ([]decompiler.TypeDescriptor, error) {
	if m.closed {
		return nil, errors.Newf("module %s is closed", m.path)
	}
	return append([]decompiler.TypeDescriptor(nil), m.types...), nil
}

// Decompile resolves h to a reflection name ilspycmd accepts and returns the
// type's source. A name that matches no definition is retried with generic
// arities `1..`MaxGenericArity, skipping names another handle already
// resolved to. If none match the error is marked ErrUnaddressable.
func (m *module) Decompile(ctx context.Context, h decompiler.Handle) (string, error) {
	name, occurrence := splitHandle(h)
	if m.closed {
		return "", decompiler.DecompileError(errors.Newf("module %s is closed", m.path), name)
	}

	if ref, ok := m.resolved[h]; ok {
		text, stderr, err := m.decompile(ctx, ref)
		if err != nil {
			return "", decompiler.DecompileError(errors.WithDetail(err, trimDetail(stderr)), ref)
		}
		return text, nil
	}

	tried := 0
	for _, ref := range candidates(name, occurrence) {
		if owner, taken := m.claimed[ref]; taken && owner != h {
			continue
		}
		tried++
		text, stderr, err := m.decompile(ctx, ref)
		if err == nil {
			m.resolved[h] = ref
			m.claimed[ref] = h
			return text, nil
		}
		if ctx.Err() != nil || !bytes.Contains(stderr, []byte(notFoundMarker)) {
			return "", decompiler.DecompileError(errors.WithDetail(err, trimDetail(stderr)), ref)
		}
		m.engine.log.Debugw("No type definition for name", "name", ref)
	}

	return "", decompiler.UnaddressableError(
		errors.Newf("no type definition matched %d candidate names", tried), name)
}

func (m *module) decompile(ctx context.Context, ref string) (string, []byte, error) {
	if m.engine.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.engine.timeout)
		defer cancel()
	}

	args := append([]string{m.path, "-t", ref}, m.refs...)
	stdout, stderr, err := m.engine.run(ctx, args...)
	if err != nil {
		return "", stderr, err
	}
	return string(stdout), stderr, nil
}

// candidates lists the reflection names to try for a listed name, in order.
// Later occurrences of a repeated name skip the bare name, which the first
// occurrence takes.
func candidates(name string, occurrence int) []string {
	if genericArity.MatchString(name) {
		return []string{name}
	}
	names := make([]string, 0, MaxGenericArity+1)
	if occurrence == 0 {
		names = append(names, name)
	}
	for arity := 1; arity <= MaxGenericArity; arity++ {
		names = append(names, name+"`"+strconv.Itoa(arity))
	}
	return names
}

func (m *module) Close() error {
	m.closed = true
	return nil
}
