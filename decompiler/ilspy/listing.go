package ilspy

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/publicrust/DotnetDllParser/decompiler"
)

// kinds printed by `ilspycmd -l`, lower-cased
var knownKinds = map[string]bool{
	"class":     true,
	"interface": true,
	"struct":    true,
	"delegate":  true,
	"enum":      true,
}

var genericArity = regexp.MustCompile("`[0-9]+$")

// handleSep separates a reflection name from its occurrence number in a
// handle. It cannot appear in a type name.
const handleSep = "#"

// parseListing parses `ilspycmd <file> -l c,i,s,d,e` output, one
// "<Kind> <FullName>" per line. Unrecognised lines (banners, warnings) are
// skipped. A kind with no name yields a descriptor with an empty Name.
//
// The listing prints type-system names: nested types are joined with '.'
// and generic arity is dropped, so NS.Outer+Inner prints as NS.Outer.Inner
// and NS.Pool`1 as NS.Pool. Handles carry the reflection name `-t` expects,
// with nesting recovered from the other listed names. Arity cannot be
// recovered here; see module.Decompile.
func parseListing(out []byte) []decompiler.TypeDescriptor {
	type entry struct{ kind, fullName string }

	var entries []entry
	listed := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		kind, fullName, _ := strings.Cut(line, " ")
		if !knownKinds[strings.ToLower(kind)] {
			continue
		}
		fullName = strings.TrimSpace(fullName)
		entries = append(entries, entry{kind: strings.ToLower(kind), fullName: fullName})
		listed[fullName] = true
	}

	types := make([]decompiler.TypeDescriptor, 0, len(entries))
	occurrences := make(map[string]int)
	for _, e := range entries {
		ref := reflectionName(e.fullName, listed)
		n := occurrences[ref]
		occurrences[ref]++
		types = append(types, decompiler.TypeDescriptor{
			Name:     SimpleName(e.fullName),
			FullName: e.fullName,
			Kind:     e.kind,
			Handle:   newHandle(ref, n),
		})
	}
	return types
}

// reflectionName rewrites a listed name so that every '.' that follows a
// listed type becomes the '+' of a nested type.
//
//	NS.Outer.Inner  (NS.Outer listed)  -> NS.Outer+Inner
//	NS.Outer.Inner  (NS.Outer not)     -> NS.Outer.Inner
func reflectionName(fullName string, listed map[string]bool) string {
	segments := splitName(fullName)
	if len(segments) < 2 {
		return fullName
	}

	var b strings.Builder
	b.WriteString(segments[0])
	prefix := segments[0]
	for _, seg := range segments[1:] {
		if listed[prefix] {
			b.WriteByte('+')
		} else {
			b.WriteByte('.')
		}
		b.WriteString(seg)
		prefix += "." + seg
	}
	return b.String()
}

// splitName splits on '.' outside <...>
func splitName(name string) []string {
	var segments []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				segments = append(segments, name[start:i])
				start = i + 1
			}
		}
	}
	return append(segments, name[start:])
}

// newHandle numbers repeats of a reflection name: the listing prints Pool
// and Pool`1 identically.
func newHandle(reflectionName string, occurrence int) decompiler.Handle {
	if occurrence == 0 {
		return decompiler.Handle(reflectionName)
	}
	return decompiler.Handle(reflectionName + handleSep + strconv.Itoa(occurrence))
}

func splitHandle(h decompiler.Handle) (string, int) {
	s := string(h)
	i := strings.LastIndex(s, handleSep)
	if i < 0 {
		return s, 0
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0
	}
	return s[:i], n
}

// SimpleName returns the declared name of a type from its full name: the
// last '.' or '+' separated segment, where separators inside <...> do not
// count, with any generic arity suffix (`1) removed.
//
//	Facepunch.Core.Foo            -> Foo
//	Outer+Inner                   -> Inner
//	System.Collections.List`1     -> List
//	NS.<>c__DisplayClass0_0       -> <>c__DisplayClass0_0
//	NS.<Run>d__3                  -> <Run>d__3
//	NS.<Foo.Bar>d__1              -> <Foo.Bar>d__1
func SimpleName(fullName string) string {
	depth := 0
	start := 0
	for i, r := range fullName {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case '.', '+':
			if depth == 0 {
				start = i + 1
			}
		}
	}
	return genericArity.ReplaceAllString(fullName[start:], "")
}
