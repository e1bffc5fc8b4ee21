package log

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// errorKV returns the attributes Error adds for err: the error itself,
// its surface and root types, the distinct messages along the unwrap
// chain and, when maxLinks > 0, the call site of each wrap.
func errorKV(err error, maxLinks int) []any {
	surface, root := errorTypes(err)
	kv := []any{"err", err, "error_type", surface, "cause_type", root}
	if chain := errorChain(err); len(chain) > 1 {
		kv = append(kv, "error_chain", chain)
	}
	if maxLinks > 0 {
		kv = append(kv, "error_links", errorLinks(err, maxLinks))
	}
	return kv
}

func errorChain(err error) []string {
	var out []string
	var prev string
	add := func(e error) {
		if msg := e.Error(); msg != prev {
			out = append(out, msg)
			prev = msg
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		add(e)
	}
	if m, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range m.Unwrap() {
			add(e)
		}
	}
	return out
}

func errorLinks(err error, max int) []map[string]any {
	var links []map[string]any
	for depth, e := 0, err; e != nil && depth < max; depth, e = depth+1, errors.Unwrap(e) {
		link := map[string]any{"msg": e.Error()}
		var (
			fn, file string
			line     int
			ok       bool
		)
		switch x := e.(type) {
		case interface{ PC() uintptr }:
			fn, file, line, ok = frameAt(x.PC())
		case interface{ StackPCs() []uintptr }:
			fn, file, line, ok = firstAppFrame(x.StackPCs())
		}
		if ok {
			link["func"], link["file"], link["line"] = fn, file, line
		}
		if depth == 0 || ok {
			links = append(links, link)
		}
	}
	return links
}

// errorTypes names the first non-wrapper type in the chain and the type
// of the innermost error.
func errorTypes(err error) (surface, root string) {
	var last error
	for e := err; e != nil; e = errors.Unwrap(e) {
		last = e
		if surface != "" {
			continue
		}
		t := reflect.TypeOf(e)
		u := t
		for u.Kind() == reflect.Pointer {
			u = u.Elem()
		}
		if strings.HasSuffix(u.PkgPath(), "/internal/xerrors") {
			continue
		}
		if u.PkgPath() == "fmt" && u.Name() == "wrapError" {
			continue
		}
		surface = t.String()
	}
	if surface == "" {
		surface = fmt.Sprintf("%T", err)
	}
	return surface, fmt.Sprintf("%T", last)
}
