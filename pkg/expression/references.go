package expression

import (
	"fmt"
	"strings"
)

// References returns the distinct data paths an expression reads, in the
// order they first appear, e.g. "user.name" or "items[0]". Loop variables are
// omitted.
func References(expr *Expression) []string {
	seen := make(map[string]bool)
	var out []string

	var walk func(e *Expression)
	walk = func(e *Expression) {
		if path, ok := accessPath(e); ok {
			if path = normalizePath(path); path != "" && !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
			return
		}
		for _, child := range e.Children {
			walk(child)
		}
	}
	walk(expr)
	return out
}

// accessPath renders a chain of accessors and constant indexes as a path.
func accessPath(e *Expression) (string, bool) {
	switch e.Type {
	case Accessor:
		name, ok := e.Children[0].Value.(string)
		if !ok {
			return "", false
		}
		if len(e.Children) == 1 {
			return name, true
		}
		parent, ok := accessPath(e.Children[1])
		if !ok {
			return "", false
		}
		return parent + "." + name, true
	case Element:
		if len(e.Children) != 2 || !e.Children[1].IsConstant() {
			return "", false
		}
		parent, ok := accessPath(e.Children[0])
		if !ok {
			return "", false
		}
		switch idx := e.Children[1].Value.(type) {
		case string:
			return parent + "." + idx, true
		case int:
			return fmt.Sprintf("%s[%d]", parent, idx), true
		}
	}
	return "", false
}

func normalizePath(path string) string {
	for strings.HasPrefix(path, GlobalScope+".") {
		path = strings.TrimPrefix(path, GlobalScope+".")
	}
	if path == GlobalScope || path == LocalScope ||
		strings.HasPrefix(path, LocalScope+".") || strings.HasPrefix(path, LocalScope+"[") {
		return ""
	}
	return path
}
