package symtab

import (
	"fmt"
	"strings"
)

// MangleStaticField builds the flat global name a static class field is
// materialized under (spec §3.2 "Static class fields are additionally
// materialized as hidden global variables with mangled names").
func MangleStaticField(module, class, field string) string {
	return fmt.Sprintf("%s.%s.%s", module, strings.ReplaceAll(class, ".", "_"), field)
}

// MangleFunction builds a function's compile-time-stable flat identifier
// from its module, optional parent (for a nested local function), name, and
// an occurrence count used only when overloading requires disambiguation
// (GLOSSARY "Mangled id"). occurrence 0 omits the suffix.
func MangleFunction(module, parent, name string, occurrence int) string {
	var b strings.Builder
	b.WriteString(module)
	b.WriteByte('.')
	if parent != "" {
		b.WriteString(parent)
		b.WriteByte('.')
	}
	b.WriteString(name)
	if occurrence > 0 {
		fmt.Fprintf(&b, "#%d", occurrence)
	}
	return b.String()
}
