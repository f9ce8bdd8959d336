package sqlgen

import "strings"

// Alias is one projection entry compiled as "<expression> AS <alias>", or
// the bare expression when As is empty. This supports mixing raw "*" with
// computed columns.
type Alias struct {
	Expr string
	As   string
}

// compileProjection builds the select-list from plain identifiers and
// aliased expressions. Both empty means "*". Identifiers and expressions
// are caller-trusted and emitted verbatim; values never are.
func compileProjection(what []string, aliases []Alias) string {
	if len(what) == 0 && len(aliases) == 0 {
		return "*"
	}

	items := make([]string, 0, len(what)+len(aliases))
	items = append(items, what...)
	for _, a := range aliases {
		if a.As != "" {
			items = append(items, a.Expr+" AS "+a.As)
		} else {
			items = append(items, a.Expr)
		}
	}
	return strings.Join(items, ", ")
}
