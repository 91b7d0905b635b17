package condition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// evalComplex evaluates a boolean expression with a flat left-to-right
// scan. Variable names are substituted with their values (context
// overrides declared defaults), then the expression is split on
// " and " (all clauses must hold) or, failing that, on " or " (any
// clause may hold). Each clause is a primitive comparison.
//
// There is no operator precedence and no parenthesis grouping: an
// expression mixing "and" with "or" splits on "and" first and treats
// the remainder as opaque clauses. This matches the behavior the
// surrounding application has always shipped.
func evalComplex(s ComplexSpec, ctx map[string]any) bool {
	vars := make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		vars[k] = v
	}
	for k := range vars {
		if cv, ok := ctx[k]; ok {
			vars[k] = cv
		}
	}

	expr := substitute(s.Expression, vars)

	if strings.Contains(expr, " and ") {
		for _, part := range strings.Split(expr, " and ") {
			if !evalClause(part) {
				return false
			}
		}
		return true
	}
	if strings.Contains(expr, " or ") {
		for _, part := range strings.Split(expr, " or ") {
			if evalClause(part) {
				return true
			}
		}
		return false
	}
	return evalClause(expr)
}

// substitute replaces variable names with their rendered values,
// longest name first so "power_level" is not clobbered by "power".
func substitute(expr string, vars map[string]any) string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		expr = strings.ReplaceAll(expr, name, renderValue(vars[name]))
	}
	return expr
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprintf("%v", v)
}

// evalClause evaluates a primitive comparison. Operators are probed
// longest first so ">=" never parses as ">" followed by garbage.
// Numeric operators compare floats; equality operators compare the
// trimmed strings. A clause with no operator is truthy when it parses
// as true or is non-empty.
func evalClause(clause string) bool {
	clause = strings.TrimSpace(clause)

	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		idx := strings.Index(clause, op)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(clause[:idx])
		right := strings.TrimSpace(clause[idx+len(op):])

		switch op {
		case "==":
			return left == right
		case "!=":
			return left != right
		}

		lf, lerr := strconv.ParseFloat(left, 64)
		rf, rerr := strconv.ParseFloat(right, 64)
		if lerr != nil || rerr != nil {
			return false
		}
		switch op {
		case ">=":
			return lf >= rf
		case "<=":
			return lf <= rf
		case ">":
			return lf > rf
		case "<":
			return lf < rf
		}
	}

	if b, err := strconv.ParseBool(clause); err == nil {
		return b
	}
	return clause != ""
}
