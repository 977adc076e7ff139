// Sandboxed evaluation of descriptor-supplied template placeholders and
// transform programs.
//
// Descriptors come from a remote, semi-trusted configuration service, so
// nothing they carry may touch ambient process state. expr-lang compiles each
// snippet into an isolated program whose only scope is the variables map (or
// the raw payload, for transforms).
package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/tidwall/gjson"
)

var placeholderRe = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evalExpr evaluates one expression against the variables map. Every variable
// name is a bound identifier in the expression's scope.
func evalExpr(src string, vars map[string]any) (any, error) {
	program, err := expr.Compile(src, expr.Env(vars), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return expr.Run(program, vars)
}

// SubstituteString replaces every {{expr}} placeholder with its evaluated,
// stringified value. Evaluation failures yield an empty string, not an error;
// a broken placeholder must not take the whole request down.
func SubstituteString(s string, vars map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		inner := strings.TrimSpace(match[2 : len(match)-2])
		val, err := evalExpr(inner, vars)
		if err != nil {
			return ""
		}
		return stringifyValue(val)
	})
}

// SubstituteValue resolves placeholders in a decoded JSON value, recursively.
// A string that consists of a single placeholder and nothing else keeps the
// expression's native type; several provider APIs require numeric page and
// limit fields and reject their stringified spellings.
func SubstituteValue(v any, vars map[string]any) any {
	switch t := v.(type) {
	case string:
		if m := placeholderRe.FindStringSubmatch(t); m != nil && strings.TrimSpace(t) == m[0] {
			val, err := evalExpr(strings.TrimSpace(m[1]), vars)
			if err != nil {
				return ""
			}
			return val
		}
		return SubstituteString(t, vars)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = SubstituteValue(item, vars)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = SubstituteValue(item, vars)
		}
		return out
	default:
		return v
	}
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// RunTransform compiles and runs a descriptor transform program against the
// unwrapped raw payload, bound as `raw`. A compile error, runtime error or
// falsy result reports ok=false, in which case the caller falls back to the
// raw payload untouched.
func RunTransform(src string, raw gjson.Result) (any, bool) {
	if strings.TrimSpace(src) == "" {
		return nil, false
	}

	env := map[string]any{"raw": raw.Value()}
	program, err := expr.Compile(src, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, false
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, false
	}
	if isFalsy(out) {
		return nil, false
	}
	return out, true
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
