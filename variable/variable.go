// Package variable implements the workflow variable resolution language:
// whole-value substitution and in-string interpolation over
// $input.*, $stepResult.*, $env.*, and the legacy $<var>.* alias.
package variable

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// undefinedType is the sentinel type for an unresolved reference.
type undefinedType struct{}

// Undefined is returned whenever a reference cannot be resolved: a missing
// environment variable, a dotted path through a non-existent key, or a path
// that traverses a non-container node.
var Undefined = undefinedType{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}

// Source is the read-only view of an execution context that the resolver
// consults. execctx.Context implements this interface.
type Source interface {
	// InputValue returns the top-level input payload.
	InputValue() any
	// Variable returns a previously stored step result by name, and whether it exists.
	Variable(name string) (any, bool)
}

// referencePattern matches a single $identifier(.identifier)* occurrence,
// used both to detect whole-value references and to find interpolation
// targets inside a larger string. It also captures a leading "$$" so callers
// can special-case the escape.
var referencePattern = regexp.MustCompile(`\$(\$)?([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)`)

// wholeValuePattern matches an entire string that is nothing but a single reference.
var wholeValuePattern = regexp.MustCompile(`^\$[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*$`)

// Resolve recursively resolves template against ctx. Strings are resolved
// per the whole-value/interpolation split; maps and slices are resolved
// element-wise; every other value is returned unchanged.
func Resolve(template any, ctx Source) (any, error) {
	switch v := template.(type) {
	case string:
		return resolveString(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			rv, err := Resolve(val, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			rv, err := Resolve(val, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveString(s string, ctx Source) (any, error) {
	if s == "" || !strings.Contains(s, "$") {
		return s, nil
	}
	if wholeValuePattern.MatchString(s) {
		return dereference(s[1:], ctx), nil
	}
	// $$ escapes: replace before interpolation so the literal survives.
	if strings.Contains(s, "$$") {
		s = strings.ReplaceAll(s, "$$", "\x00ESCAPED_DOLLAR\x00")
	}
	result := referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := referencePattern.FindStringSubmatch(match)
		path := groups[2]
		val := dereference(path, ctx)
		if IsUndefined(val) {
			return match
		}
		return stringify(val)
	})
	result = strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
	return result, nil
}

// dereference resolves a single dotted path (without its leading $) against ctx.
func dereference(path string, ctx Source) any {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return Undefined
	}
	switch segments[0] {
	case "env":
		if len(segments) < 2 {
			return Undefined
		}
		val, ok := os.LookupEnv(segments[1])
		if !ok {
			return Undefined
		}
		return val
	case "input":
		return traverse(ctx.InputValue(), segments[1:])
	case "stepResult":
		if len(segments) < 2 {
			return Undefined
		}
		val, ok := ctx.Variable(segments[1])
		if !ok {
			return Undefined
		}
		return traverse(val, segments[2:])
	default:
		// legacy alias: $<var>.path === $stepResult.<var>.path
		val, ok := ctx.Variable(segments[0])
		if !ok {
			return Undefined
		}
		return traverse(val, segments[1:])
	}
}

// traverse walks a dotted path over an arbitrary Go value tree (maps,
// slices and ordered maps; any other value, structs included, is walked
// through its JSON encoding, so struct fields go by their JSON names).
// gjson is used for the traversal so numeric/bool/array types round-trip
// correctly; note this re-encodes through JSON, so non-JSON-representable
// values (e.g. channels) will not survive a path traversal, though the
// unindexed (zero-length path) case returns the original value directly.
func traverse(root any, path []string) any {
	if len(path) == 0 {
		return valueOr(root, Undefined)
	}
	if root == nil {
		return Undefined
	}
	data, err := marshalForTraversal(root)
	if err != nil {
		return Undefined
	}
	result := gjson.GetBytes(data, strings.Join(path, "."))
	if !result.Exists() {
		return Undefined
	}
	return result.Value()
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}

func marshalForTraversal(v any) ([]byte, error) {
	if om, ok := v.(*orderedmap.OrderedMap[string, any]); ok {
		return om.MarshalJSON()
	}
	return json.Marshal(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		// Bare scalars marshal to their literal JSON form (e.g. 3, true);
		// strip surrounding quotes so numbers/bools interpolate cleanly.
		s := string(b)
		if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
			var unquoted string
			if err := json.Unmarshal(b, &unquoted); err == nil {
				return unquoted
			}
		}
		return s
	}
}
