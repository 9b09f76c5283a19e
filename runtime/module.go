package runtime

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/engine"
	"github.com/wippyai/dbn-playground/errors"
)

// Module is a loaded engine module with its declared entry points.
type Module struct {
	runtime      *Runtime
	wazeroModule *engine.WazeroModule
	funcTypes    map[string]*funcSignature
}

// Entries returns the declared entry point names in sorted order.
func (m *Module) Entries() []string {
	return sortedKeys(m.funcTypes)
}

// Call runs entry name with source on stdin and returns stdout.
func (m *Module) Call(ctx context.Context, name, source string) (string, error) {
	if _, ok := m.funcTypes[name]; !ok {
		return "", errors.NotFound(errors.PhaseEngine, "entry point", name)
	}

	res, err := m.wazeroModule.Exec(ctx, engine.ExecConfig{
		Args:  []string{m.runtime.program, name},
		Stdin: []byte(source),
	})
	if err != nil {
		return "", errors.Exec(name, err)
	}
	return string(res.Stdout), nil
}

// EntryPoint returns a callable bound to entry name.
func (m *Module) EntryPoint(name string) (*EntryPoint, error) {
	if _, ok := m.funcTypes[name]; !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "entry point", name)
	}
	return &EntryPoint{module: m, name: name}, nil
}

// EntryPoint adapts a module entry to the string-in, string-out engine
// contract. Execution failures are folded into the returned string so they
// surface as a failure message rather than a fault.
type EntryPoint struct {
	module *Module
	name   string
}

func (e *EntryPoint) Name() string {
	return e.name
}

func (e *EntryPoint) Invoke(ctx context.Context, source string) string {
	out, err := e.module.Call(ctx, e.name, source)
	if err != nil {
		e.module.runtime.logger.Warn("entry point failed", zap.String("entry", e.name), zap.Error(err))
		return fmt.Sprintf("%s: %v", e.name, err)
	}
	return out
}

type funcSignature struct {
	params  []wit.Type
	results []wit.Type
}

func (s *funcSignature) validateEntry(name string) error {
	if len(s.params) == 1 && len(s.results) == 1 && isString(s.params[0]) && isString(s.results[0]) {
		return nil
	}
	return errors.InvalidSignature(name, s.String())
}

func (s *funcSignature) String() string {
	params := make([]string, len(s.params))
	for i, p := range s.params {
		params[i] = typeName(p)
	}
	out := "func(" + strings.Join(params, ", ") + ")"
	if len(s.results) > 0 {
		results := make([]string, len(s.results))
		for i, r := range s.results {
			results[i] = typeName(r)
		}
		out += " -> " + strings.Join(results, ", ")
	}
	return out
}

func isString(t wit.Type) bool {
	_, ok := t.(wit.String)
	return ok
}

func typeName(t wit.Type) string {
	switch t.(type) {
	case wit.String:
		return "string"
	case wit.Bool:
		return "bool"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F64:
		return "f64"
	default:
		return fmt.Sprintf("%T", t)
	}
}

var funcPattern = regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// parseWitFunctions extracts function signatures from WIT text.
// Pattern: [export] name: func(params) -> result;
func parseWitFunctions(witText string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	matches := funcPattern.FindAllStringSubmatch(witText, -1)
	for _, match := range matches {
		name := match[1]
		paramsStr := strings.TrimSpace(match[2])
		resultStr := ""
		if len(match) > 3 {
			resultStr = strings.TrimSpace(match[3])
		}

		if _, dup := funcs[name]; dup {
			return nil, errors.New(errors.PhaseParse, errors.KindDuplicate).
				Path(name).
				Detail("entry point declared twice").
				Build()
		}

		sig := &funcSignature{}

		if paramsStr != "" {
			for _, p := range splitParams(paramsStr) {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = strings.TrimSpace(p[idx+1:])
				}
				t, err := parseWitType(typStr)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse param type "+typStr)
				}
				sig.params = append(sig.params, t)
			}
		}

		if resultStr != "" && resultStr != "()" {
			t, err := parseWitType(resultStr)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse result type "+resultStr)
			}
			sig.results = []wit.Type{t}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no entry points found in WIT text")
	}

	return funcs, nil
}

// splitParams splits parameter list, handling nested angle brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '<', '(':
			depth++
			current.WriteRune(ch)
		case '>', ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

func parseWitType(s string) (wit.Type, error) {
	return wit.ParseType(strings.TrimSpace(s))
}

func sortedKeys(m map[string]*funcSignature) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
