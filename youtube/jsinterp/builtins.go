package jsinterp

import (
	"math"
	"strings"
)

// call dispatches the three call shapes the grammar admits: a method on a
// string/array value, a method of the sibling helper object, and the two
// whitelisted globals (String, Math).
func (e *env) call(c *callExpr) (any, error) {
	member, ok := c.callee.(*memberExpr)
	if !ok {
		// Bare f(x) where f is a compiled helper stored in a variable is not
		// produced by the extraction step, so reject it.
		return nil, unsupportedf("unsupported call target %T", c.callee)
	}

	args := make([]any, 0, len(c.args))
	for _, a := range c.args {
		v, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	// Helper-object and global-object methods take the receiver by name.
	if ident, ok := member.obj.(*identExpr); ok {
		if fns, ok := e.helpers[ident.name]; ok {
			fn, ok := fns[member.name]
			if !ok {
				return nil, unsupportedf("helper %s.%s not defined", ident.name, member.name)
			}
			return e.invoke(fn, args)
		}
		switch ident.name {
		case "String":
			return callStringGlobal(member.name, args)
		case "Math":
			return callMathGlobal(member.name, args)
		}
	}

	recv, err := e.eval(member.obj)
	if err != nil {
		return nil, err
	}
	switch v := recv.(type) {
	case string:
		return callStringMethod(v, member.name, args)
	case *arrayVal:
		return callArrayMethod(v, member.name, args)
	}
	return nil, unsupportedf("method %q on %T", member.name, recv)
}

// invoke runs a compiled helper function in a fresh scope sharing the step
// budget with the caller.
func (e *env) invoke(fn *function, args []any) (any, error) {
	inner := &env{vars: make(map[string]any, len(fn.params)), helpers: e.helpers, steps: e.steps}
	for i, p := range fn.params {
		if i < len(args) {
			inner.vars[p] = args[i]
		} else {
			inner.vars[p] = nil
		}
	}
	out, err := inner.runBody(fn.body)
	e.steps = inner.steps
	return out, err
}

func callStringGlobal(name string, args []any) (any, error) {
	if name != "fromCharCode" {
		return nil, unsupportedf("String.%s", name)
	}
	var b strings.Builder
	for _, a := range args {
		b.WriteRune(rune(int(toNumber(a))))
	}
	return b.String(), nil
}

func callMathGlobal(name string, args []any) (any, error) {
	num := func(i int) float64 {
		if i < len(args) {
			return toNumber(args[i])
		}
		return math.NaN()
	}
	switch name {
	case "floor":
		return math.Floor(num(0)), nil
	case "ceil":
		return math.Ceil(num(0)), nil
	case "abs":
		return math.Abs(num(0)), nil
	case "min":
		return math.Min(num(0), num(1)), nil
	case "max":
		return math.Max(num(0), num(1)), nil
	case "pow":
		return math.Pow(num(0), num(1)), nil
	}
	return nil, unsupportedf("Math.%s", name)
}

func callStringMethod(s, name string, args []any) (any, error) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	switch name {
	case "split":
		sep := toString(arg(0))
		if len(args) == 0 {
			return &arrayVal{elems: []any{s}}, nil
		}
		parts := strings.Split(s, sep)
		elems := make([]any, len(parts))
		for i, p := range parts {
			elems[i] = p
		}
		return &arrayVal{elems: elems}, nil
	case "slice", "substring":
		start, end := sliceBounds(len(s), args)
		return s[start:end], nil
	case "charAt":
		i := int(toNumber(arg(0)))
		if i < 0 || i >= len(s) {
			return "", nil
		}
		return string(s[i]), nil
	case "charCodeAt":
		i := int(toNumber(arg(0)))
		if i < 0 || i >= len(s) {
			return math.NaN(), nil
		}
		return float64(s[i]), nil
	case "indexOf":
		return float64(strings.Index(s, toString(arg(0)))), nil
	case "replace":
		// Only literal string replacement; regex arguments never survive the
		// lexer, so arriving here means both operands are strings.
		return strings.Replace(s, toString(arg(0)), toString(arg(1)), 1), nil
	case "join":
		return nil, unsupportedf("join on string")
	case "toLowerCase":
		return strings.ToLower(s), nil
	case "toUpperCase":
		return strings.ToUpper(s), nil
	}
	return nil, unsupportedf("string method %q", name)
}

func callArrayMethod(a *arrayVal, name string, args []any) (any, error) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	switch name {
	case "join":
		sep := ","
		if len(args) > 0 {
			sep = toString(arg(0))
		}
		parts := make([]string, len(a.elems))
		for i, el := range a.elems {
			parts[i] = toString(el)
		}
		return strings.Join(parts, sep), nil
	case "reverse":
		for i, j := 0, len(a.elems)-1; i < j; i, j = i+1, j-1 {
			a.elems[i], a.elems[j] = a.elems[j], a.elems[i]
		}
		return a, nil
	case "slice":
		start, end := sliceBounds(len(a.elems), args)
		out := make([]any, end-start)
		copy(out, a.elems[start:end])
		return &arrayVal{elems: out}, nil
	case "splice":
		start := clampIndex(int(toNumber(arg(0))), len(a.elems))
		count := len(a.elems) - start
		if len(args) > 1 {
			count = int(toNumber(arg(1)))
		}
		if count < 0 {
			count = 0
		}
		if start+count > len(a.elems) {
			count = len(a.elems) - start
		}
		removed := make([]any, count)
		copy(removed, a.elems[start:start+count])
		a.elems = append(a.elems[:start], a.elems[start+count:]...)
		return &arrayVal{elems: removed}, nil
	case "push":
		a.elems = append(a.elems, args...)
		return float64(len(a.elems)), nil
	case "pop":
		if len(a.elems) == 0 {
			return nil, nil
		}
		last := a.elems[len(a.elems)-1]
		a.elems = a.elems[:len(a.elems)-1]
		return last, nil
	case "unshift":
		a.elems = append(append([]any{}, args...), a.elems...)
		return float64(len(a.elems)), nil
	case "shift":
		if len(a.elems) == 0 {
			return nil, nil
		}
		first := a.elems[0]
		a.elems = a.elems[1:]
		return first, nil
	case "indexOf":
		for i, el := range a.elems {
			if looseEquals(el, arg(0)) {
				return float64(i), nil
			}
		}
		return float64(-1), nil
	case "forEach":
		return nil, unsupportedf("forEach callback")
	}
	return nil, unsupportedf("array method %q", name)
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func sliceBounds(length int, args []any) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		start = clampIndex(int(toNumber(args[0])), length)
	}
	if len(args) > 1 {
		end = clampIndex(int(toNumber(args[1])), length)
	}
	if end < start {
		end = start
	}
	return start, end
}
