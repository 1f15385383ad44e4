package jsinterp

import (
	"fmt"
	"math"
	"strings"
)

// maxSteps bounds statement execution so a mis-parsed loop cannot hang the
// resolution pass.
const maxSteps = 1 << 20

// arrayVal is a mutable JS array. Shared by reference like the real thing,
// which matters because helper functions splice and swap their argument in
// place.
type arrayVal struct {
	elems []any
}

type function struct {
	params []string
	body   []stmt
}

type env struct {
	vars    map[string]any
	helpers map[string]map[string]*function
	steps   int
}

type returnSignal struct {
	value any
}

func (r returnSignal) Error() string { return "return" }

func newEnv(helpers map[string]map[string]*function) *env {
	return &env{vars: make(map[string]any), helpers: helpers}
}

func (e *env) step() error {
	e.steps++
	if e.steps > maxSteps {
		return unsupportedf("execution step limit exceeded")
	}
	return nil
}

func (e *env) runBody(body []stmt) (any, error) {
	for _, s := range body {
		if err := e.exec(s); err != nil {
			if ret, ok := err.(returnSignal); ok {
				return ret.value, nil
			}
			return nil, err
		}
	}
	return nil, nil
}

func (e *env) exec(s stmt) error {
	if err := e.step(); err != nil {
		return err
	}
	switch st := s.(type) {
	case *varDeclStmt:
		var v any
		if st.init != nil {
			val, err := e.eval(st.init)
			if err != nil {
				return err
			}
			v = val
		}
		e.vars[st.name] = v
		return nil
	case *assignStmt:
		return e.assign(st)
	case *exprStmt:
		_, err := e.eval(st.e)
		return err
	case *returnStmt:
		var v any
		if st.e != nil {
			val, err := e.eval(st.e)
			if err != nil {
				return err
			}
			v = val
		}
		return returnSignal{value: v}
	case *ifStmt:
		cond, err := e.eval(st.cond)
		if err != nil {
			return err
		}
		branch := st.then
		if !truthy(cond) {
			branch = st.els
		}
		for _, inner := range branch {
			if err := e.exec(inner); err != nil {
				return err
			}
		}
		return nil
	case *forStmt:
		if st.init != nil {
			if err := e.exec(st.init); err != nil {
				return err
			}
		}
		for {
			if err := e.step(); err != nil {
				return err
			}
			if st.cond != nil {
				cond, err := e.eval(st.cond)
				if err != nil {
					return err
				}
				if !truthy(cond) {
					return nil
				}
			}
			for _, inner := range st.body {
				if err := e.exec(inner); err != nil {
					return err
				}
			}
			if st.post != nil {
				if err := e.exec(st.post); err != nil {
					return err
				}
			}
		}
	case *whileStmt:
		for {
			if err := e.step(); err != nil {
				return err
			}
			cond, err := e.eval(st.cond)
			if err != nil {
				return err
			}
			if !truthy(cond) {
				return nil
			}
			for _, inner := range st.body {
				if err := e.exec(inner); err != nil {
					return err
				}
			}
		}
	}
	return unsupportedf("unknown statement %T", s)
}

func (e *env) assign(st *assignStmt) error {
	value, err := e.eval(st.value)
	if err != nil {
		return err
	}
	if st.op != "=" {
		current, err := e.eval(st.target)
		if err != nil {
			return err
		}
		value, err = binaryOp(strings.TrimSuffix(st.op, "="), current, value)
		if err != nil {
			return err
		}
	}
	return e.store(st.target, value)
}

func (e *env) store(target expr, value any) error {
	switch t := target.(type) {
	case *identExpr:
		e.vars[t.name] = value
		return nil
	case *indexExpr:
		obj, err := e.eval(t.obj)
		if err != nil {
			return err
		}
		idxVal, err := e.eval(t.idx)
		if err != nil {
			return err
		}
		arr, ok := obj.(*arrayVal)
		if !ok {
			return unsupportedf("indexed assignment on non-array")
		}
		i := int(toNumber(idxVal))
		if i < 0 || i >= len(arr.elems) {
			// JS grows sparse arrays; the cipher bodies only ever write
			// within bounds, so treat out-of-range as corruption.
			return unsupportedf("index %d out of range (len %d)", i, len(arr.elems))
		}
		arr.elems[i] = value
		return nil
	case *memberExpr:
		return unsupportedf("member assignment to %q", t.name)
	}
	return unsupportedf("invalid assignment target %T", target)
}

func (e *env) eval(x expr) (any, error) {
	if err := e.step(); err != nil {
		return nil, err
	}
	switch ex := x.(type) {
	case *numberLit:
		return ex.v, nil
	case *stringLit:
		return ex.v, nil
	case *identExpr:
		if ex.name == "null" || ex.name == "undefined" {
			return nil, nil
		}
		if v, ok := e.vars[ex.name]; ok {
			return v, nil
		}
		if _, ok := e.helpers[ex.name]; ok {
			return helperRef(ex.name), nil
		}
		switch ex.name {
		case "String", "Math":
			return builtinRef(ex.name), nil
		}
		return nil, unsupportedf("undefined identifier %q", ex.name)
	case *arrayLit:
		arr := &arrayVal{elems: make([]any, 0, len(ex.elems))}
		for _, el := range ex.elems {
			v, err := e.eval(el)
			if err != nil {
				return nil, err
			}
			arr.elems = append(arr.elems, v)
		}
		return arr, nil
	case *indexExpr:
		obj, err := e.eval(ex.obj)
		if err != nil {
			return nil, err
		}
		idx, err := e.eval(ex.idx)
		if err != nil {
			return nil, err
		}
		return indexValue(obj, idx)
	case *memberExpr:
		obj, err := e.eval(ex.obj)
		if err != nil {
			return nil, err
		}
		if ex.name == "length" {
			switch v := obj.(type) {
			case string:
				return float64(len(v)), nil
			case *arrayVal:
				return float64(len(v.elems)), nil
			}
		}
		return nil, unsupportedf("member access %q outside call position", ex.name)
	case *unaryExpr:
		v, err := e.eval(ex.x)
		if err != nil {
			return nil, err
		}
		switch ex.op {
		case "-":
			return -toNumber(v), nil
		case "+":
			return toNumber(v), nil
		case "!":
			return !truthy(v), nil
		case "~":
			return float64(^int64(toNumber(v))), nil
		case "++", "--":
			return e.incDec(ex.x, ex.op, true)
		}
		return nil, unsupportedf("unary operator %q", ex.op)
	case *postfixExpr:
		return e.incDec(ex.x, ex.op, false)
	case *binaryExpr:
		if ex.op == "," {
			if _, err := e.eval(ex.x); err != nil {
				return nil, err
			}
			return e.eval(ex.y)
		}
		if ex.op == "&&" {
			left, err := e.eval(ex.x)
			if err != nil {
				return nil, err
			}
			if !truthy(left) {
				return left, nil
			}
			return e.eval(ex.y)
		}
		if ex.op == "||" {
			left, err := e.eval(ex.x)
			if err != nil {
				return nil, err
			}
			if truthy(left) {
				return left, nil
			}
			return e.eval(ex.y)
		}
		left, err := e.eval(ex.x)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ex.y)
		if err != nil {
			return nil, err
		}
		return binaryOp(ex.op, left, right)
	case *condExpr:
		cond, err := e.eval(ex.cond)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return e.eval(ex.then)
		}
		return e.eval(ex.els)
	case *callExpr:
		return e.call(ex)
	}
	return nil, unsupportedf("unknown expression %T", x)
}

func (e *env) incDec(target expr, op string, prefix bool) (any, error) {
	current, err := e.eval(target)
	if err != nil {
		return nil, err
	}
	old := toNumber(current)
	updated := old + 1
	if op == "--" {
		updated = old - 1
	}
	if err := e.store(target, updated); err != nil {
		return nil, err
	}
	if prefix {
		return updated, nil
	}
	return old, nil
}

type helperRef string
type builtinRef string

func indexValue(obj, idx any) (any, error) {
	i := int(toNumber(idx))
	switch v := obj.(type) {
	case string:
		if i < 0 || i >= len(v) {
			return nil, nil
		}
		return string(v[i]), nil
	case *arrayVal:
		if i < 0 || i >= len(v.elems) {
			return nil, nil
		}
		return v.elems[i], nil
	}
	return nil, unsupportedf("index on %T", obj)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	case *arrayVal:
		return true
	}
	return true
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err == nil {
			return f
		}
		return math.NaN()
	case nil:
		return math.NaN()
	}
	return math.NaN()
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return "undefined"
	case *arrayVal:
		parts := make([]string, len(t.elems))
		for i, el := range t.elems {
			parts[i] = toString(el)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("%v", v)
}

func binaryOp(op string, left, right any) (any, error) {
	switch op {
	case "+":
		if ls, ok := left.(string); ok {
			return ls + toString(right), nil
		}
		if rs, ok := right.(string); ok {
			return toString(left) + rs, nil
		}
		return toNumber(left) + toNumber(right), nil
	case "-":
		return toNumber(left) - toNumber(right), nil
	case "*":
		return toNumber(left) * toNumber(right), nil
	case "/":
		return toNumber(left) / toNumber(right), nil
	case "%":
		l, r := toNumber(left), toNumber(right)
		if r == 0 {
			return math.NaN(), nil
		}
		return math.Mod(l, r), nil
	case "<<":
		return float64(int64(toNumber(left)) << (uint64(toNumber(right)) & 31)), nil
	case ">>":
		return float64(int64(toNumber(left)) >> (uint64(toNumber(right)) & 31)), nil
	case ">>>":
		return float64(uint32(int64(toNumber(left))) >> (uint64(toNumber(right)) & 31)), nil
	case "&":
		return float64(int64(toNumber(left)) & int64(toNumber(right))), nil
	case "|":
		return float64(int64(toNumber(left)) | int64(toNumber(right))), nil
	case "^":
		return float64(int64(toNumber(left)) ^ int64(toNumber(right))), nil
	case "==", "===":
		return looseEquals(left, right), nil
	case "!=", "!==":
		return !looseEquals(left, right), nil
	case "<":
		return compare(left, right) < 0, nil
	case ">":
		return compare(left, right) > 0, nil
	case "<=":
		return compare(left, right) <= 0, nil
	case ">=":
		return compare(left, right) >= 0, nil
	}
	return nil, unsupportedf("binary operator %q", op)
}

func looseEquals(left, right any) bool {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return ls == rs
	}
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	return toNumber(left) == toNumber(right)
}

func compare(left, right any) int {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return strings.Compare(ls, rs)
	}
	l, r := toNumber(left), toNumber(right)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}
