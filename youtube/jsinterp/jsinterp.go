// Package jsinterp evaluates the narrow JavaScript subset found in YouTube
// player scripts. It extracts a named function from minified source text and
// compiles it into a Go closure.
//
// This is intentionally not a JavaScript engine. The cipher and throttle
// transforms compose a small set of string/array primitives, arithmetic,
// conditionals and calls into one sibling helper object; everything outside
// that grammar is rejected with ErrUnsupported so that scheme changes surface
// as diagnosable extraction failures instead of corrupt URLs.
package jsinterp

import (
	"fmt"
	"regexp"
	"strings"
)

// Func is a compiled single-argument transform: the input string is bound to
// the function's first parameter and the return value must be a string.
type Func func(input string) (string, error)

// ExtractFunction locates function name in source, parses its body and the
// helper object it references, and returns a runnable closure.
func ExtractFunction(source, name string) (Func, error) {
	params, body, err := locateFunction(source, name)
	if err != nil {
		return nil, err
	}
	return Compile(source, name, params, body)
}

// Compile builds a Func from an already-located parameter list and body.
// Exposed for callers that find function bodies through their own patterns.
func Compile(source, name string, params []string, body string) (Func, error) {
	stmts, err := parseStatements(body)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w (body: %s)", name, err, snippet(body))
	}

	helpers, err := compileHelpers(source, stmts, params)
	if err != nil {
		return nil, fmt.Errorf("helpers for %q: %w", name, err)
	}

	fn := &function{params: params, body: stmts}
	return func(input string) (string, error) {
		scope := newEnv(helpers)
		out, err := scope.invoke(fn, []any{input})
		if err != nil {
			return "", fmt.Errorf("run %q: %w", name, err)
		}
		s, ok := out.(string)
		if !ok {
			return "", unsupportedf("function %q returned %T, want string", name, out)
		}
		return s, nil
	}, nil
}

// locateFunction finds the definition of name and returns its parameter list
// and brace-balanced body text. Minified names may contain '$', so the name
// is always regex-escaped.
func locateFunction(source, name string) ([]string, string, error) {
	quoted := regexp.QuoteMeta(name)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[;,\s{])` + quoted + `\s*=\s*function\s*\(([^)]*)\)\s*\{`),
		regexp.MustCompile(`function\s+` + quoted + `\s*\(([^)]*)\)\s*\{`),
		regexp.MustCompile(`(?:^|[,{\s])` + quoted + `\s*:\s*function\s*\(([^)]*)\)\s*\{`),
	}
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(source)
		if loc == nil {
			continue
		}
		params := splitParams(source[loc[2]:loc[3]])
		bodyStart := loc[1] // position just past the opening brace
		body, err := matchBraces(source, bodyStart)
		if err != nil {
			return nil, "", err
		}
		return params, body, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

func splitParams(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchBraces returns the text between the brace opened just before start and
// its matching close, skipping string literals.
func matchBraces(source string, start int) (string, error) {
	depth := 1
	var strChar byte
	for pos := start; pos < len(source); pos++ {
		c := source[pos]
		switch c {
		case '{':
			if strChar == 0 {
				depth++
			}
		case '}':
			if strChar == 0 {
				depth--
				if depth == 0 {
					return source[start:pos], nil
				}
			}
		case '"', '\'', '`':
			if pos > 1 && source[pos-1] == '\\' && source[pos-2] != '\\' {
				continue
			}
			if strChar == 0 {
				strChar = c
			} else if strChar == c {
				strChar = 0
			}
		}
	}
	return "", unsupportedf("unterminated function body")
}

// compileHelpers finds the sibling helper objects referenced from the parsed
// body and compiles their member functions.
func compileHelpers(source string, body []stmt, params []string) (map[string]map[string]*function, error) {
	exclude := map[string]bool{"String": true, "Math": true}
	for _, p := range params {
		exclude[p] = true
	}
	collectLocals(body, exclude)

	names := map[string]bool{}
	collectCallReceivers(body, exclude, names)

	helpers := make(map[string]map[string]*function)
	for name := range names {
		members, err := compileHelperObject(source, name)
		if err != nil {
			return nil, err
		}
		helpers[name] = members
	}
	return helpers, nil
}

func collectLocals(body []stmt, into map[string]bool) {
	for _, s := range body {
		switch st := s.(type) {
		case *varDeclStmt:
			into[st.name] = true
		case *ifStmt:
			collectLocals(st.then, into)
			collectLocals(st.els, into)
		case *forStmt:
			if st.init != nil {
				collectLocals([]stmt{st.init}, into)
			}
			collectLocals(st.body, into)
		case *whileStmt:
			collectLocals(st.body, into)
		}
	}
}

// collectCallReceivers gathers identifiers used as X in X.method(...) call
// sites, which is how minified bodies reference the helper object.
func collectCallReceivers(body []stmt, exclude, into map[string]bool) {
	var walkExpr func(expr)
	var walkStmts func([]stmt)

	walkExpr = func(x expr) {
		switch ex := x.(type) {
		case *callExpr:
			if m, ok := ex.callee.(*memberExpr); ok {
				if id, ok := m.obj.(*identExpr); ok && !exclude[id.name] {
					into[id.name] = true
				} else {
					walkExpr(m.obj)
				}
			} else {
				walkExpr(ex.callee)
			}
			for _, a := range ex.args {
				walkExpr(a)
			}
		case *indexExpr:
			walkExpr(ex.obj)
			walkExpr(ex.idx)
		case *memberExpr:
			walkExpr(ex.obj)
		case *unaryExpr:
			walkExpr(ex.x)
		case *postfixExpr:
			walkExpr(ex.x)
		case *binaryExpr:
			walkExpr(ex.x)
			walkExpr(ex.y)
		case *condExpr:
			walkExpr(ex.cond)
			walkExpr(ex.then)
			walkExpr(ex.els)
		case *arrayLit:
			for _, el := range ex.elems {
				walkExpr(el)
			}
		}
	}
	walkStmts = func(ss []stmt) {
		for _, s := range ss {
			switch st := s.(type) {
			case *varDeclStmt:
				if st.init != nil {
					walkExpr(st.init)
				}
			case *assignStmt:
				walkExpr(st.target)
				walkExpr(st.value)
			case *exprStmt:
				walkExpr(st.e)
			case *returnStmt:
				if st.e != nil {
					walkExpr(st.e)
				}
			case *ifStmt:
				walkExpr(st.cond)
				walkStmts(st.then)
				walkStmts(st.els)
			case *forStmt:
				if st.init != nil {
					walkStmts([]stmt{st.init})
				}
				if st.cond != nil {
					walkExpr(st.cond)
				}
				if st.post != nil {
					walkStmts([]stmt{st.post})
				}
				walkStmts(st.body)
			case *whileStmt:
				walkExpr(st.cond)
				walkStmts(st.body)
			}
		}
	}
	walkStmts(body)
}

var helperMemberRe = regexp.MustCompile(`(?:^|[,{\s])\s*(?:"([^"]+)"|([a-zA-Z0-9_$]+))\s*:\s*function\s*\(([^)]*)\)\s*\{`)

// compileHelperObject finds `var NAME={...}` in source and compiles each
// member function.
func compileHelperObject(source, name string) (map[string]*function, error) {
	re := regexp.MustCompile(`(?:var|let|const)\s+` + regexp.QuoteMeta(name) + `\s*=\s*\{`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil, fmt.Errorf("%w: helper object %q", ErrNotFound, name)
	}
	objBody, err := matchBraces(source, loc[1])
	if err != nil {
		return nil, err
	}

	members := make(map[string]*function)
	for offset := 0; ; {
		m := helperMemberRe.FindStringSubmatchIndex(objBody[offset:])
		if m == nil {
			break
		}
		memberName := ""
		if m[2] >= 0 {
			memberName = objBody[offset+m[2] : offset+m[3]]
		} else {
			memberName = objBody[offset+m[4] : offset+m[5]]
		}
		params := splitParams(objBody[offset+m[6] : offset+m[7]])
		bodyStart := offset + m[1]
		fnBody, err := matchBraces(objBody, bodyStart)
		if err != nil {
			return nil, err
		}
		stmts, err := parseStatements(fnBody)
		if err != nil {
			return nil, fmt.Errorf("helper %s.%s: %w (body: %s)", name, memberName, err, snippet(fnBody))
		}
		members[memberName] = &function{params: params, body: stmts}
		offset = bodyStart + len(fnBody) + 1
	}
	if len(members) == 0 {
		return nil, unsupportedf("helper object %q has no function members", name)
	}
	return members, nil
}
