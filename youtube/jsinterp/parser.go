package jsinterp

import "strconv"

type parser struct {
	toks []token
	pos  int
}

func parseStatements(src string) ([]stmt, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var out []stmt
	for !p.at(tEOF) {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) at(kind tokenKind) bool { return p.cur().kind == kind }

func (p *parser) atPunct(text string) bool {
	return p.cur().kind == tPunct && p.cur().text == text
}

func (p *parser) atIdent(text string) bool {
	return p.cur().kind == tIdent && p.cur().text == text
}

func (p *parser) eat(text string) bool {
	if p.atPunct(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.eat(text) {
		return unsupportedf("expected %q, found %q", text, p.cur().text)
	}
	return nil
}

func (p *parser) statement() (stmt, error) {
	switch {
	case p.eat(";"):
		return nil, nil
	case p.atIdent("var"), p.atIdent("let"), p.atIdent("const"):
		return p.varDecl()
	case p.atIdent("return"):
		p.next()
		if p.eat(";") || p.atPunct("}") || p.at(tEOF) {
			return &returnStmt{}, nil
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.eat(";")
		return &returnStmt{e: e}, nil
	case p.atIdent("if"):
		return p.ifStatement()
	case p.atIdent("for"):
		return p.forStatement()
	case p.atIdent("while"):
		return p.whileStatement()
	case p.atIdent("function"), p.atIdent("try"), p.atIdent("switch"), p.atIdent("throw"), p.atIdent("new"):
		return nil, unsupportedf("statement keyword %q", p.cur().text)
	default:
		return p.simpleStatement()
	}
}

func (p *parser) varDecl() (stmt, error) {
	p.next() // var/let/const
	if !p.at(tIdent) {
		return nil, unsupportedf("expected identifier after var, found %q", p.cur().text)
	}
	name := p.next().text
	var init expr
	if p.eat("=") {
		e, err := p.ternary()
		if err != nil {
			return nil, err
		}
		init = e
	}
	if p.atPunct(",") {
		return nil, unsupportedf("multiple declarators in one var statement")
	}
	p.eat(";")
	return &varDeclStmt{name: name, init: init}, nil
}

// simpleStatement parses assignments and expression statements.
func (p *parser) simpleStatement() (stmt, error) {
	target, err := p.expression()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{"=", "+=", "-=", "*=", "/=", "%="} {
		if p.atPunct(op) {
			p.next()
			value, err := p.expression()
			if err != nil {
				return nil, err
			}
			p.eat(";")
			switch target.(type) {
			case *identExpr, *indexExpr, *memberExpr:
				return &assignStmt{target: target, op: op, value: value}, nil
			}
			return nil, unsupportedf("invalid assignment target")
		}
	}
	p.eat(";")
	return &exprStmt{e: target}, nil
}

func (p *parser) ifStatement() (stmt, error) {
	p.next() // if
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.blockOrSingle()
	if err != nil {
		return nil, err
	}
	var els []stmt
	if p.atIdent("else") {
		p.next()
		if p.atIdent("if") {
			nested, err := p.ifStatement()
			if err != nil {
				return nil, err
			}
			els = []stmt{nested}
		} else {
			els, err = p.blockOrSingle()
			if err != nil {
				return nil, err
			}
		}
	}
	return &ifStmt{cond: cond, then: then, els: els}, nil
}

func (p *parser) forStatement() (stmt, error) {
	p.next() // for
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var init stmt
	var err error
	if !p.atPunct(";") {
		init, err = p.statement()
		if err != nil {
			return nil, err
		}
	} else {
		p.next()
	}
	var cond expr
	if !p.atPunct(";") {
		cond, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	p.eat(";")
	var post stmt
	if !p.atPunct(")") {
		post, err = p.simpleStatement()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.blockOrSingle()
	if err != nil {
		return nil, err
	}
	return &forStmt{init: init, cond: cond, post: post, body: body}, nil
}

func (p *parser) whileStatement() (stmt, error) {
	p.next() // while
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.blockOrSingle()
	if err != nil {
		return nil, err
	}
	return &whileStmt{cond: cond, body: body}, nil
}

func (p *parser) blockOrSingle() ([]stmt, error) {
	if p.eat("{") {
		var out []stmt
		for !p.atPunct("}") {
			if p.at(tEOF) {
				return nil, unsupportedf("unterminated block")
			}
			s, err := p.statement()
			if err != nil {
				return nil, err
			}
			if s != nil {
				out = append(out, s)
			}
		}
		p.next() // }
		return out, nil
	}
	s, err := p.statement()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return []stmt{s}, nil
}

// expression parses a full expression including comma sequences, which
// evaluate left to right yielding the last value.
func (p *parser) expression() (expr, error) {
	e, err := p.ternary()
	if err != nil {
		return nil, err
	}
	for p.atPunct(",") {
		p.next()
		right, err := p.ternary()
		if err != nil {
			return nil, err
		}
		e = &binaryExpr{op: ",", x: e, y: right}
	}
	return e, nil
}

func (p *parser) ternary() (expr, error) {
	cond, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	if !p.eat("?") {
		return cond, nil
	}
	then, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return &condExpr{cond: cond, then: then, els: els}, nil
}

// binary operator precedence levels, lowest first.
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6, "===": 6, "!==": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *parser) binary(minPrec int) (expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tPunct {
			return left, nil
		}
		prec, ok := precedence[t.text]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: t.text, x: left, y: right}
	}
}

func (p *parser) unary() (expr, error) {
	for _, op := range []string{"-", "+", "!", "~", "++", "--"} {
		if p.atPunct(op) {
			p.next()
			x, err := p.unary()
			if err != nil {
				return nil, err
			}
			return &unaryExpr{op: op, x: x}, nil
		}
	}
	return p.postfix()
}

func (p *parser) postfix() (expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.eat("."):
			if !p.at(tIdent) {
				return nil, unsupportedf("expected member name, found %q", p.cur().text)
			}
			e = &memberExpr{obj: e, name: p.next().text}
		case p.eat("["):
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			e = &indexExpr{obj: e, idx: idx}
		case p.eat("("):
			var args []expr
			for !p.atPunct(")") {
				if p.at(tEOF) {
					return nil, unsupportedf("unterminated call")
				}
				a, err := p.ternary()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.eat(",") {
					break
				}
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			e = &callExpr{callee: e, args: args}
		case p.atPunct("++"), p.atPunct("--"):
			op := p.next().text
			e = &postfixExpr{op: op, x: e}
		default:
			return e, nil
		}
	}
}

func (p *parser) primary() (expr, error) {
	t := p.cur()
	switch t.kind {
	case tNumber:
		p.next()
		v, err := parseJSNumber(t.text)
		if err != nil {
			return nil, unsupportedf("bad number literal %q", t.text)
		}
		return &numberLit{v: v}, nil
	case tString:
		p.next()
		return &stringLit{v: t.text}, nil
	case tIdent:
		switch t.text {
		case "function", "new", "typeof", "delete", "void", "this":
			return nil, unsupportedf("expression keyword %q", t.text)
		case "null", "undefined":
			p.next()
			return &identExpr{name: t.text}, nil
		}
		p.next()
		return &identExpr{name: t.text}, nil
	case tPunct:
		switch t.text {
		case "(":
			p.next()
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return e, nil
		case "[":
			p.next()
			var elems []expr
			for !p.atPunct("]") {
				if p.at(tEOF) {
					return nil, unsupportedf("unterminated array literal")
				}
				e, err := p.ternary()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if !p.eat(",") {
					break
				}
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			return &arrayLit{elems: elems}, nil
		case "{":
			return nil, unsupportedf("object literal expression")
		}
	}
	return nil, unsupportedf("unexpected token %q", t.text)
}

func parseJSNumber(text string) (float64, error) {
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		n, err := strconv.ParseInt(text[2:], 16, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(text, 64)
}
