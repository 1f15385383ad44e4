package jsinterp

// Statement and expression nodes for the narrow grammar the interpreter
// accepts. There is deliberately no closure, prototype, regex, try/catch or
// object-literal-expression support: the cipher and throttle functions
// observed in player scripts compose string/array primitives, arithmetic,
// conditionals and calls into one sibling helper object, nothing more.

type stmt interface{ stmtNode() }

type (
	varDeclStmt struct {
		name string
		init expr // nil when declared without initializer
	}
	assignStmt struct {
		target expr // identExpr, indexExpr or memberExpr
		op     string
		value  expr
	}
	exprStmt struct {
		e expr
	}
	returnStmt struct {
		e expr // nil for bare return
	}
	ifStmt struct {
		cond expr
		then []stmt
		els  []stmt
	}
	forStmt struct {
		init stmt // nil allowed
		cond expr
		post stmt
		body []stmt
	}
	whileStmt struct {
		cond expr
		body []stmt
	}
)

func (*varDeclStmt) stmtNode() {}
func (*assignStmt) stmtNode()  {}
func (*exprStmt) stmtNode()    {}
func (*returnStmt) stmtNode()  {}
func (*ifStmt) stmtNode()      {}
func (*forStmt) stmtNode()     {}
func (*whileStmt) stmtNode()   {}

type expr interface{ exprNode() }

type (
	identExpr struct {
		name string
	}
	numberLit struct {
		v float64
	}
	stringLit struct {
		v string
	}
	arrayLit struct {
		elems []expr
	}
	indexExpr struct {
		obj expr
		idx expr
	}
	memberExpr struct {
		obj  expr
		name string
	}
	callExpr struct {
		callee expr
		args   []expr
	}
	unaryExpr struct {
		op string
		x  expr
	}
	postfixExpr struct {
		op string
		x  expr
	}
	binaryExpr struct {
		op   string
		x, y expr
	}
	condExpr struct {
		cond expr
		then expr
		els  expr
	}
)

func (*identExpr) exprNode()   {}
func (*numberLit) exprNode()   {}
func (*stringLit) exprNode()   {}
func (*arrayLit) exprNode()    {}
func (*indexExpr) exprNode()   {}
func (*memberExpr) exprNode()  {}
func (*callExpr) exprNode()    {}
func (*unaryExpr) exprNode()   {}
func (*postfixExpr) exprNode() {}
func (*binaryExpr) exprNode()  {}
func (*condExpr) exprNode()    {}
