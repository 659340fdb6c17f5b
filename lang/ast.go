package lang

import "strconv"

// File is a parsed source file: import statements followed by a single
// expression.
type File struct {
	Imports []Import
	Body    Expr
}

// Import is an `import "path" as binding` statement.
type Import struct {
	Binding  Binding
	Path     string
	Span     Location
	PathSpan Location
}

// Expr is an expression node. Nodes are immutable after parsing.
type Expr interface {
	// Loc returns the source span of the node.
	Loc() Location
	expr()
}

// Literal is a constant value.
type Literal struct {
	Value Value
	Span  Location
}

// StringExpr is a string literal containing interpolations.
type StringExpr struct {
	Parts []StringPart
	Span  Location
}

// StringPart is either raw text or an interpolated expression.
type StringPart struct {
	Expr Expr // nil for raw text
	Raw  string
}

// Identifier is a name reference.
type Identifier struct {
	Name Key
	Span Location
}

// ListExpr is a list literal.
type ListExpr struct {
	Elements []ListElement
	Span     Location
}

// MapExpr is a map literal.
type MapExpr struct {
	Elements []MapElement
	Span     Location
}

// LetExpr binds names sequentially and evaluates a body with them in scope.
type LetExpr struct {
	Body     Expr
	Bindings []LetBinding
	Span     Location
}

// LetBinding is one `let pattern = value` clause.
type LetBinding struct {
	Binding Binding
	Value   Expr
}

// UnaryExpr applies a prefix operator.
type UnaryExpr struct {
	Operand Expr
	Span    Location
	OpSpan  Location
	Op      UnOp
}

// BinaryExpr applies an infix operator. Indexing is a binary operator whose
// right operand is the subscript.
type BinaryExpr struct {
	Left   Expr
	Right  Expr
	Span   Location
	OpSpan Location
	Op     BinOp
}

// CallExpr is a function call.
type CallExpr struct {
	Func     Expr
	Args     []ArgElement
	Span     Location
	ArgsSpan Location
}

// FuncExpr is a function literal.
type FuncExpr struct {
	Positional *ListBinding
	Keywords   *MapBinding // nil unless keyword parameters are declared
	Body       Expr
	Span       Location
}

// BranchExpr is `if cond then a else b`.
type BranchExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Span Location
}

func (e *Literal) Loc() Location    { return e.Span }
func (e *StringExpr) Loc() Location { return e.Span }
func (e *Identifier) Loc() Location { return e.Span }
func (e *ListExpr) Loc() Location   { return e.Span }
func (e *MapExpr) Loc() Location    { return e.Span }
func (e *LetExpr) Loc() Location    { return e.Span }
func (e *UnaryExpr) Loc() Location  { return e.Span }
func (e *BinaryExpr) Loc() Location { return e.Span }
func (e *CallExpr) Loc() Location   { return e.Span }
func (e *FuncExpr) Loc() Location   { return e.Span }
func (e *BranchExpr) Loc() Location { return e.Span }

func (*Literal) expr()    {}
func (*StringExpr) expr() {}
func (*Identifier) expr() {}
func (*ListExpr) expr()   {}
func (*MapExpr) expr()    {}
func (*LetExpr) expr()    {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
func (*CallExpr) expr()   {}
func (*FuncExpr) expr()   {}
func (*BranchExpr) expr() {}

// ListElement is an element of a list literal: [*ListSingleton],
// [*ListSplat], [*ListLoop] or [*ListCond].
type ListElement interface {
	Loc() Location
	listElement()
}

// ListSingleton contributes one value.
type ListSingleton struct {
	Expr Expr
}

// ListSplat contributes every element of a list.
type ListSplat struct {
	Expr Expr
	Span Location
}

// ListLoop is `for binding in iterable: element`.
type ListLoop struct {
	Binding  Binding
	Iterable Expr
	Element  ListElement
	Span     Location
}

// ListCond is `when cond: element`.
type ListCond struct {
	Cond    Expr
	Element ListElement
	Span    Location
}

func (e *ListSingleton) Loc() Location { return e.Expr.Loc() }
func (e *ListSplat) Loc() Location     { return e.Span }
func (e *ListLoop) Loc() Location      { return e.Span }
func (e *ListCond) Loc() Location      { return e.Span }

func (*ListSingleton) listElement() {}
func (*ListSplat) listElement()     {}
func (*ListLoop) listElement()      {}
func (*ListCond) listElement()      {}

// MapElement is an element of a map literal: [*MapEntry], [*MapSplat],
// [*MapLoop] or [*MapCond].
type MapElement interface {
	Loc() Location
	mapElement()
}

// MapEntry contributes one key and value. The key expression must evaluate
// to a string.
type MapEntry struct {
	Key   Expr
	Value Expr
	Span  Location
}

// MapSplat contributes every entry of a map.
type MapSplat struct {
	Expr Expr
	Span Location
}

// MapLoop is `for binding in iterable: element`.
type MapLoop struct {
	Binding  Binding
	Iterable Expr
	Element  MapElement
	Span     Location
}

// MapCond is `when cond: element`.
type MapCond struct {
	Cond    Expr
	Element MapElement
	Span    Location
}

func (e *MapEntry) Loc() Location { return e.Span }
func (e *MapSplat) Loc() Location { return e.Span }
func (e *MapLoop) Loc() Location  { return e.Span }
func (e *MapCond) Loc() Location  { return e.Span }

func (*MapEntry) mapElement() {}
func (*MapSplat) mapElement() {}
func (*MapLoop) mapElement()  {}
func (*MapCond) mapElement()  {}

// ArgElement is an argument of a function call: [*ArgSingleton],
// [*ArgKeyword] or [*ArgSplat].
type ArgElement interface {
	Loc() Location
	argElement()
}

// ArgSingleton is a positional argument.
type ArgSingleton struct {
	Expr Expr
}

// ArgKeyword is a `name: value` argument.
type ArgKeyword struct {
	Value    Expr
	Name     Key
	Span     Location
	NameSpan Location
}

// ArgSplat spreads a list into positional arguments or a map into keyword
// arguments.
type ArgSplat struct {
	Expr Expr
	Span Location
}

func (e *ArgSingleton) Loc() Location { return e.Expr.Loc() }
func (e *ArgKeyword) Loc() Location   { return e.Span }
func (e *ArgSplat) Loc() Location     { return e.Span }

func (*ArgSingleton) argElement() {}
func (*ArgKeyword) argElement()   {}
func (*ArgSplat) argElement()     {}

// Binding is a destructuring pattern: [*IdentBinding], [*ListBinding] or
// [*MapBinding].
type Binding interface {
	Loc() Location
	Type() BindingType
}

// IdentBinding binds a value to a name.
type IdentBinding struct {
	Name Key
	Span Location
}

// ListBinding destructures a list.
type ListBinding struct {
	Elements []ListBindingElement
	Span     Location
}

// MapBinding destructures a map.
type MapBinding struct {
	Elements []MapBindingElement
	Span     Location
}

func (b *IdentBinding) Loc() Location { return b.Span }
func (b *ListBinding) Loc() Location  { return b.Span }
func (b *MapBinding) Loc() Location   { return b.Span }

func (*IdentBinding) Type() BindingType { return BindingIdentifier }
func (*ListBinding) Type() BindingType  { return BindingList }
func (*MapBinding) Type() BindingType   { return BindingMap }

// ElementKind distinguishes the forms of a binding pattern element.
type ElementKind uint8

const (
	// ElementBinding matches a single value, with an optional default.
	ElementBinding ElementKind = iota
	// ElementSlurp discards leftover list values (`...`).
	ElementSlurp
	// ElementSlurpTo collects leftover values or keys into a name
	// (`...name`).
	ElementSlurpTo
)

// ListBindingElement is an element of a list pattern.
type ListBindingElement struct {
	Binding Binding // ElementBinding
	Default Expr    // ElementBinding, may be nil
	Name    Key     // ElementSlurpTo
	Span    Location
	Kind    ElementKind
}

// MapBindingElement is an element of a map pattern. For ElementBinding, Key
// names the entry and Binding receives its value.
type MapBindingElement struct {
	Binding Binding
	Default Expr
	Key     Key
	Name    Key // ElementSlurpTo
	Span    Location
	Kind    ElementKind
}

// UnOp is a prefix operator.
type UnOp uint8

const (
	UnOpPassthrough UnOp = iota
	UnOpNegate
	UnOpNot
)

func (op UnOp) String() string {
	switch op {
	case UnOpPassthrough:
		return ""
	case UnOpNegate:
		return "-"
	case UnOpNot:
		return "not"
	default:
		return "UnOp(" + strconv.Itoa(int(op)) + ")"
	}
}

// BinOp is an infix operator.
type BinOp uint8

const (
	BinOpIndex BinOp = iota
	BinOpPower
	BinOpMultiply
	BinOpIntegerDivide
	BinOpDivide
	BinOpAdd
	BinOpSubtract
	BinOpLess
	BinOpGreater
	BinOpLessEqual
	BinOpGreaterEqual
	BinOpEqual
	BinOpNotEqual
	BinOpAnd
	BinOpOr
)

var binOpText = [...]string{
	BinOpIndex:         "subscript",
	BinOpPower:         "^",
	BinOpMultiply:      "*",
	BinOpIntegerDivide: "//",
	BinOpDivide:        "/",
	BinOpAdd:           "+",
	BinOpSubtract:      "-",
	BinOpLess:          "<",
	BinOpGreater:       ">",
	BinOpLessEqual:     "<=",
	BinOpGreaterEqual:  ">=",
	BinOpEqual:         "==",
	BinOpNotEqual:      "!=",
	BinOpAnd:           "and",
	BinOpOr:            "or",
}

func (op BinOp) String() string {
	if int(op) < len(binOpText) {
		return binOpText[op]
	}

	return "BinOp(" + strconv.Itoa(int(op)) + ")"
}
