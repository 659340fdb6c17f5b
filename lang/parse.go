package lang

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// errNoMatch reports that a rule did not match at its first token. The
// caller restores nothing; rules only consume input once they commit.
var errNoMatch = errors.New("no match")

var keywords = map[string]struct{}{
	"for": {}, "when": {}, "if": {}, "then": {}, "else": {}, "let": {},
	"in": {}, "true": {}, "false": {}, "null": {}, "and": {}, "or": {},
	"not": {}, "as": {}, "import": {},
}

// mapKeyStop holds the bytes that end a bare map key.
const mapKeyStop = ",=:$}()|\"' \t\n\r#"

// Parse parses a source file. Identical source parsed with identical options
// is parsed once per process; see [ClearCache].
//
// A syntax error is returned as an *Error rendered against source.
func Parse(ctx context.Context, source string, opts ...Option) (*File, error) {
	cfg := makeConfig(opts...)

	cfg.logger.TraceContext(ctx, "parse start",
		slog.Int("source_bytes", len(source)))

	f, err := parseCached(ctx, source, &cfg)
	if err != nil {
		return nil, asError(err).With().Render(source)
	}

	return f, nil
}

// ParseExpr parses a single expression with no import statements.
func ParseExpr(ctx context.Context, source string, opts ...Option) (Expr, error) {
	cfg := makeConfig(opts...)

	p := newParser(source, cfg.key.MaxDepth)
	p.skip()

	e, err := p.expression()
	if err == nil {
		p.skip()

		if !p.eof() {
			err = p.fail(SyntaxEndOfInput)
		}
	}

	if err != nil {
		return nil, asError(p.commit(err, SyntaxExpression)).Render(source)
	}

	if err := validateExpr(e.Expr); err != nil {
		return nil, asError(err).Render(source)
	}

	cfg.logger.TraceContext(ctx, "parse expression complete",
		slog.Int("source_bytes", len(source)))

	return e.Expr, nil
}

// parse parses and validates source without consulting the cache. Errors are
// returned unrendered.
func parse(ctx context.Context, source string, cfg *config) (*File, error) {
	start := time.Now()

	p := newParser(source, cfg.key.MaxDepth)

	f, err := p.file()
	if err == nil {
		err = f.Validate()
	}

	if err != nil {
		cfg.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("source_bytes", len(source)),
		slog.Int("imports", len(f.Imports)),
		slog.Duration("elapsed", time.Since(start)))

	return f, nil
}

// parser holds the parser state.
type parser struct {
	input    string
	lines    []int // offsets of line starts
	pos      int
	depth    int
	maxDepth int
}

func newParser(input string, maxDepth int) *parser {
	lines := []int{0}

	for i := range len(input) {
		if input[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &parser{input: input, lines: lines, maxDepth: maxDepth}
}

// pexpr is a parsed expression together with its outer span, which differs
// from the node's own span only for parenthesized expressions.
type pexpr struct {
	Expr

	outer Location
}

func naked(e Expr) pexpr { return pexpr{Expr: e, outer: e.Loc()} }

// line returns the 1-based line number containing offset off.
func (p *parser) line(off int) int {
	i, found := slices.BinarySearch(p.lines, off)
	if !found {
		i--
	}

	return i + 1
}

func (p *parser) span(start, end int) Location {
	return Location{Offset: start, Line: p.line(start), Length: end - start}
}

func (p *parser) here() Location { return p.span(p.pos, p.pos+1) }

// fail returns a hard syntax error at the current position.
func (p *parser) fail(elems ...SyntaxElement) error {
	return NewError(expected(elems...)).Tag(p.here(), ActionParse)
}

// commit promotes a soft mismatch into a hard syntax error. Other errors
// pass through.
func (p *parser) commit(err error, elems ...SyntaxElement) error {
	if err == errNoMatch {
		return p.fail(elems...)
	}

	return err
}

func (p *parser) enter() error {
	if p.depth >= p.maxDepth {
		return NewError(ErrTooDeep).Tag(p.here(), ActionParse)
	}

	p.depth++

	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) peekByte() byte {
	if p.eof() {
		return 0
	}

	return p.input[p.pos]
}

// lit consumes s if the input continues with it.
func (p *parser) lit(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)

		return true
	}

	return false
}

// token consumes s and any whitespace following it, returning the location
// of s.
func (p *parser) token(s string) (Location, bool) {
	start := p.pos
	if !p.lit(s) {
		return Location{}, false
	}

	loc := p.span(start, p.pos)
	p.skip()

	return loc, true
}

// wordEnd returns the end of the run of identifier characters at i.
func (p *parser) wordEnd(i int) int {
	for i < len(p.input) {
		r, n := utf8.DecodeRuneInString(p.input[i:])
		if !isIdentifierContinue(r) {
			break
		}

		i += n
	}

	return i
}

func (p *parser) atKeyword(word string) bool {
	return p.input[p.pos:p.wordEnd(p.pos)] == word
}

// keyword consumes word and any whitespace following it, provided word is
// not the prefix of a longer identifier.
func (p *parser) keyword(word string) (Location, bool) {
	if !p.atKeyword(word) {
		return Location{}, false
	}

	return p.token(word)
}

// skip consumes whitespace and line comments.
func (p *parser) skip() {
	for !p.eof() {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		case '#':
			p.skipLineComment()
		default:
			return
		}
	}
}

func (p *parser) skipLineComment() {
	for !p.eof() && p.input[p.pos] != '\n' {
		p.pos++
	}
}

// seplist parses comma-separated items up to one of the terminators, which
// it consumes along with trailing whitespace. The item function reports
// whether it consumed its own separator. It returns the location of the
// terminator and which terminator matched.
func (p *parser) seplist(
	terms []string,
	item func() (bool, error),
	errItem, errSep []SyntaxElement,
) (Location, string, error) {
	terminate := func() (Location, string, bool) {
		for _, t := range terms {
			if loc, ok := p.token(t); ok {
				return loc, t, true
			}
		}

		return Location{}, "", false
	}

	for {
		consumed, err := item()

		switch {
		case err == errNoMatch:
			if loc, t, ok := terminate(); ok {
				return loc, t, nil
			}

			return Location{}, "", p.fail(errItem...)
		case err != nil:
			return Location{}, "", err
		case consumed:
			if loc, t, ok := terminate(); ok {
				return loc, t, nil
			}

			continue
		}

		if _, ok := p.token(","); ok {
			continue
		}

		if loc, t, ok := terminate(); ok {
			return loc, t, nil
		}

		return Location{}, "", p.fail(errSep...)
	}
}

func (p *parser) file() (*File, error) {
	var f File

	p.skip()

	for {
		imp, err := p.importStatement()
		if err == errNoMatch {
			break
		}

		if err != nil {
			return nil, err
		}

		f.Imports = append(f.Imports, imp)
	}

	body, err := p.expression()
	if err != nil {
		return nil, p.commit(err, SyntaxExpression)
	}

	p.skip()

	if !p.eof() {
		return nil, p.fail(SyntaxEndOfInput)
	}

	f.Body = body.Expr

	return &f, nil
}

func (p *parser) importStatement() (Import, error) {
	start, ok := p.keyword("import")
	if !ok {
		return Import{}, errNoMatch
	}

	pathStart := p.pos

	var path strings.Builder
	if !p.lit(`"`) || !p.rawText(&path) || !p.lit(`"`) {
		p.pos = pathStart

		return Import{}, p.fail(SyntaxImportPath)
	}

	pathLoc := p.span(pathStart, p.pos)
	p.skip()

	if _, ok := p.keyword("as"); !ok {
		return Import{}, p.fail(SyntaxAs)
	}

	b, err := p.binding()
	if err != nil {
		return Import{}, p.commit(err, SyntaxBinding)
	}

	return Import{
		Binding:  b,
		Path:     path.String(),
		Span:     Span(start, b.Loc()),
		PathSpan: pathLoc,
	}, nil
}

func (p *parser) expression() (pexpr, error) {
	if err := p.enter(); err != nil {
		return pexpr{}, err
	}
	defer p.leave()

	for _, alt := range [...]func() (pexpr, error){
		p.letBlock,
		p.branch,
		p.keywordFunction,
		p.normalFunction,
		p.disjunction,
	} {
		if e, err := alt(); err != errNoMatch {
			return e, err
		}
	}

	return pexpr{}, errNoMatch
}

func (p *parser) letBlock() (pexpr, error) {
	start := p.pos

	var bindings []LetBinding

	for {
		if _, ok := p.keyword("let"); !ok {
			break
		}

		b, err := p.binding()
		if err != nil {
			return pexpr{}, p.commit(err, SyntaxBinding)
		}

		if _, ok := p.token("="); !ok {
			return pexpr{}, p.fail(SyntaxEquals)
		}

		v, err := p.expression()
		if err != nil {
			return pexpr{}, p.commit(err, SyntaxExpression)
		}

		bindings = append(bindings, LetBinding{Binding: b, Value: v.Expr})
	}

	if len(bindings) == 0 {
		return pexpr{}, errNoMatch
	}

	if _, ok := p.keyword("in"); !ok {
		return pexpr{}, p.fail(SyntaxIn)
	}

	body, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	return naked(&LetExpr{
		Body:     body.Expr,
		Bindings: bindings,
		Span:     p.span(start, body.outer.End()),
	}), nil
}

func (p *parser) branch() (pexpr, error) {
	start, ok := p.keyword("if")
	if !ok {
		return pexpr{}, errNoMatch
	}

	cond, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	if _, ok := p.keyword("then"); !ok {
		return pexpr{}, p.fail(SyntaxThen)
	}

	then, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	if _, ok := p.keyword("else"); !ok {
		return pexpr{}, p.fail(SyntaxElse)
	}

	els, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	return naked(&BranchExpr{
		Cond: cond.Expr,
		Then: then.Expr,
		Else: els.Expr,
		Span: Span(start, els.outer),
	}), nil
}

// keywordFunction parses `{|kwparams|} body`.
func (p *parser) keywordFunction() (pexpr, error) {
	open, ok := p.token("{|")
	if !ok {
		return pexpr{}, errNoMatch
	}

	kw, _, err := p.mapBindingBody(open, []string{"|}"},
		[]SyntaxElement{SyntaxCloseCurlyPipe, SyntaxKeywordParam},
		[]SyntaxElement{SyntaxCloseCurlyPipe, SyntaxComma})
	if err != nil {
		return pexpr{}, err
	}

	body, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	return naked(&FuncExpr{
		Positional: &ListBinding{Span: open},
		Keywords:   kw,
		Body:       body.Expr,
		Span:       Span(kw.Span, body.outer),
	}), nil
}

// normalFunction parses `|params| body` and `|params; kwparams| body`.
func (p *parser) normalFunction() (pexpr, error) {
	pos, term, err := p.listBinding("|", []string{"|", ";"},
		[]SyntaxElement{SyntaxPipe, SyntaxSemicolon, SyntaxPosParam},
		[]SyntaxElement{SyntaxPipe, SyntaxSemicolon, SyntaxComma})
	if err != nil {
		return pexpr{}, err
	}

	fn := &FuncExpr{Positional: pos}
	args := pos.Span

	if term == ";" {
		semi := Location{Offset: pos.Span.End() - 1, Line: p.line(pos.Span.End() - 1), Length: 1}

		kw, _, err := p.mapBindingBody(semi, []string{"|"},
			[]SyntaxElement{SyntaxPipe, SyntaxKeywordParam},
			[]SyntaxElement{SyntaxPipe, SyntaxComma})
		if err != nil {
			return pexpr{}, err
		}

		fn.Keywords = kw
		args = Span(args, kw.Span)
	}

	body, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	fn.Body = body.Expr
	fn.Span = Span(args, body.outer)

	return naked(fn), nil
}

type binOpToken struct {
	text    string
	op      BinOp
	keyword bool
}

var (
	productOps     = []binOpToken{{"*", BinOpMultiply, false}, {"//", BinOpIntegerDivide, false}, {"/", BinOpDivide, false}}
	sumOps         = []binOpToken{{"+", BinOpAdd, false}, {"-", BinOpSubtract, false}}
	inequalityOps  = []binOpToken{{"<=", BinOpLessEqual, false}, {">=", BinOpGreaterEqual, false}, {"<", BinOpLess, false}, {">", BinOpGreater, false}}
	equalityOps    = []binOpToken{{"==", BinOpEqual, false}, {"!=", BinOpNotEqual, false}}
	conjunctionOps = []binOpToken{{"and", BinOpAnd, true}}
	disjunctionOps = []binOpToken{{"or", BinOpOr, true}}
)

// binary parses a left-associative chain of operand separated by ops.
func (p *parser) binary(ops []binOpToken, operand func() (pexpr, error)) (pexpr, error) {
	left, err := operand()
	if err != nil {
		return pexpr{}, err
	}

	for {
		var (
			loc Location
			op  BinOp
			ok  bool
		)

		for _, t := range ops {
			if t.keyword {
				loc, ok = p.keyword(t.text)
			} else {
				loc, ok = p.token(t.text)
			}

			if ok {
				op = t.op

				break
			}
		}

		if !ok {
			return left, nil
		}

		right, err := operand()
		if err != nil {
			return pexpr{}, p.commit(err, SyntaxOperand)
		}

		left = naked(&BinaryExpr{
			Left:   left.Expr,
			Right:  right.Expr,
			Span:   Span(left.outer, right.outer),
			OpSpan: loc,
			Op:     op,
		})
	}
}

func (p *parser) disjunction() (pexpr, error) { return p.binary(disjunctionOps, p.conjunction) }
func (p *parser) conjunction() (pexpr, error) { return p.binary(conjunctionOps, p.equality) }
func (p *parser) equality() (pexpr, error)    { return p.binary(equalityOps, p.inequality) }
func (p *parser) inequality() (pexpr, error)  { return p.binary(inequalityOps, p.sum) }
func (p *parser) sum() (pexpr, error)         { return p.binary(sumOps, p.product) }
func (p *parser) product() (pexpr, error)     { return p.binary(productOps, p.prefixed) }

// prefixed parses any number of prefix operators applied to a power
// expression.
func (p *parser) prefixed() (pexpr, error) {
	type prefix struct {
		loc Location
		op  UnOp
	}

	var ops []prefix

	for {
		if loc, ok := p.token("+"); ok {
			ops = append(ops, prefix{loc, UnOpPassthrough})
		} else if loc, ok := p.token("-"); ok {
			ops = append(ops, prefix{loc, UnOpNegate})
		} else if loc, ok := p.keyword("not"); ok {
			ops = append(ops, prefix{loc, UnOpNot})
		} else {
			break
		}
	}

	e, err := p.power()
	if len(ops) == 0 || err != nil {
		if len(ops) > 0 {
			err = p.commit(err, SyntaxOperand)
		}

		return e, err
	}

	for _, pre := range slices.Backward(ops) {
		e = naked(&UnaryExpr{
			Operand: e.Expr,
			Span:    Span(pre.loc, e.outer),
			OpSpan:  pre.loc,
			Op:      pre.op,
		})
	}

	return e, nil
}

// power parses `base ^ exponent`. The exponent may itself be prefixed, so
// -2^-2 is -(2^(-2)), and chains associate to the right.
func (p *parser) power() (pexpr, error) {
	base, err := p.postfixed()
	if err != nil {
		return pexpr{}, err
	}

	loc, ok := p.token("^")
	if !ok {
		return base, nil
	}

	if err := p.enter(); err != nil {
		return pexpr{}, err
	}
	defer p.leave()

	exp, err := p.prefixed()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxOperand)
	}

	return naked(&BinaryExpr{
		Left:   base.Expr,
		Right:  exp.Expr,
		Span:   Span(base.outer, exp.outer),
		OpSpan: loc,
		Op:     BinOpPower,
	}), nil
}

// postfixed parses an operand followed by any number of attribute accesses,
// subscripts and calls.
func (p *parser) postfixed() (pexpr, error) {
	e, err := p.postfixable()
	if err != nil {
		return pexpr{}, err
	}

	for {
		if dot, ok := p.token("."); ok {
			name, nameLoc, err := p.identifier()
			if err != nil {
				return pexpr{}, p.commit(err, SyntaxIdentifier)
			}

			p.skip()

			e = naked(&BinaryExpr{
				Left:   e.Expr,
				Right:  &Literal{Value: keyString(name), Span: nameLoc},
				Span:   Span(e.outer, nameLoc),
				OpSpan: dot,
				Op:     BinOpIndex,
			})

			continue
		}

		if open, ok := p.token("["); ok {
			sub, err := p.expression()
			if err != nil {
				return pexpr{}, p.commit(err, SyntaxExpression)
			}

			closeStart := p.pos
			if !p.lit("]") {
				return pexpr{}, p.fail(SyntaxCloseBracket)
			}

			op := Span(open, p.span(closeStart, p.pos))
			p.skip()

			e = naked(&BinaryExpr{
				Left:   e.Expr,
				Right:  sub.Expr,
				Span:   Span(e.outer, op),
				OpSpan: op,
				Op:     BinOpIndex,
			})

			continue
		}

		if open, ok := p.token("("); ok {
			var args []ArgElement

			closeLoc, _, err := p.seplist([]string{")"}, func() (bool, error) {
				arg, err := p.argElement()
				if err != nil {
					return false, err
				}

				args = append(args, arg)

				return false, nil
			},
				[]SyntaxElement{SyntaxCloseParen, SyntaxArgElement},
				[]SyntaxElement{SyntaxCloseParen, SyntaxComma})
			if err != nil {
				return pexpr{}, err
			}

			e = naked(&CallExpr{
				Func:     e.Expr,
				Args:     args,
				Span:     Span(e.outer, closeLoc),
				ArgsSpan: Span(open, closeLoc),
			})

			continue
		}

		return e, nil
	}
}

func (p *parser) argElement() (ArgElement, error) {
	if dots, ok := p.token("..."); ok {
		e, err := p.expression()
		if err != nil {
			return nil, p.commit(err, SyntaxExpression)
		}

		return &ArgSplat{Expr: e.Expr, Span: Span(dots, e.outer)}, nil
	}

	start := p.pos

	if name, nameLoc, err := p.identifier(); err == nil {
		p.skip()

		if _, ok := p.token(":"); ok {
			v, err := p.expression()
			if err != nil {
				return nil, p.commit(err, SyntaxExpression)
			}

			return &ArgKeyword{
				Value:    v.Expr,
				Name:     name,
				Span:     Span(nameLoc, v.outer),
				NameSpan: nameLoc,
			}, nil
		}

		p.pos = start
	}

	e, err := p.expression()
	if err != nil {
		return nil, err
	}

	return &ArgSingleton{Expr: e.Expr}, nil
}

func (p *parser) postfixable() (pexpr, error) {
	for _, alt := range [...]func() (pexpr, error){
		p.paren,
		p.atomic,
		p.identifierExpr,
		p.list,
		p.mapLit,
	} {
		if e, err := alt(); err != errNoMatch {
			return e, err
		}
	}

	return pexpr{}, errNoMatch
}

func (p *parser) paren() (pexpr, error) {
	open, ok := p.token("(")
	if !ok {
		return pexpr{}, errNoMatch
	}

	e, err := p.expression()
	if err != nil {
		return pexpr{}, p.commit(err, SyntaxExpression)
	}

	closeLoc, ok := p.token(")")
	if !ok {
		return pexpr{}, p.fail(SyntaxCloseParen)
	}

	return pexpr{Expr: e.Expr, outer: Span(open, closeLoc)}, nil
}

func (p *parser) identifierExpr() (pexpr, error) {
	name, loc, err := p.identifier()
	if err != nil {
		return pexpr{}, err
	}

	p.skip()

	return naked(&Identifier{Name: name, Span: loc}), nil
}

// identifier matches a name that is not a keyword. It does not consume
// trailing whitespace.
func (p *parser) identifier() (Key, Location, error) {
	r, _ := utf8.DecodeRuneInString(p.input[p.pos:])
	if !isIdentifierStart(r) {
		return Key{}, Location{}, errNoMatch
	}

	end := p.wordEnd(p.pos)

	name := p.input[p.pos:end]
	if _, ok := keywords[name]; ok {
		return Key{}, Location{}, errNoMatch
	}

	loc := p.span(p.pos, end)
	p.pos = end

	return Intern(name), loc, nil
}

func (p *parser) atomic() (pexpr, error) {
	for _, c := range [...]struct {
		word  string
		value Value
	}{
		{"null", Null()},
		{"true", Bool(true)},
		{"false", Bool(false)},
	} {
		if loc, ok := p.keyword(c.word); ok {
			return naked(&Literal{Value: c.value, Span: loc}), nil
		}
	}

	if e, err := p.float(); err != errNoMatch {
		return e, err
	}

	if e, err := p.integer(); err != errNoMatch {
		return e, err
	}

	return p.stringLit()
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// decimalEnd returns the end of a run of digits and underscores starting
// with a digit at i, or i if there is none.
func (p *parser) decimalEnd(i int) int {
	if i >= len(p.input) || !isDigit(p.input[i]) {
		return i
	}

	for i++; i < len(p.input) && (isDigit(p.input[i]) || p.input[i] == '_'); i++ {
	}

	return i
}

// exponentEnd returns the end of an exponent suffix at i, or i if there is
// none.
func (p *parser) exponentEnd(i int) int {
	if i >= len(p.input) || (p.input[i] != 'e' && p.input[i] != 'E') {
		return i
	}

	j := i + 1
	if j < len(p.input) && (p.input[j] == '+' || p.input[j] == '-') {
		j++
	}

	if k := p.decimalEnd(j); k > j {
		return k
	}

	return i
}

// float matches 1.5, 1., 1.5e3, .5, .5e3 and 1e3.
func (p *parser) float() (pexpr, error) {
	start, end := p.pos, -1

	if d := p.decimalEnd(start); d > start {
		if d < len(p.input) && p.input[d] == '.' {
			end = p.exponentEnd(p.decimalEnd(d + 1))
		} else if x := p.exponentEnd(d); x > d {
			end = x
		}
	} else if p.peekByte() == '.' {
		if d := p.decimalEnd(start + 1); d > start+1 {
			end = p.exponentEnd(d)
		}
	}

	if end < 0 {
		return pexpr{}, errNoMatch
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(p.input[start:end], "_", ""), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return pexpr{}, errNoMatch
	}

	p.pos = end
	loc := p.span(start, end)
	p.skip()

	return naked(&Literal{Value: Float(f), Span: loc}), nil
}

func (p *parser) integer() (pexpr, error) {
	start := p.pos

	end := p.decimalEnd(start)
	if end == start {
		return pexpr{}, errNoMatch
	}

	text := strings.ReplaceAll(p.input[start:end], "_", "")

	var v Value
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		v = Int(i)
	} else if x, ok := new(big.Int).SetString(text, 10); ok {
		v = BigInt(x)
	} else {
		return pexpr{}, errNoMatch
	}

	p.pos = end
	loc := p.span(start, end)
	p.skip()

	return naked(&Literal{Value: v, Span: loc}), nil
}

// rawText consumes string literal text up to a quote, interpolation or
// newline, unescaping \", \\ and \$ into sb. It reports whether anything
// was consumed.
func (p *parser) rawText(sb *strings.Builder) bool {
	start := p.pos

	for !p.eof() {
		c := p.input[p.pos]

		switch c {
		case '"', '$', '\n':
			return p.pos > start
		case '\\':
			if p.pos+1 < len(p.input) && strings.IndexByte(`"\$`, p.input[p.pos+1]) >= 0 {
				sb.WriteByte(p.input[p.pos+1])
				p.pos += 2

				continue
			}

			return p.pos > start
		}

		sb.WriteByte(c)
		p.pos++
	}

	return p.pos > start
}

// stringLit parses one or more adjacent string literals, which concatenate.
func (p *parser) stringLit() (pexpr, error) {
	if p.peekByte() != '"' {
		return pexpr{}, errNoMatch
	}

	var (
		parts []StringPart
		raw   strings.Builder
	)

	flush := func() {
		if raw.Len() > 0 {
			parts = append(parts, StringPart{Raw: raw.String()})
			raw.Reset()
		}
	}

	start, end := p.pos, p.pos

	for p.lit(`"`) {
		for {
			p.rawText(&raw)

			if !p.lit("$") {
				break
			}

			if !p.lit("{") {
				return pexpr{}, p.fail(SyntaxOpenBrace)
			}

			p.skip()
			flush()

			e, err := p.expression()
			if err != nil {
				return pexpr{}, p.commit(err, SyntaxExpression)
			}

			p.skip()

			if !p.lit("}") {
				return pexpr{}, p.fail(SyntaxCloseBrace)
			}

			parts = append(parts, StringPart{Expr: e.Expr})
		}

		if !p.lit(`"`) {
			return pexpr{}, p.fail(SyntaxDoubleQuote)
		}

		end = p.pos
		p.skip()
	}

	flush()

	loc := p.span(start, end)

	switch {
	case len(parts) == 0:
		return naked(&Literal{Value: keyString(Intern("")), Span: loc}), nil
	case len(parts) == 1 && parts[0].Expr == nil:
		return naked(&Literal{Value: String(parts[0].Raw), Span: loc}), nil
	default:
		return naked(&StringExpr{Parts: parts, Span: loc}), nil
	}
}

func (p *parser) list() (pexpr, error) {
	open, ok := p.token("[")
	if !ok {
		return pexpr{}, errNoMatch
	}

	var elems []ListElement

	closeLoc, _, err := p.seplist([]string{"]"}, func() (bool, error) {
		el, _, err := p.listElement()
		if err != nil {
			return false, err
		}

		elems = append(elems, el)

		return false, nil
	},
		[]SyntaxElement{SyntaxCloseBracket, SyntaxListElement},
		[]SyntaxElement{SyntaxCloseBracket, SyntaxComma})
	if err != nil {
		return pexpr{}, err
	}

	return naked(&ListExpr{Elements: elems, Span: Span(open, closeLoc)}), nil
}

// clauseEnd consumes the colon that ends a for or when clause. The colon
// may be left out when another for or when clause follows directly.
func (p *parser) clauseEnd() error {
	if _, ok := p.token(":"); ok {
		return nil
	}

	if p.atKeyword("for") || p.atKeyword("when") {
		return nil
	}

	return p.fail(SyntaxColon)
}

// loopHead parses `binding in iterable:` following a for keyword.
func (p *parser) loopHead() (Binding, Expr, error) {
	b, err := p.binding()
	if err != nil {
		return nil, nil, p.commit(err, SyntaxBinding)
	}

	if _, ok := p.keyword("in"); !ok {
		return nil, nil, p.fail(SyntaxIn)
	}

	iter, err := p.expression()
	if err != nil {
		return nil, nil, p.commit(err, SyntaxExpression)
	}

	return b, iter.Expr, p.clauseEnd()
}

// condHead parses `cond:` following a when keyword.
func (p *parser) condHead() (Expr, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, p.commit(err, SyntaxExpression)
	}

	return cond.Expr, p.clauseEnd()
}

// listElement returns the element and the end offset of its outer span.
func (p *parser) listElement() (ListElement, int, error) {
	if err := p.enter(); err != nil {
		return nil, 0, err
	}
	defer p.leave()

	if dots, ok := p.token("..."); ok {
		e, err := p.expression()
		if err != nil {
			return nil, 0, p.commit(err, SyntaxExpression)
		}

		return &ListSplat{Expr: e.Expr, Span: Span(dots, e.outer)}, e.outer.End(), nil
	}

	if start, ok := p.keyword("for"); ok {
		b, iter, err := p.loopHead()
		if err != nil {
			return nil, 0, err
		}

		el, end, err := p.listElement()
		if err != nil {
			return nil, 0, p.commit(err, SyntaxListElement)
		}

		return &ListLoop{
			Binding:  b,
			Iterable: iter,
			Element:  el,
			Span:     p.span(start.Offset, end),
		}, end, nil
	}

	if start, ok := p.keyword("when"); ok {
		cond, err := p.condHead()
		if err != nil {
			return nil, 0, err
		}

		el, end, err := p.listElement()
		if err != nil {
			return nil, 0, p.commit(err, SyntaxListElement)
		}

		return &ListCond{Cond: cond, Element: el, Span: p.span(start.Offset, end)}, end, nil
	}

	e, err := p.expression()
	if err != nil {
		return nil, 0, err
	}

	return &ListSingleton{Expr: e.Expr}, e.outer.End(), nil
}

func (p *parser) mapLit() (pexpr, error) {
	open, ok := p.token("{")
	if !ok {
		return pexpr{}, errNoMatch
	}

	var elems []MapElement

	closeLoc, _, err := p.seplist([]string{"}"}, func() (bool, error) {
		el, _, consumed, err := p.mapElement()
		if err != nil {
			return false, err
		}

		elems = append(elems, el)

		return consumed, nil
	},
		[]SyntaxElement{SyntaxCloseBrace, SyntaxMapElement},
		[]SyntaxElement{SyntaxCloseBrace, SyntaxComma})
	if err != nil {
		return pexpr{}, err
	}

	return naked(&MapExpr{Elements: elems, Span: Span(open, closeLoc)}), nil
}

// mapElement returns the element, the end offset of its outer span, and
// whether it consumed its own separator.
func (p *parser) mapElement() (MapElement, int, bool, error) {
	if err := p.enter(); err != nil {
		return nil, 0, false, err
	}
	defer p.leave()

	if dots, ok := p.token("..."); ok {
		e, err := p.expression()
		if err != nil {
			return nil, 0, false, p.commit(err, SyntaxExpression)
		}

		return &MapSplat{Expr: e.Expr, Span: Span(dots, e.outer)}, e.outer.End(), false, nil
	}

	if start, ok := p.keyword("for"); ok {
		b, iter, err := p.loopHead()
		if err != nil {
			return nil, 0, false, err
		}

		el, end, consumed, err := p.mapElement()
		if err != nil {
			return nil, 0, false, p.commit(err, SyntaxMapElement)
		}

		return &MapLoop{
			Binding:  b,
			Iterable: iter,
			Element:  el,
			Span:     p.span(start.Offset, end),
		}, end, consumed, nil
	}

	if start, ok := p.keyword("when"); ok {
		cond, err := p.condHead()
		if err != nil {
			return nil, 0, false, err
		}

		el, end, consumed, err := p.mapElement()
		if err != nil {
			return nil, 0, false, p.commit(err, SyntaxMapElement)
		}

		return &MapCond{Cond: cond, Element: el, Span: p.span(start.Offset, end)}, end, consumed, nil
	}

	return p.mapEntry()
}

func (p *parser) mapEntry() (MapElement, int, bool, error) {
	start := p.pos
	col := start - strings.LastIndexByte(p.input[:start], '\n')

	key, err := p.mapKey()
	if err != nil {
		return nil, 0, false, err
	}

	if p.lit("::") {
		v := p.multiline(col)

		return &MapEntry{Key: key, Value: v, Span: p.span(start, v.Span.End())},
			v.Span.End(), true, nil
	}

	if _, ok := p.token(":"); !ok {
		return nil, 0, false, p.fail(SyntaxColon)
	}

	v, err := p.expression()
	if err != nil {
		return nil, 0, false, p.commit(err, SyntaxExpression)
	}

	return &MapEntry{Key: key, Value: v.Expr, Span: p.span(start, v.outer.End())},
		v.outer.End(), false, nil
}

// mapKey parses `$expr`, a string literal, or a bare key.
func (p *parser) mapKey() (Expr, error) {
	if _, ok := p.token("$"); ok {
		e, err := p.expression()
		if err != nil {
			return nil, p.commit(err, SyntaxExpression)
		}

		return e.Expr, nil
	}

	if e, err := p.stringLit(); err != errNoMatch {
		return e.Expr, err
	}

	key, loc, ok := p.mapIdentifier()
	if !ok {
		return nil, errNoMatch
	}

	p.skip()

	return &Literal{Value: keyString(key), Span: loc}, nil
}

// mapIdentifier matches a bare map key, which may contain characters not
// allowed in identifiers. It does not consume trailing whitespace.
func (p *parser) mapIdentifier() (Key, Location, bool) {
	start := p.pos

	for !p.eof() && strings.IndexByte(mapKeyStop, p.input[p.pos]) < 0 {
		p.pos++
	}

	if p.pos == start {
		return Key{}, Location{}, false
	}

	return Intern(p.input[start:p.pos]), p.span(start, p.pos), true
}

// multiline consumes the text following `::` in a map entry: the rest of the
// line and every following line indented past column col. The text is
// dedented into a string literal.
func (p *parser) multiline(col int) *Literal {
	start := p.pos

	i := strings.IndexByte(p.input[start:], '\n')
	if i < 0 {
		i = len(p.input)
	} else {
		i += start + 1

		for i < len(p.input) {
			j := i
			for j < len(p.input) && (p.input[j] == ' ' || p.input[j] == '\t') {
				j++
			}

			if j-i+1 <= col {
				break
			}

			if k := strings.IndexByte(p.input[j:], '\n'); k >= 0 {
				i = j + k + 1
			} else {
				i = len(p.input)
			}
		}
	}

	p.pos = i
	lit := &Literal{Value: String(dedent(p.input[start:i])), Span: p.span(start, i)}
	p.skip()

	return lit
}

// dedent trims the first line and strips the common leading whitespace
// from the remaining non-blank lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	first := strings.TrimLeftFunc(lines[0], unicode.IsSpace)

	rest := make([]string, 0, len(lines)-1)
	indent := -1

	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}

		rest = append(rest, l)

		n := 0
		for _, r := range l {
			if !unicode.IsSpace(r) {
				break
			}

			n++
		}

		if indent < 0 || n < indent {
			indent = n
		}
	}

	var sb strings.Builder

	sb.WriteString(first)

	for _, l := range rest {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}

		skipped := 0
		for i := range l {
			if skipped == indent {
				sb.WriteString(l[i:])

				break
			}

			skipped++
		}
	}

	return sb.String()
}

// binding parses an identifier, list or map pattern and trailing
// whitespace.
func (p *parser) binding() (Binding, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if name, loc, err := p.identifier(); err == nil {
		p.skip()

		return &IdentBinding{Name: name, Span: loc}, nil
	}

	if b, _, err := p.listBinding("[", []string{"]"},
		[]SyntaxElement{SyntaxCloseBracket, SyntaxListBindingElement},
		[]SyntaxElement{SyntaxCloseBracket, SyntaxComma}); err != errNoMatch {
		if err != nil {
			return nil, err
		}

		return b, nil
	}

	open, ok := p.token("{")
	if !ok {
		return nil, errNoMatch
	}

	b, _, err := p.mapBindingBody(open, []string{"}"},
		[]SyntaxElement{SyntaxCloseBrace, SyntaxMapBindingElement},
		[]SyntaxElement{SyntaxCloseBrace, SyntaxComma})
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (p *parser) listBinding(
	open string,
	terms []string,
	errItem, errSep []SyntaxElement,
) (*ListBinding, string, error) {
	openLoc, ok := p.token(open)
	if !ok {
		return nil, "", errNoMatch
	}

	b := new(ListBinding)

	closeLoc, term, err := p.seplist(terms, func() (bool, error) {
		el, err := p.listBindingElement()
		if err != nil {
			return false, err
		}

		b.Elements = append(b.Elements, el)

		return false, nil
	}, errItem, errSep)
	if err != nil {
		return nil, "", err
	}

	b.Span = Span(openLoc, closeLoc)

	return b, term, nil
}

func (p *parser) listBindingElement() (ListBindingElement, error) {
	if dots, ok := p.token("..."); ok {
		if name, loc, err := p.identifier(); err == nil {
			p.skip()

			return ListBindingElement{
				Name: name,
				Span: Span(dots, loc),
				Kind: ElementSlurpTo,
			}, nil
		}

		return ListBindingElement{Span: dots, Kind: ElementSlurp}, nil
	}

	b, err := p.binding()
	if err != nil {
		return ListBindingElement{}, err
	}

	el := ListBindingElement{Binding: b, Span: b.Loc(), Kind: ElementBinding}

	if _, ok := p.token("="); ok {
		d, err := p.expression()
		if err != nil {
			return ListBindingElement{}, p.commit(err, SyntaxExpression)
		}

		el.Default = d.Expr
		el.Span = Span(el.Span, d.outer)
	}

	return el, nil
}

// mapBindingBody parses the elements of a map pattern whose opening
// delimiter, at open, has already been consumed.
func (p *parser) mapBindingBody(
	open Location,
	terms []string,
	errItem, errSep []SyntaxElement,
) (*MapBinding, string, error) {
	b := new(MapBinding)

	closeLoc, term, err := p.seplist(terms, func() (bool, error) {
		el, err := p.mapBindingElement()
		if err != nil {
			return false, err
		}

		b.Elements = append(b.Elements, el)

		return false, nil
	}, errItem, errSep)
	if err != nil {
		return nil, "", err
	}

	b.Span = Span(open, closeLoc)

	return b, term, nil
}

func (p *parser) mapBindingElement() (MapBindingElement, error) {
	if dots, ok := p.token("..."); ok {
		name, loc, err := p.identifier()
		if err != nil {
			return MapBindingElement{}, p.commit(err, SyntaxIdentifier)
		}

		p.skip()

		return MapBindingElement{
			Name: name,
			Span: Span(dots, loc),
			Kind: ElementSlurpTo,
		}, nil
	}

	key, keyLoc, ok := p.mapIdentifier()
	if !ok {
		return MapBindingElement{}, errNoMatch
	}

	p.skip()

	el := MapBindingElement{
		Binding: &IdentBinding{Name: key, Span: keyLoc},
		Key:     key,
		Span:    keyLoc,
		Kind:    ElementBinding,
	}

	if _, ok := p.keyword("as"); ok {
		b, err := p.binding()
		if err != nil {
			return MapBindingElement{}, p.commit(err, SyntaxBinding)
		}

		el.Binding = b
		el.Span = Span(el.Span, b.Loc())
	}

	if _, ok := p.token("="); ok {
		d, err := p.expression()
		if err != nil {
			return MapBindingElement{}, p.commit(err, SyntaxExpression)
		}

		el.Default = d.Expr
		el.Span = Span(el.Span, d.outer)
	}

	return el, nil
}

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
