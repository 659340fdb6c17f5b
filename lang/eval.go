package lang

import (
	"context"
	"log/slog"
	"strings"
)

// evaluator walks an AST. One evaluator serves one top-level evaluation and
// is not safe for concurrent use.
type evaluator struct {
	ctx      context.Context
	cfg      *config
	builtins *Builtins
	depth    int
}

func newEvaluator(ctx context.Context, cfg *config) *evaluator {
	return &evaluator{ctx: ctx, cfg: cfg, builtins: StandardBuiltins()}
}

// cancelled returns an error if the evaluation context is done.
func (ev *evaluator) cancelled() error {
	if ev.ctx.Err() == nil {
		return nil
	}

	return WrapError(context.Cause(ev.ctx))
}

// evalFile binds the imports of f in a fresh frame and evaluates its body.
func (ev *evaluator) evalFile(f *File, r Resolver) (Value, error) {
	ns := rootScope(ev.builtins).subtend()

	if err := ev.bindImports(f.Imports, r, ns); err != nil {
		return Value{}, err
	}

	return ev.eval(f.Body, ns)
}

func (ev *evaluator) bindImports(imports []Import, r Resolver, ns *scope) error {
	for _, imp := range imports {
		v, err := ev.importValue(imp.Path, r)
		if err != nil {
			return tag(err, imp.PathSpan, ActionImport)
		}

		if err := ev.bind(imp.Binding, v, ns); err != nil {
			return err
		}
	}

	return nil
}

func (ev *evaluator) importValue(path string, r Resolver) (Value, error) {
	v, err := r.Resolve(ev.ctx, path)

	ev.cfg.logger.TraceContext(ev.ctx, "import",
		slog.String("path", path),
		slog.Bool("resolved", err == nil))

	if err != nil {
		e := asError(err)
		if e.Rendered() {
			e = reraise(e)
		}

		return Value{}, e
	}

	return v, nil
}

func (ev *evaluator) eval(e Expr, ns *scope) (Value, error) {
	switch e := e.(type) {
	case *Literal:
		return e.Value, nil

	case *StringExpr:
		var sb strings.Builder

		for _, part := range e.Parts {
			if part.Expr == nil {
				sb.WriteString(part.Raw)

				continue
			}

			v, err := ev.eval(part.Expr, ns)
			if err != nil {
				return Value{}, err
			}

			text, err := v.Format()
			if err != nil {
				return Value{}, tag(err, part.Expr.Loc(), ActionFormat)
			}

			sb.WriteString(text)
		}

		return heapString(sb.String()), nil

	case *Identifier:
		v, err := ns.get(e.Name)
		if err != nil {
			return Value{}, tag(err, e.Span, ActionLookupName)
		}

		return v, nil

	case *ListExpr:
		var items []Value

		for _, el := range e.Elements {
			if err := ev.fillList(el, ns, &items); err != nil {
				return Value{}, err
			}
		}

		return NewList(items...), nil

	case *MapExpr:
		m := MakeMap(len(e.Elements))

		for _, el := range e.Elements {
			if err := ev.fillMap(el, ns, m); err != nil {
				return Value{}, err
			}
		}

		return NewMap(m), nil

	case *LetExpr:
		sub := ns.subtend()

		for _, b := range e.Bindings {
			v, err := ev.eval(b.Value, sub)
			if err != nil {
				return Value{}, err
			}

			if err := ev.bind(b.Binding, v, sub); err != nil {
				return Value{}, err
			}
		}

		return ev.eval(e.Body, sub)

	case *UnaryExpr:
		return ev.unary(e, ns)

	case *BinaryExpr:
		return ev.binary(e, ns)

	case *CallExpr:
		return ev.call(e, ns)

	case *FuncExpr:
		free := Free(e)
		closure := MakeMap(len(free))

		for _, k := range free {
			v, err := ns.get(k)
			if err != nil {
				return Value{}, tag(err, e.Span, ActionLookupName)
			}

			closure.Set(k, v)
		}

		return functionValue(&Function{
			Positional: e.Positional,
			Keywords:   e.Keywords,
			Body:       e.Body,
			Closure:    closure,
		}), nil

	case *BranchExpr:
		cond, err := ev.eval(e.Cond, ns)
		if err != nil {
			return Value{}, err
		}

		if cond.Truthy() {
			return ev.eval(e.Then, ns)
		}

		return ev.eval(e.Else, ns)

	default:
		return Value{}, NewError(InternalError{Code: InternalUnknownNode})
	}
}

func (ev *evaluator) unary(e *UnaryExpr, ns *scope) (Value, error) {
	v, err := ev.eval(e.Operand, ns)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case UnOpNot:
		return Bool(!v.Truthy()), nil
	case UnOpNegate:
		r, err := v.Neg()
		if err != nil {
			return Value{}, tag(err, e.OpSpan, ActionEvaluate)
		}

		return r, nil
	default:
		return v, nil
	}
}

func (ev *evaluator) binary(e *BinaryExpr, ns *scope) (Value, error) {
	l, err := ev.eval(e.Left, ns)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case BinOpAnd:
		if !l.Truthy() {
			return l, nil
		}

		return ev.eval(e.Right, ns)
	case BinOpOr:
		if l.Truthy() {
			return l, nil
		}

		return ev.eval(e.Right, ns)
	}

	r, err := ev.eval(e.Right, ns)
	if err != nil {
		return Value{}, err
	}

	v, err := operate(e.Op, l, r)
	if err != nil {
		return Value{}, tag(err, e.OpSpan, ActionEvaluate)
	}

	return v, nil
}

// operate applies a strict binary operator to evaluated operands.
func operate(op BinOp, l, r Value) (Value, error) {
	switch op {
	case BinOpAdd:
		return l.Add(r)
	case BinOpSubtract:
		return l.Sub(r)
	case BinOpMultiply:
		return l.Mul(r)
	case BinOpDivide:
		return l.Div(r)
	case BinOpIntegerDivide:
		return l.IntDiv(r)
	case BinOpPower:
		return l.Pow(r)
	case BinOpIndex:
		return l.Index(r)
	case BinOpEqual:
		return Bool(l.Equal(r)), nil
	case BinOpNotEqual:
		return Bool(!l.Equal(r)), nil
	case BinOpLess, BinOpGreater, BinOpLessEqual, BinOpGreaterEqual:
		c, ok := l.Compare(r)
		if !ok {
			return Value{}, binOpMismatch(op, l, r)
		}

		switch op {
		case BinOpLess:
			return Bool(c < 0), nil
		case BinOpGreaterEqual:
			return Bool(c >= 0), nil
		case BinOpGreater:
			return Bool(c > 0), nil
		default:
			return Bool(c <= 0), nil
		}
	default:
		return Value{}, binOpMismatch(op, l, r)
	}
}

func (ev *evaluator) call(e *CallExpr, ns *scope) (Value, error) {
	fn, err := ev.eval(e.Func, ns)
	if err != nil {
		return Value{}, err
	}

	var args []Value

	kwargs := MakeMap(0)

	for _, arg := range e.Args {
		if err := ev.fillArgs(arg, ns, &args, kwargs); err != nil {
			return Value{}, err
		}
	}

	v, err := ev.Call(fn, args, kwargs)
	if err != nil {
		return Value{}, tag(err, e.ArgsSpan, ActionEvaluate)
	}

	return v, nil
}

// Call invokes fn with positional and keyword arguments. It implements
// [Caller] for builtins that take function arguments.
func (ev *evaluator) Call(fn Value, args []Value, kwargs *Map) (Value, error) {
	if err := ev.cancelled(); err != nil {
		return Value{}, err
	}

	switch fn.kind {
	case KindFunction:
		if ev.depth >= ev.cfg.key.MaxDepth {
			return Value{}, NewError(ErrTooDeep)
		}

		ev.depth++
		defer func() { ev.depth-- }()

		if ev.depth%100 == 0 {
			ev.cfg.logger.TraceContext(ev.ctx, "call depth",
				slog.Int("depth", ev.depth))
		}

		f, _ := fn.Function()

		sub := frozenScope(f.Closure).subtend()

		if err := ev.bindList(f.Positional.Elements, args, sub); err != nil {
			return Value{}, err
		}

		if f.Keywords != nil {
			if kwargs == nil {
				kwargs = MakeMap(0)
			}

			if err := ev.bindMap(f.Keywords.Elements, kwargs, sub); err != nil {
				return Value{}, err
			}
		}

		return ev.eval(f.Body, sub)

	case KindBuiltin:
		b, _ := fn.Builtin()

		return b.Fn(ev, args, kwargs)

	case KindCallable:
		c, _ := fn.Callable()

		v, err := c.Fn(ev.ctx, args, kwargs)
		if err != nil {
			return Value{}, WrapError(err)
		}

		return v, nil

	default:
		return Value{}, mismatch(MismatchCall, fn.Type())
	}
}

func (ev *evaluator) fillList(el ListElement, ns *scope, items *[]Value) error {
	switch el := el.(type) {
	case *ListSingleton:
		v, err := ev.eval(el.Expr, ns)
		if err != nil {
			return err
		}

		*items = append(*items, v)

	case *ListSplat:
		v, err := ev.eval(el.Expr, ns)
		if err != nil {
			return err
		}

		l, ok := v.List()
		if !ok {
			return mismatch(MismatchSplatList, v.Type()).Tag(el.Expr.Loc(), ActionSplat)
		}

		*items = append(*items, l.items...)

	case *ListCond:
		cond, err := ev.eval(el.Cond, ns)
		if err != nil {
			return err
		}

		if cond.Truthy() {
			return ev.fillList(el.Element, ns, items)
		}

	case *ListLoop:
		l, err := ev.iterable(el.Iterable, ns)
		if err != nil {
			return err
		}

		sub := ns.subtend()

		for _, x := range l.items {
			if err := ev.cancelled(); err != nil {
				return err
			}

			if err := ev.bind(el.Binding, x, sub); err != nil {
				return err
			}

			if err := ev.fillList(el.Element, sub, items); err != nil {
				return err
			}
		}
	}

	return nil
}

func (ev *evaluator) fillMap(el MapElement, ns *scope, m *Map) error {
	switch el := el.(type) {
	case *MapEntry:
		kv, err := ev.eval(el.Key, ns)
		if err != nil {
			return err
		}

		k, ok := kv.Key()
		if !ok {
			return mismatch(MismatchMapKey, kv.Type()).Tag(el.Key.Loc(), ActionAssign)
		}

		v, err := ev.eval(el.Value, ns)
		if err != nil {
			return err
		}

		m.Set(k, v)

	case *MapSplat:
		v, err := ev.eval(el.Expr, ns)
		if err != nil {
			return err
		}

		from, ok := v.Map()
		if !ok {
			return mismatch(MismatchSplatMap, v.Type()).Tag(el.Expr.Loc(), ActionSplat)
		}

		for k, x := range from.All() {
			m.Set(k, x)
		}

	case *MapCond:
		cond, err := ev.eval(el.Cond, ns)
		if err != nil {
			return err
		}

		if cond.Truthy() {
			return ev.fillMap(el.Element, ns, m)
		}

	case *MapLoop:
		l, err := ev.iterable(el.Iterable, ns)
		if err != nil {
			return err
		}

		sub := ns.subtend()

		for _, x := range l.items {
			if err := ev.cancelled(); err != nil {
				return err
			}

			if err := ev.bind(el.Binding, x, sub); err != nil {
				return err
			}

			if err := ev.fillMap(el.Element, sub, m); err != nil {
				return err
			}
		}
	}

	return nil
}

// iterable evaluates e, which must produce a list.
func (ev *evaluator) iterable(e Expr, ns *scope) (*List, error) {
	v, err := ev.eval(e, ns)
	if err != nil {
		return nil, err
	}

	l, ok := v.List()
	if !ok {
		return nil, mismatch(MismatchIterate, v.Type()).Tag(e.Loc(), ActionIterate)
	}

	return l, nil
}

func (ev *evaluator) fillArgs(arg ArgElement, ns *scope, args *[]Value, kwargs *Map) error {
	switch arg := arg.(type) {
	case *ArgSingleton:
		v, err := ev.eval(arg.Expr, ns)
		if err != nil {
			return err
		}

		*args = append(*args, v)

	case *ArgSplat:
		v, err := ev.eval(arg.Expr, ns)
		if err != nil {
			return err
		}

		switch v.kind {
		case KindList:
			l, _ := v.List()
			*args = append(*args, l.items...)
		case KindMap:
			m, _ := v.Map()
			for k, x := range m.All() {
				kwargs.Set(k, x)
			}
		default:
			return mismatch(MismatchSplatArg, v.Type()).Tag(arg.Expr.Loc(), ActionSplat)
		}

	case *ArgKeyword:
		v, err := ev.eval(arg.Value, ns)
		if err != nil {
			return err
		}

		kwargs.Set(arg.Name, v)
	}

	return nil
}

// bind matches v against pattern b, setting names in ns.
func (ev *evaluator) bind(b Binding, v Value, ns *scope) error {
	switch b := b.(type) {
	case *IdentBinding:
		return ns.set(b.Name, v)

	case *ListBinding:
		if l, ok := v.List(); ok {
			if err := ev.bindList(b.Elements, l.items, ns); err != nil {
				return tag(err, b.Span, ActionBind)
			}

			return nil
		}

	case *MapBinding:
		if m, ok := v.Map(); ok {
			if err := ev.bindMap(b.Elements, m, ns); err != nil {
				return tag(err, b.Span, ActionBind)
			}

			return nil
		}
	}

	return NewError(UnpackError{
		Kind:    UnpackTypeMismatch,
		Binding: b.Type(),
		Type:    v.Type(),
	}).Tag(b.Loc(), ActionBind)
}

// bindList matches values against the elements of a list pattern. Each
// non-slurp element takes one value; a slurp takes the values left over.
func (ev *evaluator) bindList(elems []ListBindingElement, values []Value, ns *scope) error {
	nslurp := len(values) - len(elems) + 1
	next := 0

	for _, el := range elems {
		switch el.Kind {
		case ElementBinding:
			var v Value

			switch {
			case next < len(values):
				v = values[next]
				next++
			case el.Default != nil:
				d, err := ev.eval(el.Default, ns)
				if err != nil {
					return err
				}

				v = d
			default:
				return NewError(ErrListTooShort).Tag(el.Span, ActionBind)
			}

			if err := ev.bind(el.Binding, v, ns); err != nil {
				return err
			}

		case ElementSlurp, ElementSlurpTo:
			n := max(nslurp, 0)
			if next+n > len(values) {
				return NewError(ErrListTooShort).Tag(el.Span, ActionSlurp)
			}

			if el.Kind == ElementSlurpTo {
				rest := make([]Value, n)
				copy(rest, values[next:next+n])

				if err := ns.set(el.Name, NewList(rest...)); err != nil {
					return err
				}
			}

			next += n
		}
	}

	if next < len(values) {
		return NewError(ErrListTooLong)
	}

	return nil
}

// bindMap matches m against the elements of a map pattern. A named slurp
// receives the entries not claimed by any other element.
func (ev *evaluator) bindMap(elems []MapBindingElement, m *Map, ns *scope) error {
	var slurp *MapBindingElement

	for i, el := range elems {
		if el.Kind == ElementSlurpTo {
			slurp = &elems[i]

			continue
		}

		v, ok := m.Get(el.Key)
		if !ok {
			if el.Default == nil {
				return NewError(UnpackError{Kind: UnpackKeyMissing, Key: el.Key}).
					Tag(el.Span, ActionBind)
			}

			d, err := ev.eval(el.Default, ns)
			if err != nil {
				return err
			}

			v = d
		}

		if err := ev.bind(el.Binding, v, ns); err != nil {
			return err
		}
	}

	if slurp != nil {
		rest := m.Clone()

		for _, el := range elems {
			if el.Kind == ElementBinding {
				rest.Delete(el.Key)
			}
		}

		return ns.set(slurp.Name, NewMap(rest))
	}

	return nil
}
