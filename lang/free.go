package lang

// nameSet is a set of keys that remembers insertion order.
type nameSet struct {
	seen  map[Key]struct{}
	order []Key
}

func (s *nameSet) add(k Key) {
	if s.seen == nil {
		s.seen = make(map[Key]struct{})
	}

	if _, ok := s.seen[k]; !ok {
		s.seen[k] = struct{}{}
		s.order = append(s.order, k)
	}
}

func (s *nameSet) has(k Key) bool {
	_, ok := s.seen[k]

	return ok
}

// addFreeOf adds the free names of e that are not in bound.
func (s *nameSet) addFreeOf(e Expr, bound *nameSet) {
	for _, k := range Free(e) {
		if !bound.has(k) {
			s.add(k)
		}
	}
}

// Free returns the names e references without binding them itself, in order
// of first reference.
func Free(e Expr) []Key {
	var free nameSet

	freeExpr(e, &free)

	return free.order
}

func freeExpr(e Expr, free *nameSet) {
	switch e := e.(type) {
	case *Literal:
	case *StringExpr:
		for _, p := range e.Parts {
			if p.Expr != nil {
				freeExpr(p.Expr, free)
			}
		}
	case *Identifier:
		free.add(e.Name)
	case *ListExpr:
		for _, el := range e.Elements {
			freeListElement(el, free)
		}
	case *MapExpr:
		for _, el := range e.Elements {
			freeMapElement(el, free)
		}
	case *LetExpr:
		var bound nameSet

		for _, b := range e.Bindings {
			free.addFreeOf(b.Value, &bound)
			freeBinding(b.Binding, free, &bound)
		}

		free.addFreeOf(e.Body, &bound)
	case *UnaryExpr:
		freeExpr(e.Operand, free)
	case *BinaryExpr:
		freeExpr(e.Left, free)
		freeExpr(e.Right, free)
	case *CallExpr:
		freeExpr(e.Func, free)

		for _, arg := range e.Args {
			switch arg := arg.(type) {
			case *ArgSingleton:
				freeExpr(arg.Expr, free)
			case *ArgKeyword:
				freeExpr(arg.Value, free)
			case *ArgSplat:
				freeExpr(arg.Expr, free)
			}
		}
	case *FuncExpr:
		var bound nameSet

		freeBinding(e.Positional, free, &bound)

		if e.Keywords != nil {
			freeBinding(e.Keywords, free, &bound)
		}

		free.addFreeOf(e.Body, &bound)
	case *BranchExpr:
		freeExpr(e.Cond, free)
		freeExpr(e.Then, free)
		freeExpr(e.Else, free)
	}
}

func freeListElement(el ListElement, free *nameSet) {
	switch el := el.(type) {
	case *ListSingleton:
		freeExpr(el.Expr, free)
	case *ListSplat:
		freeExpr(el.Expr, free)
	case *ListCond:
		freeExpr(el.Cond, free)
		freeListElement(el.Element, free)
	case *ListLoop:
		var bound, inner nameSet

		freeExpr(el.Iterable, free)
		freeBinding(el.Binding, free, &bound)
		freeListElement(el.Element, &inner)

		for _, k := range inner.order {
			if !bound.has(k) {
				free.add(k)
			}
		}
	}
}

func freeMapElement(el MapElement, free *nameSet) {
	switch el := el.(type) {
	case *MapEntry:
		freeExpr(el.Key, free)
		freeExpr(el.Value, free)
	case *MapSplat:
		freeExpr(el.Expr, free)
	case *MapCond:
		freeExpr(el.Cond, free)
		freeMapElement(el.Element, free)
	case *MapLoop:
		var bound, inner nameSet

		freeExpr(el.Iterable, free)
		freeBinding(el.Binding, free, &bound)
		freeMapElement(el.Element, &inner)

		for _, k := range inner.order {
			if !bound.has(k) {
				free.add(k)
			}
		}
	}
}

// freeBinding adds the names a pattern binds to bound, and the free names of
// its default expressions to free. A default may refer to names bound by
// earlier elements of the same pattern.
func freeBinding(b Binding, free, bound *nameSet) {
	switch b := b.(type) {
	case *IdentBinding:
		bound.add(b.Name)
	case *ListBinding:
		for _, el := range b.Elements {
			switch el.Kind {
			case ElementBinding:
				if el.Default != nil {
					free.addFreeOf(el.Default, bound)
				}

				freeBinding(el.Binding, free, bound)
			case ElementSlurpTo:
				bound.add(el.Name)
			}
		}
	case *MapBinding:
		for _, el := range b.Elements {
			switch el.Kind {
			case ElementBinding:
				if el.Default != nil {
					free.addFreeOf(el.Default, bound)
				}

				freeBinding(el.Binding, free, bound)
			case ElementSlurpTo:
				bound.add(el.Name)
			}
		}
	}
}

// Validate checks the structural rules the grammar does not enforce: a list
// pattern holds at most one slurp and a map pattern at most one named slurp.
func (f *File) Validate() error {
	for _, imp := range f.Imports {
		if err := validateBinding(imp.Binding); err != nil {
			return err
		}
	}

	return validateExpr(f.Body)
}

func validateExpr(e Expr) error {
	switch e := e.(type) {
	case *StringExpr:
		for _, p := range e.Parts {
			if p.Expr != nil {
				if err := validateExpr(p.Expr); err != nil {
					return err
				}
			}
		}
	case *ListExpr:
		for _, el := range e.Elements {
			if err := validateListElement(el); err != nil {
				return err
			}
		}
	case *MapExpr:
		for _, el := range e.Elements {
			if err := validateMapElement(el); err != nil {
				return err
			}
		}
	case *LetExpr:
		for _, b := range e.Bindings {
			if err := validateBinding(b.Binding); err != nil {
				return err
			}

			if err := validateExpr(b.Value); err != nil {
				return err
			}
		}

		return validateExpr(e.Body)
	case *UnaryExpr:
		return validateExpr(e.Operand)
	case *BinaryExpr:
		if err := validateExpr(e.Left); err != nil {
			return err
		}

		return validateExpr(e.Right)
	case *CallExpr:
		if err := validateExpr(e.Func); err != nil {
			return err
		}

		for _, arg := range e.Args {
			var err error

			switch arg := arg.(type) {
			case *ArgSingleton:
				err = validateExpr(arg.Expr)
			case *ArgKeyword:
				err = validateExpr(arg.Value)
			case *ArgSplat:
				err = validateExpr(arg.Expr)
			}

			if err != nil {
				return err
			}
		}
	case *FuncExpr:
		if err := validateBinding(e.Positional); err != nil {
			return err
		}

		if e.Keywords != nil {
			if err := validateBinding(e.Keywords); err != nil {
				return err
			}
		}

		return validateExpr(e.Body)
	case *BranchExpr:
		for _, x := range []Expr{e.Cond, e.Then, e.Else} {
			if err := validateExpr(x); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateListElement(el ListElement) error {
	switch el := el.(type) {
	case *ListSingleton:
		return validateExpr(el.Expr)
	case *ListSplat:
		return validateExpr(el.Expr)
	case *ListLoop:
		if err := validateBinding(el.Binding); err != nil {
			return err
		}

		if err := validateExpr(el.Iterable); err != nil {
			return err
		}

		return validateListElement(el.Element)
	case *ListCond:
		if err := validateExpr(el.Cond); err != nil {
			return err
		}

		return validateListElement(el.Element)
	}

	return nil
}

func validateMapElement(el MapElement) error {
	switch el := el.(type) {
	case *MapEntry:
		if err := validateExpr(el.Key); err != nil {
			return err
		}

		return validateExpr(el.Value)
	case *MapSplat:
		return validateExpr(el.Expr)
	case *MapLoop:
		if err := validateBinding(el.Binding); err != nil {
			return err
		}

		if err := validateExpr(el.Iterable); err != nil {
			return err
		}

		return validateMapElement(el.Element)
	case *MapCond:
		if err := validateExpr(el.Cond); err != nil {
			return err
		}

		return validateMapElement(el.Element)
	}

	return nil
}

func validateBinding(b Binding) error {
	switch b := b.(type) {
	case *ListBinding:
		slurps := 0

		for _, el := range b.Elements {
			if el.Kind == ElementBinding {
				if err := validateBinding(el.Binding); err != nil {
					return err
				}

				if el.Default != nil {
					if err := validateExpr(el.Default); err != nil {
						return err
					}
				}

				continue
			}

			if slurps++; slurps > 1 {
				return NewError(SyntaxError{MultiSlurp: true}).
					Tag(el.Span, ActionParse)
			}
		}
	case *MapBinding:
		slurps := 0

		for _, el := range b.Elements {
			if el.Kind == ElementSlurpTo {
				if slurps++; slurps > 1 {
					return NewError(SyntaxError{MultiSlurp: true}).
						Tag(el.Span, ActionParse)
				}

				continue
			}

			if err := validateBinding(el.Binding); err != nil {
				return err
			}

			if el.Default != nil {
				if err := validateExpr(el.Default); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
