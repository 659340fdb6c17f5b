package lang

// scopeKind distinguishes the three kinds of namespace.
type scopeKind uint8

const (
	// scopeRoot resolves names against the builtin table.
	scopeRoot scopeKind = iota
	// scopeFrozen is the read-only captured environment of a closure. Lookups
	// that miss do not continue to the builtins.
	scopeFrozen
	// scopeMutable is a frame created for a file, let block, loop or call.
	scopeMutable
)

// scope is a node in the namespace chain. Writes only target the innermost
// mutable frame; reads walk outward.
type scope struct {
	parent   *scope
	builtins *Builtins
	frozen   *Map
	names    map[Key]Value
	kind     scopeKind
}

func rootScope(b *Builtins) *scope {
	return &scope{kind: scopeRoot, builtins: b}
}

func frozenScope(closure *Map) *scope {
	if closure == nil {
		closure = MakeMap(0)
	}

	return &scope{kind: scopeFrozen, frozen: closure}
}

// subtend returns a new mutable frame whose parent is s.
func (s *scope) subtend() *scope {
	return &scope{kind: scopeMutable, parent: s}
}

func (s *scope) set(k Key, v Value) error {
	if s.kind != scopeMutable {
		return NewError(InternalError{Code: InternalSetInFrozenNamespace})
	}

	if s.names == nil {
		s.names = make(map[Key]Value)
	}

	s.names[k] = v

	return nil
}

func (s *scope) get(k Key) (Value, error) {
	for ns := s; ns != nil; ns = ns.parent {
		switch ns.kind {
		case scopeRoot:
			if v, ok := ns.builtins.Lookup(k); ok {
				return v, nil
			}

			return Value{}, unbound(k)
		case scopeFrozen:
			if v, ok := ns.frozen.Get(k); ok {
				return v, nil
			}

			return Value{}, unbound(k)
		default:
			if v, ok := ns.names[k]; ok {
				return v, nil
			}
		}
	}

	return Value{}, unbound(k)
}

// visible returns the names reachable from s, innermost first and without
// duplicates. It is used for completion.
func (s *scope) visible() []string {
	seen := make(map[string]struct{})

	var names []string

	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	for ns := s; ns != nil; ns = ns.parent {
		switch ns.kind {
		case scopeRoot:
			for name := range ns.builtins.Names() {
				add(name)
			}
		case scopeFrozen:
			for k := range ns.frozen.Keys() {
				add(k.String())
			}
		default:
			for k := range ns.names {
				add(k.String())
			}
		}
	}

	return names
}
