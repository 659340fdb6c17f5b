package lang

import (
	"context"
	"log/slog"
	"os"
)

// Session evaluates a sequence of inputs that share a namespace, as at an
// interactive prompt. An input is either a program, whose imports persist
// and whose value is returned, or a run of import statements and
// `let pattern = value` clauses without a body, which bind names for later
// inputs.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg      config
	ns       *scope
	resolver Resolver
}

// NewSession returns a session with an empty namespace. Relative imports
// resolve against the working directory.
func NewSession(opts ...Option) *Session {
	cfg := makeConfig(opts...)

	rs := []Resolver{StdResolver(), cfg.host()}

	if cwd, err := os.Getwd(); err == nil {
		rs = append(rs, CachedResolver(cfg.store, FileResolver(cwd, cfg.options()...), opts...))
	}

	return &Session{
		cfg:      cfg,
		ns:       rootScope(StandardBuiltins()).subtend(),
		resolver: SeqResolver(rs...),
	}
}

// Eval evaluates source in the session. Definitions evaluate to null.
func (s *Session) Eval(ctx context.Context, source string) (Value, error) {
	v, err := s.eval(ctx, source)
	if err != nil {
		s.cfg.logger.TraceContext(ctx, "session eval failed", slog.Any("error", err))

		return Value{}, asError(err).Render(source)
	}

	return v, nil
}

func (s *Session) eval(ctx context.Context, source string) (Value, error) {
	f, err := parseCached(ctx, source, &s.cfg)
	if err != nil {
		imps, lets, derr := parseDefinitions(source, s.cfg.key.MaxDepth)
		if derr != nil {
			return Value{}, asError(err).With()
		}

		return Null(), s.define(ctx, imps, lets)
	}

	ev := newEvaluator(ctx, &s.cfg)

	if err := ev.bindImports(f.Imports, s.resolver, s.ns); err != nil {
		return Value{}, err
	}

	return ev.eval(f.Body, s.ns)
}

func (s *Session) define(ctx context.Context, imps []Import, lets []LetBinding) error {
	ev := newEvaluator(ctx, &s.cfg)

	if err := ev.bindImports(imps, s.resolver, s.ns); err != nil {
		return err
	}

	for _, b := range lets {
		v, err := ev.eval(b.Value, s.ns)
		if err != nil {
			return err
		}

		if err := ev.bind(b.Binding, v, s.ns); err != nil {
			return err
		}
	}

	return nil
}

// Names returns the names visible in the session, most recently bound
// scopes first.
func (s *Session) Names() []string { return s.ns.visible() }

// parseDefinitions parses import statements followed by let clauses with no
// body.
func parseDefinitions(source string, maxDepth int) ([]Import, []LetBinding, error) {
	p := newParser(source, maxDepth)
	p.skip()

	var imps []Import

	for {
		imp, err := p.importStatement()
		if err == errNoMatch {
			break
		}

		if err != nil {
			return nil, nil, err
		}

		if err := validateBinding(imp.Binding); err != nil {
			return nil, nil, err
		}

		imps = append(imps, imp)
	}

	var lets []LetBinding

	for {
		if _, ok := p.keyword("let"); !ok {
			break
		}

		b, err := p.binding()
		if err != nil {
			return nil, nil, p.commit(err, SyntaxBinding)
		}

		if _, ok := p.token("="); !ok {
			return nil, nil, p.fail(SyntaxEquals)
		}

		v, err := p.expression()
		if err != nil {
			return nil, nil, p.commit(err, SyntaxExpression)
		}

		if err := validateBinding(b); err != nil {
			return nil, nil, err
		}

		if err := validateExpr(v.Expr); err != nil {
			return nil, nil, err
		}

		lets = append(lets, LetBinding{Binding: b, Value: v.Expr})
	}

	p.skip()

	if !p.eof() || len(imps)+len(lets) == 0 {
		return nil, nil, p.fail(SyntaxEndOfInput)
	}

	return imps, lets, nil
}

// Lookup returns the value bound to name in the session.
func (s *Session) Lookup(name string) (Value, bool) {
	v, err := s.ns.get(Intern(name))

	return v, err == nil
}

// Define binds name to v for later inputs, replacing any earlier binding of
// name made in the session.
func (s *Session) Define(name string, v Value) error {
	return s.ns.set(Intern(name), v)
}
