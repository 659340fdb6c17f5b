package lang

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/gold/log"
)

// hyphenPatcher rejoins hyphenated names that expr-lang parses as
// subtraction.
//
// Bare gold map keys may contain hyphens (e.g., "log-level"), but in an
// expr-lang expression `cfg.log-level` parses as `cfg.log - level`. The
// patcher rewrites such a subtraction chain into a single identifier or
// member access when the joined name exists in the environment.
type hyphenPatcher struct {
	env    map[string]any
	logger log.Logger
}

// Visit implements ast.Visitor. Nodes are visited bottom-up, so a chain
// `a-b-c` is offered as `a-b` before `a-b-c`.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}

	base, name, ok := hyphenChain(bin)
	if !ok {
		return
	}

	scope := p.env

	if base != nil {
		path, ok := memberPath(base)
		if !ok {
			return
		}

		if scope, ok = lookupPath(p.env, path); !ok {
			return
		}
	}

	if _, ok := scope[name]; !ok {
		return
	}

	if base == nil {
		ast.Patch(node, &ast.IdentifierNode{Value: name})
	} else {
		ast.Patch(node, &ast.MemberNode{
			Node:     base,
			Property: &ast.StringNode{Value: name},
		})
	}

	p.logger.Trace("patch hyphenated",
		slog.String("name", name),
		slog.Bool("member", base != nil))
}

// hyphenChain flattens a subtraction chain ending in identifiers into the
// node the chain is a member of (nil at top level) and the hyphenated name.
func hyphenChain(bin *ast.BinaryNode) (ast.Node, string, bool) {
	if bin.Operator != "-" {
		return nil, "", false
	}

	right, ok := bin.Right.(*ast.IdentifierNode)
	if !ok {
		return nil, "", false
	}

	switch left := bin.Left.(type) {
	case *ast.IdentifierNode:
		return nil, left.Value + "-" + right.Value, true

	case *ast.MemberNode:
		prop, ok := left.Property.(*ast.StringNode)
		if !ok {
			return nil, "", false
		}

		return left.Node, prop.Value + "-" + right.Value, true

	case *ast.BinaryNode:
		base, name, ok := hyphenChain(left)
		if !ok {
			return nil, "", false
		}

		return base, name + "-" + right.Value, true

	default:
		return nil, "", false
	}
}

// memberPath returns the names along a chain of member accesses rooted at an
// identifier.
func memberPath(node ast.Node) ([]string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return []string{n.Value}, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}

		base, ok := memberPath(n.Node)
		if !ok {
			return nil, false
		}

		return append(base, prop.Value), true

	default:
		return nil, false
	}
}

// lookupPath descends through nested maps of env along path.
func lookupPath(env map[string]any, path []string) (map[string]any, bool) {
	cur := env

	for _, name := range path {
		next, ok := cur[name].(map[string]any)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}
