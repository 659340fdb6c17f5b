package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/gold/lang"
)

// nativeParams lists the parameters of builtins and of the host functions
// of the "sys" module, keyed by function name. Native functions carry no
// parameter names of their own.
var nativeParams = map[string][]string{
	"len":      {"value"},
	"range":    {"start", "stop"},
	"int":      {"value"},
	"float":    {"value"},
	"bool":     {"value"},
	"str":      {"value"},
	"map":      {"fn", "list"},
	"filter":   {"fn", "list"},
	"items":    {"map"},
	"exp":      {"x"},
	"log":      {"x"},
	"ord":      {"char"},
	"chr":      {"code"},
	"isint":    {"value"},
	"isstr":    {"value"},
	"isnull":   {"value"},
	"isbool":   {"value"},
	"isfloat":  {"value"},
	"isnumber": {"value"},
	"isobject": {"value"},
	"islist":   {"value"},
	"isfunc":   {"value"},

	"cwd":       {},
	"env":       {"name", "default:"},
	"environ":   {},
	"exists":    {"path"},
	"isdir":     {"path"},
	"isfile":    {"path"},
	"issymlink": {"path"},
	"abs":       {"path"},
	"base":      {"path"},
	"dir":       {"path"},
	"ext":       {"path"},
	"cat":       {"...elem"},
	"rel":       {"base", "target"},
	"prefix":    {"list", "...item"},
	"prefixif":  {"list", "pred", "...item"},
	"expr":      {"source", "env"},
}

// Styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // member path of the called function (e.g., "sys.path.cat")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan backward from cursor to find the unclosed paren of a call,
	// skipping over bracketed subexpressions.
	depth := 0
	open := -1

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')', ']', '}':
			depth++
		case '[', '{':
			depth--
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	// The callee is the member path immediately before the paren.
	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && isWordBoundary(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	// Count arguments by counting commas at depth 0 in the parameter list.
	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature retrieves the signature of the function bound to the member
// path name in the session. Returns empty string if name is not a function.
func getSignature(s *lang.Session, name string) (signature string, params []string) {
	v, ok := resolvePath(s, name)
	if !ok {
		return "", nil
	}

	return signatureOf(v, name)
}

// signatureOf formats the signature of the function v, called as name. If
// name is empty, the function's own name is used, or "fn" for lambdas.
func signatureOf(v lang.Value, name string) (string, []string) {
	var params []string

	if fn, ok := v.Function(); ok {
		params = lambdaParams(fn)

		if name == "" {
			name = "fn"
		}
	} else if native, ok := nativeName(v); ok {
		params, ok = nativeParams[native]
		if !ok {
			params = []string{"..."}
		}

		if name == "" {
			name = native
		}
	} else {
		return "", nil
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// nativeName returns the name of a builtin or host function.
func nativeName(v lang.Value) (string, bool) {
	if b, ok := v.Builtin(); ok {
		return b.Name, true
	}

	if c, ok := v.Callable(); ok {
		return c.Name, true
	}

	return "", false
}

// lambdaParams describes the positional and keyword parameters of fn.
// Optional parameters are suffixed with "?" and keyword parameters with ":".
func lambdaParams(fn *lang.Function) []string {
	var params []string

	if fn.Positional != nil {
		for _, e := range fn.Positional.Elements {
			switch e.Kind {
			case lang.ElementSlurp:
				params = append(params, "...")
			case lang.ElementSlurpTo:
				params = append(params, "..."+e.Name.String())
			default:
				params = append(params, bindingName(e.Binding)+optional(e.Default))
			}
		}
	}

	if fn.Keywords != nil {
		for _, e := range fn.Keywords.Elements {
			switch e.Kind {
			case lang.ElementSlurp:
				params = append(params, "...:")
			case lang.ElementSlurpTo:
				params = append(params, "..."+e.Name.String()+":")
			default:
				params = append(params, e.Key.String()+":"+optional(e.Default))
			}
		}
	}

	return params
}

func bindingName(b lang.Binding) string {
	switch b := b.(type) {
	case *lang.IdentBinding:
		return b.Name.String()
	case *lang.ListBinding:
		return "[...]"
	case *lang.MapBinding:
		return "{...}"
	default:
		return "_"
	}
}

func optional(def lang.Expr) string {
	if def != nil {
		return "?"
	}

	return ""
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		// Variadic parameters stay highlighted past their own index.
		isVariadic := strings.HasPrefix(param, "...")

		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
