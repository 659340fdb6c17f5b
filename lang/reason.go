package lang

import (
	"strconv"
	"strings"
)

// SyntaxElement names a token or grammatical category the parser expected.
type SyntaxElement int

const (
	SyntaxArgElement SyntaxElement = iota
	SyntaxAs
	SyntaxBinding
	SyntaxCloseBrace
	SyntaxCloseBracket
	SyntaxCloseCurlyPipe
	SyntaxCloseParen
	SyntaxColon
	SyntaxComma
	SyntaxDoubleQuote
	SyntaxElse
	SyntaxEndOfInput
	SyntaxEquals
	SyntaxExpression
	SyntaxIdentifier
	SyntaxImportPath
	SyntaxIn
	SyntaxKeywordParam
	SyntaxListBindingElement
	SyntaxListElement
	SyntaxMapBindingElement
	SyntaxMapElement
	SyntaxMapValue
	SyntaxOpenBrace
	SyntaxOpenParen
	SyntaxOperand
	SyntaxPipe
	SyntaxPosParam
	SyntaxSemicolon
	SyntaxThen
)

var syntaxElementText = [...]string{
	SyntaxArgElement:         "function argument",
	SyntaxAs:                 "'as'",
	SyntaxBinding:            "binding pattern",
	SyntaxCloseBrace:         "'}'",
	SyntaxCloseBracket:       "']'",
	SyntaxCloseCurlyPipe:     "|}",
	SyntaxCloseParen:         "')'",
	SyntaxColon:              "':'",
	SyntaxComma:              "','",
	SyntaxDoubleQuote:        "'\"'",
	SyntaxElse:               "'else'",
	SyntaxEndOfInput:         "end of input",
	SyntaxEquals:             "'='",
	SyntaxExpression:         "expression",
	SyntaxIdentifier:         "identifier",
	SyntaxImportPath:         "import path",
	SyntaxIn:                 "'in'",
	SyntaxKeywordParam:       "keyword parameter",
	SyntaxListBindingElement: "list binding pattern",
	SyntaxListElement:        "list element",
	SyntaxMapBindingElement:  "map binding pattern",
	SyntaxMapElement:         "map element",
	SyntaxMapValue:           "map value",
	SyntaxOpenBrace:          "'{'",
	SyntaxOpenParen:          "'('",
	SyntaxOperand:            "operand",
	SyntaxPipe:               "|",
	SyntaxPosParam:           "positional parameter",
	SyntaxSemicolon:          "';'",
	SyntaxThen:               "'then'",
}

func (s SyntaxElement) String() string {
	if s >= 0 && int(s) < len(syntaxElementText) {
		return syntaxElementText[s]
	}

	return "SyntaxElement(" + strconv.Itoa(int(s)) + ")"
}

// SyntaxError is raised by the parser and by post-parse validation.
type SyntaxError struct {
	// Expected lists one to three alternatives the parser would have accepted.
	Expected []SyntaxElement
	// MultiSlurp is set when a binding pattern contains more than one slurp.
	MultiSlurp bool
}

func (SyntaxError) reason() {}

func (e SyntaxError) Error() string {
	if e.MultiSlurp {
		return "only one slurp allowed in this context"
	}

	names := make([]string, len(e.Expected))
	for i, el := range e.Expected {
		names[i] = el.String()
	}

	return "expected " + joinOr(names)
}

// expected constructs a SyntaxError naming the given alternatives.
func expected(elems ...SyntaxElement) SyntaxError {
	return SyntaxError{Expected: elems}
}

// joinOr joins words as "a", "a or b", or "a, b or c".
func joinOr(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " or " +
			words[len(words)-1]
	}
}

// LookupKind distinguishes failed name and key lookups.
type LookupKind int

const (
	// LookupUnbound is an identifier not bound in any enclosing scope.
	LookupUnbound LookupKind = iota
	// LookupUnassigned is a key absent from an indexed map.
	LookupUnassigned
)

// LookupError is raised when a name or map key cannot be resolved.
type LookupError struct {
	Kind LookupKind
	Key  Key
}

func (LookupError) reason() {}

func (e LookupError) Error() string {
	if e.Kind == LookupUnbound {
		return "unbound name '" + e.Key.String() + "'"
	}

	return "unbound key '" + e.Key.String() + "'"
}

func unbound(k Key) *Error    { return NewError(LookupError{LookupUnbound, k}) }
func unassigned(k Key) *Error { return NewError(LookupError{LookupUnassigned, k}) }

// UnpackKind enumerates pattern-matching failures.
type UnpackKind int

const (
	UnpackListTooShort UnpackKind = iota
	UnpackListTooLong
	UnpackKeyMissing
	UnpackTypeMismatch
)

// BindingType is the shape of a binding pattern.
type BindingType int

const (
	BindingIdentifier BindingType = iota
	BindingList
	BindingMap
)

func (b BindingType) String() string {
	switch b {
	case BindingIdentifier:
		return "identifier"
	case BindingList:
		return "list"
	case BindingMap:
		return "map"
	default:
		return "BindingType(" + strconv.Itoa(int(b)) + ")"
	}
}

// UnpackError is raised when a value does not match a binding pattern.
type UnpackError struct {
	Kind    UnpackKind
	Key     Key         // UnpackKeyMissing
	Binding BindingType // UnpackTypeMismatch
	Type    Type        // UnpackTypeMismatch
}

func (UnpackError) reason() {}

func (e UnpackError) Error() string {
	switch e.Kind {
	case UnpackListTooShort:
		return "list too short"
	case UnpackListTooLong:
		return "list too long"
	case UnpackKeyMissing:
		return "unbound key '" + e.Key.String() + "'"
	default:
		return "expected " + e.Binding.String() + ", found " + e.Type.String()
	}
}

// Sentinel unpack reasons, usable with errors.Is.
var (
	ErrListTooShort = UnpackError{Kind: UnpackListTooShort}
	ErrListTooLong  = UnpackError{Kind: UnpackListTooLong}
)

// InternalError signals a broken evaluator invariant. It never results from
// a valid program.
type InternalError struct {
	Code int
}

func (InternalError) reason() {}

func (e InternalError) Error() string {
	return "internal error " + leftPad(strconv.Itoa(e.Code), 3, '0') +
		" - this should not happen, please file a bug report"
}

// Internal error codes.
const (
	InternalSetInFrozenNamespace = 1
	InternalUnknownNode          = 2
)

func leftPad(s string, n int, c byte) string {
	if len(s) >= n {
		return s
	}

	return strings.Repeat(string(c), n-len(s)) + s
}

// ExternalError carries a failure reported by host code, such as a
// callable, a resolver, or a cancelled context.
type ExternalError struct {
	Msg string
}

func (ExternalError) reason() {}

func (e ExternalError) Error() string { return "external error: " + e.Msg }

// MismatchKind enumerates the operations that can reject an operand type.
type MismatchKind int

const (
	MismatchArgCount MismatchKind = iota
	MismatchBinOp
	MismatchCall
	MismatchExpectedArg
	MismatchInterpolate
	MismatchIterate
	MismatchJSON
	MismatchMapKey
	MismatchSerialize
	MismatchSplatArg
	MismatchSplatList
	MismatchSplatMap
	MismatchUnOp
)

// TypeMismatch is raised when an operation receives a value of the wrong
// type, or a function the wrong number of arguments.
type TypeMismatch struct {
	Kind MismatchKind

	// Type is the offending type. For binary operators it is the left
	// operand and Right is the right operand.
	Type  Type
	Right Type

	BinOp BinOp
	UnOp  UnOp

	// Index and Allowed describe an unsuitable function argument.
	Index   int
	Allowed Type

	// Min, Max and Got describe an arity failure.
	Min, Max, Got int
}

func (TypeMismatch) reason() {}

func (e TypeMismatch) Error() string {
	switch e.Kind {
	case MismatchArgCount:
		switch {
		case e.Min == e.Max && e.Min == 1:
			return "expected 1 argument, got " + strconv.Itoa(e.Got)
		case e.Min == e.Max:
			return "expected " + strconv.Itoa(e.Min) +
				" arguments, got " + strconv.Itoa(e.Got)
		default:
			return "expected " + strconv.Itoa(e.Min) + " to " +
				strconv.Itoa(e.Max) + " arguments, got " + strconv.Itoa(e.Got)
		}
	case MismatchBinOp:
		return "unsuitable types for '" + e.BinOp.String() + "': " +
			e.Type.String() + " and " + e.Right.String()
	case MismatchCall:
		return "unsuitable type for function call: " + e.Type.String()
	case MismatchExpectedArg:
		return "unsuitable type for parameter " + strconv.Itoa(e.Index+1) +
			" - expected " + joinOr(e.Allowed.names()) +
			", got " + e.Type.String()
	case MismatchInterpolate:
		return "unsuitable type for string interpolation: " + e.Type.String()
	case MismatchIterate:
		return "non-iterable type: " + e.Type.String()
	case MismatchJSON:
		return "unsuitable type for JSON-like conversion: " + e.Type.String()
	case MismatchMapKey:
		return "unsuitable type for map key: " + e.Type.String()
	case MismatchSerialize:
		return "unsuitable type for serialization: " + e.Type.String()
	case MismatchSplatArg, MismatchSplatList, MismatchSplatMap:
		return "unsuitable type for splatting: " + e.Type.String()
	case MismatchUnOp:
		return "unsuitable type for '" + e.UnOp.String() + "': " +
			e.Type.String()
	default:
		return "type mismatch"
	}
}

func mismatch(kind MismatchKind, t Type) *Error {
	return NewError(TypeMismatch{Kind: kind, Type: t})
}

func binOpMismatch(op BinOp, l, r Value) *Error {
	return NewError(TypeMismatch{
		Kind: MismatchBinOp, BinOp: op, Type: l.Type(), Right: r.Type(),
	})
}

func argCount(lo, hi, got int) *Error {
	return NewError(TypeMismatch{
		Kind: MismatchArgCount, Min: lo, Max: hi, Got: got,
	})
}

func expectedArg(index int, allowed Type, got Value) *Error {
	return NewError(TypeMismatch{
		Kind: MismatchExpectedArg, Index: index, Allowed: allowed,
		Type: got.Type(),
	})
}

// ValueKind enumerates reasons a value was unacceptable.
type ValueKind int

const (
	ValueOutOfRange ValueKind = iota
	ValueTooLarge
	ValueTooLong
	ValueConvert
	ValueTooDeep
	ValueVersion
)

// ValueError is raised when a value has the right type but an unusable
// magnitude, length, or content.
type ValueError struct {
	Kind    ValueKind
	Type    Type // ValueConvert
	Version int  // ValueVersion
}

func (ValueError) reason() {}

func (e ValueError) Error() string {
	switch e.Kind {
	case ValueOutOfRange:
		return "value out of range"
	case ValueTooLarge:
		return "value too large"
	case ValueTooLong:
		return "value too long"
	case ValueConvert:
		return "couldn't convert to " + e.Type.String()
	case ValueVersion:
		return "unsupported serialization version " + strconv.Itoa(e.Version)
	default:
		return "recursion limit exceeded"
	}
}

// Sentinel value reasons, usable with errors.Is.
var (
	ErrOutOfRange = ValueError{Kind: ValueOutOfRange}
	ErrTooLarge   = ValueError{Kind: ValueTooLarge}
	ErrTooLong    = ValueError{Kind: ValueTooLong}
	ErrTooDeep    = ValueError{Kind: ValueTooDeep}
)

// FileSystemKind enumerates file access failures.
type FileSystemKind int

const (
	FileSystemNoParent FileSystemKind = iota
	FileSystemRead
)

// FileSystemError is raised when a source file cannot be located or read.
type FileSystemError struct {
	Kind FileSystemKind
	Path string
}

func (FileSystemError) reason() {}

func (e FileSystemError) Error() string {
	if e.Kind == FileSystemNoParent {
		return "path has no parent: " + e.Path
	}

	return "couldn't read file: " + e.Path
}

// ImportError is raised when no resolver can satisfy an import path.
type ImportError struct {
	Path string
}

func (ImportError) reason() {}

func (e ImportError) Error() string { return "unknown import: '" + e.Path + "'" }

func unknownImport(path string) *Error {
	return NewError(ImportError{Path: path})
}
