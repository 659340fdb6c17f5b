package lang

// This file defines the host "sys" module, a map of facts about the running
// system and callables for inspecting the filesystem and environment. It is
// not available unless the host installs [SysResolver].

import (
	"bufio"
	"context"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
)

type sysResolver struct{}

// SysResolver returns a resolver for the "sys" module.
func SysResolver() Resolver { return sysResolver{} }

func (sysResolver) Resolve(_ context.Context, path string) (Value, error) {
	if path != "sys" {
		return Value{}, unknownImport(path)
	}

	return sysModule(), nil
}

var sysModule = sync.OnceValue(func() Value {
	return record(
		"target", targetValue(hostTarget()),
		"platform", targetValue(hostPlatform()),
		"hostname", String(hostname()),
		"user", userValue(),
		"shell", String(loginShell()),
		"cwd", NewCallable("cwd", sysCwd),
		"env", NewCallable("env", sysEnv),
		"environ", NewCallable("environ", sysEnviron),
		"file", record(
			"exists", pathPredicate("exists", fileExists),
			"isdir", pathPredicate("isdir", fileIsDir),
			"isfile", pathPredicate("isfile", fileIsRegular),
			"issymlink", pathPredicate("issymlink", fileIsSymlink),
		),
		"path", record(
			"abs", pathFunc("abs", pathAbs),
			"base", pathFunc("base", filepath.Base),
			"dir", pathFunc("dir", filepath.Dir),
			"ext", pathFunc("ext", filepath.Ext),
			"cat", NewCallable("cat", sysPathCat),
			"rel", NewCallable("rel", sysPathRel),
		),
		"mung", record(
			"prefix", NewCallable("prefix", sysMungPrefix),
			"prefixif", NewCallable("prefixif", sysMungPrefixIf),
		),
		"expr", NewCallable("expr", sysExpr),
	)
})

// record builds a map value from alternating keys and values.
func record(kv ...any) Value {
	m := MakeMap(len(kv) / 2)

	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		v, _ := kv[i+1].(Value)
		m.Set(Intern(k), v)
	}

	return NewMap(m)
}

// target identifies an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

func targetValue(t target) Value {
	return record("os", String(t.OS), "arch", String(t.Arch))
}

// hostTarget returns the host target using GNU GCC/LLVM naming conventions.
func hostTarget() target {
	t := hostPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			if arm = strings.TrimSpace(arm); arm >= "5" && arm <= "7" && len(arm) == 1 {
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// hostPlatform returns the host target using Go conventions, preferring the
// toolchain's host variables when set.
func hostPlatform() target {
	lookup := func(def string, names ...string) string {
		for _, name := range names {
			if v, ok := os.LookupEnv(name); ok {
				return v
			}
		}

		return def
	}

	return target{
		OS:   lookup(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: lookup(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	return name
}

func userValue() Value {
	u, err := user.Current()
	if err != nil {
		return Null()
	}

	return record(
		"username", String(u.Username),
		"name", String(u.Name),
		"uid", String(u.Uid),
		"gid", String(u.Gid),
		"home", String(u.HomeDir),
	)
}

// loginShell returns $SHELL, or the current user's entry in /etc/passwd.
func loginShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u, err := user.Current()
	if err != nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		if e := strings.Split(s.Text(), ":"); len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

// stringArgs checks that args holds between lo and hi strings.
func stringArgs(args []Value, lo, hi int) ([]string, error) {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return nil, argCount(lo, max(hi, lo), len(args))
	}

	out := make([]string, len(args))

	for i, a := range args {
		s, ok := a.Str()
		if !ok {
			return nil, expectedArg(i, TypeString, a)
		}

		out[i] = s
	}

	return out, nil
}

func sysCwd(_ context.Context, args []Value, _ *Map) (Value, error) {
	if _, err := stringArgs(args, 0, 0); err != nil {
		return Value{}, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return String(pathAbs(".")), nil
	}

	return String(cwd), nil
}

// sysEnv returns the named environment variable, or the keyword argument
// default (null if absent) when it is unset.
func sysEnv(_ context.Context, args []Value, kwargs *Map) (Value, error) {
	s, err := stringArgs(args, 1, 1)
	if err != nil {
		return Value{}, err
	}

	if v, ok := os.LookupEnv(s[0]); ok {
		return String(v), nil
	}

	def, _ := kwargs.Lookup("default")

	return def, nil
}

func sysEnviron(_ context.Context, args []Value, _ *Map) (Value, error) {
	if _, err := stringArgs(args, 0, 0); err != nil {
		return Value{}, err
	}

	return NewMap(environMap(os.Environ())), nil
}

// environMap converts "KEY=VALUE" entries to a map, in order.
func environMap(entries []string) *Map {
	m := MakeMap(len(entries))

	for _, entry := range entries {
		if k, v, ok := strings.Cut(entry, "="); ok {
			m.Set(Intern(k), String(v))
		}
	}

	return m
}

func pathPredicate(name string, fn func(string) bool) Value {
	return NewCallable(name, func(_ context.Context, args []Value, _ *Map) (Value, error) {
		s, err := stringArgs(args, 1, 1)
		if err != nil {
			return Value{}, err
		}

		return Bool(fn(s[0])), nil
	})
}

func pathFunc(name string, fn func(string) string) Value {
	return NewCallable(name, func(_ context.Context, args []Value, _ *Map) (Value, error) {
		s, err := stringArgs(args, 1, 1)
		if err != nil {
			return Value{}, err
		}

		return String(fn(s[0])), nil
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func sysPathCat(_ context.Context, args []Value, _ *Map) (Value, error) {
	elem, err := stringArgs(args, 0, -1)
	if err != nil {
		return Value{}, err
	}

	return String(filepath.Join(elem...)), nil
}

func sysPathRel(_ context.Context, args []Value, _ *Map) (Value, error) {
	s, err := stringArgs(args, 2, 2)
	if err != nil {
		return Value{}, err
	}

	p, err := filepath.Rel(pathAbs(s[0]), pathAbs(s[1]))
	if err != nil {
		return String(filepath.Join(s[0], s[1])), nil
	}

	return String(p), nil
}

// sysMungPrefix prepends items to a PATH-like list, removing duplicates.
func sysMungPrefix(_ context.Context, args []Value, _ *Map) (Value, error) {
	s, err := stringArgs(args, 1, -1)
	if err != nil {
		return Value{}, err
	}

	return String(mung.Make(
		mung.WithSubjectItems(s[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(s[1:]...),
	).String()), nil
}

// sysMungPrefixIf is like sysMungPrefix, keeping only the items for which
// the predicate in the second argument is truthy.
func sysMungPrefixIf(ctx context.Context, args []Value, _ *Map) (Value, error) {
	if len(args) < 2 {
		return Value{}, argCount(2, 2, len(args))
	}

	pred := args[1]
	if pred.Type() != TypeFunction {
		return Value{}, expectedArg(1, TypeFunction, pred)
	}

	s, err := stringArgs(append([]Value{args[0]}, args[2:]...), 1, -1)
	if err != nil {
		return Value{}, err
	}

	var failed error

	keep := func(item string) bool {
		if failed != nil {
			return false
		}

		v, err := Call(ctx, pred, []Value{String(item)}, nil)
		if err != nil {
			failed = err

			return false
		}

		return v.Truthy()
	}

	out := mung.Make(
		mung.WithSubjectItems(s[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(s[1:]...),
		mung.WithFilter(keep),
	).String()

	if failed != nil {
		return Value{}, failed
	}

	return String(out), nil
}

// sysExpr evaluates an expr-lang expression. The optional second argument is
// a map whose entries become the expression's variables; gold functions in
// it may be called from the expression.
func sysExpr(ctx context.Context, args []Value, _ *Map) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, argCount(1, 2, len(args))
	}

	source, ok := args[0].Str()
	if !ok {
		return Value{}, expectedArg(0, TypeString, args[0])
	}

	env := map[string]any{}

	if len(args) == 2 {
		m, ok := args[1].Map()
		if !ok {
			return Value{}, expectedArg(1, TypeMap, args[1])
		}

		env = exprMap(ctx, m)
	}

	program, err := expr.Compile(source,
		expr.Env(env),
		expr.Patch(&hyphenPatcher{env: env}))
	if err != nil {
		return Value{}, WrapError(err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return Value{}, WrapError(err)
	}

	return FromGo(out)
}

// exprValue converts v for use in an expr-lang environment. Functions become
// variadic Go functions that call back into the evaluator.
func exprValue(ctx context.Context, v Value) any {
	switch v.kind {
	case KindList:
		l, _ := v.List()

		items := make([]any, 0, l.Len())
		for _, x := range l.All() {
			items = append(items, exprValue(ctx, x))
		}

		return items
	case KindMap:
		m, _ := v.Map()

		return exprMap(ctx, m)
	case KindFunction, KindBuiltin, KindCallable:
		return func(args ...any) (any, error) {
			vals := make([]Value, len(args))

			for i, a := range args {
				x, err := FromGo(a)
				if err != nil {
					return nil, err
				}

				vals[i] = x
			}

			r, err := Call(ctx, v, vals, nil)
			if err != nil {
				return nil, err
			}

			return exprValue(ctx, r), nil
		}
	default:
		x, err := ToJSON(v)
		if err != nil {
			x, _ = v.Big()
		}

		return x
	}
}

func exprMap(ctx context.Context, m *Map) map[string]any {
	env := make(map[string]any, m.Len())
	for k, x := range m.All() {
		env[k.String()] = exprValue(ctx, x)
	}

	return env
}
