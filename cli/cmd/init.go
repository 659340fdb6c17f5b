package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/profile"
)

const configIndent = 2

// skipFlags are the prefixes of flags never written to the configuration
// file.
var skipFlags = []string{"help", "version", profile.Tag}

// Init writes the current flag values to the gold configuration file, which
// is read back on later runs.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrWriteConfig.Wrap(errors.New("no command line parsed"))
	}

	path := ktx.Model.Vars()[ConfigIdentifier]
	if path == "" {
		return ErrWriteConfig.Wrap(errors.New("configuration path undefined"))
	}

	fail := ErrWriteConfig.With(slog.String("file", path))

	switch _, err := os.Stat(path); {
	case err == nil && !i.Force:
		return fail.With(slog.Bool("exists", true)).Wrap(ErrFileExists)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fail.Wrap(err)
	}

	v, err := lang.FromGo(configObject(ktx))
	if err != nil {
		return fail.Wrap(err)
	}

	if err := writeConfig(ctx, path, v); err != nil {
		return fail.Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file", slog.String("path", path))

	return nil
}

// writeConfig encodes v to a temporary file beside path and renames it over
// path, so a failed write leaves any existing file intact.
func writeConfig(ctx context.Context, path string, v lang.Value) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	err = lang.EncodeGold(ctx, f, v, configIndent)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return err
	}

	return os.Rename(f.Name(), path)
}

// configObject returns the flags of the application that carry a value, in
// declaration order, keyed by flag name.
func configObject(ktx *kong.Context) lang.Object {
	obj := make(lang.Object, 0, len(ktx.Model.Flags))

	for _, flag := range ktx.Model.Flags {
		skip := func(prefix string) bool { return strings.HasPrefix(flag.Name, prefix) }
		if flag.Hidden || slices.ContainsFunc(skipFlags, skip) {
			continue
		}

		if val, ok := flagValue(ktx, flag); ok {
			obj = append(obj, lang.Member{Key: flag.Name, Value: val})
		}
	}

	return obj
}

// flagValue returns the current value of flag, or false if it is unset,
// empty, or has no configuration file representation.
func flagValue(ktx *kong.Context, flag *kong.Flag) (any, bool) {
	val := ktx.FlagValue(flag)
	if val == nil {
		return nil, false
	}

	// Durations are written as text, which is how they are parsed back.
	if d, ok := val.(time.Duration); ok {
		return d.String(), true
	}

	switch rv := reflect.ValueOf(val); rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		return val, rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return nil, false
	}

	return val, true
}
