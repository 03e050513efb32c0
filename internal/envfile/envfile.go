// Package envfile assembles the environment a run's subprocesses see.
//
// Layers are applied lowest first: the process environment, the project's
// dotenv file, the project block's env map, then KEY=VALUE pairs from the
// command line.
package envfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/vk/taskgridgo/internal/ctxlog"
)

// DefaultFile is the dotenv file read when the project does not name one.
const DefaultFile = ".env"

// Env maps variable names to values.
type Env map[string]string

// Layers are the inputs to Build.
type Layers struct {
	// Environ is the inherited environment in os.Environ form.
	Environ []string
	// Dir is the directory File is resolved against.
	Dir string
	// File is the dotenv file. Empty means DefaultFile. A missing file is
	// not an error.
	File string
	// Project is the env map of the project block.
	Project map[string]string
	// Overrides are the KEY=VALUE pairs given on the command line.
	Overrides []string
}

// Build merges all layers into one environment.
func Build(ctx context.Context, l Layers) (Env, error) {
	logger := ctxlog.FromContext(ctx)

	env := FromEnviron(l.Environ)

	file := l.File
	if file == "" {
		file = DefaultFile
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(l.Dir, file)
	}
	dotenv, err := Read(file)
	if err != nil {
		return nil, err
	}
	logger.Debug("Read dotenv file.", "path", file, "vars", len(dotenv))

	overrides, err := ParsePairs(l.Overrides)
	if err != nil {
		return nil, err
	}

	for _, layer := range []Env{dotenv, Env(l.Project), overrides} {
		if env, err = env.Merge(layer); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// FromEnviron converts KEY=VALUE pairs. Entries without '=' are ignored.
func FromEnviron(environ []string) Env {
	env := make(Env, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// Read parses a dotenv file. A missing file yields an empty Env.
func Read(path string) (Env, error) {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Env), nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return Env(envMap), nil
}

// ParsePairs converts command-line KEY=VALUE pairs. A pair without '=' or
// with an empty key is an error.
func ParsePairs(pairs []string) (Env, error) {
	env := make(Env, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment override %q, want KEY=VALUE", kv)
		}
		env[k] = v
	}
	return env, nil
}

// Merge returns a new Env with other layered over e.
func (e Env) Merge(other Env) (Env, error) {
	env := make(Env, len(e)+len(other))
	for _, layer := range []Env{e, other} {
		if len(layer) == 0 {
			continue
		}
		if err := mergo.Merge(&env, layer, mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	return env, nil
}
