package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"tal"
)

// loadContext reads the bindings of a render: a YAML (or JSON) document,
// then key=value overrides. Dotted keys create nested maps.
func loadContext(path string, sets []string) (tal.RenderContext, error) {
	ctx := tal.RenderContext{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := yaml.Unmarshal(data, &ctx); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
	}
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("--set %q: want key=value", set)
		}
		if err := assign(ctx, strings.Split(key, "."), value); err != nil {
			return nil, errors.Wrapf(err, "--set %q", set)
		}
	}
	return ctx, nil
}

func assign(ctx map[string]any, path []string, value string) error {
	for _, key := range path[:len(path)-1] {
		next, ok := ctx[key]
		if !ok {
			child := map[string]any{}
			ctx[key] = child
			ctx = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return errors.Errorf("%s is not a mapping", key)
		}
		ctx = child
	}
	ctx[path[len(path)-1]] = value
	return nil
}
