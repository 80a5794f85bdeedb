package main

import (
	"context"
	"log/slog"
	"path/filepath"
)

// watchAndRender calls render once per batch of template changes until ctx
// is done. Render failures are logged and watching continues.
func watchAndRender(ctx context.Context, changes <-chan string, render func() error, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped watching templates")
			return nil
		case name := <-changes:
			logger.Info("template changed, rendering again", "name", name)
			if err := render(); err != nil {
				logger.Error("render failed", "error", err)
			}
		}
	}
}

// notifier returns a channel fed by the returned callback. Sends never block;
// changes arriving while one is pending collapse into it. Changes to skip,
// a template-relative name, are dropped.
func notifier(skip string) (<-chan string, func(string)) {
	ch := make(chan string, 1)
	return ch, func(name string) {
		if skip != "" && name == skip {
			return
		}
		select {
		case ch <- name:
		default:
		}
	}
}

// outputName reports out as a slash-separated name relative to dir, or ""
// when out is empty or lies outside dir.
func outputName(dir, out string) string {
	if out == "" {
		return ""
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absDir, absOut)
	if err != nil || !filepath.IsLocal(rel) {
		return ""
	}
	return filepath.ToSlash(rel)
}
