// Package buildrun invokes the external build-extraction program and parses
// its JSON stdout. It is the one place the store's build-descriptor loader
// forks a sub-process, following the usual capture-stdout/stderr-then-decide
// pattern for wrapping an external build tool.
package buildrun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/philjestin/zigls/internal/config"
)

// Package is one named build package: its declared name and the absolute
// filesystem path of its root source file.
type Package struct {
	Name string
	Path string
}

// BuildConfig is the package list and include directories a build file's
// execution describes.
type BuildConfig struct {
	Packages    []Package
	IncludeDirs []string
}

// rawBuildConfig is the wire shape the build runner prints to stdout.
type rawBuildConfig struct {
	Packages []struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"packages"`
	IncludeDirs []string `json:"include_dirs"`
}

// Run builds the build runner's argv and executes it, returning the parsed
// BuildConfig. A non-zero exit or malformed JSON is logged and reported as
// an empty config together with a non-nil error; a caller that treats the
// failure as non-fatal can use the empty config as is (the build file still
// exists, it just carries no package graph). An unconfigured toolchain or
// build runner yields an empty config and a nil error.
func Run(ctx context.Context, cfg *config.Config, buildFilePath, buildDirPath string, buildOptions []string) (BuildConfig, error) {
	if cfg.ZigExePath == "" || cfg.BuildRunnerPath == "" {
		return BuildConfig{}, nil
	}

	args := []string{
		"run", cfg.BuildRunnerPath,
		"--cache-dir", cfg.GlobalCachePath,
		"--pkg-begin", "@build@", buildFilePath, "--pkg-end",
		"--",
		cfg.ZigExePath, buildDirPath, "zig-cache", "ZLS_DONT_CARE",
	}
	args = append(args, buildOptions...)

	cmd := exec.CommandContext(ctx, cfg.ZigExePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logrus.WithFields(logrus.Fields{
			"build_file": buildFilePath,
			"stderr":     stderr.String(),
		}).Error("build runner exited non-zero")
		return BuildConfig{}, fmt.Errorf("buildrun: build runner failed: %w", err)
	}

	var raw rawBuildConfig
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		logrus.WithFields(logrus.Fields{
			"build_file": buildFilePath,
			"error":      err,
		}).Error("build runner produced invalid JSON")
		return BuildConfig{}, fmt.Errorf("buildrun: invalid build runner output: %w", err)
	}

	out := BuildConfig{
		Packages:    make([]Package, 0, len(raw.Packages)),
		IncludeDirs: raw.IncludeDirs,
	}
	for _, p := range raw.Packages {
		out.Packages = append(out.Packages, Package{Name: p.Name, Path: p.Path})
	}
	return out, nil
}
