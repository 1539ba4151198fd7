// Package builddesc loads the build-descriptor subsystem: the side-config
// adjunct to a build.zig, and the BuildConfig produced by invoking the
// external build runner.
package builddesc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/philjestin/zigls/internal/buildrun"
	"github.com/philjestin/zigls/internal/config"
	"github.com/philjestin/zigls/internal/uri"
)

const sideConfigName = "zls.build.json"

// SideConfig is the optional adjunct JSON file living next to a build file.
type SideConfig struct {
	RelativeBuiltinPath string   `json:"relative_builtin_path"`
	BuildOptions        []string `json:"build_options"`
}

// BuildFile is the store's record for one build.zig.
type BuildFile struct {
	URI        string
	Config     buildrun.BuildConfig
	BuiltinURI string // "" if not overridden by SideConfig
	Side       *SideConfig
}

// Load constructs a BuildFile record for the build.zig at buildFileURI,
// whose filesystem path is buildFilePath (directory buildDirPath).
func Load(ctx context.Context, cfg *config.Config, codec uri.Codec, buildFileURI, buildFilePath, buildDirPath string) *BuildFile {
	bf := &BuildFile{URI: buildFileURI}

	side := loadSideConfig(buildDirPath)
	bf.Side = side

	var buildOptions []string
	if side != nil {
		buildOptions = side.BuildOptions
		if side.RelativeBuiltinPath != "" {
			abs := filepath.Clean(filepath.Join(buildDirPath, side.RelativeBuiltinPath))
			bf.BuiltinURI = codec.FromPath(abs)
		}
	}

	buildConfig, _ := buildrun.Run(ctx, cfg, buildFilePath, buildDirPath, buildOptions)
	rewritePackagePaths(&buildConfig, buildDirPath)
	bf.Config = buildConfig

	return bf
}

// ApplySave re-invokes the build runner and replaces bf.Config on success,
// keeping the prior config on failure.
func ApplySave(ctx context.Context, cfg *config.Config, bf *BuildFile, buildFilePath, buildDirPath string) {
	var buildOptions []string
	if bf.Side != nil {
		buildOptions = bf.Side.BuildOptions
	}
	next, err := buildrun.Run(ctx, cfg, buildFilePath, buildDirPath, buildOptions)
	if err != nil {
		logrus.WithError(err).Error("build runner invocation failed on save")
		return
	}
	rewritePackagePaths(&next, buildDirPath)
	bf.Config = next
}

func loadSideConfig(buildDirPath string) *SideConfig {
	p := filepath.Join(buildDirPath, sideConfigName)
	data, err := os.ReadFile(p)
	if err != nil {
		// Missing side-config is silent: it's optional, not required.
		return nil
	}
	var sc SideConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		logrus.WithError(err).Debug("malformed zls.build.json, ignoring")
		return nil
	}
	return &sc
}

func rewritePackagePaths(bc *buildrun.BuildConfig, buildDirPath string) {
	for i := range bc.Packages {
		if !filepath.IsAbs(bc.Packages[i].Path) {
			bc.Packages[i].Path = filepath.Clean(filepath.Join(buildDirPath, bc.Packages[i].Path))
		}
	}
}
