// Package config is the store's read-only configuration record. The store
// borrows a pointer to it and never observes changes reactively; a changed
// field only takes effect for documents created or refreshed afterward.
package config

// Config mirrors what viper unmarshals from CLI flags, environment
// variables (ZIGLS_*), and an optional zigls.config.{json,yaml,toml} file.
type Config struct {
	// ZigExePath is the absolute path to the zig toolchain driver. If
	// unset, no build-file discovery is attempted.
	ZigExePath string `mapstructure:"zig_exe_path" json:"zig_exe_path" yaml:"zig_exe_path"`
	// BuildRunnerPath is the absolute path to the external build-extraction
	// program invoked as a Zig build step.
	BuildRunnerPath string `mapstructure:"build_runner_path" json:"build_runner_path" yaml:"build_runner_path"`
	// GlobalCachePath is the cache directory passed to the build tool.
	GlobalCachePath string `mapstructure:"global_cache_path" json:"global_cache_path" yaml:"global_cache_path"`
	// ZigLibPath is the root of the standard library; if unset, "std"
	// imports are unresolved.
	ZigLibPath string `mapstructure:"zig_lib_path" json:"zig_lib_path" yaml:"zig_lib_path"`
	// BuiltinPath is the fallback URI for "builtin" imports when no
	// associated build file overrides it.
	BuiltinPath string `mapstructure:"builtin_path" json:"builtin_path" yaml:"builtin_path"`
}
