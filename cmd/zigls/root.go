package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/philjestin/zigls/internal/config"
)

// cfgFile stores an optional explicit path to a config file (if not
// provided we try ./zigls.config.{json,yaml,toml} by default).
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "zigls",
	Short: "Document store driver for a Zig language server",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			viper.SetConfigName("zigls.config")
		}

		viper.SetEnvPrefix("ZIGLS")
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err == nil {
			fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
		}
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return &cfg, nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./zigls.config.{json,yaml,toml})")
	rootCmd.PersistentFlags().String("zig-exe-path", "", "path to the zig toolchain driver")
	rootCmd.PersistentFlags().String("build-runner-path", "", "path to the external build-extraction program")
	rootCmd.PersistentFlags().String("global-cache-path", "", "cache directory passed to the build tool")
	rootCmd.PersistentFlags().String("zig-lib-path", "", "root of the zig standard library")
	rootCmd.PersistentFlags().String("builtin-path", "", "fallback URI for builtin imports")
	rootCmd.PersistentFlags().String("translate-c-exe-path", "", "path to the translate-c executable")

	_ = viper.BindPFlag("zig_exe_path", rootCmd.PersistentFlags().Lookup("zig-exe-path"))
	_ = viper.BindPFlag("build_runner_path", rootCmd.PersistentFlags().Lookup("build-runner-path"))
	_ = viper.BindPFlag("global_cache_path", rootCmd.PersistentFlags().Lookup("global-cache-path"))
	_ = viper.BindPFlag("zig_lib_path", rootCmd.PersistentFlags().Lookup("zig-lib-path"))
	_ = viper.BindPFlag("builtin_path", rootCmd.PersistentFlags().Lookup("builtin-path"))
	_ = viper.BindPFlag("translate_c_exe_path", rootCmd.PersistentFlags().Lookup("translate-c-exe-path"))
}
