package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mypycbuild "github.com/contriboss/mypyc-build-go"
)

// envPrefix scopes the environment variables read by the CLI, e.g.
// HATCH_MYPYC_PYTHON for --python.
const envPrefix = "HATCH_MYPYC"

var (
	// Version is the CLI version (set via -ldflags).
	Version = "dev"

	// settings merges flags with HATCH_MYPYC_* environment variables.
	settings = viper.New()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "hatch-mypyc",
		Short: "Compile Python packages into native extensions with mypyc",
		Long: `hatch-mypyc runs the mypyc build hook outside of a packager.

It reads [tool.hatch.build] from pyproject.toml, compiles the selected
modules in place and reports the files a wheel must include.

Examples:
  hatch-mypyc files             List the modules that would be compiled
  hatch-mypyc build             Compile and print the build manifest
  hatch-mypyc build --out-dir dist/native
  hatch-mypyc clean             Remove compiled artifacts`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", ".", "project root containing pyproject.toml")
	flags.String("target", mypycbuild.TargetWheel, "build target to run the hooks for")
	flags.String("target-version", "standard", "target version passed to the hooks")
	flags.String("python", "", "Python interpreter running mypyc (default: first in PATH)")
	flags.BoolP("verbose", "v", false, "enable verbose output")

	_ = settings.BindPFlags(flags)
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(filesCmd)
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: mypycbuild.PluginName})
	if settings.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// baseConfig holds the toolchain settings shared by every hook.
func baseConfig(logger *log.Logger) mypycbuild.BuildConfig {
	return mypycbuild.BuildConfig{
		PythonPath: settings.GetString("python"),
		Logger:     logger,
		Verbose:    settings.GetBool("verbose"),
	}
}

func loadProject() (*mypycbuild.Project, error) {
	return mypycbuild.LoadProject(settings.GetString("root"))
}
