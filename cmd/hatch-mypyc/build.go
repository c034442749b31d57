package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	mypycbuild "github.com/contriboss/mypyc-build-go"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the selected modules and print the build manifest",
	Long: `Compile the selected modules in place and print the resulting build
manifest as JSON. With --out-dir the compiled files are also copied into
that directory using their in-package paths.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("out-dir", "", "copy compiled artifacts into this directory")
	_ = settings.BindPFlag("out-dir", buildCmd.Flags().Lookup("out-dir"))
}

func runBuild(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	project, err := loadProject()
	if err != nil {
		return err
	}

	targetName := settings.GetString("target")
	registry := mypycbuild.NewHookRegistry()
	data, err := registry.InitializeAll(cmd.Context(), project, targetName,
		settings.GetString("target-version"), baseConfig(logger))
	if err != nil {
		return err
	}

	if outDir := settings.GetString("out-dir"); outDir != "" {
		target, err := project.Target(targetName)
		if err != nil {
			return err
		}
		installed, err := mypycbuild.InstallArtifacts(project.Root, mypycbuild.PackageSource(target), data, outDir)
		if err != nil {
			return err
		}
		logger.Info("installed artifacts", "dir", outDir, "files", len(installed))
		for _, path := range installed {
			logger.Debug("installed", "path", path)
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
