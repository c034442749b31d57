package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mypycbuild "github.com/contriboss/mypyc-build-go"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the modules to compile and the artifact globs",
	Long: `List the modules the mypyc hook would compile for the target, followed
by the globs identifying their compiled output. Nothing is compiled.`,
	Args: cobra.NoArgs,
	RunE: runFiles,
}

func runFiles(cmd *cobra.Command, _ []string) error {
	project, err := loadProject()
	if err != nil {
		return err
	}

	target, err := project.Target(settings.GetString("target"))
	if err != nil {
		return err
	}

	config := baseConfig(newLogger())
	config.Root = project.Root
	config.Target = target
	config.HookConfig, _ = project.HookConfig(target.Name(), mypycbuild.PluginName)

	hook := mypycbuild.NewMypycHook(&config)
	modules, err := hook.IncludedFiles()
	if err != nil {
		return err
	}
	globs, err := hook.ArtifactGlobs()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Modules:")
	for _, module := range modules {
		fmt.Fprintf(out, "  %s\n", module)
	}
	fmt.Fprintln(out, "Artifacts:")
	for _, glob := range globs {
		fmt.Fprintf(out, "  %s\n", glob)
	}
	return nil
}
