package main

import (
	"github.com/spf13/cobra"

	mypycbuild "github.com/contriboss/mypyc-build-go"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove compiled artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		project, err := loadProject()
		if err != nil {
			return err
		}

		versions := []string{settings.GetString("target-version")}
		return mypycbuild.NewHookRegistry().CleanAll(cmd.Context(), project,
			settings.GetString("target"), versions, baseConfig(logger))
	},
}
