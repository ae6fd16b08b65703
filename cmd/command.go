// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/updrift/updrift/pkg/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "updrift",
	Short: "Updrift - a streaming file upload gateway",
	Long: `Updrift accepts multipart/form-data uploads of any size and streams
them to a media directory without buffering whole files in memory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
