/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/fitedit/pkg/config"
)

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage the fitedit configuration",
	Annotations: map[string]string{skipService: "true"},
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with default settings.

Examples:
  fitedit config init
  fitedit config init --config ./fitedit.yaml --data-dir ./activities`,
	Annotations: map[string]string{skipService: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		force, _ := cmd.Flags().GetBool("force")

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		dataDir := ""
		if cmd.Flags().Changed("data-dir") {
			dataDir, _ = cmd.Flags().GetString("data-dir")
		}
		if _, err := config.BootstrapConfig(configPath, dataDir); err != nil {
			return err
		}
		cmd.Printf("Configuration created at %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
}
