package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantcore/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate run configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Create a configuration file with NSE F&O defaults to edit from.

Example:
  quantcore config init --output run.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "quantcore.yaml", "output path (.yaml, .yml or .json)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.Default().SaveToFile(configInitOutput); err != nil {
		return err
	}
	fmt.Printf("wrote default config to %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgPath == "" {
		return fmt.Errorf("--config is required")
	}
	if _, err := config.LoadFromFile(cfgPath); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", cfgPath)
	return nil
}
