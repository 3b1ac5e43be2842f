package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
	"github.com/verdict-tools/verdict/pkg/config"
)

var (
	initOutput string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default verdict.toml",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "verdict.toml", "Where to write the config file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOutput); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", initOutput)
	}

	data, err := toml.Marshal(*config.DefaultConfig())
	if err != nil {
		return err
	}

	header := "# verdict configuration\n" +
		"# Category weights must sum to 1.0; the gate fails below passing_threshold.\n\n"
	if err := os.WriteFile(initOutput, append([]byte(header), data...), 0o644); err != nil {
		return err
	}

	stdoutFormatter().Success("Created %s", initOutput)
	return nil
}
