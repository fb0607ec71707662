package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfCommand(opts *rootOptions) *cobra.Command {
	var save, remove bool

	cmd := &cobra.Command{
		Use:   "conf",
		Short: "Show, save or delete the ge910 configuration",
		Long: `conf prints the effective configuration as YAML: defaults, overlaid by the
configuration file, the environment and the flags given. --save stores it
in the configuration file; --delete removes the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remove {
				return DeleteConfig(opts.configPath)
			}

			config, err := loadConfig(cmd, opts)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			if save {
				if err := SaveConfig(opts.configPath, config); err != nil {
					return err
				}
			}

			data, err := yaml.Marshal(config)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the effective configuration")
	cmd.Flags().BoolVarP(&remove, "delete", "d", false, "Delete the configuration file")
	cmd.MarkFlagsMutuallyExclusive("save", "delete")

	return cmd
}
