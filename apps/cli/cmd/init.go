package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		force  bool
		origin string
		dir    string
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a connect.yaml config file",
		Long: `Create a connect.yaml config file in the current directory.

The file holds the settings every request starts from: the origin, default
headers and fetch options. Values may reference environment variables with
${VAR} or {{$VAR}}, for example "Authorization: Bearer ${API_TOKEN}"; they
are expanded when the file is loaded.

Examples:
  connect init
  connect init --origin https://api.example.com
  connect init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return withExitCode(ExitConfigError, err)
				}
				dir = cwd
			}

			configFile := filepath.Join(dir, config.ConfigFilenames[0])
			if !force {
				if _, err := os.Stat(configFile); err == nil {
					return withExitCode(ExitConfigError,
						fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile))
				}
			}

			layer := starterLayer(origin)
			if err := layer.Save(configFile); err != nil {
				return withExitCode(ExitConfigError, fmt.Errorf("failed to create config file: %w", err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)
			fmt.Fprintf(cmd.OutOrStdout(), "\nRun 'connect get <path>' to send a request.\n")
			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&origin, "origin", getEnvString("CONNECT_ORIGIN", "http://localhost:3000"), "Origin written to the config file (env: CONNECT_ORIGIN)")
	initCmd.Flags().StringVar(&dir, "dir", "", "Directory to write the config file to (default: current directory)")
	return initCmd
}

func starterLayer(origin string) config.Layer {
	return config.Layer{
		Origin: origin,
		Headers: map[string]string{
			"Accept":        "application/json",
			"Content-Type":  "application/json",
			"User-Agent":    "connect/" + version,
		},
		MessageKey:  config.DefaultMessageKey,
		Credentials: config.CredentialsInclude,
		Redirect:    config.RedirectFollow,
	}
}
