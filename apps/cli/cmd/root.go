package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "connect",
		Short: "Configurable HTTP requests from the command line.",
		Long: `connect sends one HTTP request built from layered configuration:
a config file, command-line flags and per-call parameters, merged in that
order. JSON responses are decoded and pretty-printed; error responses are
reported with the server's message.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	for _, verb := range []connecthttp.Verb{
		connecthttp.MethodGet,
		connecthttp.MethodPost,
		connecthttp.MethodPut,
		connecthttp.MethodPatch,
		connecthttp.MethodDelete,
		connecthttp.MethodHead,
		connecthttp.MethodOptions,
	} {
		rootCmd.AddCommand(newRequestCmd(verb))
	}
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	rootCmd := newRootCmd()
	err := rootCmd.Execute()

	// Errors with an exit code were already reported by the command.
	var ee *exitError
	if err != nil && !errors.As(err, &ee) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
	}
	if code := exitCode(err); code != ExitSuccess {
		os.Exit(code)
	}
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
