package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gocxx/cmd/gocxx/commands"
	"gocxx/internal/errors"
	"gocxx/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gocxx",
	Short: "gocxx - Go bindings for C++ libraries",
	Long: `gocxx - Go bindings for C++ libraries.

gocxx reads the declarations of a C++ module and writes the extern "C"
trampolines, the cgo declarations and the Go wrappers that bind it.

Available commands:
  generate - Generate bindings from declaration files
  winmd    - Generate bindings for Win32 APIs read from Windows metadata

Examples:
  gocxx generate -c core.yaml -o ./core core.decls.yaml
  gocxx generate -c imgproc.yaml -d core=core.decls.yaml -o ./imgproc imgproc.decls.yaml
  gocxx winmd -c win32.yaml -i names.txt -o ./win32`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(verbose, jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every resolution and skip decision")
	rootCmd.PersistentFlags().Bool("json", false, "Log as JSON")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.WinMdCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
