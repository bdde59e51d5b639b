package commands

import (
	"bufio"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"gocxx/internal/config"
	"gocxx/internal/errors"
	"gocxx/internal/generation"
	"gocxx/internal/logger"
	"gocxx/internal/metadata"
)

// WinMdCmd generates bindings for Win32 APIs read from Windows metadata
var WinMdCmd = &cobra.Command{
	Use:   "winmd",
	Short: "Generate bindings for Win32 APIs read from Windows metadata",
	Long: `Generate bindings for Win32 functions and structs.

The input file lists one function or struct name per line. Structs used by
value are pulled in with the functions that need them. A missing metadata
file is downloaded from the newest Win32 metadata package.

Examples:
  gocxx winmd -c win32.yaml -i names.txt -o ./win32
  gocxx winmd -m Windows.Win32.winmd -n Windows.Win32 -i names.txt`,
	Args: cobra.NoArgs,
	RunE: runWinMd,
}

var (
	metadataFlag  string
	inputFlag     string
	namespaceFlag string
)

func init() {
	addOutputFlags(WinMdCmd)
	WinMdCmd.Flags().StringVarP(&metadataFlag, "metadata", "m", "Windows.Win32.winmd", "Path of the metadata file, downloaded when missing")
	WinMdCmd.Flags().StringVarP(&inputFlag, "input", "i", "", "File listing the functions and structs to bind")
	WinMdCmd.Flags().StringVarP(&namespaceFlag, "namespace", "n", "Windows.Win32", "Namespace the declarations are named in")
	_ = WinMdCmd.MarkFlagRequired("input")
}

func runWinMd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	if _, err := os.Stat(metadataFlag); errors.Is(err, os.ErrNotExist) {
		spinner, _ := pterm.DefaultSpinner.Start("Downloading Win32 metadata...")
		err := metadata.DownloadMetadata(cmd.Context(), metadataFlag)
		if spinner != nil {
			if err != nil {
				spinner.Fail("Download failed")
			} else {
				spinner.Success("Metadata saved to " + metadataFlag)
			}
		}
		if err != nil {
			return err
		}
	}

	names, err := readNames(inputFlag)
	if err != nil {
		return err
	}

	reader, err := metadata.NewReader(metadataFlag, namespaceFlag)
	if err != nil {
		return err
	}
	decls, missing, err := reader.Declarations(names)
	if err != nil {
		return err
	}
	for _, name := range missing {
		logger.Logger.Warnw("Name not found in metadata", "name", name)
	}

	gen := generation.NewGenerator(cfg, logger.Named("generator"))
	if err := gen.AddDecls(cfg.Module, decls); err != nil {
		return err
	}
	return generate(gen, cfg)
}

func readNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open input file %s", path)
	}
	defer file.Close()

	names := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read input file %s", path)
	}
	return names, nil
}
