package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"gocxx/internal/config"
	"gocxx/internal/errors"
	"gocxx/internal/generation"
	"gocxx/internal/logger"
	"gocxx/internal/metadata"
	"gocxx/internal/output"
)

// GenerateCmd generates the bindings of one module from declaration files
var GenerateCmd = &cobra.Command{
	Use:   "generate [decl files...]",
	Short: "Generate bindings from declaration files",
	Long: `Generate bindings for one module.

The positional arguments are the declaration files of the module. Modules it
depends on are given with --dep; their declarations take part in type
resolution and naming but produce no output.

Examples:
  gocxx generate -c core.yaml -o ./core core.decls.yaml
  gocxx generate -c imgproc.yaml -d core=core.decls.yaml -o ./imgproc imgproc.decls.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var (
	configFlag     string
	outputFlag     string
	depsFlag       map[string]string
	cleanFlag      bool
	forceCleanFlag bool
)

func init() {
	addOutputFlags(GenerateCmd)
	GenerateCmd.Flags().StringToStringVarP(&depsFlag, "dep", "d", nil, "Dependency module declarations as module=file (repeatable)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Generator configuration file (YAML)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "./output", "Directory the generated files are written to")
	cmd.Flags().BoolVar(&cleanFlag, "clean", false, "Empty the output directory before generating, after confirmation")
	cmd.Flags().BoolVar(&forceCleanFlag, "force-clean", false, "Empty the output directory before generating without asking")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	gen := generation.NewGenerator(cfg, logger.Named("generator"))

	modules := make([]string, 0, len(depsFlag))
	for module := range depsFlag {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	for _, module := range modules {
		decls, err := metadata.LoadFile(depsFlag[module])
		if err != nil {
			return errors.Wrapf(err, "dependency %s", module)
		}
		if err := gen.AddDecls(module, decls); err != nil {
			return err
		}
	}

	for _, path := range args {
		decls, err := metadata.LoadFile(path)
		if err != nil {
			return err
		}
		if err := gen.AddDecls(cfg.Module, decls); err != nil {
			return err
		}
	}

	return generate(gen, cfg)
}

// generate runs gen and writes its output to the output directory.
func generate(gen *generation.Generator, cfg *config.Config) error {
	if err := prepareOutput(outputFlag); err != nil {
		return err
	}

	out, err := gen.Generate()
	if err != nil {
		return err
	}

	writer, err := output.NewWriter(outputFlag, logger.Named("output"))
	if err != nil {
		return err
	}
	if err := out.Write(writer); err != nil {
		return err
	}

	printSummary(cfg, out.Report, writer)
	return nil
}

// prepareOutput empties dir when asked to. Shared files written by other
// modules live in the same directory, so nothing is removed by default.
func prepareOutput(dir string) error {
	if !cleanFlag && !forceCleanFlag {
		return nil
	}

	empty, err := output.IsEmpty(dir)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}

	if !forceCleanFlag {
		confirmed, err := pterm.DefaultInteractiveConfirm.
			WithDefaultValue(false).
			Show(fmt.Sprintf("Output directory %s is not empty. Remove everything in it?", dir))
		if err != nil {
			return errors.Wrap(err, "failed to read confirmation")
		}
		if !confirmed {
			return errors.New("explicit agreement was not given")
		}
	}

	logger.Logger.Infow("Cleaning output directory", "dir", dir)
	return output.ClearDirectory(dir)
}

func printSummary(cfg *config.Config, report *generation.Report, writer *output.Writer) {
	if logger.JSONOutput {
		return
	}

	pterm.Println()
	pterm.DefaultSection.Printf("Module %s", cfg.Module)
	data := pterm.TableData{
		{"", "Count"},
		{"Functions found", strconv.Itoa(report.Found)},
		{"Functions ported", strconv.Itoa(len(report.Ported))},
		{"Functions skipped", strconv.Itoa(len(report.Skipped))},
		{"Classes", strconv.Itoa(report.Classes)},
		{"Constants", strconv.Itoa(report.Constants + len(report.DumpedConstants))},
		{"Callbacks", strconv.Itoa(report.Callbacks)},
		{"Shims", strconv.Itoa(len(report.Shims))},
		{"Files written", strconv.Itoa(len(writer.Written()))},
		{"Shared files kept", strconv.Itoa(len(writer.Skipped()))},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to render summary: %v\n", err)
	}

	if len(report.DumpedConstants) > 0 {
		pterm.Warning.Printfln("%d constants need the %s.consts.cpp dump program, built with -D%s_DUMP_CONSTS",
			len(report.DumpedConstants), cfg.Module, strings.ToUpper(cfg.Prefix))
	}
	pterm.Success.Printfln("Report written to %s", writer.Path(cfg.Module+".txt"))
}
