package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/config"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// app carries the state shared by every subcommand
type app struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "labreport-summarizer",
		Short: "Merge RoHS/REACH/PFAS lab reports into one summary row",
		Long: "Reads a batch of third-party test reports, finds their result tables, normalizes the\n" +
			"reported values and keeps the most severe result per substance in a single spreadsheet row.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zap.L().Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./labreport.yaml)")
	pf.String("dir", "", "report directory (default current directory)")
	pf.Int64("max-file-size", config.DefaultMaxFileSize, "maximum PDF size in bytes")
	pf.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.String("log-format", config.DefaultLogFormat, "log format (json, console)")
	pf.Int("workers", 1, "reports scanned in parallel")
	pf.String("rules", "", "YAML rule set replacing the built-in taxonomy")
	pf.Int("date-scan-pages", 3, "leading pages searched for the report date")
	pf.Int("trigger-scan-pages", 2, "leading pages searched for PFAS trigger phrases (0 = all)")

	root.AddCommand(newSummarizeCmd(a), newServeCmd(a), newVersionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags(), a.configFile)
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	if version != "dev" {
		cfg.Version = version
	}

	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	a.cfg = cfg

	zap.L().Debug("configuration loaded", zap.Stringer("config", cfg))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
