package main

import (
	"github.com/spf13/cobra"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/config"
	"github.com/CageChen/fsclass/internal/fs"
	"github.com/CageChen/fsclass/internal/logging"
	"github.com/CageChen/fsclass/internal/preview"
)

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	labelsFile string
	strict     bool
	languages  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "fsclass",
		Short:         "Classify filesystem entries by type and MIME category",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./fsclass.yaml or ~/.config/fsclass/fsclass.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.labelsFile, "labels", "", "YAML file of extra extension labels")
	flags.BoolVar(&opts.strict, "strict", false, "fail instead of returning placeholder entries and empty listings")
	flags.BoolVar(&opts.languages, "languages", false, "report the language of each file (also enabled by the languages config setting)")

	cmd.AddCommand(
		newEntryCmd(opts),
		newListCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// load reads the config file and applies flag overrides.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.labelsFile != "" {
		cfg.LabelsFile = o.labelsFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// logger builds the logger for one-shot commands, which stay quiet below
// warnings unless a level was asked for.
func (o *options) logger(cfg *config.Config) (logging.Logger, error) {
	lc := cfg.Logging()
	if o.logLevel == "" {
		lc.Level = "warn"
	}
	return logging.New(lc)
}

// builder creates a Builder over the local filesystem with paths taken as given.
func (o *options) builder(cfg *config.Config, log logging.Logger) (*classify.Builder, error) {
	labeler, err := cfg.Labeler()
	if err != nil {
		return nil, err
	}
	bopts := []classify.Option{
		classify.WithLabeler(labeler),
		classify.WithLogger(log),
	}
	if o.languages || cfg.Languages {
		bopts = append(bopts, classify.WithLanguages(preview.DetectLanguage))
	}
	return classify.NewBuilder(fs.NewLocalFS(""), bopts...), nil
}
