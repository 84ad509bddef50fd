package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/artscroll/internal/config"
)

type rootOptions struct {
	configPath  string
	author      string
	lang        string
	noTranslate bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "artscroll",
		Short:         "Scroll through artworks in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.author)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default ~/.artscroll/config.toml)")
	root.Flags().StringVar(&opts.author, "author", "", "Start with works by this artist")
	root.Flags().StringVar(&opts.lang, "lang", "", "Translate titles and descriptions into this language")
	root.Flags().BoolVar(&opts.noTranslate, "no-translate", false, "Disable translation")

	root.AddCommand(newConfigCommand(opts))
	root.AddCommand(newEventsCommand(opts))
	return root
}

// load reads the config file and applies command-line overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Read(o.configPath)
	if err != nil {
		return nil, err
	}
	if lang := strings.TrimSpace(o.lang); lang != "" {
		cfg.Translation.Enabled = true
		cfg.Translation.TargetLang = lang
	}
	if o.noTranslate {
		cfg.Translation.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
