package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coldog/jspack/pkg/build"
	"github.com/coldog/jspack/pkg/config"
	"github.com/coldog/jspack/pkg/dedupe"
)

func main() {
	if err := root().Execute(); err != nil {
		os.Exit(1)
	}
}

func root() *cobra.Command {
	var cfgPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "jspack",
		Short:         "jspack compiles and links javascript bundles",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "jspack.yml", "config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Compile sources, link chunks and write bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			b := build.New(cfg)
			if cfg.Dedupe != nil {
				b.Use(dedupe.New(dedupe.FromConfig(cfg.Dedupe)))
			}
			return b.Build(cmd.Context())
		},
	}
	cmd.AddCommand(buildCmd)
	return cmd
}
