package main

import (
	"os"

	"github.com/spf13/cobra"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
	"caption-plan-go/internal/extractor"
	"caption-plan-go/internal/history"
)

// commandContext lazily loads configuration shared by subcommands.
type commandContext struct {
	configFlag *string
	mockFlag   *bool
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := *c.configFlag
	if path == "" {
		path = os.Getenv("CAPTION_CONFIG")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if *c.mockFlag {
		cfg.LLM.UseMock = true
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) decider() (annotator.Decider, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.LLM.UseMock {
		return extractor.MockDecider{}, nil
	}
	return extractor.NewLLMDecider(extractor.NewClient(cfg.LLM)), nil
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.Storage.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var mockFlag bool
	ctx := &commandContext{configFlag: &configFlag, mockFlag: &mockFlag}

	rootCmd := &cobra.Command{
		Use:           "captionplan",
		Short:         "Build and edit caption edit plans from timed transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "TOML configuration file (overrides CAPTION_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Use the deterministic offline decider instead of the LLM gateway")

	rootCmd.AddCommand(newSegmentCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newEditCommand(ctx))
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
