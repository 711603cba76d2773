// Command docmind serves the document mind-map viewer and offers offline
// keyword highlighting and mind-map generation for local files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docmind/internal/config"
	"github.com/dgallion1/docmind/internal/generate"
)

var version = "0.3.0"

var (
	configPath string
	verbose    bool
)

var (
	brand  = color.New(color.FgYellow, color.Bold)
	subtle = color.New(color.FgHiBlack)
	bad    = color.New(color.FgRed, color.Bold)
	mark   = color.New(color.BgYellow, color.FgBlack, color.Bold)
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docmind",
		Short:         "docmind: document viewer with an AI mind map",
		Long:          brand.Sprint("docmind") + " links mind-map nodes to the passages of the document they summarize\n" + subtle.Sprint("Upload PDF, DOCX or TXT files and click a node to highlight its keywords"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("docmind {{ .Version }}\n")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "docmind.yaml", "Path to an optional YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(serveCmd(), uploadCmd(), highlightCmd(), mindmapCmd())
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "docmind: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(json bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newGenerator picks the model from cfg; without an API key it serves mock
// mind maps.
func newGenerator(cfg config.Config, log *slog.Logger) *generate.Generator {
	llm := cfg.LLM()
	var client generate.Completer
	if llm.Provider != config.ProviderMock {
		client = generate.NewOpenAIClient(llm.APIKey, llm.BaseURL, llm.Model, cfg.LLMTimeout)
	}
	log.Info("mind map provider", "provider", llm.Provider, "model", llm.Model)
	return generate.NewGenerator(client, cfg.ExcerptRunes, nil, log)
}
