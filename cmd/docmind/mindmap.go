package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docmind/internal/generate"
	"github.com/dgallion1/docmind/internal/layout"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pipeline"
)

var tierColors = [layout.MaxTier + 1]*color.Color{
	color.New(color.FgYellow, color.Bold, color.Underline),
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgHiYellow),
	color.New(color.FgWhite),
}

func mindmapCmd() *cobra.Command {
	var (
		lang    string
		asJSON  bool
		keyword bool
	)
	cmd := &cobra.Command{
		Use:   "mindmap <file>",
		Short: "Generate a mind map for a local file and print it as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(false)
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			text, _, err := pipeline.ExtractText(filepath.Base(path), data, cfg.PDFFallbackPdftotext)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("%s: no text could be extracted", path)
			}

			gen := newGenerator(cfg, log)
			raw, err := gen.MindMap(context.Background(), text)
			if err != nil {
				log.Warn("mind map generation failed, using document outline", "error", err)
				raw = generate.FallbackTree(text)
			}
			payload := mindmap.ParsePayload(generate.Sanitize(raw, log))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}

			tree, shown := payload.Select(mindmap.ParseLanguage(lang))
			root, diag := mindmap.Normalize(tree)
			diag.Log(log)
			l := layout.Compute(root)
			if l.State != layout.StateReady {
				fmt.Fprintln(out, subtle.Sprint(l.State.Message()))
				return nil
			}
			if shown != "" {
				fmt.Fprintln(out, subtle.Sprintf("(%s, %s)", shown, gen.Model()))
			}
			for _, b := range l.Boxes {
				line := subtle.Sprint(b.Prefix) + tierColors[b.Style.Tier].Sprint(b.Node.Name)
				if keyword && b.Node.HasKeywords() {
					line += " " + subtle.Sprintf("[%s]", strings.Join(b.Node.Keywords, ", "))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "chinese", "Tree language: chinese or english")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw dual-language payload")
	cmd.Flags().BoolVarP(&keyword, "keywords", "k", false, "Show node keywords")
	return cmd
}
