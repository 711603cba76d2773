package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docmind/internal/highlight"
	"github.com/dgallion1/docmind/internal/match"
	"github.com/dgallion1/docmind/internal/parser"
	"github.com/dgallion1/docmind/internal/pipeline"
)

func highlightCmd() *cobra.Command {
	var (
		showAll  bool
		minRunes int
		window   int
	)
	cmd := &cobra.Command{
		Use:   "highlight <file> <keyword>...",
		Short: "Show which lines or PDF fragments of a local file a keyword set points at",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, keywords := args[0], args[1:]
			log := newLogger(false)

			corpus, err := corpusFor(path)
			if err != nil {
				return err
			}
			engine := match.New(match.Options{ProximityWindow: window, MinKeywordRunes: minRunes}, log)
			results := engine.FindMatches(keywords, corpus)

			out := cmd.OutOrStdout()
			matched := 0
			for _, r := range results {
				if !r.Matched && !showAll {
					continue
				}
				label := r.Unit.ID
				if r.Unit.Page > 0 {
					label = fmt.Sprintf("p%d %s", r.Unit.Page, r.Unit.ID)
				}
				line := colorize(r.Unit.Text, keywords, log)
				if r.Matched {
					matched++
					fmt.Fprintf(out, "%s %s %s\n", brand.Sprintf("%-10s", label), line, subtle.Sprintf("[%s: %s]", r.Strategy, r.Keyword))
				} else {
					fmt.Fprintf(out, "%s %s\n", subtle.Sprintf("%-10s", label), line)
				}
			}

			sum := match.Summarize(keywords, results)
			fmt.Fprintf(out, "\n%s %d of %d %s units matched\n", brand.Sprint("docmind"), matched, sum.Units, corpus.Substrate)
			if len(sum.Unmatched) > 0 {
				fmt.Fprintf(out, "%s %v\n", subtle.Sprint("no match for:"), sum.Unmatched)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Print unmatched units too")
	cmd.Flags().IntVar(&minRunes, "min-runes", 0, "Ignore keywords shorter than this many runes")
	cmd.Flags().IntVar(&window, "window", match.DefaultProximityWindow, "PDF proximity window in runes")
	return cmd
}

// corpusFor reads a PDF as text-layer fragments and anything else as lines.
func corpusFor(path string) (match.Corpus, error) {
	if parser.Ext(path) == ".pdf" {
		frags, _, err := parser.Fragments(path)
		if err != nil {
			return match.Corpus{}, err
		}
		units := make([]match.Unit, len(frags))
		for i, f := range frags {
			units[i] = match.Unit{ID: f.ID, Page: f.Page, Text: f.Text}
		}
		return match.Corpus{Substrate: match.PDF, Units: units}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return match.Corpus{}, err
	}
	text, _, err := pipeline.ExtractText(filepath.Base(path), data, false)
	if err != nil {
		return match.Corpus{}, err
	}
	return match.Corpus{Substrate: match.Plain, Units: match.Lines(text)}, nil
}

// colorize marks keyword runs the way the plain-text pane does.
func colorize(text string, keywords []string, log *slog.Logger) string {
	view := highlight.SegmentText(text, keywords, log)
	if view.Matches == 0 {
		return text
	}
	var s string
	for _, seg := range view.Segments {
		if seg.Matched {
			s += mark.Sprint(seg.Text)
		} else {
			s += seg.Text
		}
	}
	return s
}
