package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docmind/internal/backend"
	"github.com/dgallion1/docmind/internal/layout"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pane"
	"github.com/dgallion1/docmind/internal/viewer"
)

func uploadCmd() *cobra.Command {
	var (
		server  string
		lang    string
		fileID  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to a running docmind server and print its mind map",
		Args: func(cmd *cobra.Command, args []string) error {
			if fileID != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(false)
			client := backend.NewClient(server, timeout)
			defer client.Close()

			ctrl := viewer.NewController(pane.NewDispatcher(pane.Deps{Log: log}), viewer.Options{
				Language: mindmap.ParseLanguage(lang),
			}, log)
			defer ctrl.Close()

			out := cmd.OutOrStdout()
			if fileID != "" {
				resp, err := client.Document(context.Background(), fileID)
				if err != nil {
					return err
				}
				ctrl.Finish(resp)
			} else {
				path := args[0]
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				fmt.Fprintln(out, subtle.Sprint("正在处理文档，请稍候..."))
				if err := ctrl.Upload(context.Background(), client, filepath.Base(path), f); err != nil {
					return errors.New(ctrl.State().Error)
				}
				if ctrl.State().Document.FileID == "" {
					return errors.New("server did not report a successful upload")
				}
			}

			st := ctrl.State()
			fmt.Fprintf(out, "%s %s\n", brand.Sprint("file id:"), st.Document.FileID)
			fmt.Fprintf(out, "%s %s/view/%s\n", brand.Sprint("viewer: "), server, st.Document.FileID)
			fmt.Fprintf(out, "%s %s\n", brand.Sprint("pane:   "), pane.Select(st.Document))

			l := ctrl.Layout()
			if l.State != layout.StateReady {
				fmt.Fprintln(out, subtle.Sprint(l.State.Message()))
				return nil
			}
			for _, b := range l.Boxes {
				fmt.Fprintln(out, subtle.Sprint(b.Prefix)+tierColors[b.Style.Tier].Sprint(b.Node.Name))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8000", "docmind server URL")
	cmd.Flags().StringVarP(&lang, "lang", "l", "chinese", "Tree language: chinese or english")
	cmd.Flags().StringVar(&fileID, "id", "", "Show an already processed document instead of uploading")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Request timeout")
	return cmd
}
