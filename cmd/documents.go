/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/forms"
	"github.com/cellhub/admin/internal/services"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const maxDocumentBytes = 20 << 20

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with their event",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Documents.FetchAll(ctx); err != nil {
				return err
			}
			if err := d.Events.FetchAll(ctx); err != nil {
				d.Log.Warn("events not loaded, event titles unavailable", err)
			}
			rows := services.EnrichDocuments(d.Documents.Items(), d.Events.Items())
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tFILE\tKIND\tEVENT\tUPLOADED")
			for _, r := range services.FilterDocuments(rows, search) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Filename,
					services.FileKind(r.Filename, ""), r.EventTitle, r.UploadDate.Local().Format("2006-01-02"))
			}
			return tw.Flush()
		})
	},
}

var documentsUploadCmd = &cobra.Command{
	Use:   "upload FILE --title TITLE",
	Short: "Upload a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		eventID, _ := cmd.Flags().GetInt("event")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			form := &forms.DocumentForm{Title: title, EventID: eventID}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open document")
			}
			err = form.SelectFile(filepath.Base(args[0]), f, maxDocumentBytes)
			_ = f.Close()
			if err != nil {
				return printFieldErrors(cmd.ErrOrStderr(), err)
			}
			if err := form.Validate(); err != nil {
				return printFieldErrors(cmd.ErrOrStderr(), err)
			}
			doc, err := d.Documents.Upload(ctx, form.Multipart())
			if err != nil {
				return err
			}
			printf(cmd, "Document %d uploaded: %s\n", doc.ID, doc.Title)
			return nil
		})
	},
}

var documentsDownloadCmd = &cobra.Command{
	Use:   "download ID",
	Short: "Download a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "document")
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			blob, err := d.Documents.Open(ctx, id)
			if err != nil {
				return err
			}
			defer d.Documents.CloseDocument()
			if output == "" {
				output = filepath.Base(blob.Filename)
			}
			if err := os.WriteFile(output, blob.Data, 0o644); err != nil {
				return errors.Wrap(err, "write document")
			}
			printf(cmd, "%s (%s, %d bytes)\n", output, blob.ContentType, len(blob.Data))
			return nil
		})
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "document")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Documents.Delete(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Document %d deleted\n", id)
			return nil
		})
	},
}

var documentsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Bundle every document into a .tar.gz with a manifest",
	Long: `Bundle every document into a .tar.gz with a manifest. With --archive the
bundle is uploaded to the configured object storage instead of being
written locally.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		archive, _ := cmd.Flags().GetBool("archive")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if archive {
				bundler, err := d.Archiver(ctx)
				if err != nil {
					return err
				}
				key, bundle, err := bundler.Archive(ctx)
				if err != nil {
					return err
				}
				printf(cmd, "%d documents archived to %s (sha256 %s)\n", len(bundle.Manifest.Documents), key, bundle.SHA256)
				return nil
			}
			bundle, err := d.Bundle.Build(ctx)
			if err != nil {
				return err
			}
			if output == "" {
				output = bundle.Filename
			}
			if err := os.WriteFile(output, bundle.Data, 0o644); err != nil {
				return errors.Wrap(err, "write bundle")
			}
			printf(cmd, "%d documents written to %s (sha256 %s)\n", len(bundle.Manifest.Documents), output, bundle.SHA256)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsListCmd, documentsUploadCmd, documentsDownloadCmd, documentsDeleteCmd, documentsExportCmd)

	documentsListCmd.Flags().String("search", "", "filter by title, file name or event")
	documentsUploadCmd.Flags().String("title", "", "document title")
	documentsUploadCmd.Flags().Int("event", 0, "attach to this event id")
	documentsDownloadCmd.Flags().StringP("output", "o", "", "output file (defaults to the document file name)")
	documentsExportCmd.Flags().StringP("output", "o", "", "output file")
	documentsExportCmd.Flags().Bool("archive", false, "upload the bundle to object storage")
}
