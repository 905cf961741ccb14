package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/campusbot/internal/crawler"
	"github.com/mohammad-safakhou/campusbot/internal/pdfextract"
)

const defaultPDFOutputDir = "data/pdf_pages"

func extractCMD(a *app) *cobra.Command {
	var in, out string
	c := &cobra.Command{
		Use:   "extract",
		Short: "Extract text from every PDF in a directory, one file per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.cfg.PDF.InputDir
			}
			if out == "" {
				out = a.cfg.PDF.OutputDir
			}
			if out == "" {
				out = defaultPDFOutputDir
			}

			docs, err := pdfextract.NewExtractor(a.log).ExtractDir(cmd.Context(), in)
			if err != nil {
				return err
			}
			writer, err := crawler.NewWriter(out)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				if _, err := writer.Write(doc.Key(), doc.Text); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pages=%d dir=%s\n", len(docs), writer.Dir())
			return nil
		},
	}
	c.Flags().StringVar(&in, "in", "", "directory of PDF files")
	c.Flags().StringVar(&out, "out", "", "directory for extracted page text")
	return c
}
