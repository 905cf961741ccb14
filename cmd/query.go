package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/campusbot/internal/helpers"
	"github.com/mohammad-safakhou/campusbot/models"
)

func queryCMD(a *app) *cobra.Command {
	var k int
	c := &cobra.Command{
		Use:   "query \"question\"",
		Short: "Print the chunks ranked closest to a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.stack(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			retriever, err := st.retriever(cmd.Context())
			if err != nil {
				return err
			}
			if k <= 0 {
				k = a.cfg.Retrieval.TopK
			}
			hits, err := retriever.Retrieve(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			printHits(cmd, hits)
			return nil
		},
	}
	c.Flags().IntVar(&k, "k", 0, "number of chunks to return")
	return c
}

func printHits(cmd *cobra.Command, hits []models.SearchHit) {
	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "no results")
		return
	}
	for _, h := range hits {
		fmt.Fprintln(out, helpers.FormatCitation(helpers.Citation{
			Rank:    h.Rank,
			Score:   h.Score,
			Source:  h.Source,
			Page:    h.Page,
			Snippet: h.Text,
		}, helpers.WithMaxSnippetLength(200)))
	}
}
