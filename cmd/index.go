package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func indexCMD(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Chunk crawl output and PDFs, embed the chunks and persist the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.stack(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			ix, err := st.builder.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chunks=%d dim=%d model=%s path=%s\n",
				ix.Len(), ix.Dimension(), ix.Model(), a.cfg.Index.Path)
			return nil
		},
	}
}
