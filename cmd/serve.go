package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/campusbot/internal/pipeline"
	"github.com/mohammad-safakhou/campusbot/internal/rag"
	"github.com/mohammad-safakhou/campusbot/internal/server"
	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/session"
	"github.com/mohammad-safakhou/campusbot/session/inmemory"
	redis_session "github.com/mohammad-safakhou/campusbot/session/redis"
)

const sessionSweepInterval = time.Minute

func serveCMD(a *app) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Address = addr
			}

			st, err := a.stack(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			retriever, err := st.retriever(ctx)
			if err != nil {
				return err
			}
			hybrid, err := st.hybrid(ctx)
			if err != nil {
				return err
			}

			var sessions session.Store
			if st.redis != nil {
				sessions = redis_session.NewRedisSessionStore(st.redis)
			} else {
				mem := inmemory.NewInMemorySessionStore()
				go mem.Run(ctx, sessionSweepInterval)
				sessions = mem
			}

			crawlDir := a.cfg.Crawl.OutputDir
			srv := server.New(a.cfg, server.Deps{
				Answerer: rag.NewAnswerer(retriever, st.llm, a.cfg.Retrieval.TopK, a.log),
				Sessions: sessions,
				Search:   hybrid,
				Documents: func() ([]models.Document, error) {
					return pipeline.LoadCrawlDir(crawlDir)
				},
				Logger: a.log,
			})
			return srv.Run(ctx)
		},
	}
	c.Flags().StringVar(&addr, "addr", ":10001", "listen address")
	return c
}
