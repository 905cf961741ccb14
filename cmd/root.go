// Package cmd wires configuration, logging and the pipeline stages into the campusbot CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/campusbot/config"
	"github.com/mohammad-safakhou/campusbot/internal/logging"
)

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     *logrus.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "campusbot",
		Short:         "Crawl university content, index it and answer questions about it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.LoadConfig(a.cfgPath)
			a.log = logging.New(a.cfg.General.LogLevel, a.cfg.General.LogFormat)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (default is ./config.json)")

	root.AddCommand(crawlCMD(a), extractCMD(a), indexCMD(a), queryCMD(a), serveCMD(a))
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return err
	}
	return nil
}
