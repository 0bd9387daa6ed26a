package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hrtlog/internal/app"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background reloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(rt.cfg.LogLevel, rt.cfg.PrettyLog)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, rt.cfg, log)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}
