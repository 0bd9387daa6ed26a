package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hrtlog/internal/config"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/settings"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
)

// runtime holds what every subcommand needs once flags are parsed.
type runtime struct {
	dataDir string
	verbose bool

	cfg    *config.Config
	log    logger.Logger
	store  *store.Store
	config func() *config.Config
}

func (rt *runtime) init() error {
	rt.cfg = rt.config()
	if rt.dataDir != "" {
		rt.cfg.DataDir = rt.dataDir
	}
	if rt.cfg.DataDir == "" {
		return fmt.Errorf("data directory is empty")
	}

	if rt.verbose {
		rt.log = logger.New("debug", rt.cfg.PrettyLog)
	} else {
		rt.log = logger.New("warn", rt.cfg.PrettyLog)
	}
	rt.store = store.New(rt.cfg.DataDir, rt.log)
	return nil
}

func (rt *runtime) settings() *settings.Manager {
	return settings.Open(rt.cfg.Path(store.SettingsFile), rt.log)
}

// NewRootCmd constructs the hrtlog command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.Load)
}

func newRootCmd(load func() *config.Config) *cobra.Command {
	rt := &runtime{config: load}

	rootCmd := &cobra.Command{
		Use:           "hrtlog",
		Short:         "Personal HRT dose and symptom log",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rt.dataDir, "data-dir", "", "Data directory (overrides HRT_DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newTimelineCmd(rt))
	rootCmd.AddCommand(newShowCmd(rt))
	rootCmd.AddCommand(newExportCmd(rt))
	rootCmd.AddCommand(newDeleteCmd(rt))
	rootCmd.AddCommand(newDuplicateCmd(rt))
	rootCmd.AddCommand(newLogDoseCmd(rt))
	rootCmd.AddCommand(newLogSymptomCmd(rt))
	rootCmd.AddCommand(newNoteCmd(rt))
	rootCmd.AddCommand(newResourcesCmd(rt))
	rootCmd.AddCommand(newSettingsCmd(rt))
	rootCmd.AddCommand(newMCPCmd(rt))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
