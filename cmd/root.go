package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/config"
)

var (
	cfg *config.Config

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "treeshop",
	Short: "Tree service pricing calibration and job scoring",
	Long: `Prices jobs from production rates and complexity factors, scores completed
jobs against their estimates, and recalibrates service templates from job history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.L().Debug("config loaded",
			zap.String("command", cmd.CommandPath()),
			zap.String("store", cfg.Store.Driver),
		)

		return cfg.Validate(cmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// commandGroups orders help output by what a crew office does with each command.
var commandGroups = []struct {
	group    cobra.Group
	commands []string
}{
	{cobra.Group{ID: "pricing", Title: "Pricing:"}, []string{"factors", "price", "estimate"}},
	{cobra.Group{ID: "jobs", Title: "Job tracking:"}, []string{"jobs", "import", "export"}},
	{cobra.Group{ID: "calibration", Title: "Calibration:"}, []string{"calibrate", "templates", "monitor"}},
	{cobra.Group{ID: "ops", Title: "Operations:"}, []string{"serve", "migrate"}},
}

// groupCommands assigns every registered subcommand to its help group.
// It runs after all init functions have added their commands.
func groupCommands(root *cobra.Command) {
	byName := make(map[string]*cobra.Command, len(root.Commands()))
	for _, c := range root.Commands() {
		byName[c.Name()] = c
	}
	for _, g := range commandGroups {
		if !root.ContainsGroup(g.group.ID) {
			root.AddGroup(&cobra.Group{ID: g.group.ID, Title: g.group.Title})
		}
		for _, name := range g.commands {
			if c, ok := byName[name]; ok {
				c.GroupID = g.group.ID
			}
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	groupCommands(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
