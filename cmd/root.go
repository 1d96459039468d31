package cmd

import (
	"fmt"
	"os"

	"github.com/chazu/truss/pkg/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// cfg and log are set up by the root command before any subcommand runs.
	cfg config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "truss",
	Short: "Structural connectivity resolution",
	Long: `truss - structural connectivity resolution

Reads a scene of columns, beams, braces, slabs and walls whose end points
only roughly meet, and snaps them into a connected structural model:

  - frame members are divided where they cross and snapped onto each other
  - frame nodes are pulled onto nearby slabs and walls
  - walls are moved onto slab edges and onto each other
  - coincident nodes are merged after every pass

Scenes are Lisp files; see examples/ for the available forms.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := config.Default()
		if configPath != "" {
			var err error
			if c, err = config.Load(configPath); err != nil {
				return err
			}
		}
		if logLevel != "" {
			c.Log.Level = logLevel
			if err := c.Validate(); err != nil {
				return err
			}
		}
		cfg = c
		log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
			Level(cfg.LogLevel()).
			With().Timestamp().Logger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
}
