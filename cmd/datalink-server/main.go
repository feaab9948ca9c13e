package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/datalink-fusion/internal/config"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
)

func main() {
	gin.SetMode(gin.ReleaseMode)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	v := config.New()

	root := &cobra.Command{
		Use:          "datalink-server",
		Short:        "Fuse radar and IFF feeds into a queryable track table",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgPath)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Log.Logging())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, *cfg, log, listeners{}); err != nil {
				log.Error(ctx, "datalink server exited", logging.Err(err))
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML configuration file")
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(newConfigCmd(v, &cfgPath))
	return root
}

func newConfigCmd(v *viper.Viper, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(v, *cfgPath); err != nil {
				return err
			}
			out, err := config.Render(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
