package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/promptdeck/internal/logger"
	"github.com/jmylchreest/promptdeck/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prompt page and completion API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.IntP("port", "p", 0, "listen port (overrides config)")
	_ = viper.BindPFlag("serve.port", flags.Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		logError("%v", err)
		return err
	}

	if port := viper.GetInt("serve.port"); port > 0 {
		cfg.App.Port = port
	}

	cache, err := buildCachedInvoker(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}

	srv := web.NewServer(cache)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		_ = srv.Shutdown()
	}()

	logger.Info("listening", "host", cfg.App.Host, "port", cfg.App.Port)
	if err := srv.Listen(cfg.App.Host, cfg.App.Port); err != nil {
		logError("%v", err)
		return err
	}
	return nil
}
