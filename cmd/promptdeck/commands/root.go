// Package commands implements the CLI commands for promptdeck.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/promptdeck/internal/completion"
	"github.com/jmylchreest/promptdeck/internal/config"
	"github.com/jmylchreest/promptdeck/internal/llm"
	"github.com/jmylchreest/promptdeck/internal/logger"
	"github.com/jmylchreest/promptdeck/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "promptdeck",
	Short: "Web front-end and CLI for hosted LLM completions",
	Long: `Promptdeck forwards text prompts to a hosted inference endpoint and
renders the response, blocking or as an incrementally-arriving stream.

Examples:
  # Serve the prompt page on :8080
  promptdeck serve

  # One-shot completion from the terminal
  promptdeck complete -m claude-3-5-sonnet "Why is the sky blue?"

  # Stream it instead
  promptdeck complete -m claude-3-5-sonnet --stream "Why is the sky blue?"`,
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().String("config", "", "config file (default ./promptdeck.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("app.quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("app.log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initViper() {
	viper.SetEnvPrefix("PROMPTDECK")
	viper.AutomaticEnv()
}

// loadConfig loads the validated configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}

	// Flags override file values.
	if viper.GetBool("app.debug") {
		cfg.App.Debug = true
	}
	if viper.GetBool("app.quiet") {
		cfg.App.Quiet = true
	}
	if viper.GetBool("app.log_json") {
		cfg.App.LogJSON = true
	}

	logger.Init(logger.Options{
		Debug: cfg.App.Debug,
		Quiet: cfg.App.Quiet,
		JSON:  cfg.App.LogJSON,
	})

	return cfg, nil
}

// buildCachedInvoker assembles the invocation path: session (for the
// warehouse provider), provider, invoker, store, cache.
func buildCachedInvoker(cfg *config.Config) (*completion.CachedInvoker, error) {
	name := cfg.Provider.Name
	apiKey := cfg.Provider.APIKey
	if name == "" {
		name, apiKey = llm.DetectProvider()
		if cfg.Provider.APIKey != "" {
			apiKey = cfg.Provider.APIKey
		}
		logger.Debug("provider auto-detected", "provider", name)
	}

	var sess *session.Session
	if name == "cortex" {
		var err error
		sess, err = session.Acquire(cfg.Session)
		if err != nil {
			return nil, err
		}
		logger.Info("session acquired", "source", string(sess.Source), "host", sess.Host)
	}

	provider, err := llm.NewProvider(name, llm.ProviderConfig{
		APIKey:  apiKey,
		BaseURL: cfg.Provider.BaseURL,
		Models:  cfg.Provider.Models,
	}, sess)
	if err != nil {
		return nil, err
	}

	inv := completion.NewInvoker(provider)
	inv.MaxTokens = cfg.Provider.MaxTokens
	inv.Temperature = cfg.Provider.Temperature
	if cfg.Provider.PacingDelay > 0 {
		inv.PacingDelay = cfg.Provider.PacingDelay
	}

	var store completion.Store
	switch cfg.Cache.Backend {
	case "redis":
		store, err = completion.NewRedisStore(completion.RedisStoreConfig{
			Address:  cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
	default:
		store = completion.NewMemoryStore()
	}

	return completion.NewCachedInvoker(inv, store), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
