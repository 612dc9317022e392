package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/promptdeck/internal/completion"
	"github.com/jmylchreest/promptdeck/internal/llm"
	"github.com/jmylchreest/promptdeck/internal/logger"
	"github.com/jmylchreest/promptdeck/internal/output"
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Run one completion from the terminal",
	Long: `Send one prompt to the configured provider and print the result.

By default the decoded result is printed as JSON once the call returns.
With --stream, fragments are printed to stdout as they arrive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)

	flags := completeCmd.Flags()
	flags.StringP("model", "m", "", "model identifier (default: provider default)")
	flags.Bool("stream", false, "stream fragments as they arrive")
	flags.String("strategy", string(completion.StrategyPassthrough), "streaming strategy: passthrough, paced")
	flags.StringP("format", "o", "json", "output format for the blocking path: json, yaml")
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		logError("%v", err)
		return err
	}

	cache, err := buildCachedInvoker(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}

	prompt := strings.Join(args, " ")
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = llm.GetDefaultModel(cache.Invoker().Provider().Name())
	}

	stream, _ := cmd.Flags().GetBool("stream")
	if stream {
		return runCompleteStream(cmd, cache, model, prompt)
	}

	format, err := output.ParseFormat(cmd.Flag("format").Value.String())
	if err != nil {
		logError("%v", err)
		return err
	}

	start := time.Now()
	result, cached, err := cache.Complete(context.Background(), model, prompt)
	if err != nil {
		logError("%v", err)
		return err
	}
	logger.Info("completion finished", "model", model, "cached", cached, "elapsed", time.Since(start))

	return output.Write(os.Stdout, result, format)
}

func runCompleteStream(cmd *cobra.Command, cache *completion.CachedInvoker, model, prompt string) error {
	strategy := completion.Strategy(cmd.Flag("strategy").Value.String())
	if !strategy.Valid() {
		err := fmt.Errorf("unknown strategy: %s (available: passthrough, paced)", strategy)
		logError("%v", err)
		return err
	}

	s, err := cache.Invoker().CompleteStream(context.Background(), model, prompt, strategy)
	if err != nil {
		logError("%v", err)
		return err
	}

	for frag := range s.Fragments() {
		if frag.Err != nil {
			// Fragments already printed stay printed.
			fmt.Println()
			logError("%v", frag.Err)
			return frag.Err
		}
		fmt.Print(frag.Text)
	}
	fmt.Println()
	return nil
}
