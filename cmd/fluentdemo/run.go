package main

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/metalagman/adkfluent/fluent"
	"github.com/metalagman/adkfluent/internal/logging"
	"github.com/metalagman/adkfluent/middleware"
	"github.com/metalagman/adkfluent/trace"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

func runCmd() *cobra.Command {
	var message string
	var tracePath string
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Compile and run the demo pipeline",
		Long:         "Compile a two-stage pipeline with retry and event-log middleware attached, run one message through it, and print the result.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eventLog := middleware.NewEventLog(log.Logger)
			retry := middleware.NewRetry(3, 250*time.Millisecond)

			greeter := fluent.Custom("greeter", "Greets the incoming message.", textAgent(func(in string) string {
				return "hello, " + in
			}))
			shouter := fluent.Custom("shouter", "Upper-cases the incoming message.", textAgent(strings.ToUpper))
			pipeline := fluent.Sequential("demo_pipeline", greeter, shouter).Use(retry, eventLog)

			cfg := fluent.RunConfig{
				AppName: viper.GetString("app_name"),
				UserID:  viper.GetString("user_id"),
			}
			if tracePath != "" {
				store, err := trace.Open(tracePath)
				if err != nil {
					return err
				}
				cfg = cfg.WithMiddleware(trace.NewRecorder(store))
			}

			app, err := pipeline.Compile(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			events, err := app.Run(cmd.Context(), message)
			if err != nil {
				return err
			}
			for _, ev := range events {
				if ev.Content != nil && len(ev.Content.Parts) > 0 {
					fmt.Println(ev.Content.Parts[0].Text)
				}
			}

			if logging.DebugEnabled() {
				logger := logging.Component("fluentdemo")
				for _, e := range eventLog.Entries() {
					logger.Debug().
						Str("hook", e.Hook).
						Str("agent", e.Agent).
						Str("detail", e.Detail).
						Msg("hook observed")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "world", "user message to run")
	cmd.Flags().StringVar(&tracePath, "trace", "", "write a sqlite hook trace to this path")
	return cmd
}

// textAgent yields a single event transforming the user message text.
func textAgent(transform func(string) string) fluent.RunFunc {
	return func(ictx agent.InvocationContext) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			if ictx.Ended() {
				return
			}
			in := ""
			if uc := ictx.UserContent(); uc != nil && len(uc.Parts) > 0 {
				in = uc.Parts[0].Text
			}
			out := genai.NewContentFromText(transform(in), genai.RoleModel)
			yield(&session.Event{LLMResponse: model.LLMResponse{Content: out}}, nil)
		}
	}
}
