package cli

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/queue"
	"github.com/unclebandit/smsleopard-dashboard/internal/render"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

func newEventsCmd(env *Env) *cobra.Command {
	var terminalOnly bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow workflow run events forwarded to RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.Config.AMQP
			if cfg.URL == "" {
				return errors.New("AMQP_URL is not set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return queue.ConsumeWorkflowEvents(ctx, cfg.URL, cfg.Exchange, cfg.Queue, func(ev model.WorkflowEvent) error {
				if terminalOnly && !ev.Terminal {
					return nil
				}
				printEvent(out, ev)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&terminalOnly, "final", false, "only print runs that reached a final status")
	return cmd
}

func printEvent(w io.Writer, ev model.WorkflowEvent) {
	style := mutedStyle
	switch {
	case ev.Status == "completed":
		style = okStyle
	case service.IsTerminal(ev.Status):
		style = errStyle
	}
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		mutedStyle.Render(ev.At.Format("15:04:05")),
		ev.RunID,
		style.Render(render.Label(ev.Status)),
		mutedStyle.Render(fmt.Sprintf("check %d", ev.Attempts)),
	)
}
