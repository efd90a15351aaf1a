package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/unclebandit/smsleopard-dashboard/internal/api"
	"github.com/unclebandit/smsleopard-dashboard/internal/app"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1f7a3a", Dark: "#3fb950"})
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"})
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#a32138", Dark: "#f85149"})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6e7781", Dark: "#8b949e"})
	keyStyle   = lipgloss.NewStyle().Width(12).Foreground(lipgloss.AdaptiveColor{Light: "#311f35", Dark: "#f8f4fb"})
)

func newHealthCmd(env *Env) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the campaign API with the stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store, conn, err := env.openStore(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			s := store.Settings()
			h := app.New(api.New(store), nil, nil).CheckHealth(ctx)
			printHealth(cmd.OutOrStdout(), s, h)
			if h.State == app.HealthOffline {
				return fmt.Errorf("api unreachable at %s", s.BaseURL)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

func stateStyle(s app.HealthState) lipgloss.Style {
	switch s {
	case app.HealthOnline:
		return okStyle
	case app.HealthDegraded:
		return warnStyle
	}
	return errStyle
}

func printHealth(w io.Writer, s model.Settings, h app.Health) {
	company := s.CompanyID
	if company == "" {
		company = "all"
	}
	fmt.Fprintln(w, stateStyle(h.State).Render("● "+h.Title))
	fmt.Fprintln(w, keyStyle.Render("base url")+s.BaseURL)
	fmt.Fprintln(w, keyStyle.Render("api key")+mutedStyle.Render(s.MaskedKey()))
	fmt.Fprintln(w, keyStyle.Render("company")+company)
}
