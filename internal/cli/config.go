package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration and the stored API settings",
	}
	cmd.AddCommand(newConfigShowCmd(env), newConfigSetCmd(env))
	return cmd
}

func newConfigShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := env.Config.YAML()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprint(w, string(out))

			store, conn, err := env.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()
			s := store.Settings()
			fmt.Fprintln(w, mutedStyle.Render("# stored settings"))
			fmt.Fprintln(w, keyStyle.Render("base url")+s.BaseURL)
			fmt.Fprintln(w, keyStyle.Render("api key")+s.MaskedKey())
			fmt.Fprintln(w, keyStyle.Render("company")+s.CompanyID)
			return nil
		},
	}
}

func newConfigSetCmd(env *Env) *cobra.Command {
	var baseURL, apiKey, company string
	var clearCompany bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the stored API settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, conn, err := env.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			next := store.Settings()
			flags := cmd.Flags()
			if flags.Changed("base-url") {
				next.BaseURL = baseURL
			}
			if flags.Changed("api-key") {
				next.APIKey = apiKey
			}
			if flags.Changed("company") {
				next.CompanyID = company
			}
			if clearCompany {
				next.CompanyID = ""
			}
			saved, err := store.Update(cmd.Context(), next)
			if err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ settings saved")+" "+saved.BaseURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "campaign API base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key sent as X-API-Key")
	cmd.Flags().StringVar(&company, "company", "", "company id to scope requests to")
	cmd.Flags().BoolVar(&clearCompany, "all-companies", false, "clear the company scope")
	return cmd
}
