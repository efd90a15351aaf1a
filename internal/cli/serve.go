package cli

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unclebandit/smsleopard-dashboard/internal/api"
	"github.com/unclebandit/smsleopard-dashboard/internal/app"
	"github.com/unclebandit/smsleopard-dashboard/internal/config"
	"github.com/unclebandit/smsleopard-dashboard/internal/controller"
	"github.com/unclebandit/smsleopard-dashboard/internal/handler"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/queue"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
	"github.com/unclebandit/smsleopard-dashboard/internal/telemetry"
	"github.com/unclebandit/smsleopard-dashboard/internal/view"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(env *Env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				env.Config.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return env.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides DASHBOARD_ADDR)")
	return cmd
}

func (e *Env) serve(ctx context.Context) error {
	log := logging.WithComponent("server")
	cfg := e.Config

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		log.Warn("⚠️ tracing disabled", "error", err)
	}
	defer func() {
		if shutdownTracing != nil {
			_ = shutdownTracing(context.Background())
		}
	}()

	store, conn, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	client := api.New(store)
	client.Timeout = cfg.API.Timeout
	client.UploadTimeout = cfg.API.UploadTimeout

	q := queue.NewInMemoryQueue()
	notify, err := service.NewNotifier(q)
	if err != nil {
		return err
	}

	if cfg.AMQP.URL != "" {
		pub, err := queue.DialPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn("⚠️ workflow events stay local", "error", err)
		} else {
			defer pub.Close()
			if err := queue.StartWorkflowEventForwarder(q, pub); err != nil {
				return err
			}
		}
	}

	m := modules(cfg, client, store, notify, q)
	dash := app.New(client, notify, app.Registry(m))
	dash.HealthInterval = cfg.Intervals.Health
	dash.Start(ctx)
	defer dash.Stop()
	store.OnChange(func(model.Settings) { dash.RecheckHealth() })

	renderer, err := view.New()
	if err != nil {
		return err
	}
	shell := &handler.Shell{
		App:       dash,
		Notify:    notify,
		Companies: m.Companies,
		View:      renderer,
		Pages:     pageController(m),
		CSRFKey:   csrfKey(cfg),
		Secure:    cfg.SecureCookie,
		Refresh:   refreshSeconds(cfg.Intervals),
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           shell.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("🚀 dashboard running", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func modules(cfg config.Config, client *api.Client, store *service.SettingsStore, notify *service.Notifier, q queue.Queue) app.Modules {
	workflow := service.NewWorkflow(client, notify, cfg.Intervals.WorkflowRunning)
	workflow.PollInterval = cfg.Intervals.RunStatus
	workflow.MaxAttempts = cfg.Intervals.RunStatusMax
	workflow.Events = q

	return app.Modules{
		Dashboard: service.NewDashboard(client, cfg.Intervals.Dashboard),
		Clients:   service.NewClients(client, notify),
		Campaigns: service.NewCampaigns(client, notify),
		Workflow:  workflow,
		Analytics: service.NewAnalytics(client, notify),
		Approvals: service.NewApprovals(client, notify),
		Agents:    service.NewAgents(client, cfg.Intervals.Agents),
		Reports:   service.NewReports(client, notify),
		Audit:     service.NewAudit(client, notify),
		Settings:  service.NewSettings(client, store, notify),
		Companies: service.NewCompanies(client, store, notify),
	}
}

func pageController(m app.Modules) *controller.PageController {
	return &controller.PageController{
		Dashboard: m.Dashboard,
		Clients:   m.Clients,
		Campaigns: m.Campaigns,
		Workflow:  m.Workflow,
		Analytics: m.Analytics,
		Approvals: m.Approvals,
		Agents:    m.Agents,
		Reports:   m.Reports,
		Audit:     m.Audit,
		Settings:  m.Settings,
		Companies: m.Companies,
	}
}

// refreshSeconds turns the page polling intervals into meta refresh periods.
func refreshSeconds(iv config.Intervals) map[string]int {
	return map[string]int{
		"dashboard": int(iv.Dashboard / time.Second),
		"workflow":  int(iv.WorkflowRunning / time.Second),
		"agents":    int(iv.Agents / time.Second),
	}
}

// csrfKey derives the 32 byte form token key. Without a configured key a
// random one is used, so tokens do not survive a restart.
func csrfKey(cfg config.Config) []byte {
	if cfg.CSRFKey != "" {
		sum := sha256.Sum256([]byte(cfg.CSRFKey))
		return sum[:]
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	logging.WithComponent("server").Warn("⚠️ DASHBOARD_CSRF_KEY not set, using a random key")
	return key
}
