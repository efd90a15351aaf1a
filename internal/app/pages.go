package app

import "github.com/unclebandit/smsleopard-dashboard/internal/service"

// Modules are the page modules the dashboard navigates between.
type Modules struct {
	Dashboard *service.Dashboard
	Clients   *service.Clients
	Campaigns *service.Campaigns
	Workflow  *service.Workflow
	Analytics *service.Analytics
	Approvals *service.Approvals
	Agents    *service.Agents
	Reports   *service.Reports
	Audit     *service.Audit
	Settings  *service.Settings
	Companies *service.Companies
}

// Registry lists the pages in navigation order.
func Registry(m Modules) []Page {
	return []Page{
		{ID: "dashboard", Label: "Dashboard", Icon: "tachometer-alt", Module: m.Dashboard},
		{ID: "clients", Label: "Clients", Icon: "users", Module: m.Clients},
		{ID: "campaigns", Label: "Campaigns", Icon: "bullhorn", Module: m.Campaigns},
		{ID: "workflow", Label: "Workflow", Icon: "project-diagram", Module: m.Workflow},
		{ID: "analytics", Label: "Analytics Insights", Icon: "lightbulb", Module: m.Analytics},
		{ID: "approvals", Label: "Approvals", Icon: "check-double", Module: m.Approvals},
		{ID: "agents", Label: "Agents", Icon: "robot", Module: m.Agents},
		{ID: "reports", Label: "Reports", Icon: "chart-bar", Module: m.Reports},
		{ID: "audit", Label: "Audit Log", Icon: "scroll", Module: m.Audit},
		{ID: "settings", Label: "Settings", Icon: "cog", Module: m.Settings},
		{ID: "companies", Label: "Companies", Icon: "building", Module: m.Companies},
	}
}
