package main

import (
	"time"

	"github.com/amz-risk/docflow-cli/internal/config"
	"github.com/amz-risk/docflow-cli/internal/docgen"
	"github.com/amz-risk/docflow-cli/internal/notify"
	"github.com/amz-risk/docflow-cli/internal/registry"
	"github.com/amz-risk/docflow-cli/internal/resilience"
	"github.com/amz-risk/docflow-cli/internal/tracker"
	"github.com/amz-risk/docflow-cli/pkg/docx"
	"github.com/amz-risk/docflow-cli/pkg/graph"
	"github.com/amz-risk/docflow-cli/pkg/hubspot"
	"github.com/amz-risk/docflow-cli/pkg/notion"
)

// newCRM builds the HubSpot client from the loaded config.
func newCRM(c *config.Config) hubspot.Client {
	opts := []hubspot.Option{}
	if c.HubSpot.BaseURL != "" {
		opts = append(opts, hubspot.WithBaseURL(c.HubSpot.BaseURL))
	}
	if c.HubSpot.RateRPS > 0 {
		opts = append(opts, hubspot.WithRateLimit(c.HubSpot.RateRPS))
	}
	if c.HubSpot.PageSize > 0 {
		opts = append(opts, hubspot.WithPageSize(c.HubSpot.PageSize))
	}
	return hubspot.NewClient(c.HubSpot.Token, opts...)
}

// newDrive builds the Graph client with app-only credentials.
func newDrive(c *config.Config) graph.Client {
	ts := graph.NewClientCredentialsSource(
		c.Graph.TenantID,
		c.Graph.ClientID,
		c.Graph.ClientSecret,
		c.Graph.LoginURL,
		nil,
	)
	opts := []graph.Option{}
	if c.Graph.BaseURL != "" {
		opts = append(opts, graph.WithBaseURL(c.Graph.BaseURL))
	}
	return graph.NewClient(c.Graph.SiteID, ts, opts...)
}

// newEngine assembles the generation engine: template catalog, copy poller,
// webhook notifier, and the docx binding.
func newEngine(c *config.Config, crm hubspot.Client, drive graph.Client) (*docgen.Engine, error) {
	templates, err := registry.LoadTemplates(c.Drive.TemplatesPath)
	if err != nil {
		return nil, err
	}

	poll := resilience.DefaultPollConfig()
	if c.Poll.MaxAttempts > 0 {
		poll.MaxAttempts = c.Poll.MaxAttempts
	}
	if c.Poll.IntervalMS > 0 {
		poll.Interval = time.Duration(c.Poll.IntervalMS) * time.Millisecond
	}

	return docgen.NewEngine(docgen.EngineParams{
		CRM:           crm,
		Drive:         drive,
		Copier:        docgen.NewCopier(drive, poll),
		Selector:      &docgen.Selector{Templates: templates},
		Notifier:      notify.NewWebhook(c.Notify),
		OpenDocument:  docx.Open,
		ClientsRootID: c.Drive.ClientsFolderID,
		VendorsRootID: c.Drive.VendorsFolderID,
	}), nil
}

// newTracker returns the run tracker, or nil when no database is configured.
func newTracker(c *config.Config) *tracker.Tracker {
	if c.Tracker.Token == "" || c.Tracker.RunDB == "" {
		return nil
	}
	return tracker.New(notion.NewClient(c.Tracker.Token), c.Tracker.RunDB)
}
