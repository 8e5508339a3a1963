// Package tracker records generation runs in a Notion database: one page
// per run with outcome counts, plus one page per failed unit.
package tracker

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/docgen"
	"github.com/amz-risk/docflow-cli/pkg/notion"
)

// Tracker writes run records to the configured tracking database.
type Tracker struct {
	client notion.Client
	runDB  string
}

// New builds a tracker over a Notion database.
func New(client notion.Client, runDB string) *Tracker {
	return &Tracker{client: client, runDB: runDB}
}

// RecordRun creates the run summary page and one page per failure. Failure
// pages that cannot be created are logged and do not fail the recording.
func (t *Tracker) RecordRun(ctx context.Context, sum *docgen.Summary) error {
	if t.runDB == "" {
		return nil
	}

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(fmt.Sprintf("Run %s", sum.Started.Format("2006-01-02 15:04"))),
		},
		"Run ID":    notionapi.RichTextProperty{RichText: richText(sum.RunID)},
		"Kind":      notionapi.SelectProperty{Select: notionapi.Option{Name: "run"}},
		"Generated": notionapi.NumberProperty{Number: float64(sum.Generated)},
		"Existed":   notionapi.NumberProperty{Number: float64(sum.Existed)},
		"Skipped":   notionapi.NumberProperty{Number: float64(sum.Skipped)},
		"Failed":    notionapi.NumberProperty{Number: float64(sum.Failed)},
	}
	if _, err := t.client.CreatePage(ctx, t.pageRequest(props)); err != nil {
		return eris.Wrap(err, "tracker: create run page")
	}

	for _, f := range sum.Failures {
		if err := t.recordFailure(ctx, sum.RunID, f); err != nil {
			zap.L().Error("tracker: failed to record failure",
				zap.String("run_id", sum.RunID),
				zap.String("company", f.Company),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (t *Tracker) recordFailure(ctx context.Context, runID string, f docgen.UnitResult) error {
	label := string(f.Flow)
	if f.Company != "" {
		label += " - " + f.Company
	}
	if f.ServiceLine != "" {
		label += " - " + f.ServiceLine
	}
	errText := ""
	if f.Err != nil {
		errText = f.Err.Error()
	}

	props := notionapi.Properties{
		"Name":   notionapi.TitleProperty{Title: richText(label)},
		"Run ID": notionapi.RichTextProperty{RichText: richText(runID)},
		"Kind":   notionapi.SelectProperty{Select: notionapi.Option{Name: "failure"}},
		"Error":  notionapi.RichTextProperty{RichText: richText(errText)},
	}
	_, err := t.client.CreatePage(ctx, t.pageRequest(props))
	return err
}

func (t *Tracker) pageRequest(props notionapi.Properties) *notionapi.PageCreateRequest {
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(t.runDB),
		},
		Properties: props,
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: s}}}
}
