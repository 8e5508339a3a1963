package docgen

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/amz-risk/docflow-cli/internal/resilience"
	"github.com/amz-risk/docflow-cli/pkg/graph"
)

var (
	// ErrCopyRejected means the storage backend refused the copy request
	// itself. The request is not retried.
	ErrCopyRejected = eris.New("docgen: copy request rejected")
	// ErrCopyTimeout means the copy was accepted but the target entry never
	// appeared within the polling bound.
	ErrCopyTimeout = eris.New("docgen: copied item did not appear in time")
)

// Copier performs copy-on-write of a template item into a target folder and
// waits for the asynchronous server-side copy to materialize.
type Copier struct {
	drive graph.Client
	poll  resilience.PollConfig
}

// NewCopier creates a copier with the given polling policy.
func NewCopier(drive graph.Client, poll resilience.PollConfig) *Copier {
	return &Copier{drive: drive, poll: poll}
}

// CopyAndAwait issues the copy and polls the target folder until an entry
// named name appears, returning its handle. The caller must have checked
// pre-existence already; the copier does not dedupe.
func (c *Copier) CopyAndAwait(ctx context.Context, templateID, folderID, name string) (graph.DriveItem, error) {
	if err := c.drive.Copy(ctx, templateID, folderID, name); err != nil {
		return graph.DriveItem{}, eris.Wrapf(ErrCopyRejected, "copy %q: %v", name, err)
	}

	item, err := resilience.Poll(ctx, c.poll, func(ctx context.Context) (graph.DriveItem, bool, error) {
		children, err := c.drive.ListChildren(ctx, folderID)
		if err != nil {
			return graph.DriveItem{}, false, err
		}
		for _, child := range children {
			if child.Name == name {
				return child, true, nil
			}
		}
		return graph.DriveItem{}, false, nil
	})
	if err != nil {
		if eris.Is(err, resilience.ErrPollExhausted) {
			return graph.DriveItem{}, eris.Wrapf(ErrCopyTimeout, "copy %q", name)
		}
		return graph.DriveItem{}, eris.Wrap(err, "docgen: await copy")
	}
	return item, nil
}
