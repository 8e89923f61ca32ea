package slack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Notifier posts run summaries to a Slack incoming webhook
type Notifier struct {
	webhookURL types.Credential
}

var _ interfaces.Notifier = (*Notifier)(nil)

// New creates a Notifier. The webhook URL contains a secret and is treated
// as a credential.
func New(webhookURL types.Credential) (*Notifier, error) {
	if webhookURL.IsEmpty() {
		return nil, goerr.New("Slack webhook URL is required", goerr.T(types.ErrTagConfiguration))
	}
	return &Notifier{webhookURL: webhookURL}, nil
}

// Notify sends summary as one message with an attachment per domain
func (n *Notifier) Notify(ctx context.Context, summary *model.RunSummary) error {
	msg := BuildMessage(summary)
	if err := slack.PostWebhookContext(ctx, n.webhookURL.String(), msg); err != nil {
		return goerr.Wrap(err, "failed to post run summary to Slack",
			goerr.V("run_id", summary.RunID),
			goerr.T(types.ErrTagTransport))
	}
	return nil
}

// BuildMessage renders a run summary as a webhook message
func BuildMessage(summary *model.RunSummary) *slack.WebhookMessage {
	status := "succeeded"
	if summary.Failed() {
		status = "finished with failures"
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("modsync %s run %s (%s, %s)",
			summary.Workflow, status, summary.RunID, summary.Elapsed.Round(time.Millisecond)),
	}

	for _, d := range summary.Domains {
		msg.Attachments = append(msg.Attachments, domainAttachment(d))
	}
	return msg
}

func domainAttachment(d *model.DomainReport) slack.Attachment {
	att := slack.Attachment{
		Title: d.Domain.String(),
		Color: "good",
	}

	if d.Resolve != nil {
		att.Fields = append(att.Fields, slack.AttachmentField{
			Title: "Links",
			Value: fmt.Sprintf("%d resolved, %d skipped", len(d.Resolve.Links), len(d.Resolve.Skipped)),
			Short: true,
		})
	}

	if d.Download != nil {
		att.Fields = append(att.Fields, slack.AttachmentField{
			Title: "Downloads",
			Value: fmt.Sprintf("%d succeeded, %d failed, %d cancelled",
				d.Download.Count(model.DownloadSucceeded),
				d.Download.Count(model.DownloadFailed),
				d.Download.Count(model.DownloadCancelled)),
			Short: true,
		})
		if failures := d.Download.Failures(); len(failures) > 0 {
			att.Color = "warning"
			var lines []string
			for _, f := range failures {
				lines = append(lines, fmt.Sprintf("mod %d file %d: %s", f.ModID, f.FileID, f.Status))
			}
			att.Text = strings.Join(lines, "\n")
		}
	}

	if d.Reconcile != nil {
		att.Fields = append(att.Fields, slack.AttachmentField{
			Title: "Folders",
			Value: fmt.Sprintf("%d renamed, %d merged, %d skipped, %d failed",
				d.Reconcile.Count(model.FolderRenamed),
				d.Reconcile.Count(model.FolderMerged),
				d.Reconcile.Count(model.FolderSkipped),
				d.Reconcile.Count(model.FolderFailed)),
			Short: true,
		})
		if d.Reconcile.Count(model.FolderFailed) > 0 {
			att.Color = "warning"
		}
	}

	if d.Err != nil {
		att.Color = "danger"
		att.Text = d.Err.Error()
	}

	return att
}
