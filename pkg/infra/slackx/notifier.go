package slackx

import (
	"context"
	"fmt"
	"sort"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/forkwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier decorates an update sink with Slack notifications for hard fork
// detections. Plain updates pass through to the wrapped sink only.
type Notifier struct {
	client  *slack.Client
	channel string
	next    interfaces.UpdateSink
}

// New creates a Notifier posting to the given channel.
func New(token types.SlackToken, channel string, next interfaces.UpdateSink) (*Notifier, error) {
	if token == "" || channel == "" {
		return nil, goerr.New("slack token and channel are required", goerr.T(types.ErrTagConfig))
	}

	return &Notifier{
		client:  slack.New(string(token)),
		channel: channel,
		next:    next,
	}, nil
}

// Emit forwards all updates to the wrapped sink, then posts one message per
// hard fork detection, highest confidence first. A failed post is reported
// as the sink error; the wrapped sink has already stored the updates by
// then, so nothing is lost.
func (x *Notifier) Emit(ctx context.Context, updates []*model.DetectedUpdate) error {
	if err := x.next.Emit(ctx, updates); err != nil {
		return err
	}

	var forks []*model.DetectedUpdate
	for _, update := range updates {
		if update.Classification.HasHardFork {
			forks = append(forks, update)
		}
	}
	if len(forks) == 0 {
		return nil
	}
	sort.Slice(forks, func(i, j int) bool { return forks[i].Confidence > forks[j].Confidence })

	logger := ctxlog.From(ctx)
	for _, fork := range forks {
		if err := x.post(ctx, fork); err != nil {
			return goerr.Wrap(err, "failed to post slack notification",
				goerr.V("source_id", fork.Record.SourceID),
				goerr.V("tag", fork.Record.Tag))
		}
		logger.Info("posted hard fork notification",
			"source_id", fork.Record.SourceID,
			"tag", fork.Record.Tag,
			"confidence", fork.Confidence,
		)
	}

	return nil
}

func (x *Notifier) post(ctx context.Context, update *model.DetectedUpdate) error {
	fields := []slack.AttachmentField{
		{Title: "Source", Value: update.Source.Name, Short: true},
		{Title: "Tag", Value: update.Record.Tag, Short: true},
		{Title: "Confidence", Value: fmt.Sprintf("%.2f (%s)", update.Confidence, update.Classification.Confidence), Short: true},
		{Title: "Release type", Value: string(update.Classification.ReleaseType), Short: true},
	}
	if update.Record.ForkDate != nil {
		fields = append(fields, slack.AttachmentField{
			Title: "Fork date",
			Value: update.Record.ForkDate.Format("2006-01-02"),
			Short: true,
		})
	}

	attachment := slack.Attachment{
		Color:     "danger",
		Title:     fmt.Sprintf("Hard fork detected: %s %s", update.Source.Name, update.Record.Tag),
		TitleLink: update.Record.URL,
		Fields:    fields,
	}

	_, _, err := x.client.PostMessageContext(ctx, x.channel,
		slack.MsgOptionText("A consensus-breaking release was detected", false),
		slack.MsgOptionAttachments(attachment),
	)
	return err
}
