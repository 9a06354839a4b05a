package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/forkwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	githubinfra "github.com/m-mizutani/forkwatch/pkg/infra/github"
	"github.com/m-mizutani/goerr/v2"
)

// firstPollLimit bounds how many recent items the first poll of a source
// fetches. Seeds history without walking the repository's whole lifetime.
const firstPollLimit = 100

// Poller decides full-import vs incremental fetch per source, classifies
// every fetched item and advances the source watermark.
type Poller struct {
	client     interfaces.ReleaseClient
	watermarks interfaces.WatermarkStore
	now        func() time.Time
}

// PollerOption is a functional option for Poller construction.
type PollerOption func(*Poller)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		p.now = now
	}
}

// NewPoller creates a Poller backed by the given client and watermark store.
func NewPoller(client interfaces.ReleaseClient, watermarks interfaces.WatermarkStore, opts ...PollerOption) *Poller {
	p := &Poller{
		client:     client,
		watermarks: watermarks,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollSource polls one source. Item and fetch level failures are collected
// into the result's error list and never abort the poll; the watermark is
// advanced on any completion that reached the fetch stage. A malformed
// repository URL fails the whole poll before any fetch, and the watermark is
// left untouched.
func (p *Poller) PollSource(ctx context.Context, src model.Source) (*model.PollResult, error) {
	logger := ctxlog.From(ctx)
	startedAt := p.now()

	result := &model.PollResult{
		Source: src,
	}

	owner, repo, err := githubinfra.ParseRepoURL(src.RepositoryURL)
	if err != nil {
		return nil, goerr.Wrap(err, "cannot poll source",
			goerr.T(types.ErrTagParse), goerr.V("source_id", src.ID))
	}

	watermark, err := p.watermarks.GetWatermark(ctx, src.ID)
	if err != nil {
		// A broken store read degrades to a first poll; the bounded
		// backfill keeps this safe.
		result.Errors = append(result.Errors, fmt.Sprintf("load watermark: %v", err))
		watermark = nil
	}

	// A watermark in the future means clock skew or corrupted state.
	// Treated the same as no watermark.
	if watermark != nil && watermark.After(startedAt) {
		logger.Warn("watermark is in the future, falling back to first poll",
			"source_id", src.ID, "watermark", *watermark)
		watermark = nil
	}

	if src.FetchMode.WantsReleases() {
		p.pollReleases(ctx, src, owner, repo, watermark, result)
	}
	if src.FetchMode.WantsTags() {
		p.pollTags(ctx, src, owner, repo, result)
	}

	logger.Info("polled source",
		"source_id", src.ID,
		"owner", owner,
		"repo", repo,
		"first_poll", watermark == nil,
		"updates", len(result.Updates),
		"errors", len(result.Errors),
	)

	// Advance to the cycle's wall clock start, not the max item timestamp,
	// so progress is monotonic even when nothing matched.
	if err := p.watermarks.SetWatermark(ctx, src.ID, startedAt); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("save watermark: %v", err))
	}

	result.CompletedAt = p.now()
	return result, nil
}

func (p *Poller) pollReleases(ctx context.Context, src model.Source, owner, repo string, watermark *time.Time, result *model.PollResult) {
	var releases []*model.Release
	var err error

	if watermark == nil {
		releases, err = p.client.FetchReleases(ctx, owner, repo, 1, firstPollLimit)
	} else {
		releases, err = p.client.FetchReleasesSince(ctx, owner, repo, *watermark)
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch releases: %v", err))
		return
	}

	for _, rel := range releases {
		c, err := p.classifyItem(rel.Name, rel.Body, rel.TagName, rel.PublishedAt)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("classify release %q: %v", rel.TagName, err))
			continue
		}
		result.Updates = append(result.Updates, p.buildUpdate(src, rel, nil, c))
	}
}

// pollTags re-fetches the same bounded first page every cycle. Tags carry no
// publish timestamp upstream, so there is no reliable "since" signal;
// downstream dedup on (source, tag) absorbs the repeats.
func (p *Poller) pollTags(ctx context.Context, src model.Source, owner, repo string, result *model.PollResult) {
	tags, err := p.client.FetchTags(ctx, owner, repo, 1, firstPollLimit)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch tags: %v", err))
		return
	}

	for _, tag := range tags {
		c, err := p.classifyItem(tag.Name, "", tag.Name, time.Time{})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("classify tag %q: %v", tag.Name, err))
			continue
		}
		result.Updates = append(result.Updates, p.buildUpdate(src, nil, tag, c))
	}
}

// classifyItem runs the classifier with a panic guard so one malformed item
// cannot abort the source's poll.
func (p *Poller) classifyItem(title, body, tagName string, publishedAt time.Time) (c *model.Classification, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = goerr.New("classifier panic",
				goerr.T(types.ErrTagParse), goerr.V("recover", r))
		}
	}()

	return Classify(title, body, tagName, publishedAt), nil
}

func (p *Poller) buildUpdate(src model.Source, rel *model.Release, tag *model.Tag, c *model.Classification) *model.DetectedUpdate {
	record := model.UpdateRecord{
		ID:         uuid.NewString(),
		SourceID:   src.ID,
		HardFork:   c.HasHardFork,
		ForkDate:   c.ForkDate,
		DetectedAt: p.now(),
	}

	switch {
	case rel != nil:
		record.Name = rel.Name
		record.Tag = rel.TagName
		record.URL = rel.HTMLURL
		record.Notes = rel.Body
		record.Draft = rel.Draft
		record.Prerelease = rel.Prerelease
	case tag != nil:
		record.Name = tag.Name
		record.Tag = tag.Name
		record.URL = tag.ZipballURL
	}
	if record.Name == "" {
		record.Name = record.Tag
	}

	return &model.DetectedUpdate{
		Source:         src,
		Release:        rel,
		Tag:            tag,
		Classification: *c,
		Record:         record,
		Confidence:     CalculateConfidenceScore(c),
	}
}
