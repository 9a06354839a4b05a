package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestClassify_HardForkLiteral(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		title string
		body  string
	}{
		{
			name:  "lowercase in body",
			title: "v1.2.0",
			body:  "This release contains a hard fork at height 100.",
		},
		{
			name:  "uppercase in title",
			title: "HARD FORK release",
			body:  "Please upgrade.",
		},
		{
			name:  "joined spelling",
			title: "v5.0.0",
			body:  "Hardfork activation for all node operators.",
		},
		{
			name:  "mandatory upgrade phrasing",
			title: "v2.1.0 Mandatory Upgrade",
			body:  "All operators must update before the deadline.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := usecase.Classify(tt.title, tt.body, "v1.0.0", published)

			gt.True(t, c.HasHardFork)
			gt.Value(t, c.Confidence).Equal(model.ConfidenceHigh)
			gt.Number(t, len(c.Indicators)).Greater(0)
		})
	}
}

func TestClassify_MediumAndLowTiers(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
		tier model.ConfidenceTier
	}{
		{
			name: "fork height is medium",
			body: "The fork height is set to 1,200,000.",
			tier: model.ConfidenceMedium,
		},
		{
			name: "consensus upgrade is medium",
			body: "This consensus upgrade changes the validator set rules.",
			tier: model.ConfidenceMedium,
		},
		{
			name: "backwards incompatible is medium",
			body: "Warning: this change is backwards incompatible.",
			tier: model.ConfidenceMedium,
		},
		{
			name: "chain upgrade is low",
			body: "Scheduled chain upgrade for testnet.",
			tier: model.ConfidenceLow,
		},
		{
			name: "consensus fork is low",
			body: "Fixes an accidental consensus fork observed on mainnet.",
			tier: model.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := usecase.Classify("release", tt.body, "v1.0.1", published)

			gt.True(t, c.HasHardFork)
			gt.Value(t, c.Confidence).Equal(tt.tier)
		})
	}
}

func TestClassify_HighestTierWins(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	body := "This hard fork raises the fork height and is a chain upgrade."
	c := usecase.Classify("v1.0.0", body, "v1.0.0", published)

	gt.Value(t, c.Confidence).Equal(model.ConfidenceHigh)
	gt.Number(t, len(c.Indicators)).Greater(2)
}

func TestClassify_NoIndicators(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "routine release",
			body: "Bug fixes and performance improvements.",
		},
		{
			name: "bare fork word is not an indicator",
			body: "You can fork this repository and upgrade your local copy.",
		},
		{
			name: "empty body",
			body: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := usecase.Classify("v1.2.3", tt.body, "v1.2.3", published)

			gt.False(t, c.HasHardFork)
			gt.Value(t, c.Confidence).Equal(model.ConfidenceNone)
			gt.Array(t, c.Indicators).Length(0)
			gt.Value(t, c.ForkDate).Nil()
		})
	}
}

func TestClassify_DateFormatsAgree(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	bodies := []string{
		"Hard fork scheduled for 2024-06-01.",
		"Hard fork scheduled for 2024/06/01.",
		"Hard fork scheduled for 06/01/2024.",
		"Hard fork scheduled for 06-01-2024.",
		"Hard fork scheduled for June 1, 2024.",
		"Hard fork scheduled for Jun 1 2024.",
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c := usecase.Classify("release", body, "v1.0.0", published)

			gt.Array(t, c.Dates).Length(1)
			gt.Value(t, c.Dates[0]).Equal(want)
			gt.Value(t, c.ForkDate).NotNil()
			gt.Value(t, *c.ForkDate).Equal(want)
		})
	}
}

func TestClassify_DateDeduplicationAndOrder(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	body := "Testnet forks on 2024-03-15, mainnet on March 20, 2024. " +
		"Reminder: testnet activation is 03/15/2024."
	c := usecase.Classify("hard fork", body, "v1.0.0", published)

	gt.Array(t, c.Dates).Length(2)
	gt.Value(t, c.Dates[0]).Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	gt.Value(t, c.Dates[1]).Equal(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
}

func TestClassify_RejectsImpossibleDates(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	body := "Versions 2024-13-01 and 2024-02-30 are not dates. Real date: 2024-02-29."
	c := usecase.Classify("hard fork", body, "v1.0.0", published)

	gt.Array(t, c.Dates).Length(1)
	gt.Value(t, c.Dates[0]).Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
}

func TestClassify_ForkDateSelection(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("earliest date after publish wins", func(t *testing.T) {
		body := "Announced 2025-01-10. Testnet fork 2025-03-01, mainnet fork 2025-04-01."
		c := usecase.Classify("hard fork", body, "v1.0.0", published)

		gt.Value(t, c.ForkDate).NotNil()
		gt.Value(t, *c.ForkDate).Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	})

	t.Run("all dates in the past falls back to earliest", func(t *testing.T) {
		body := "The fork activated on 2025-01-10 after the vote on 2025-01-20."
		c := usecase.Classify("hard fork", body, "v1.0.0", published)

		gt.Value(t, c.ForkDate).NotNil()
		gt.Value(t, *c.ForkDate).Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	})

	t.Run("no dates leaves fork date unset", func(t *testing.T) {
		c := usecase.Classify("hard fork", "upgrade soon", "v1.0.0", published)
		gt.Value(t, c.ForkDate).Nil()
	})
}

func TestClassify_ReleaseType(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		tag  string
		want model.ReleaseType
	}{
		{tag: "v2.0.0", want: model.ReleaseTypeMajor},
		{tag: "v2.3.0", want: model.ReleaseTypeMinor},
		{tag: "v2.3.7", want: model.ReleaseTypePatch},
		{tag: "2.0.0", want: model.ReleaseTypeMajor},
		{tag: "version 3.0.0", want: model.ReleaseTypeMajor},
		{tag: "release.2.1.0", want: model.ReleaseTypeMinor},
		{tag: "V4.0", want: model.ReleaseTypeMajor},
		{tag: "v4.2", want: model.ReleaseTypeUnknown},
		{tag: "nightly-build-42", want: model.ReleaseTypeUnknown},
		{tag: "", want: model.ReleaseTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			c := usecase.Classify("", "", tt.tag, published)
			gt.Value(t, c.ReleaseType).Equal(tt.want)
		})
	}
}

func TestClassify_BlockNumbers(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	body := "Activates at block 123456. Activation block: 123456 on testnet, " +
		"then block 200000 on mainnet."
	c := usecase.Classify("hard fork", body, "v1.0.0", published)

	gt.Array(t, c.BlockNumbers).Length(2)
	gt.Value(t, c.BlockNumbers[0]).Equal(uint64(123456))
	gt.Value(t, c.BlockNumbers[1]).Equal(uint64(200000))
}

func TestCalculateConfidenceScore(t *testing.T) {
	forkDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		c    model.Classification
		want float64
	}{
		{
			name: "no signal",
			c:    model.Classification{ReleaseType: model.ReleaseTypeUnknown},
			want: 0.0,
		},
		{
			name: "low tier only",
			c: model.Classification{
				Confidence:  model.ConfidenceLow,
				Indicators:  []string{"chain upgrade"},
				ReleaseType: model.ReleaseTypePatch,
			},
			want: 0.2,
		},
		{
			name: "medium with date",
			c: model.Classification{
				Confidence:  model.ConfidenceMedium,
				Indicators:  []string{"fork height"},
				Dates:       []time.Time{forkDate},
				ReleaseType: model.ReleaseTypeMinor,
			},
			want: 0.6,
		},
		{
			name: "high with everything clamps to 1",
			c: model.Classification{
				Confidence:  model.ConfidenceHigh,
				Indicators:  []string{"hard fork", "fork height", "chain upgrade"},
				Dates:       []time.Time{forkDate},
				ForkDate:    &forkDate,
				ReleaseType: model.ReleaseTypeMajor,
			},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := usecase.CalculateConfidenceScore(&tt.c)

			gt.Number(t, score).GreaterOrEqual(0.0)
			gt.Number(t, score).LessOrEqual(1.0)

			diff := score - tt.want
			if diff < 0 {
				diff = -diff
			}
			gt.Number(t, diff).Less(1e-9)
		})
	}
}

func TestClassify_EndToEndScenario(t *testing.T) {
	published := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	c := usecase.Classify(
		"v3.0.0 Mandatory Upgrade",
		"This hard fork activates at block 123456 on 2025-03-01.",
		"v3.0.0",
		published,
	)

	gt.True(t, c.HasHardFork)
	gt.Value(t, c.Confidence).Equal(model.ConfidenceHigh)
	gt.Value(t, c.ReleaseType).Equal(model.ReleaseTypeMajor)
	gt.Value(t, c.ForkDate).NotNil()
	gt.Value(t, *c.ForkDate).Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	gt.Array(t, c.BlockNumbers).Length(1)
	gt.Value(t, c.BlockNumbers[0]).Equal(uint64(123456))

	score := usecase.CalculateConfidenceScore(c)
	gt.Number(t, score).GreaterOrEqual(0.9)
	gt.Number(t, score).LessOrEqual(1.0)
}
