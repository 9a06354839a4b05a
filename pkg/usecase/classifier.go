package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
)

// indicatorTiers lists hard fork signal phrases by strength, strongest
// first. Matching is on the lower-cased title+body. Bare words like "fork"
// or "upgrade" are deliberately absent; they appear in too many routine
// release notes.
var indicatorTiers = []struct {
	tier     model.ConfidenceTier
	patterns []string
}{
	{
		tier: model.ConfidenceHigh,
		patterns: []string{
			"hard fork",
			"hardfork",
			"mandatory upgrade",
		},
	},
	{
		tier: model.ConfidenceMedium,
		patterns: []string{
			"fork height",
			"activation block",
			"upgrade block",
			"consensus upgrade",
			"backward incompatible",
			"backwards incompatible",
			"breaking protocol",
			"mandatory network",
			"emergency upgrade",
			"critical network",
		},
	},
	{
		tier: model.ConfidenceLow,
		patterns: []string{
			"protocol fork",
			"chain upgrade",
			"network activation",
			"consensus fork",
		},
	},
}

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`)
	usDateRe  = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)

	namedDateRe = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)

	blockNumberRe = regexp.MustCompile(`(?i)\b(?:(?:at|activation)\s+)?block\s*:?\s*#?(\d+)\b`)

	versionPrefixRe = regexp.MustCompile(`(?i)^(?:version|release|v)\.?\s*`)
	semverRe        = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?$`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Classify analyzes one fetched item's text. It is a pure function: same
// inputs always produce the same Classification, and nothing is fetched or
// persisted.
func Classify(title, body, tagName string, publishedAt time.Time) *model.Classification {
	text := strings.ToLower(title + "\n" + body)

	var indicators []string
	tier := model.ConfidenceNone
	for _, group := range indicatorTiers {
		for _, pattern := range group.patterns {
			if strings.Contains(text, pattern) {
				indicators = append(indicators, pattern)
				if tier == model.ConfidenceNone {
					tier = group.tier
				}
			}
		}
	}

	dates := extractDates(body)

	c := &model.Classification{
		HasHardFork:  len(indicators) > 0,
		Confidence:   tier,
		Indicators:   indicators,
		Dates:        dates,
		ReleaseType:  classifyReleaseType(tagName),
		BlockNumbers: extractBlockNumbers(body),
	}

	if c.HasHardFork && len(dates) > 0 {
		c.ForkDate = selectForkDate(dates, publishedAt)
	}

	return c
}

// extractDates scans text for ISO (2024-06-01), US (06/01/2024) and named
// month (June 1, 2024) dates, deduplicates by calendar day and returns them
// sorted ascending. Impossible dates such as month 13 are dropped.
func extractDates(text string) []time.Time {
	seen := map[string]time.Time{}

	add := func(year, month, day int) {
		d, ok := makeDate(year, month, day)
		if !ok {
			return
		}
		seen[d.Format("2006-01-02")] = d
	}

	for _, m := range isoDateRe.FindAllStringSubmatch(text, -1) {
		add(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	for _, m := range usDateRe.FindAllStringSubmatch(text, -1) {
		add(atoi(m[3]), atoi(m[1]), atoi(m[2]))
	}
	for _, m := range namedDateRe.FindAllStringSubmatch(text, -1) {
		month, ok := monthsByPrefix[strings.ToLower(m[1])[:3]]
		if !ok {
			continue
		}
		add(atoi(m[3]), int(month), atoi(m[2]))
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// makeDate builds a UTC calendar date, rejecting values that time.Date would
// silently normalize (e.g. month 13, day 32).
func makeDate(year, month, day int) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// selectForkDate prefers the earliest extracted date strictly after the
// publish time; release notes usually announce a future activation. Falls
// back to the earliest date overall when every date is in the past.
func selectForkDate(dates []time.Time, publishedAt time.Time) *time.Time {
	for _, d := range dates {
		if d.After(publishedAt) {
			return &d
		}
	}
	first := dates[0]
	return &first
}

// classifyReleaseType maps a tag name to a semantic version bucket. The
// leading v/version/release prefix is stripped case-insensitively; a
// two-component X.0 counts as major, other two-component tags are unknown.
func classifyReleaseType(tagName string) model.ReleaseType {
	rest := versionPrefixRe.ReplaceAllString(strings.TrimSpace(tagName), "")

	m := semverRe.FindStringSubmatch(rest)
	if m == nil {
		return model.ReleaseTypeUnknown
	}

	minor := atoi(m[2])
	if m[3] == "" {
		if minor == 0 {
			return model.ReleaseTypeMajor
		}
		return model.ReleaseTypeUnknown
	}

	patch := atoi(m[3])
	switch {
	case minor == 0 && patch == 0:
		return model.ReleaseTypeMajor
	case patch == 0:
		return model.ReleaseTypeMinor
	default:
		return model.ReleaseTypePatch
	}
}

// extractBlockNumbers collects activation block heights mentioned in the
// text, deduplicated and ascending. Used downstream for block-oriented
// chains only.
func extractBlockNumbers(text string) []uint64 {
	seen := map[uint64]struct{}{}
	for _, m := range blockNumberRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil || n == 0 {
			continue
		}
		seen[n] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	blocks := make([]uint64, 0, len(seen))
	for n := range seen {
		blocks = append(blocks, n)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	return blocks
}

// CalculateConfidenceScore converts a classification into an advisory score
// in [0, 1]. The score sorts detections for triage; it never gates emission.
func CalculateConfidenceScore(c *model.Classification) float64 {
	var score float64
	switch c.Confidence {
	case model.ConfidenceHigh:
		score = 0.8
	case model.ConfidenceMedium:
		score = 0.5
	case model.ConfidenceLow:
		score = 0.2
	}

	if len(c.Dates) > 0 {
		score += 0.1
	}
	if c.ForkDate != nil {
		score += 0.1
	}
	if c.ReleaseType == model.ReleaseTypeMajor {
		score += 0.2
	}
	if len(c.Indicators) > 2 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
