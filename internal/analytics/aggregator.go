// Package analytics computes the dashboard read models. Every call rescans
// the current record set; nothing is cached.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
)

// GenderCount is one row of a GROUP BY gender scan.
type GenderCount struct {
	Gender string
	Count  int64
}

// CreationStamp is a record's creation timestamp in its stored textual form.
// An empty CreatedAt means the record has none.
type CreationStamp struct {
	ID        int64
	CreatedAt string
}

// Source is the slice of the record store the aggregator reads from.
type Source interface {
	CountByGender(ctx context.Context) ([]GenderCount, error)
	CreationTimes(ctx context.Context) ([]CreationStamp, error)
	Emails(ctx context.Context) ([]string, error)
}

type GenderDistribution struct {
	Male   int64 `json:"male"`
	Female int64 `json:"female"`
	Other  int64 `json:"other"`
}

type MonthlyCount struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
	Count int64  `json:"count"`

	month time.Month
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

type Aggregator struct {
	source Source
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// GenderDistribution folds OTHER and any unexpected stored value into Other.
func (a *Aggregator) GenderDistribution(ctx context.Context) (GenderDistribution, error) {
	ctx, span := otel.Tracer("user-directory/analytics").Start(ctx, "analytics.GenderDistribution")
	defer span.End()

	rows, err := a.source.CountByGender(ctx)
	if err != nil {
		span.RecordError(err)
		return GenderDistribution{}, fmt.Errorf("count by gender: %w", err)
	}

	var dist GenderDistribution
	for _, row := range rows {
		switch strings.ToUpper(row.Gender) {
		case models.GenderMale:
			dist.Male += row.Count
		case models.GenderFemale:
			dist.Female += row.Count
		default:
			dist.Other += row.Count
		}
	}
	return dist, nil
}

// MonthlyCohort buckets records by calendar month (UTC), oldest first.
// Records without a parseable timestamp are skipped and logged.
func (a *Aggregator) MonthlyCohort(ctx context.Context) ([]MonthlyCount, error) {
	ctx, span := otel.Tracer("user-directory/analytics").Start(ctx, "analytics.MonthlyCohort")
	defer span.End()

	stamps, err := a.source.CreationTimes(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read creation times: %w", err)
	}

	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthlyCount)
	skipped := 0
	for _, s := range stamps {
		if strings.TrimSpace(s.CreatedAt) == "" {
			skipped++
			slog.WarnContext(ctx, "skipping record without creation timestamp", "user_id", s.ID)
			continue
		}
		ts, err := ParseTimestamp(s.CreatedAt)
		if err != nil {
			skipped++
			slog.WarnContext(ctx, "skipping record with invalid creation timestamp", "user_id", s.ID, "created_at", s.CreatedAt, "error", err)
			continue
		}
		ts = ts.UTC()
		k := key{year: ts.Year(), month: ts.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlyCount{Month: MonthLabel(k.year, k.month), Year: k.year, month: k.month}
			buckets[k] = b
		}
		b.Count++
	}
	span.SetAttributes(attribute.Int("analytics.skipped", skipped))

	out := make([]MonthlyCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].month < out[j].month
	})
	return out, nil
}

// EmailDomains counts lower-cased domains of well-formed addresses, most
// frequent first. The full list is returned; callers truncate.
func (a *Aggregator) EmailDomains(ctx context.Context) ([]DomainCount, error) {
	ctx, span := otel.Tracer("user-directory/analytics").Start(ctx, "analytics.EmailDomains")
	defer span.End()

	emails, err := a.source.Emails(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read emails: %w", err)
	}

	counts := make(map[string]int64)
	for _, email := range emails {
		domain, ok := Domain(email)
		if !ok {
			slog.WarnContext(ctx, "skipping malformed email in domain histogram", "email", email)
			continue
		}
		counts[domain]++
	}

	out := make([]DomainCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DomainCount{Domain: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out, nil
}

// Domain returns the lower-cased part after the single '@' in email.
func Domain(email string) (string, bool) {
	if strings.Count(email, "@") != 1 {
		return "", false
	}
	_, domain, _ := strings.Cut(email, "@")
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", false
	}
	return domain, true
}

// MonthLabel renders "Jan 2024".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %04d", month.String()[:3], year)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 and PostgreSQL's text rendering of
// timestamp and timestamptz values.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
