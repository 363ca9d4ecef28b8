package reminder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

// Kind says why a cycle made it into a digest.
type Kind string

const (
	KindUpcoming Kind = "upcoming"
	KindOverdue  Kind = "overdue"
)

// Item is one cycle worth telling the user about.
type Item struct {
	Kind           Kind
	ObligationID   string
	ObligationName string
	Cycle          cycles.Cycle
	DaysUntilDue   int
}

// Source yields every obligation's classified cycles as of a date.
type Source interface {
	CyclesAsOf(ctx context.Context, asOf time.Time) ([]ObligationCycles, error)
}

type ObligationCycles struct {
	ID     string
	Name   string
	Cycles []cycles.Cycle
}

// Sender delivers a digest.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// Collect picks upcoming cycles due within leadDays and past-due cycles that
// are unpaid or underpaid. Overdue items come first, then by due date.
func Collect(obligations []ObligationCycles, asOf time.Time, leadDays int) []Item {
	today := cycles.Day(asOf)
	horizon := today.AddDate(0, 0, leadDays)

	var items []Item
	for _, o := range obligations {
		for _, c := range o.Cycles {
			due := cycles.Day(c.ExpectedDate)
			item := Item{
				ObligationID:   o.ID,
				ObligationName: o.Name,
				Cycle:          c,
				DaysUntilDue:   int(due.Sub(today).Hours() / 24),
			}
			switch {
			case c.Status == cycles.StatusUpcoming && !due.After(horizon):
				item.Kind = KindUpcoming
			case c.Status.Missed() && !due.After(today):
				item.Kind = KindOverdue
			default:
				continue
			}
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == KindOverdue
		}
		return items[i].Cycle.ExpectedDate.Before(items[j].Cycle.ExpectedDate)
	})
	return items
}

// Compose renders the digest subject and plain text body.
func Compose(items []Item, asOf time.Time) (string, string) {
	var overdue, upcoming int
	for _, it := range items {
		if it.Kind == KindOverdue {
			overdue++
		} else {
			upcoming++
		}
	}

	var subject string
	switch {
	case overdue > 0 && upcoming > 0:
		subject = fmt.Sprintf("%d overdue, %d due soon", overdue, upcoming)
	case overdue > 0:
		subject = fmt.Sprintf("%d overdue payment%s", overdue, plural(overdue))
	default:
		subject = fmt.Sprintf("%d payment%s due soon", upcoming, plural(upcoming))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Payment reminders for %s\n\n", cycles.FormatDisplayDate(asOf))
	for _, it := range items {
		c := it.Cycle
		msg := cycles.StatusMessage(c)
		fmt.Fprintf(&b, "- %s, cycle %d: %s\n", it.ObligationName, c.Number, msg.Title)
		fmt.Fprintf(&b, "  %s\n", msg.Subtitle)
		if it.Kind == KindUpcoming {
			fmt.Fprintf(&b, "  %s due %s\n", cycles.FormatAmount(c.ExpectedAmount), dueIn(it.DaysUntilDue))
		}
	}
	b.WriteString("\nSent by giddycycles.\n")
	return subject, b.String()
}

func dueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Job builds and sends one digest per run.
type Job struct {
	source   Source
	sender   Sender
	leadDays int
	log      *logrus.Logger
	now      func() time.Time
}

func NewJob(source Source, sender Sender, leadDays int, log *logrus.Logger) *Job {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Job{
		source:   source,
		sender:   sender,
		leadDays: leadDays,
		log:      log,
		now:      time.Now,
	}
}

// Run sends a digest for today's reminders. Today is the calendar date in the
// clock's own zone. Nothing is sent when there is nothing to report.
func (j *Job) Run(ctx context.Context) (int, error) {
	asOf := cycles.Day(j.now())
	obligations, err := j.source.CyclesAsOf(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("load cycles: %w", err)
	}

	items := Collect(obligations, asOf, j.leadDays)
	if len(items) == 0 {
		j.log.WithField("as_of", cycles.FormatDate(asOf)).Info("no reminders to send")
		return 0, nil
	}

	subject, body := Compose(items, asOf)
	if err := j.sender.Send(ctx, subject, body); err != nil {
		return 0, fmt.Errorf("send reminder digest: %w", err)
	}
	j.log.WithFields(logrus.Fields{
		"as_of": cycles.FormatDate(asOf),
		"items": len(items),
	}).Info("reminder digest sent")
	return len(items), nil
}
