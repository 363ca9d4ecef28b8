package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lachiem1/giddycycles/internal/config"
	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/reminder"
	"github.com/lachiem1/giddycycles/internal/storage"
)

func runCycles(ctx context.Context, db *sql.DB, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: giddycycles cycles <id> [-as-of YYYY-MM-DD] [-max N]")
	}
	obligationID := args[0]

	fs := flag.NewFlagSet("cycles", flag.ContinueOnError)
	asOfRaw := fs.String("as-of", "", "evaluate as of this date (default today)")
	maxCycles := fs.Int("max", cfg.MaxCycles, "maximum cycles to generate")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	asOf := cycles.Day(time.Now())
	if *asOfRaw != "" {
		parsed, err := cycles.ParseDate(*asOfRaw)
		if err != nil {
			return err
		}
		asOf = parsed
	}

	snap, err := storage.LoadSnapshot(ctx, db, obligationID)
	if err != nil {
		return err
	}
	cs, err := snap.Compute(cycles.Options{AsOf: asOf, MaxCycles: *maxCycles})
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, %s) as of %s\n\n", snap.Record.Name, snap.Obligation.Kind(), snap.Obligation.Recurrence, cycles.FormatDate(asOf))
	printCycles(os.Stdout, cs)

	s := cycles.Summarize(cs)
	fmt.Printf(
		"\n%d cycles: %d paid (%.0f%% on time), %d partial, %d missed, %d upcoming. Short %s, over %s.\n",
		s.Cycles, s.Paid, s.OnTimeRate()*100, s.Partial, s.Missed, s.Upcoming,
		cycles.FormatAmount(s.TotalShort), cycles.FormatAmount(s.TotalOver),
	)
	return nil
}

func printCycles(out io.Writer, cs []cycles.Cycle) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tWINDOW\tDUE\tEXPECTED\tPAID\tSTATUS\t")
	for _, c := range cs {
		marker := ""
		if c.Overridden() {
			marker = "*"
		}
		fmt.Fprintf(w, "%d%s\t%s..%s\t%s\t%s\t%s\t%s\t\n",
			c.Number, marker,
			cycles.FormatDate(c.StartDate), cycles.FormatDate(c.EndDate),
			cycles.FormatDate(c.ExpectedDate),
			cycles.FormatAmount(c.ExpectedAmount),
			cycles.FormatAmount(c.ActualAmount),
			cycles.StatusTitle(c.Status),
		)
	}
	_ = w.Flush()
}

func runOverride(ctx context.Context, db *sql.DB, cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: giddycycles override set|delete <id> <cycle> [flags]")
	}
	action, obligationID := args[0], args[1]
	cycleNumber, err := strconv.Atoi(args[2])
	if err != nil || cycleNumber < 1 {
		return fmt.Errorf("cycle must be a positive number, got %q", args[2])
	}

	switch action {
	case "set":
		fs := flag.NewFlagSet("override set", flag.ContinueOnError)
		amount := fs.String("amount", "", "replacement target amount")
		minimum := fs.String("minimum", "", "replacement minimum amount")
		date := fs.String("date", "", "replacement due date YYYY-MM-DD")
		notes := fs.String("notes", "", "free text note")
		if err := fs.Parse(args[3:]); err != nil {
			return err
		}
		ov, err := cycles.ParseOverride(*amount, *minimum, *date, *notes)
		if err != nil {
			return err
		}
		if err := storage.SaveOverride(ctx, db, obligationID, cycleNumber, ov, cycles.Options{AsOf: cycles.Day(time.Now()), MaxCycles: cfg.MaxCycles}); err != nil {
			return err
		}
		fmt.Printf("Override saved for %s cycle %d.\n", obligationID, cycleNumber)
		return nil
	case "delete":
		removed, err := storage.NewOverridesRepo(db).Delete(ctx, obligationID, cycleNumber)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("No override on %s cycle %d.\n", obligationID, cycleNumber)
			return nil
		}
		fmt.Printf("Override removed from %s cycle %d.\n", obligationID, cycleNumber)
		return nil
	default:
		return fmt.Errorf("unknown override command %q", action)
	}
}

func runRemind(ctx context.Context, db *sql.DB, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("remind", flag.ContinueOnError)
	once := fs.Bool("once", false, "send today's digest and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sender, err := reminder.NewEmailSender(cfg, log)
	if err != nil {
		return err
	}
	job := reminder.NewJob(reminder.NewStoreSource(db, cfg.MaxCycles, log), sender, cfg.ReminderLeadDays, log)

	if *once {
		n, err := job.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Sent %d reminder(s).\n", n)
		return nil
	}

	scheduler, err := reminder.NewScheduler(cfg.ReminderSchedule, job, log)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)
	return nil
}
