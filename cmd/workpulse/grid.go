package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/di"
	"github.com/workpulse/work-pulse/internal/dto"
)

func newGridCmd(root *rootOptions) *cobra.Command {
	var (
		tenantID string
		query    dto.GridQuery
	)

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print a tenant's month grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("%w: --tenant", errMissingFlag)
			}

			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			ctx := cmd.Context()
			infra, err := connect(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			container, err := di.NewContainer(ctx, infra)
			if err != nil {
				closeInfra(infra)
				return err
			}
			defer container.Close(context.Background())

			fallback, err := container.CalendarService.Location(ctx, tenantID)
			if err != nil {
				return err
			}
			anchor, verrs := query.Anchor(time.Now(), fallback)
			if len(verrs) > 0 {
				return verrs
			}

			days, err := container.CalendarService.Grid(ctx, tenantID, anchor)
			if err != nil {
				return err
			}

			printGrid(cmd.OutOrStdout(), anchor, days)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&query.Month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&query.Timezone, "tz", "", "IANA time zone (default: the tenant's)")
	return cmd
}

// printGrid writes a wall calendar followed by the events of each busy day
func printGrid(w io.Writer, anchor time.Time, days []calendar.Day) {
	fmt.Fprintf(w, "%s (%s)\n", anchor.Format("January 2006"), anchor.Location())
	fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")

	var line strings.Builder
	for i, d := range days {
		switch {
		case d.IsBlank():
			line.WriteString("    ")
		case len(d.Events) > 0:
			fmt.Fprintf(&line, "%3d*", d.Day)
		default:
			fmt.Fprintf(&line, "%3d ", d.Day)
		}
		if i%7 == 6 {
			fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
			line.Reset()
		}
	}
	if line.Len() > 0 {
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}

	for _, d := range days {
		if d.IsBlank() || len(d.Events) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", d.Date.Format("Mon 02 Jan"))
		for _, e := range d.Events {
			fmt.Fprintf(w, "  %s  %s", e.Start.In(anchor.Location()).Format("15:04"), e.Title)
			if e.Repeat != "" && e.Repeat != "once" {
				fmt.Fprintf(w, " (%s)", e.Repeat)
			}
			fmt.Fprintln(w)
		}
	}
}
