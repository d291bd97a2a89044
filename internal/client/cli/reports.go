package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"
)

const reportsPageSize = 50

func (a *App) reports(ctx context.Context, args []string) error {
	var status string
	page := 1
	if len(args) > 0 {
		status = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: page must be a positive number", ErrUsage)
		}
		page = n
	}

	resp, err := a.api.ListFakeReports(ctx, status, page, reportsPageSize)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tSTATUS\tREASON\tCREATED")
	for _, r := range resp.Reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.ProductID, r.Status, r.Reason, r.CreatedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d, %d reports in total\n", page, resp.Total)
	return nil
}

func (a *App) review(ctx context.Context, args []string) error {
	notes, err := GetMultiline(a.reader, "Admin notes", a.out)
	if err != nil {
		return err
	}

	r, err := a.api.UpdateFakeReport(ctx, args[0], args[1], notes)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Report %s is now %s\n", r.ID, r.Status)
	return nil
}
