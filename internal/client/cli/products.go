package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
)

const dateLayout = "2006-01-02"

func (a *App) verify(ctx context.Context, args []string) error {
	resp, err := a.api.Verify(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s: %s\n", resp.Outcome, resp.Message)
	fmt.Fprintf(a.out, "Location: %s\n", resp.Location)
	if resp.Expired {
		fmt.Fprintln(a.out, "Expired: yes")
	}
	if resp.Flagged {
		fmt.Fprintln(a.out, "Flagged: yes")
	}
	if len(resp.Reasons) > 0 {
		fmt.Fprintf(a.out, "Reasons: %s\n", strings.Join(resp.Reasons, ", "))
	}
	if p := resp.Product; p != nil {
		fmt.Fprintf(a.out, "Product: %s (%s)\n", p.ProductName, p.ID)
		fmt.Fprintf(a.out, "Verifications: %d\n", p.VerificationCount)
	}
	return nil
}

// parseDate accepts a date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

func readCreateRequest(r *bufio.Reader, w io.Writer) (*api.CreateProductRequest, error) {
	req := &api.CreateProductRequest{}

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Vendor ID (admins only, empty for your own)", &req.VendorID},
		{"Vendor name", &req.VendorName},
		{"Product name", &req.ProductName},
		{"Description", &req.Description},
		{"Category", &req.Category},
		{"Batch ID", &req.BatchID},
	}
	for _, f := range fields {
		v, err := GetSimpleText(r, f.prompt, w)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	made, err := GetSimpleText(r, "Manufacture date (YYYY-MM-DD, optional)", w)
	if err != nil {
		return nil, err
	}
	if made != "" {
		t, err := parseDate(made)
		if err != nil {
			return nil, fmt.Errorf("%w: manufacture date: %v", ErrUsage, err)
		}
		req.ManufactureDate = &t
	}

	exp, err := GetSimpleText(r, "Expiry date (YYYY-MM-DD)", w)
	if err != nil {
		return nil, err
	}
	req.ExpiresAt, err = parseDate(exp)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry date: %v", ErrUsage, err)
	}

	return req, nil
}

func (a *App) create(ctx context.Context, _ []string) error {
	req, err := readCreateRequest(a.reader, a.out)
	if err != nil {
		return err
	}

	p, err := a.api.CreateProduct(ctx, req)
	if err != nil {
		return err
	}
	a.printProduct(p)
	return nil
}

func (a *App) get(ctx context.Context, args []string) error {
	p, err := a.api.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	a.printProduct(p)
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	var vendorID string
	if len(args) > 0 {
		vendorID = args[0]
	}

	list, err := a.api.ListProducts(ctx, vendorID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tFLAGGED\tSCANS\tEXPIRES")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%s\n", p.ID, p.ProductName, p.LifecycleState, p.IsFlagged, p.VerificationCount, p.ExpiresAt.Format(dateLayout))
	}
	return tw.Flush()
}

func (a *App) rotate(ctx context.Context, args []string) error {
	resp, err := a.api.RotateToken(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Token: %s\n", resp.Token)
	fmt.Fprintf(a.out, "QR image: %s\n", resp.QRImageURL)
	return nil
}

func (a *App) setState(ctx context.Context, args []string) error {
	var flagged *bool
	if len(args) > 2 {
		switch args[2] {
		case "flag":
			v := true
			flagged = &v
		case "unflag":
			v := false
			flagged = &v
		default:
			return fmt.Errorf("%w: third argument must be flag or unflag", ErrUsage)
		}
	}

	p, err := a.api.SetLifecycleState(ctx, args[0], args[1], flagged)
	if err != nil {
		return err
	}
	a.printProduct(p)
	return nil
}

// limitArg parses an optional positive limit at args[i]; 0 means the
// server default.
func limitArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive number", ErrUsage)
	}
	return n, nil
}

func (a *App) scans(ctx context.Context, args []string) error {
	limit, err := limitArg(args, 1)
	if err != nil {
		return err
	}

	list, err := a.api.ListScans(ctx, args[0], limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCANNED AT\tOUTCOME\tSOURCE\tLOCATION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ScannedAt.Format(time.RFC3339), s.Outcome, s.SourceAddress, s.Location)
	}
	return tw.Flush()
}

func (a *App) audit(ctx context.Context, args []string) error {
	vendorID := ""
	if len(args) > 0 {
		vendorID = args[0]
	}
	limit, err := limitArg(args, 1)
	if err != nil {
		return err
	}

	list, err := a.api.ListVendorScans(ctx, vendorID, limit)
	if err != nil {
		return err
	}
	return a.printScanRows(list)
}

func (a *App) tokenScans(ctx context.Context, args []string) error {
	limit, err := limitArg(args, 1)
	if err != nil {
		return err
	}

	list, err := a.api.ListScansByToken(ctx, args[0], limit)
	if err != nil {
		return err
	}
	return a.printScanRows(list)
}

func (a *App) printScanRows(list []api.Scan) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCANNED AT\tPRODUCT\tTOKEN\tOUTCOME\tSOURCE\tLOCATION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ScannedAt.Format(time.RFC3339), s.ProductID, s.Token, s.Outcome, s.SourceAddress, s.Location)
	}
	return tw.Flush()
}

func (a *App) stats(ctx context.Context, args []string) error {
	vendorID := ""
	if len(args) > 0 {
		vendorID = args[0]
	}

	st, err := a.api.DashboardStats(ctx, vendorID)
	if err != nil {
		return err
	}

	scope := st.VendorID
	if scope == "" {
		scope = "all vendors"
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Scope:\t%s\n", scope)
	fmt.Fprintf(tw, "Products:\t%d (%d flagged)\n", st.Products, st.FlaggedProducts)
	for _, k := range sortedKeys(st.ProductsByState) {
		fmt.Fprintf(tw, "  %s:\t%d\n", k, st.ProductsByState[k])
	}
	fmt.Fprintf(tw, "Scans:\t%d\n", st.Scans)
	for _, k := range sortedKeys(st.ScansByOutcome) {
		fmt.Fprintf(tw, "  %s:\t%d\n", k, st.ScansByOutcome[k])
	}
	return tw.Flush()
}

func (a *App) printProduct(p *api.Product) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Vendor:\t%s %s\n", p.VendorID, p.VendorName)
	fmt.Fprintf(tw, "Name:\t%s\n", p.ProductName)
	fmt.Fprintf(tw, "State:\t%s\n", p.LifecycleState)
	fmt.Fprintf(tw, "Flagged:\t%t\n", p.IsFlagged)
	fmt.Fprintf(tw, "Expires:\t%s\n", p.ExpiresAt.Format(dateLayout))
	fmt.Fprintf(tw, "Token:\t%s\n", p.Token)
	fmt.Fprintf(tw, "QR image:\t%s\n", p.QRImageURL)
	fmt.Fprintf(tw, "Verifications:\t%d\n", p.VerificationCount)
	tw.Flush()
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
