package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/client/client"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/client/config"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/flagx"
)

var ErrUsage = errors.New("usage error")

// API is the part of the server surface verifyctl calls.
type API interface {
	Verify(ctx context.Context, token string) (*api.VerifyResponse, error)
	CreateProduct(ctx context.Context, req *api.CreateProductRequest) (*api.Product, error)
	GetProduct(ctx context.Context, ref string) (*api.Product, error)
	ListProducts(ctx context.Context, vendorID string) ([]api.Product, error)
	RotateToken(ctx context.Context, productID string) (*api.RotateTokenResponse, error)
	SetLifecycleState(ctx context.Context, ref, state string, flagged *bool) (*api.Product, error)
	ListScans(ctx context.Context, productID string, limit int) ([]api.Scan, error)
	ListVendorScans(ctx context.Context, vendorID string, limit int) ([]api.Scan, error)
	ListScansByToken(ctx context.Context, token string, limit int) ([]api.Scan, error)
	DashboardStats(ctx context.Context, vendorID string) (*api.DashboardStatsResponse, error)
	ListFakeReports(ctx context.Context, status string, page, limit int) (*api.ListFakeReportsResponse, error)
	UpdateFakeReport(ctx context.Context, id, status, notes string) (*api.FakeReport, error)
	SetAccessToken(token string)
	HasAccessToken() bool
	Close() error
}

type App struct {
	config *config.Config
	api    API
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewVendorVerifyClientService(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		return nil, err
	}

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run executes the command named by the positional arguments in args and
// returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	defer a.api.Close()

	err := a.Dispatch(ctx, flagx.Positionals(args, config.FlagsWithValue))
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintln(a.out, err.Error())
		return 2
	default:
		fmt.Fprintln(a.out, "error:", err.Error())
		return 1
	}
}

type command struct {
	run       func(ctx context.Context, args []string) error
	minArgs   int
	usage     string
	needsAuth bool
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"verify":      {run: a.verify, minArgs: 1, usage: "verify <token>"},
		"create":      {run: a.create, usage: "create", needsAuth: true},
		"get":         {run: a.get, minArgs: 1, usage: "get <id|token>", needsAuth: true},
		"list":        {run: a.list, usage: "list [vendor-id]", needsAuth: true},
		"rotate":      {run: a.rotate, minArgs: 1, usage: "rotate <product-id>", needsAuth: true},
		"set-state":   {run: a.setState, minArgs: 2, usage: "set-state <id|token> <state> [flag|unflag]", needsAuth: true},
		"scans":       {run: a.scans, minArgs: 1, usage: "scans <product-id> [limit]", needsAuth: true},
		"audit":       {run: a.audit, usage: "audit [vendor-id] [limit]", needsAuth: true},
		"token-scans": {run: a.tokenScans, minArgs: 1, usage: "token-scans <token> [limit]", needsAuth: true},
		"stats":       {run: a.stats, usage: "stats [vendor-id]", needsAuth: true},
		"reports":     {run: a.reports, usage: "reports [status] [page]", needsAuth: true},
		"review":      {run: a.review, minArgs: 2, usage: "review <report-id> <status>", needsAuth: true},
		"token":       {run: a.token, minArgs: 2, usage: "token <user-id> <vendor|admin|proxy>"},
	}
}

// Dispatch runs a single command. positionals[0] is the command name.
func (a *App) Dispatch(ctx context.Context, positionals []string) error {
	if len(positionals) == 0 || positionals[0] == "help" {
		a.help()
		if len(positionals) == 0 {
			return fmt.Errorf("%w: no command given", ErrUsage)
		}
		return nil
	}

	name, args := positionals[0], positionals[1:]
	cmd, ok := a.commands()[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
	if len(args) < cmd.minArgs {
		return fmt.Errorf("%w: verifyctl %s", ErrUsage, cmd.usage)
	}

	if cmd.needsAuth && !a.api.HasAccessToken() {
		tok, err := GetSecret("Enter access token", a.out)
		if err != nil {
			return err
		}
		if tok == "" {
			return client.ErrUnauthorized
		}
		a.api.SetAccessToken(tok)
	}

	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	return cmd.run(ctx, args)
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Available commands:")
	for _, name := range []string{"verify", "create", "get", "list", "rotate", "set-state", "scans", "audit", "token-scans", "stats", "reports", "review", "token"} {
		fmt.Fprintln(a.out, "  verifyctl", a.commands()[name].usage)
	}
}
