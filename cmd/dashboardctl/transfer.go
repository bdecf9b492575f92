package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/GregMSThompson/finboard/internal/dto"
)

var errUsage = errors.New("usage: dashboardctl [-uid id] [-file path] export|import")

type dashboardTransfer interface {
	ExportAll() dto.DashboardExport
	ImportAll(ctx context.Context, exp dto.DashboardExport) error
}

// run executes one command. export writes the dashboard to out as indented
// JSON; import replaces the dashboard with the export read from in.
func run(ctx context.Context, command string, store dashboardTransfer, in io.Reader, out io.Writer) (imported int, err error) {
	switch command {
	case "export":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return 0, enc.Encode(store.ExportAll())

	case "import":
		var exp dto.DashboardExport
		if err := json.NewDecoder(in).Decode(&exp); err != nil {
			return 0, fmt.Errorf("decode export: %w", err)
		}
		if err := store.ImportAll(ctx, exp); err != nil {
			return 0, err
		}
		return len(exp.Widgets), nil

	default:
		return 0, errUsage
	}
}
