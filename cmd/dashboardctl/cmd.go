package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/GregMSThompson/finboard/internal/bootstrap"
	"github.com/GregMSThompson/finboard/internal/config"
	"github.com/GregMSThompson/finboard/internal/middleware"
	"github.com/GregMSThompson/finboard/internal/services"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

// dashboardctl exports or imports one user's dashboard using the configured
// persistence backend.
//
//	dashboardctl -uid <uid> export > dashboard.json
//	dashboardctl -uid <uid> -file dashboard.json import
func main() {
	var uid, file string
	flag.StringVar(&uid, "uid", middleware.LocalUID, "user id of the dashboard")
	flag.StringVar(&file, "file", "", "import source (default stdin)")
	flag.Parse()

	// bootstrap
	cfg, err := config.New()
	exitOnError("config failed", err, slog.Default())
	// no requests are served, so no token verification
	cfg.AuthDisabled = true

	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx := logger.ToContext(context.Background(), bs.Log)
	persister, err := bootstrap.NewPersister(ctx, cfg, bs)
	exitOnError("persistence init failed", err, bs.Log)

	store, err := services.LoadDashboard(ctx, uid, persister)
	exitOnError("load failed", err, bs.Log)

	var in io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		exitOnError("open failed", err, bs.Log)
		defer f.Close()
		in = f
	}

	n, err := run(ctx, flag.Arg(0), store, in, os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	exitOnError(flag.Arg(0)+" failed", err, bs.Log)
	if flag.Arg(0) == "import" {
		bs.Log.Info("dashboard imported", "uid", uid, "widgets", n)
	}
}
