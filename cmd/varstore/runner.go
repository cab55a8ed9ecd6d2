package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/loykin/varstore/internal/common"
	"github.com/loykin/varstore/internal/config"
	"github.com/loykin/varstore/internal/constants"
	"github.com/loykin/varstore/internal/filestore"
	"github.com/loykin/varstore/internal/filestore/sqlite"
	"github.com/loykin/varstore/internal/metrics"
	"github.com/loykin/varstore/internal/server"
	"github.com/loykin/varstore/internal/variables"
)

// Runner carries one invocation of the root command.
type Runner struct {
	settings Settings
	in       io.Reader
	out      io.Writer
	logger   *common.Logger

	// serve is replaced in tests to avoid binding a port
	serve func(ctx context.Context, srv *server.Server) error
}

func newRunner(s Settings, in io.Reader, out io.Writer) *Runner {
	return &Runner{
		settings: s,
		in:       in,
		out:      out,
		logger:   common.GetLogger().WithComponent("main"),
		serve: func(ctx context.Context, srv *server.Server) error {
			return srv.Run(ctx)
		},
	}
}

// openStore returns the configured document backend and its closer.
func (r *Runner) openStore() (filestore.Store, func(), error) {
	switch r.settings.Storage {
	case StorageSQLite:
		path := filepath.Join(r.settings.DataDir, constants.SQLiteDatabaseName)
		st, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return filestore.NewDisk(), func() {}, nil
	}
}

// Run loads config and variables, then either resets the auth token or
// serves until SIGINT/SIGTERM.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	filestore.EnsureDir(r.settings.DataDir)

	store, closeStore, err := r.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	r.logger.Debug("document store ready", "storage", string(r.settings.Storage), "data_dir", r.settings.DataDir)

	cfg := config.New(store, filepath.Join(r.settings.DataDir, constants.ConfigFileName))
	cfg.Load()

	if r.settings.ConfigureAuth {
		cfg.ConfigureAuth(r.in, r.out)
		return nil
	}

	vars := variables.NewManager(store, filepath.Join(r.settings.DataDir, constants.VariablesFileName))
	vars.Load()

	var opts server.Options
	if r.settings.Metrics {
		opts.Metrics = metrics.New()
	}
	srv := server.New(cfg, vars, opts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.serve(ctx, srv)
}
