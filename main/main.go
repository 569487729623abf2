// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/keyidvm/vm"
)

const shutdownTimeout = 5 * time.Second

func main() {
	v, err := getViper()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", vm.Name, vm.Version)
		os.Exit(0)
	}

	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	if err := run(v); err != nil {
		log.Error("node stopped", "err", err)
		os.Exit(1)
	}
}

func run(v *viper.Viper) error {
	genesisBytes, err := os.ReadFile(v.GetString(genesisFileKey))
	if err != nil {
		return fmt.Errorf("couldn't read genesis: %w", err)
	}
	configBytes, err := vmConfig(v)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := openDB(v.GetString(dbDirKey))
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	chainVM := &vm.VM{}
	if err := chainVM.Initialize(ctx, db, genesisBytes, configBytes, registry); err != nil {
		return err
	}
	defer chainVM.Shutdown(context.Background())

	handlers, err := chainVM.CreateHandlers(ctx)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	for path, handler := range handlers {
		mux.Handle("/ext/"+vm.Name+path, handler)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := net.JoinHostPort(v.GetString(httpHostKey), strconv.Itoa(v.GetInt(httpPortKey)))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: time.Minute}
	errs := make(chan error, 1)
	go func() {
		log.Info("serving API", "addr", addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return server.Shutdown(shutdownCtx)
}

// openDB opens the LevelDB store under [dir], or an in-memory one when [dir]
// is empty.
func openDB(dir string) (database.Database, error) {
	if dir == "" {
		log.Warn("no db-dir set, state will not survive a restart")
		return memdb.New(), nil
	}
	db, err := leveldb.New(dir, nil, logging.NoLog{}, "", prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("couldn't open db at %s: %w", dir, err)
	}
	log.Info("opened database", "dir", dir)
	return db, nil
}
