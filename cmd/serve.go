package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/log"
	"github.com/zjrosen/pitchplay/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <dir>",
	Short: "Serve a directory of sound banks over HTTP",
	Long: `Serve the files in <dir> under /banks/ with permissive CORS headers so
browsers can load them. Every *.json bank in the directory is also loaded and
listed under /api/banks.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default serve.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	if err := preloadBanks(cmd.Context(), a, dir); err != nil {
		return err
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	srv := &http.Server{
		Addr: addr,
		Handler: server.NewRouter(server.Config{
			Dir:    dir,
			Banks:  a.registry,
			Sentry: cfg.Sentry.DSN != "",
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.CatServe, "Serving banks", "addr", addr, "dir", dir, "banks", a.registry.Len())
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s/banks/\n", dir, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// preloadBanks loads every *.json file in dir into the registry, concurrently.
// Files that fail to decode are logged and skipped.
func preloadBanks(ctx context.Context, a *app, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	pending := make([]*application.Pending, 0, len(paths))
	for _, p := range paths {
		pending = append(pending, a.loader.Load(ctx, p, bankIDFor(p)))
	}
	for _, p := range pending {
		if _, err := p.Wait(ctx); errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
