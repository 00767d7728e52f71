package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rxtech-lab/ibkr-mcp-server/internal/broker/ibgateway"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/config"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/logger"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/mcpserver"
	"github.com/rxtech-lab/ibkr-mcp-server/internal/trading"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// version is stamped at release time via -ldflags "-X main.version=...".
var version = "dev"

// serveAction wires config, gateway client, facade, and MCP server, then
// serves on stdio or HTTP.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig(cmd.String("env-file"), cmd.String("config"))
	if err != nil {
		return err
	}

	logg, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logg.Sync() }()

	creds := cfg.ModeCredentials()

	gateway, err := ibgateway.NewClient(ibgateway.Config{
		Host:      cfg.Host,
		Port:      cfg.GatewayPort(),
		AccountID: cfg.AccountID,
		ClientID:  cfg.ClientID,
		Username:  creds.Username,
		Password:  creds.Password,
		Timeout:   cfg.HTTPTimeout,
	}, logg)
	if err != nil {
		return err
	}

	logg.Info("starting IBKR MCP server",
		zap.String("version", version),
		zap.String("trading_mode", string(cfg.TradingMode)),
		zap.Bool("read_only", bool(cfg.ReadOnly)),
		zap.String("gateway", fmt.Sprintf("%s:%d", cfg.Host, cfg.GatewayPort())),
	)

	// A gateway that is down at startup is not fatal; tool calls report
	// connectivity problems in-band and the gateway may come up later.
	if err := gateway.CheckConnection(ctx); err != nil {
		logg.Warn("gateway not reachable at startup", zap.Error(err))
	}

	facade := trading.NewFacade(gateway, bool(cfg.ReadOnly), logg)
	server := mcpserver.NewServer(facade, logg, version)

	if addr := cmd.String("http"); addr != "" {
		return serveHTTP(ctx, server.HTTPHandler(), logg, addr)
	}

	return server.ServeStdio(ctx)
}

// serveHTTP runs the HTTP transport until the context is canceled, then
// shuts down gracefully.
func serveHTTP(ctx context.Context, handler http.Handler, logg *logger.Logger, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logg.Info("serving MCP over HTTP", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}

// toolsAction prints the tool catalog.
func toolsAction(_ context.Context, _ *cli.Command) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")

	for _, tool := range mcpserver.Catalog() {
		fmt.Fprintf(w, "%s\t%s\n", tool.Name, tool.Description)
	}

	return w.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:    "ibkr-mcp",
		Usage:   "MCP server exposing an Interactive Brokers gateway as trading tools",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file loaded before the environment is read",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "http",
				Usage: "Serve over HTTP on this address (e.g. :8080) instead of stdio",
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "tools",
				Usage:  "List the exposed MCP tools",
				Action: toolsAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
