package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/spmctl/internal/config"
	"github.com/danmuck/spmctl/internal/gateway"
	"github.com/danmuck/spmctl/internal/observability"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "cmd/spmgw/config.toml", "gateway config (toml)")
	flag.Parse()

	cfg, err := config.LoadGatewayConfig(*configPath)
	if err != nil {
		fatalf("%v", err)
	}
	logger := observability.InitLogger(cfg.Name)
	gin.SetMode(gin.ReleaseMode)

	clientLogger := logger.With().Str("component", "client").Logger()
	dial, err := gateway.Dialer(cfg.Instrument, clientLogger)
	if err != nil {
		fatalf("%v", err)
	}
	srv, err := gateway.New(cfg, logger, dial)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().
		Str("instrument", fmt.Sprintf("%s:%d", cfg.Instrument.Host, cfg.Instrument.Port)).
		Msg("spmgw starting")
	if err := srv.Run(ctx); err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "spmgw: "+format+"\n", args...)
	os.Exit(1)
}
