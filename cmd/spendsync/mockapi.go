package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/spendsync/internal/logging"
	"github.com/vango-dev/spendsync/internal/mockapi"
	"github.com/vango-dev/spendsync/pkg/api"
)

func mockAPICmd() *cobra.Command {
	var (
		addr     string
		fail     []string
		latency  time.Duration
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Run the mock remote API",
		Long: `Run an in-process mock of the remote command API.

Endpoints:
  POST /api/{command}   command requests
  GET  /ws              WebSocket transport
  GET  /metrics         Prometheus metrics

Examples:
  spendsync mock-api
  spendsync mock-api --addr=:9090 --latency=500ms
  spendsync mock-api --fail=DeletePaymentBankAccount,AddPersonalBankAccount`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var failing []api.Command
			for _, f := range fail {
				if f = strings.TrimSpace(f); f != "" {
					failing = append(failing, api.Command(f))
				}
			}

			srv := mockapi.New(
				mockapi.WithLogger(logging.New(os.Stderr, logLevel, "text")),
				mockapi.WithLatency(latency),
				mockapi.WithFailures(failing...),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success("Mock API on %s", addr)
			if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringSliceVar(&fail, "fail", nil, "Commands that always fail")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay before every response")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")

	return cmd
}
