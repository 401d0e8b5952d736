package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/server"
)

// Serve runs the HTTP API until the command context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host, port := r.config.Server.Host, r.config.Server.Port
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := server.New(r.engine, server.WithLogger(r.logger))
	r.logger.Info("serving match API", "addr", ln.Addr().String(), "platforms", len(r.services))
	return srv.Serve(ctx, ln)
}
