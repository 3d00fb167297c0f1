package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kingsamchen/fawkes"
	"github.com/kingsamchen/fawkes/middlewares"
)

var port = flag.Uint("port", 7890, "Port number to listen on")

func main() {
	flag.Parse()

	pool := fawkes.NewIOPool(4)
	svr := fawkes.NewServerWithPool(pool)

	// Enable serve timeout, in case some handler may get stuck.
	svr.SetOptions(fawkes.Options{ServeTimeout: 15 * time.Second})

	svr.Use(middlewares.AccessLog())

	svr.GET("/ping", func(_ context.Context, _ *fawkes.Request, resp *fawkes.Response) error {
		resp.Text(http.StatusOK, "Pong!")
		return nil
	})

	svr.POST("/echo", func(_ context.Context, req *fawkes.Request, resp *fawkes.Response) error {
		slog.Info("Request Content-Type", "value", req.Header.Get("Content-Type"))
		resp.Text(http.StatusOK, string(req.Body))
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Received signal, shutting down the server")

		// Stop closes the acceptor so no more new connections are accepted.
		// It also closes any idle connections, and any active connections
		// after they finish the current request and response.
		svr.Stop()
	}()

	if err := svr.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", *port)); err != nil {
		slog.Error("Unexpected error", "error", err)
		os.Exit(1)
	}

	// Wait for active connections to finish first.
	pool.Join()

	slog.Info("Server exits")
}
