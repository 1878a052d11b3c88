// Command httpd accepts TCP connections, reads one request from each
// and logs it before answering with a plain text summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"http-conn/application/http"
	"http-conn/application/http/actor/server"
	"http-conn/application/http/status"
	"http-conn/transport/tcp"

	"github.com/benbjohnson/clock"
)

func main() {
	opts := server.DefaultOptions

	addr := flag.String("addr", "127.0.0.1:8383", "address to listen on")
	flag.DurationVar(&opts.Serve.Timeout.ReadTimeout, "read-timeout", opts.Serve.Timeout.ReadTimeout, "time allowed to read a request head")
	flag.DurationVar(&opts.Serve.Timeout.WriteTimeout, "write-timeout", opts.Serve.Timeout.WriteTimeout, "time allowed to write a response")
	flag.UintVar(&opts.Serve.Decode.MaxRequestLineLength, "max-line", opts.Serve.Decode.MaxRequestLineLength, "max length of request and field lines")
	flag.UintVar(&opts.Serve.Decode.MaxFieldCount, "max-fields", opts.Serve.Decode.MaxFieldCount, "max number of header fields")
	flag.BoolVar(&opts.Serve.ReplyOnError, "reply-on-error", false, "answer malformed requests with an error status")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	opts.Serve.Decode.MaxFieldLineLength = opts.Serve.Decode.MaxRequestLineLength

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*addr, logger, opts); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(addr string, logger *slog.Logger, opts server.Options) error {
	l, err := tcp.Listen(addr)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(l, logger, clock.New(), handle(logger), opts)
	s.Start()
	logger.Info("server running", "addr", l.Addr().String())

	<-ctx.Done()
	logger.Info("shutting down")

	return s.Close()
}

func handle(logger *slog.Logger) server.HandleFunc {
	return func(c *server.HandleContext, request *http.Request) *http.Response {
		logger.Info("request",
			"remote", c.RemoteAddr().String(),
			"method", request.Method,
			"uri", request.URI,
			"version", request.Version.String(),
			"headers", request.Headers,
		)

		body := []byte(describe(request))
		return &http.Response{
			Status: status.OK,
			Headers: map[string]string{
				"Content-Type":   "text/plain; charset=utf-8",
				"Content-Length": strconv.Itoa(len(body)),
				"Connection":     "close",
			},
			Body: body,
		}
	}
}

func describe(request *http.Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "method: %s\nuri: %s\nversion: %s\n", request.Method, request.URI, request.Version)
	for _, k := range slices.Sorted(maps.Keys(request.QueryParams)) {
		fmt.Fprintf(&sb, "query: %s=%s\n", k, request.QueryParams[k])
	}
	for _, k := range slices.Sorted(maps.Keys(request.Headers)) {
		fmt.Fprintf(&sb, "header: %s: %s\n", k, request.Headers[k])
	}
	return sb.String()
}
