package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"commoditybot/internal/config"
	"commoditybot/internal/logging"
	"commoditybot/internal/push"
	"commoditybot/internal/ratelimit"
	"commoditybot/internal/render"
)

const usage = `usage: commoditybot <command> [flags]

commands:
  report [-format text|card|json]   build and print the price report
  broadcast                         build the report and push it to every subscriber
  subscribe <id>...                 register subscriber ids
  subscribers                       list registered subscriber ids
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received interrupt signal, shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("command failed", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	limiter := ratelimit.New(cfg.HTTP.RequestsPerSecond, 1)
	limiter.Set(ratelimit.KeyPush, cfg.Push.RequestsPerSecond, 1)

	a, err := newApp(cfg, logger, newLoaders(cfg, limiter, logger), limiter)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "report":
		return a.report(ctx, rest, stdout)
	case "broadcast":
		return a.broadcast(ctx, stdout)
	case "subscribe":
		return a.subscribe(ctx, rest, stdout)
	case "subscribers":
		return a.subscribers(ctx, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (a *app) report(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", a.cfg.Render.Format, "output format: text, card or json")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	renderer := a.renderer
	if *format != "json" && *format != a.cfg.Render.Format {
		var err error
		if renderer, err = render.ForFormat(*format, a.cfg.Location()); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}

	rep, err := a.cache.Fresh(ctx, a.cfg.Cache.MaxAge)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if *format == "json" {
		return enc.Encode(rep)
	}

	msg := renderer.Render(rep)
	if msg.Card != nil {
		return enc.Encode(msg.Card)
	}
	_, err = fmt.Fprintln(stdout, msg.Text)
	return err
}

func (a *app) broadcast(ctx context.Context, stdout io.Writer) error {
	if err := a.cfg.RequirePush(); err != nil {
		return err
	}
	client, err := push.New(push.Options{
		BaseURL:    a.cfg.Push.BaseURL,
		Token:      a.cfg.Push.Token,
		RetryCount: a.cfg.Push.RetryCount,
		Timeout:    a.cfg.Push.Timeout,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	ids, err := a.registry.List(ctx)
	if err != nil {
		return err
	}
	rep, err := a.cache.Refresh(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	sum := a.dispatcher(client).Broadcast(ctx, a.renderer.Render(rep), ids)
	printSummary(stdout, sum, time.Since(start))
	return nil
}

func (a *app) subscribe(ctx context.Context, ids []string, stdout io.Writer) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: subscribe needs at least one id", errUsage)
	}
	for _, id := range ids {
		added, err := a.registry.Register(ctx, id)
		if err != nil {
			return fmt.Errorf("register %q: %w", id, err)
		}
		state := "added"
		if !added {
			state = "already registered"
		}
		fmt.Fprintf(stdout, "%s: %s\n", id, state)
	}
	return nil
}

func (a *app) subscribers(ctx context.Context, stdout io.Writer) error {
	ids, err := a.registry.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(stdout, id)
	}
	return nil
}
