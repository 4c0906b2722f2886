package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samandartukhtayev/user-registry/config"
	"github.com/samandartukhtayev/user-registry/logging"
	"github.com/samandartukhtayev/user-registry/mcpserver"
	"github.com/samandartukhtayev/user-registry/models"
	"github.com/samandartukhtayev/user-registry/registry"
	"github.com/samandartukhtayev/user-registry/repository"
	"github.com/samandartukhtayev/user-registry/sharding"
	"github.com/samandartukhtayev/user-registry/userutil"
)

// exitError carries a process exit code
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if code != 0 {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(code)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	cfg := config.DefaultConfig()
	if err := config.FromEnv(cfg, getenv); err != nil {
		return &exitError{code: 2, err: err}
	}

	flagSet := flag.NewFlagSet("user-registry", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	baseAddress := flagSet.String("base-address", cfg.BaseAddress, "Remote endpoint; users are loaded from {base-address}/users.")
	source := flagSet.String("source", cfg.Source, "Bulk-load source: 'http' or 'sql'.")
	strict := flagSet.Bool("strict", cfg.StrictDecoding, "Reject loads containing records with missing or malformed fields.")
	logLevel := flagSet.String("log-level", cfg.LogLevel, "Logging level: 'debug', 'info', 'warn', 'error'.")
	logFormat := flagSet.String("log-format", cfg.LogFormat, "Log output format: 'text' or 'json'.")
	serveMCP := flagSet.Bool("mcp", false, "Serve the registry as MCP tools on stdio instead of running the demo.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &exitError{code: 2, err: err}
	}

	cfg.BaseAddress = *baseAddress
	cfg.Source = *source
	cfg.StrictDecoding = *strict
	cfg.LogLevel = *logLevel
	cfg.LogFormat = *logFormat
	applySourceDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	// stdout is reserved for MCP traffic, so logs always go to stderr
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	ctx = logging.WithLogger(ctx, logger)

	opts := []registry.Option{registry.WithLogger(logger)}
	var repo *repository.UserRepository
	if cfg.Source == config.SourceSQL {
		sm, err := sharding.NewShardManager(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create shard manager: %w", err)
		}
		defer sm.Close()
		logger.Info("connected to user directory shards", "shards", sm.NumShards())

		repo = repository.NewUserRepository(sm)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, registry.WithSource(repo))
	}

	reg := registry.New(cfg, opts...)

	if *serveMCP {
		return mcpserver.NewServer(reg, models.SystemClock{}, logger).Serve(ctx)
	}

	return runDemo(ctx, reg, repo, models.SystemClock{}, stdout)
}

// applySourceDefaults points the sql source at the local shard topology
// when no database URLs were configured
func applySourceDefaults(cfg *config.Config) {
	if cfg.Source == config.SourceSQL && len(cfg.Shards) == 0 {
		cfg.Shards = config.LocalShards(3)
	}
}

// runDemo walks through the registry operations. repo is nil for the http source.
func runDemo(ctx context.Context, reg *registry.UserRegistry, repo *repository.UserRepository, clock models.Clock, out io.Writer) error {
	logger := logging.FromContext(ctx)
	fmt.Fprintln(out, "=== User Registry Demo ===")

	demonstrateLoad(ctx, reg, out)

	if repo != nil {
		demonstrateShardDistribution(ctx, repo, out)
	}

	if err := demonstrateAddAndFind(reg, clock, out); err != nil {
		return err
	}

	demonstrateEmailValidation(out)

	logger.Debug("demo finished", "users", reg.Len())
	fmt.Fprintln(out, "\n=== Demo Complete ===")
	return nil
}

func demonstrateLoad(ctx context.Context, reg *registry.UserRegistry, out io.Writer) {
	fmt.Fprintln(out, "--- Bulk Load ---")

	users, err := reg.LoadUsers(ctx)
	if err != nil {
		// The registry already logged the cause; keep going with an empty registry
		fmt.Fprintf(out, "✗ Could not load users: %v\n\n", err)
		return
	}

	fmt.Fprintf(out, "✓ Loaded %d users\n", len(users))
	for _, u := range users {
		fmt.Fprintf(out, "  %d  %-20s %s\n", u.ID, u.Name, u.Email)
	}
	fmt.Fprintln(out)
}

func demonstrateAddAndFind(reg *registry.UserRegistry, clock models.Clock, out io.Writer) error {
	fmt.Fprintln(out, "--- Add and Find ---")

	user := reg.AddUser(models.NewUser(clock, "Alice Johnson", "alice@example.com"))
	fmt.Fprintf(out, "✓ Added user %d (%s), registry now holds %d\n", user.ID, user.Name, reg.Len())

	found, ok := reg.FindUserByID(user.ID)
	if !ok {
		return fmt.Errorf("user %d not found right after adding it", user.ID)
	}
	fmt.Fprintf(out, "✓ Found: %s (%s)\n", found.Name, found.Email)

	created, err := userutil.FormatDate(found.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to format creation date: %w", err)
	}
	fmt.Fprintf(out, "✓ Created on %s (id stamped %s)\n", created, userutil.FormatUnixMilli(found.ID))

	if _, ok := reg.FindUserByID(42); !ok {
		fmt.Fprintln(out, "✓ User 42 not found, as expected")
	}
	fmt.Fprintln(out)
	return nil
}

func demonstrateEmailValidation(out io.Writer) {
	fmt.Fprintln(out, "--- Email Validation ---")

	for _, email := range []string{"a@b.com", "not-an-email", "a@b", "a b@c.com"} {
		mark := "✗"
		if userutil.ValidateEmail(email) {
			mark = "✓"
		}
		fmt.Fprintf(out, "  %s %q\n", mark, email)
	}
}

func demonstrateShardDistribution(ctx context.Context, repo *repository.UserRepository, out io.Writer) {
	fmt.Fprintln(out, "--- Shard Distribution ---")

	counts, err := repo.CountUsersPerShard(ctx)
	if err != nil {
		fmt.Fprintf(out, "✗ Could not count users: %v\n\n", err)
		return
	}

	total := 0
	for shardID, count := range counts {
		fmt.Fprintf(out, "  Shard %d: %d users\n", shardID, count)
		total += count
	}
	fmt.Fprintf(out, "  Total: %d users\n\n", total)
}
