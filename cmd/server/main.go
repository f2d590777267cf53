package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/toolgate/config"
	"github.com/vinodismyname/toolgate/internal/auth"
	"github.com/vinodismyname/toolgate/internal/products"
	"github.com/vinodismyname/toolgate/internal/registry"
	"github.com/vinodismyname/toolgate/internal/report"
	"github.com/vinodismyname/toolgate/internal/runtime"
	"github.com/vinodismyname/toolgate/internal/scopes"
	"github.com/vinodismyname/toolgate/internal/security"
	"github.com/vinodismyname/toolgate/internal/telemetry"
	"github.com/vinodismyname/toolgate/internal/tiers"
	"github.com/vinodismyname/toolgate/internal/tools"
	"github.com/vinodismyname/toolgate/internal/transport"
	"github.com/vinodismyname/toolgate/pkg/validation"
	"github.com/vinodismyname/toolgate/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	var (
		httpAddr        string
		toolList        string
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&settings.Stdio, "stdio", settings.Stdio, "Run server over stdio transport")
	flag.StringVar(&httpAddr, "http", "", "Serve streamable HTTP on this address instead of stdio")
	flag.StringVar(&settings.ToolTier, "tool-tier", settings.ToolTier, "Enable only tools up to this tier (core, extended, complete)")
	flag.StringVar(&toolList, "tools", "", "Comma separated list of tools to enable")
	flag.StringVar(&settings.TiersFile, "tiers-file", settings.TiersFile, "YAML file overriding the built-in tier table")
	flag.BoolVar(&settings.ReadOnly, "read-only", settings.ReadOnly, "Hide tools that need write scopes")
	flag.BoolVar(&settings.OAuth21, "oauth21", settings.OAuth21, "Enable OAuth 2.1 mode and hide the legacy auth tool")
	flag.BoolVar(&settings.FailOpen, "fail-open", settings.FailOpen, "Keep tools whose scopes cannot be resolved in read-only mode")
	flag.StringVar(&settings.DecisionsOut, "decisions-out", settings.DecisionsOut, "Write the filter decisions to an .xlsx or .csv file")
	flag.StringVar(&settings.LogLevel, "log-level", settings.LogLevel, "Log level")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", config.DefaultShutdownTimeout, "Graceful shutdown timeout")
	flag.Parse()

	if httpAddr != "" {
		settings.HTTPAddr = httpAddr
		settings.Stdio = false
	}
	if toolList != "" {
		settings.Tools = config.SplitList(toolList)
	}

	if err := validation.Err(settings); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)

	// stdio owns stdout; logs always go to stderr
	logger := zlog.Output(os.Stderr).With().Str("service", "toolgate-server").Logger()
	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings, shutdownTimeout, logger); err != nil {
		logger.Error().Err(err).Msg("server exited")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, settings config.Settings, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	dirs := settings.AllowedDirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	secMgr, err := security.NewManager(dirs)
	if err != nil {
		return fmt.Errorf("security: %w", err)
	}
	if err := secMgr.ValidateConfig(); err != nil {
		return err
	}
	logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

	tierSet := tiers.Default()
	if settings.TiersFile != "" {
		path, err := secMgr.ValidateReadPath(settings.TiersFile, ".yaml", ".yml")
		if err != nil {
			return err
		}
		if tierSet, err = tiers.Load(path); err != nil {
			return err
		}
	}
	enabled, err := tierSet.Enablement(settings.ToolTier, settings.Tools)
	if err != nil {
		return err
	}

	decisionsPath := ""
	if settings.DecisionsOut != "" {
		if decisionsPath, err = secMgr.ValidateWritePath(settings.DecisionsOut, ".xlsx", ".csv"); err != nil {
			return err
		}
	}

	modes := auth.Modes{OAuth21: settings.OAuth21, ReadOnlyMode: settings.ReadOnly}

	var flows *auth.FlowStore
	if !modes.ModernAuthEnabled() {
		flows = auth.NewFlowStore(auth.FlowConfig{
			ClientID:    settings.OAuthClientID,
			RedirectURI: settings.OAuthRedirectURI,
		}, nil)
		flows.Start()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := flows.Close(closeCtx); err != nil {
				logger.Warn().Err(err).Msg("auth flow store close")
			}
		}()
	}

	limits := runtime.NewLimits(settings.MaxConcurrentRequests)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)
	hooks := telemetry.NewHooks(logger)

	srv := server.NewMCPServer(
		"Toolgate MCP Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks.Server()),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
	)

	catalog := registry.NewCatalog(enabled)
	board := &tools.PolicyBoard{}
	tools.Register(registry.Intercept(srv), tools.Deps{
		Products: products.NewStore(nil),
		Flows:    flows,
		Modes:    modes,
		Limits:   runtimeController.LimitsSnapshot(),
		Catalog:  catalog,
		Policy:   board,
		Logger:   logger,
	})

	filter := registry.NewFilter(
		catalog,
		modes,
		scopes.NewCatalogFromEnv(),
		registry.WithLogger(logger),
		registry.WithFailOpen(settings.FailOpen),
		registry.WithLegacyAuthTool(config.DefaultLegacyAuthTool),
	)
	rep := applyPolicy(ctx, filter, registry.NewMCPHost(srv), board, logger)
	measureFootprint(ctx, srv, board, telemetry.TiktokenCounter(logger), config.DefaultFootprintTimeout, logger)

	if decisionsPath != "" {
		if err := report.Write(decisionsPath, rep); err != nil {
			return fmt.Errorf("write decisions: %w", err)
		}
		logger.Info().Str("path", decisionsPath).Msg("filter decisions written")
	}

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Str("settings", settings.String()).
		Str("auth", modes.String()).
		Int64("max_concurrent_requests", limits.MaxConcurrentRequests).
		Msg("server bootstrap configured")

	if settings.Stdio {
		return server.ServeStdio(srv)
	}

	httpSrv := transport.NewHTTPServer(server.NewStreamableHTTPServer(srv), flows, hooks, logger)
	return transport.Serve(ctx, settings.HTTPAddr, httpSrv.Router(), shutdownTimeout, logger)
}

// applyPolicy runs the filter pass once and publishes its report. A pass that
// cannot list tools leaves the catalog unfiltered and startup continues.
func applyPolicy(ctx context.Context, filter *registry.Filter, host registry.Host, board *tools.PolicyBoard, logger zerolog.Logger) registry.Report {
	rep := filter.Apply(ctx, host)
	telemetry.LogReport(logger, rep)
	if rep.Err != nil {
		logger.Warn().Msg("serving the unfiltered tool catalog")
	}
	board.Publish(rep, nil)
	return rep
}

// measureFootprint sizes the surviving catalog in the background and attaches
// the result to board, giving up after timeout. The returned channel closes
// when measuring ends.
func measureFootprint(ctx context.Context, srv *server.MCPServer, board *tools.PolicyBoard, count telemetry.TokenCounter, timeout time.Duration, logger zerolog.Logger) <-chan struct{} {
	listed := listedTools(srv)
	done := make(chan struct{})
	go func() {
		defer close(done)
		mctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		fp, err := telemetry.MeasureFootprintContext(mctx, config.DefaultFootprintModel, listed, count)
		if err != nil {
			logger.Warn().Err(err).Msg("tool footprint unavailable")
			return
		}
		board.AttachFootprint(fp)
		logger.Info().
			Int("tools", fp.Tools).
			Int("tokens", fp.Tokens).
			Int("context_window", fp.ContextWindow).
			Float64("share", fp.Share).
			Msg("tool catalog footprint")
	}()
	return done
}

// listedTools returns the surviving tool definitions in name order.
func listedTools(srv *server.MCPServer) []mcp.Tool {
	registered := srv.ListTools()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, registered[name].Tool)
	}
	return out
}
