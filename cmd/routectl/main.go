// routectl computes shortest paths between every pair of hosts known to
// an ONOS controller and installs the resulting flow rules, or tears
// them back down. One process, one run, no persistent state.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/routectl/routectl/internal/config"
	"github.com/routectl/routectl/internal/events"
	"github.com/routectl/routectl/internal/flowcompiler"
	"github.com/routectl/routectl/internal/installer"
	"github.com/routectl/routectl/internal/logging"
	"github.com/routectl/routectl/internal/onos"
	"github.com/routectl/routectl/internal/orchestrator"
	"github.com/routectl/routectl/internal/routing"
	"github.com/routectl/routectl/internal/sidecar"
	"github.com/routectl/routectl/internal/statusapi"
	"github.com/routectl/routectl/internal/topo"
)

func main() {
	configPath := flag.String("config", "/etc/routectl/config.toml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logger := logging.ForBackend(baseLogger, cfg.Routing.Backend)
	logger.Info("routectl starting", "config", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	password, err := cfg.ResolvePassword()
	if err != nil {
		logger.Error("resolving controller password", "error", err)
		os.Exit(1)
	}

	controller := onos.NewClient(cfg.Controller.BaseURL, cfg.Controller.Username, password, cfg.ControllerTimeout(), logger)

	sidecarData, err := sidecar.Load(cfg.Sidecar.Path, logger)
	if err != nil {
		logger.Error("loading sidecar file", "error", err)
		os.Exit(1)
	}

	bus := events.NewBus(10000, logger)
	go bus.Start()
	defer bus.Stop()
	collector := events.NewCollector(bus)
	defer collector.Close()

	model := topo.New(controller, sidecarData, topo.Config{
		HostSwitchWeight:  cfg.Routing.HostSwitchWeight,
		DefaultEdgeWeight: cfg.Sidecar.DefaultEdgeWeight,
	}, logger, bus)

	compiler := flowcompiler.New(model, cfg.Install.Priority, bus)

	backend := routing.New(cfg.Routing.Backend, routing.Config{
		MaxWorkers:        cfg.Routing.MaxWorkers,
		GPUBlockSize:      cfg.Routing.GPU.BlockSize,
		GPUGridMultiplier: cfg.Routing.GPU.GridMultiplier,
		GPUBatchSize:      cfg.Routing.GPU.BatchSize,
		GPUMaxPathLength:  cfg.Routing.GPU.MaxPathLength,
	})

	inst := installer.New(controller, installer.Config{
		BatchSize: cfg.Install.BatchSize,
		AppID:     cfg.Install.AppID,
	}, bus)

	orch := orchestrator.New(model, backend, compiler, inst, bus, logger)

	if cfg.Metrics.Listen != "" {
		statusSrv := statusapi.NewServer(cfg.Metrics.Listen, logger, statusapi.WithAuthToken(cfg.Metrics.AuthToken), statusapi.WithCollector(collector))
		ln, err := statusSrv.Listen()
		if err != nil {
			logger.Error("starting status API", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := statusSrv.Serve(ln); err != nil {
				logger.Error("status API stopped", "error", err)
			}
		}()
		defer statusSrv.Stop(context.Background())
	}

	args := flag.Args()
	if len(args) == 0 {
		runREPL(ctx, orch, logger)
		return
	}

	switch args[0] {
	case "create-routes":
		if err := runCreate(ctx, orch, logger); err != nil {
			os.Exit(1)
		}
	case "delete-routes":
		if err := runDelete(ctx, orch, logger); err != nil {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want create-routes|delete-routes)\n", args[0])
		os.Exit(2)
	}
}

func runCreate(ctx context.Context, orch *orchestrator.Orchestrator, logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}) error {
	result, err := orch.CreateRoutes(ctx)
	if err != nil {
		logger.Error("create-routes failed", "error", err)
		return err
	}
	logger.Info("create-routes complete",
		"hosts", result.HostCount,
		"rules_compiled", result.RulesCompiled,
		"rules_installed", result.Install.Created,
		"rules_failed", result.Install.Failed,
		"duration", result.Duration)
	return nil
}

func runDelete(ctx context.Context, orch *orchestrator.Orchestrator, logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}) error {
	result, err := orch.DeleteRoutes(ctx)
	if err != nil {
		logger.Error("delete-routes failed", "error", err)
		return err
	}
	logger.Info("delete-routes complete",
		"rules_deleted", result.Install.Created,
		"rules_failed", result.Install.Failed,
		"duration", result.Duration)
	return nil
}

// runREPL exposes create_routes / delete_routes / help / exit on
// stdin, mirroring the ONOS sample app's interactive shell this tool
// replaces.
func runREPL(ctx context.Context, orch *orchestrator.Orchestrator, logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}) {
	fmt.Println("routectl interactive mode. Commands: create_routes, delete_routes, help, exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("routectl> ")
		if !scanner.Scan() {
			return
		}
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "":
			continue
		case "help":
			fmt.Println("create_routes  compute and install shortest-path flow rules for all hosts")
			fmt.Println("delete_routes  remove all previously installed flow rules")
			fmt.Println("exit           quit")
		case "create_routes":
			runCreate(ctx, orch, logger)
		case "delete_routes":
			runDelete(ctx, orch, logger)
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q — try help\n", cmd)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
