package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trungams/simple-cloud/api"
	"github.com/trungams/simple-cloud/cloud"
	"github.com/trungams/simple-cloud/host_info"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/netmanager"
	"github.com/trungams/simple-cloud/proxy"
	"github.com/trungams/simple-cloud/registrar"
	"github.com/trungams/simple-cloud/registry"
	"github.com/trungams/simple-cloud/ui"
	"github.com/trungams/simple-cloud/utilities/config"
	"github.com/trungams/simple-cloud/utilities/docker"
)

var noCleanup bool

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the cloud and serve the management API",
	Long: `Create the docker network, start the configured services, follow the
docker events stream into the service registry, render the proxy
configuration on changes, and serve the management API until SIGINT or
SIGTERM. Services and the network are removed on shutdown.`,
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "leave services and the network running on exit")
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadTopology()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load topology", err.Error(), "run 'simple-cloud init' to create a config file"))
		return err
	}
	printTopology(cfg)

	dockerClient, err := docker.NewClient(config.DockerAPIVersion())
	if err != nil {
		return err
	}

	store := registry.NewStore()
	manager, err := netmanager.New(dockerClient, cfg)
	if err != nil {
		return err
	}
	orchestrator := cloud.New(dockerClient, manager, store, cfg.Services)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Ensure(ctx); err != nil {
		return err
	}

	// subscribe before starting services so their events are caught live
	handlers := registrar.GetHandlers(dockerClient, store, cfg.NetworkName)
	handlers["network.connect"] = []registrar.Handler{&netmanager.ConnectHandler{Client: dockerClient, Manager: manager}}
	handlers["network.disconnect"] = []registrar.Handler{&netmanager.DisconnectHandler{Manager: manager}}
	processor := registrar.NewDockerEventsProcessor(cfg.WorkerCount, dockerClient, handlers)
	if err := processor.Process(ctx); err != nil {
		return err
	}

	bootstrap(ctx, orchestrator, cfg)

	renderer := proxy.NewRenderer(store, cfg.Proxy, config.ProxyIntervalDuration(cfg))
	go func() {
		if err := renderer.Run(ctx); err != nil {
			logrus.Errorf("Proxy renderer stopped: %v", err)
		}
	}()

	var monitor api.StatsSource
	if cfg.Proxy.AdminSocket != "" {
		monitor = &proxy.Monitor{SocketPath: cfg.Proxy.AdminSocket}
	}
	server := api.NewServer(cfg.API.Listen, store, orchestrator, monitor, hostInfo.Collectors(dockerClient))

	errc := make(chan error, 1)
	go func() {
		errc <- server.Run(ctx)
	}()

	ui.Success("Cloud is up")
	ui.Endpoint("API", cfg.API.Listen)
	ui.Endpoint("Network", manager.Name())
	if addr, ok := manager.ReservedAddress("proxy"); ok {
		ui.Endpoint("Proxy address", addr.String())
	}
	if addr, ok := manager.ReservedAddress("gateway"); ok {
		ui.Endpoint("Gateway address", addr.String())
	}
	fmt.Println(ui.Hint("Press Ctrl+C to stop"))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		logrus.Infof("Received signal %v, shutting down", sig)
	case err := <-errc:
		if err != nil {
			logrus.Errorf("API server stopped: %v", err)
		}
	}
	cancel()

	if noCleanup {
		ui.Warn("Skipping cleanup, services and the network keep running")
		return nil
	}

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cleanupCancel()
	if err := orchestrator.Cleanup(cleanupCtx); err != nil {
		return err
	}
	ui.Success("Cloud is down")
	return nil
}

// bootstrap starts the configured services one by one. A service that
// fails to start is reported and skipped, the rest still come up.
func bootstrap(ctx context.Context, orchestrator *cloud.Cloud, cfg model.CloudConfig) {
	if len(cfg.Services) == 0 {
		return
	}

	fmt.Println(ui.Bold("Starting services..."))
	bar := progressbar.NewOptions(len(cfg.Services),
		progressbar.OptionSetDescription("bootstrap"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for _, spec := range cfg.Services {
		if err := orchestrator.StartService(ctx, spec); err != nil {
			ui.ServiceFailed(spec.Name, err)
		} else {
			ui.ServiceStarted(spec.Name, spec.Scale)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
}
