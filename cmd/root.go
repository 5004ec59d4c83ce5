package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/config"
)

var (
	configFile  string
	logLevel    string
	subnet      string
	networkName string
	proxyIP     string
	gatewayIP   string
	validateIPs bool
)

var rootCmd = &cobra.Command{
	Use:   "simple-cloud",
	Short: "A small docker orchestrator with a service registry and load balancing",
	Long: `simple-cloud runs docker services on a private network, keeps a registry
of live instances, and renders an HAProxy configuration so every service
is reachable through one stable address.

The topology comes from a JSON file (-f) or from the subnet flags (-s).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			config.SetLogLevel(logLevel)
		}
		level, err := logrus.ParseLevel(config.LogLevel())
		if err != nil {
			level = logrus.InfoLevel
		}
		logrus.SetLevel(level)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config-file", "f", "", "path to a JSON topology file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&subnet, "subnet", "s", "", "subnet range for the cloud network")
	rootCmd.PersistentFlags().StringVarP(&networkName, "net-name", "n", "", "name of the user-defined docker network")
	rootCmd.PersistentFlags().StringVarP(&proxyIP, "proxy-ip", "p", "", "reserve an IPv4 address for the proxy container")
	rootCmd.PersistentFlags().StringVarP(&gatewayIP, "gateway-ip", "g", "", "reserve an IPv4 address for the gateway")
	rootCmd.PersistentFlags().BoolVar(&validateIPs, "validate-ip", true, "check reserved addresses against the subnet")
}

// loadTopology builds the cloud config from the file or from the subnet
// flags, never both.
func loadTopology() (model.CloudConfig, error) {
	if configFile != "" && subnet != "" {
		return model.CloudConfig{}, errors.New("--config-file and --subnet are mutually exclusive")
	}
	if configFile != "" {
		return config.LoadCloudConfig(configFile)
	}
	if subnet != "" {
		return config.FromFlags(subnet, networkName, proxyIP, gatewayIP, validateIPs)
	}
	return model.CloudConfig{}, errors.New("either --config-file or --subnet is required")
}

func printTopology(cfg model.CloudConfig) {
	pretty, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(pretty))
}
