package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// LoadCloudConfig reads a JSON topology file, applies defaults and
// validates it.
func LoadCloudConfig(path string) (model.CloudConfig, error) {
	var cfg model.CloudConfig

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return cfg, errors.Wrap(err, constants.LoadConfigError+"failed to read config file")
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, constants.LoadConfigError+"failed to unmarshal config file")
	}

	ApplyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromFlags builds a config when no file is given, the subnet coming from
// the command line.
func FromFlags(subnet, networkName, proxyIP, gatewayIP string, validate bool) (model.CloudConfig, error) {
	cfg := model.CloudConfig{
		Subnet:      subnet,
		NetworkName: networkName,
		ProxyIP:     proxyIP,
		GatewayIP:   gatewayIP,
		ValidateIPs: &validate,
	}
	ApplyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ApplyDefaults(cfg *model.CloudConfig) {
	if cfg.NetworkName == "" {
		cfg.NetworkName = NetworkName()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = WorkerCount()
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = APIListen()
	}
	if cfg.Proxy.ConfigPath == "" {
		cfg.Proxy.ConfigPath = ProxyConfigPath()
	}
	if cfg.Proxy.ReloadCommand == "" {
		cfg.Proxy.ReloadCommand = ProxyReloadCommand()
	}
	if cfg.Proxy.AdminSocket == "" {
		cfg.Proxy.AdminSocket = ProxyAdminSocket()
	}
	if cfg.Proxy.Interval == "" {
		cfg.Proxy.Interval = ProxyInterval()
	}
	for i := range cfg.Services {
		if cfg.Services[i].Scale <= 0 {
			cfg.Services[i].Scale = 1
		}
	}
}

func Validate(cfg model.CloudConfig) error {
	if cfg.Subnet == "" {
		return errors.New(constants.ValidateConfigError + "subnet is required")
	}
	subnet, err := netip.ParsePrefix(cfg.Subnet)
	if err != nil {
		return errors.Wrap(err, constants.ValidateConfigError+"failed to parse subnet")
	}
	if !subnet.Addr().Is4() {
		return errors.New(constants.ValidateConfigError + "subnet must be IPv4")
	}

	if cfg.ValidationEnabled() {
		for _, entry := range []struct {
			name, value string
		}{
			{"proxy ip", cfg.ProxyIP},
			{"gateway ip", cfg.GatewayIP},
		} {
			if entry.value == "" {
				continue
			}
			addr, err := netip.ParseAddr(entry.value)
			if err != nil {
				return errors.Wrapf(err, constants.ValidateConfigError+"failed to parse %s", entry.name)
			}
			if !subnet.Contains(addr) {
				return errors.New(constants.ValidateConfigError + fmt.Sprintf("%s %s is not inside subnet %s", entry.name, entry.value, cfg.Subnet))
			}
		}
	}

	names := map[string]bool{}
	ports := map[int]string{}
	for _, spec := range cfg.Services {
		if err := ValidateServiceSpec(spec); err != nil {
			return err
		}
		if names[spec.Name] {
			return errors.New(constants.ValidateConfigError + fmt.Sprintf("duplicate service name %s", spec.Name))
		}
		names[spec.Name] = true
		if owner, ok := ports[spec.Port]; ok {
			return errors.New(constants.ValidateConfigError + fmt.Sprintf("service %s reuses port %d of service %s", spec.Name, spec.Port, owner))
		}
		ports[spec.Port] = spec.Name
	}
	return nil
}

func ValidateServiceSpec(spec model.ServiceSpec) error {
	if !constants.NameRegexCompiler.MatchString(spec.Name) {
		return errors.New(constants.ValidateConfigError + fmt.Sprintf("invalid service name %q", spec.Name))
	}
	if spec.Image == "" {
		return errors.New(constants.ValidateConfigError + fmt.Sprintf("service %s has no image", spec.Name))
	}
	if spec.Port <= 0 || spec.Port > 65535 {
		return errors.New(constants.ValidateConfigError + fmt.Sprintf("service %s has invalid port %d", spec.Name, spec.Port))
	}
	return nil
}

// ProxyIntervalDuration parses the configured render interval, falling back
// to two seconds on a bad value.
func ProxyIntervalDuration(cfg model.CloudConfig) time.Duration {
	d, err := time.ParseDuration(cfg.Proxy.Interval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}
