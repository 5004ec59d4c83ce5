package model

// CloudConfig is the topology file. Subnet is the only required field;
// everything else has a default or is optional.
type CloudConfig struct {
	Subnet      string        `json:"subnet" mapstructure:"subnet"`
	NetworkName string        `json:"networkName" mapstructure:"networkName"`
	ProxyIP     string        `json:"proxyIp,omitempty" mapstructure:"proxyIp"`
	GatewayIP   string        `json:"gatewayIp,omitempty" mapstructure:"gatewayIp"`
	ValidateIPs *bool         `json:"validateIps,omitempty" mapstructure:"validateIps"`
	WorkerCount int           `json:"workerCount,omitempty" mapstructure:"workerCount"`
	Services    []ServiceSpec `json:"services,omitempty" mapstructure:"services"`
	Proxy       ProxyConfig   `json:"proxy,omitempty" mapstructure:"proxy"`
	API         APIConfig     `json:"api,omitempty" mapstructure:"api"`
}

func (c CloudConfig) ValidationEnabled() bool {
	if c.ValidateIPs == nil {
		return true
	}
	return *c.ValidateIPs
}

type ProxyConfig struct {
	ConfigPath    string `json:"configPath,omitempty" mapstructure:"configPath"`
	ReloadCommand string `json:"reloadCommand,omitempty" mapstructure:"reloadCommand"`
	AdminSocket   string `json:"adminSocket,omitempty" mapstructure:"adminSocket"`
	Interval      string `json:"interval,omitempty" mapstructure:"interval"`
	DryRun        bool   `json:"dryRun,omitempty" mapstructure:"dryRun"`
}

type APIConfig struct {
	Listen string `json:"listen,omitempty" mapstructure:"listen"`
}
