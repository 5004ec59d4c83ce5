package compose

// Manifest is a docker-compose v3 file. Maps marshal with sorted keys,
// the output is deterministic.
type Manifest struct {
	Version  string
	Services map[string]Container
	Networks map[string]Network
}

type Container struct {
	Image         string
	ContainerName string   `yaml:"container_name"`
	Command       []string `yaml:"command,omitempty"`
	Environment   map[string]string
	Ports         []string
	Networks      map[string]map[string]string
}

type NetworkConfig struct {
	Subnet       string
	AuxAddresses map[string]string `yaml:"aux_addresses,omitempty"`
}

type Network struct {
	Driver     string
	Attachable bool
	Ipam       struct {
		Config []NetworkConfig
	}
}
