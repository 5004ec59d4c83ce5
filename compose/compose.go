package compose

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/utilities/utils"
)

// Export renders a cloud config as a docker-compose v3 manifest, one
// compose service per container so the instance names and environment
// match what the orchestrator would run.
func Export(cfg model.CloudConfig) ([]byte, error) {
	manifest := &Manifest{
		Version:  "3",
		Services: map[string]Container{},
		Networks: map[string]Network{},
	}

	aux := map[string]string{}
	if cfg.ProxyIP != "" {
		aux["proxy"] = cfg.ProxyIP
	}
	if cfg.GatewayIP != "" {
		aux["gateway"] = cfg.GatewayIP
	}
	network := Network{Driver: "bridge", Attachable: true}
	network.Ipam.Config = []NetworkConfig{{Subnet: cfg.Subnet, AuxAddresses: aux}}
	manifest.Networks[cfg.NetworkName] = network

	for _, spec := range cfg.Services {
		scale := spec.Scale
		if scale < 1 {
			scale = 1
		}
		for i := 1; i <= scale; i++ {
			instance := utils.FormatInstanceName(spec.Name, i)
			manifest.Services[instance] = Container{
				Image:         spec.Image,
				ContainerName: utils.FormatContainerName(spec.Name, i, cfg.NetworkName),
				Command:       spec.Command,
				Environment: map[string]string{
					constants.ServiceNameEnv: spec.Name,
					constants.ServiceIDEnv:   instance,
				},
				// container port only, the host port stays random
				Ports:    []string{strconv.Itoa(spec.Port)},
				Networks: map[string]map[string]string{cfg.NetworkName: {}},
			}
		}
	}

	content, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, errors.Wrap(err, constants.ExportComposeError+"failed to marshal manifest")
	}
	header := fmt.Sprintf("# generated from the %s cloud config\n", cfg.NetworkName)
	return append([]byte(header), content...), nil
}
