package wizard

import (
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/config"
)

// Run executes the interactive wizard and returns a validated topology.
func Run() (model.CloudConfig, error) {
	cfg := model.CloudConfig{
		NetworkName: config.NetworkName(),
	}
	cfg.API.Listen = config.APIListen()

	networkForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Subnet").
				Description("IPv4 CIDR for the docker network, e.g. 172.18.0.0/24").
				Placeholder("172.18.0.0/24").
				Validate(ValidateSubnet).
				Value(&cfg.Subnet),
			huh.NewInput().
				Title("Network name").
				Value(&cfg.NetworkName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Proxy IP (optional)").
				Description("Reserved address for the load balancer").
				Validate(IPValidator(&cfg.Subnet)).
				Value(&cfg.ProxyIP),
			huh.NewInput().
				Title("Gateway IP (optional)").
				Description("Reserved address for the gateway").
				Validate(IPValidator(&cfg.Subnet)).
				Value(&cfg.GatewayIP),
			huh.NewInput().
				Title("API listen address").
				Value(&cfg.API.Listen),
		),
	)
	if err := networkForm.Run(); err != nil {
		return cfg, err
	}

	for {
		add := len(cfg.Services) == 0
		confirm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add a service?").
					Value(&add),
			),
		)
		if err := confirm.Run(); err != nil {
			return cfg, err
		}
		if !add {
			break
		}

		spec, err := serviceForm(cfg.Services)
		if err != nil {
			return cfg, err
		}
		cfg.Services = append(cfg.Services, spec)
	}

	config.ApplyDefaults(&cfg)
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serviceForm(existing []model.ServiceSpec) (model.ServiceSpec, error) {
	var spec model.ServiceSpec
	port := ""
	scale := "1"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Service name").
				Placeholder("web").
				Validate(NameValidator(existing)).
				Value(&spec.Name),
			huh.NewInput().
				Title("Image").
				Placeholder("nginx:alpine").
				Validate(ValidateImage).
				Value(&spec.Image),
			huh.NewInput().
				Title("Service port").
				Description("The port the containers listen on").
				Validate(PortValidator(existing)).
				Value(&port),
			huh.NewInput().
				Title("Scale").
				Validate(ValidateScale).
				Value(&scale),
		),
	)
	if err := form.Run(); err != nil {
		return spec, err
	}

	// validators already accepted both numbers
	spec.Port, _ = strconv.Atoi(port)
	spec.Scale, _ = strconv.Atoi(scale)
	return spec, nil
}
