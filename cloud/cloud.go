package cloud

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/registry"
	"github.com/trungams/simple-cloud/utilities/config"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// Cloud owns the managed network and the services running on it.
type Cloud struct {
	mu sync.Mutex

	client   ContainerClient
	network  Network
	store    *registry.Store
	initial  []model.ServiceSpec
	services map[string]*Service
	// service port → owner, frontends bind one port per service
	usedPorts map[int]string
}

func New(client ContainerClient, network Network, store *registry.Store, initial []model.ServiceSpec) *Cloud {
	return &Cloud{
		client:    client,
		network:   network,
		store:     store,
		initial:   initial,
		services:  make(map[string]*Service),
		usedPorts: make(map[int]string),
	}
}

// Bootstrap brings up the network and the services from the config file.
// A service that fails to start is logged and skipped, like any other
// partial start.
func (c *Cloud) Bootstrap(ctx context.Context) error {
	if err := c.network.Ensure(ctx); err != nil {
		return err
	}
	for _, spec := range c.initial {
		if err := c.StartService(ctx, spec); err != nil {
			logrus.Errorf("Failed to start initial service %s: %v", spec.Name, err)
		}
	}
	return nil
}

// StartService creates a new service and brings up its containers.
func (c *Cloud) StartService(ctx context.Context, spec model.ServiceSpec) error {
	if err := config.ValidateServiceSpec(spec); err != nil {
		return errors.Wrap(err, constants.StartServiceError+"invalid service spec")
	}
	if spec.Scale < 1 {
		spec.Scale = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.services[spec.Name]; ok {
		return errors.Errorf(constants.StartServiceError+"service %s already exists", spec.Name)
	}
	if owner, ok := c.usedPorts[spec.Port]; ok {
		return errors.Errorf(constants.StartServiceError+"port %d has already been used by service %s", spec.Port, owner)
	}

	service := newService(c.client, c.network.Name(), spec)
	service.start(ctx, spec.Scale)

	c.services[spec.Name] = service
	c.usedPorts[spec.Port] = spec.Name
	logrus.Infof("Started service %s with %d containers", spec.Name, len(service.containers))
	return nil
}

// StopService removes a service and its containers. Returns false when
// the service does not exist.
func (c *Cloud) StopService(ctx context.Context, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	service, ok := c.services[name]
	if !ok {
		return false
	}
	service.stop(ctx)
	delete(c.services, name)
	delete(c.usedPorts, service.Port)
	logrus.Infof("Removed service: %s", name)
	return true
}

// ScaleService resizes a service to the requested number of containers.
func (c *Cloud) ScaleService(ctx context.Context, name string, size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	service, ok := c.services[name]
	if !ok {
		return errors.Errorf(constants.ScaleServiceError+"service %s does not exist", name)
	}
	return service.scale(ctx, size)
}

// ListServices returns the current services sorted by name.
func (c *Cloud) ListServices(ctx context.Context) []model.ServiceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := []model.ServiceInfo{}
	for _, service := range c.services {
		service.refresh(ctx)
		infos = append(infos, service.info(c.store))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// ServiceInfo describes one service, false when it does not exist.
func (c *Cloud) ServiceInfo(ctx context.Context, name string) (model.ServiceInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	service, ok := c.services[name]
	if !ok {
		return model.ServiceInfo{}, false
	}
	service.refresh(ctx)
	return service.info(c.store), true
}

// Refresh re-checks every tracked container against the daemon.
func (c *Cloud) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, service := range c.services {
		service.refresh(ctx)
	}
}

// Cleanup stops every service and removes the managed network.
func (c *Cloud) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logrus.Info("Cleaning up...")
	for name, service := range c.services {
		service.stop(ctx)
		delete(c.services, name)
		delete(c.usedPorts, service.Port)
	}
	if err := c.network.Remove(ctx); err != nil {
		return errors.Wrap(err, constants.CleanupError+"failed to remove network")
	}
	logrus.Info("Removed running services and docker network")
	return nil
}
