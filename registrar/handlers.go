package registrar

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/registry"
	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/utilities/utils"
)

// GetHandlers wires the container lifecycle handlers. Both handlers share
// one inspect cache so a deregister evicts what a register cached.
func GetHandlers(dockerClient SimpleDockerClient, store *registry.Store, network string) map[string][]Handler {
	inspects := cache.New(5*time.Minute, 30*time.Second)

	register := &RegisterHandler{
		client:  dockerClient,
		store:   store,
		network: network,
		cache:   inspects,
	}
	deregister := &DeregisterHandler{
		store: store,
		cache: inspects,
	}

	return map[string][]Handler{
		"container.start":   {register},
		"container.die":     {deregister},
		"container.stop":    {deregister},
		"container.kill":    {deregister},
		"container.destroy": {deregister},
	}
}

// RegisterHandler reflects container starts into the registry. Containers
// that are not on the managed network or carry no service name are not
// ours and are ignored.
type RegisterHandler struct {
	client  SimpleDockerClient
	store   *registry.Store
	network string
	cache   *cache.Cache
}

func (h *RegisterHandler) Handle(event *events.Message) error {
	id := containerID(event)
	if id == "" {
		return nil
	}

	container, err := h.inspect(id)
	if err != nil {
		if client.IsErrNotFound(err) {
			// the container is already gone, make sure it is not registered
			h.cache.Delete(id)
			h.store.Delete(id)
			return nil
		}
		return errors.Wrap(err, constants.RegisterError+"failed to inspect container")
	}

	if container.ContainerJSONBase != nil && container.State != nil && !container.State.Running {
		h.cache.Delete(id)
		h.store.Delete(id)
		return nil
	}

	inst, ok := translate(id, h.network, container)
	if !ok {
		return nil
	}

	index, created := h.store.Put(inst)
	if created {
		logrus.Infof("Registered %s/%s at %s:%d (index %d)", inst.Service, inst.Name, inst.Address, inst.Port, index)
	} else if event.From != simulatedEvent {
		logrus.Debugf("Re-registered %s/%s (index %d)", inst.Service, inst.Name, index)
	}
	return nil
}

func (h *RegisterHandler) inspect(id string) (types.ContainerJSON, error) {
	if cached, ok := h.cache.Get(id); ok {
		return cached.(types.ContainerJSON), nil
	}
	container, err := h.client.ContainerInspect(context.Background(), id)
	if err != nil {
		return container, err
	}
	h.cache.Set(id, container, cache.DefaultExpiration)
	return container, nil
}

// DeregisterHandler drops instances when their container dies.
type DeregisterHandler struct {
	store *registry.Store
	cache *cache.Cache
}

func (h *DeregisterHandler) Handle(event *events.Message) error {
	id := containerID(event)
	if id == "" {
		return nil
	}
	h.cache.Delete(id)
	if index, ok := h.store.Delete(id); ok {
		logrus.Infof("Deregistered container %s (index %d)", utils.ShortID(id), index)
	}
	return nil
}

// translate builds the registry record for a container, deciding service,
// instance name, address and port from its env, labels and exposed ports.
func translate(id, network string, container types.ContainerJSON) (model.ServiceInstance, bool) {
	if container.Config == nil || container.NetworkSettings == nil {
		return model.ServiceInstance{}, false
	}
	endpoint, ok := container.NetworkSettings.Networks[network]
	if !ok || endpoint == nil || endpoint.IPAddress == "" {
		return model.ServiceInstance{}, false
	}

	env := utils.ParseContainerEnv(container.Config.Env)
	service := env[constants.ServiceNameEnv]
	if service == "" {
		service = container.Config.Labels[constants.ServiceNameLabel]
	}
	if service == "" {
		return model.ServiceInstance{}, false
	}

	name := env[constants.ServiceIDEnv]
	if name == "" {
		name = container.Config.Labels[constants.InstanceNameLabel]
	}
	if name == "" && container.ContainerJSONBase != nil {
		name = strings.TrimPrefix(container.Name, "/")
	}
	if name == "" {
		name = utils.ShortID(id)
	}

	port := 0
	if value := env[constants.ServicePortEnv]; value != "" {
		port, _ = strconv.Atoi(value)
	}
	if port == 0 {
		port = lowestExposedPort(container.Config.ExposedPorts)
	}

	created := time.Time{}
	if container.ContainerJSONBase != nil {
		if parsed, err := time.Parse(time.RFC3339Nano, container.Created); err == nil {
			created = parsed
		}
	}

	return model.ServiceInstance{
		ID:      id,
		Service: service,
		Name:    name,
		Address: endpoint.IPAddress,
		Port:    port,
		Labels:  container.Config.Labels,
		Created: created,
	}, true
}

// lowestExposedPort picks the smallest exposed tcp port so the choice is
// deterministic for multi-port images.
func lowestExposedPort(ports nat.PortSet) int {
	best := 0
	for p := range ports {
		if p.Proto() != "tcp" {
			continue
		}
		n := p.Int()
		if best == 0 || n < best {
			best = n
		}
	}
	return best
}
