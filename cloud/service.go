package cloud

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/registry"
	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/utilities/utils"
)

type record struct {
	id   string
	name string
}

// Service tracks the containers backing one service. All methods are
// called with the cloud lock held.
type Service struct {
	Name    string
	Image   string
	Port    int
	Command []string

	client     ContainerClient
	network    string
	containers []record
	idx        int
}

func newService(client ContainerClient, networkName string, spec model.ServiceSpec) *Service {
	return &Service{
		Name:    spec.Name,
		Image:   spec.Image,
		Port:    spec.Port,
		Command: spec.Command,
		client:  client,
		network: networkName,
		idx:     1,
	}
}

// start brings up scale more containers. Individual failures are logged
// and the loop keeps going, a service can come up partially.
func (s *Service) start(ctx context.Context, scale int) {
	for i := 0; i < scale; i++ {
		rec, err := s.runContainer(ctx)
		if err != nil {
			logrus.Errorf("Failed to start a container for service %s: %v", s.Name, err)
			continue
		}
		s.containers = append(s.containers, rec)
	}
}

func (s *Service) runContainer(ctx context.Context) (record, error) {
	name := utils.FormatContainerName(s.Name, s.idx, s.network)
	exposed := nat.Port(fmt.Sprintf("%d/tcp", s.Port))

	config := &container.Config{
		Image: s.Image,
		Cmd:   s.Command,
		Env: []string{
			fmt.Sprintf("%s=%s", constants.ServiceNameEnv, s.Name),
			fmt.Sprintf("%s=%s", constants.ServiceIDEnv, utils.FormatInstanceName(s.Name, s.idx)),
		},
		ExposedPorts: nat.PortSet{exposed: struct{}{}},
	}
	hostConfig := &container.HostConfig{
		AutoRemove: true,
		// an empty binding publishes the service port on a random host port
		PortBindings: nat.PortMap{exposed: []nat.PortBinding{{}}},
	}
	networking := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			s.network: {},
		},
	}

	created, err := s.client.ContainerCreate(ctx, config, hostConfig, networking, nil, name)
	// if image doesn't exist
	if client.IsErrNotFound(err) {
		if err := pullImage(ctx, s.client, s.Image); err != nil {
			return record{}, err
		}
		created, err = s.client.ContainerCreate(ctx, config, hostConfig, networking, nil, name)
	}
	if err != nil {
		return record{}, errors.Wrap(err, constants.CreateContainerError+"failed to create container")
	}

	if err := s.client.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		// free the name again
		if rmErr := s.client.ContainerRemove(ctx, created.ID, types.ContainerRemoveOptions{Force: true}); rmErr != nil && !client.IsErrNotFound(rmErr) {
			logrus.Errorf("Failed to remove container %s after start failure: %v", name, rmErr)
		}
		return record{}, errors.Wrap(err, constants.StartContainerError+"failed to start container")
	}

	logrus.Infof("Started container %s (%s)", name, utils.ShortID(created.ID))
	s.idx++
	return record{id: created.ID, name: name}, nil
}

// refresh drops containers that are gone or no longer running.
func (s *Service) refresh(ctx context.Context) {
	alive := s.containers[:0]
	for _, rec := range s.containers {
		inspect, err := s.client.ContainerInspect(ctx, rec.id)
		if err != nil {
			if !client.IsErrNotFound(err) {
				logrus.Debugf("Failed to inspect container %s: %v", utils.ShortID(rec.id), err)
			}
			continue
		}
		if inspect.State == nil || !inspect.State.Running {
			continue
		}
		alive = append(alive, rec)
	}
	s.containers = alive
}

// scale grows or shrinks the service. Shrinking stops containers from the
// tail, the oldest instances survive.
func (s *Service) scale(ctx context.Context, size int) error {
	if size < 1 {
		return errors.Errorf(constants.ScaleServiceError+"invalid scale %d for service %s", size, s.Name)
	}

	s.refresh(ctx)
	current := len(s.containers)
	switch {
	case size == current:
	case size < current:
		for _, rec := range s.containers[size:] {
			s.stopContainer(ctx, rec)
		}
		s.containers = s.containers[:size]
	default:
		s.start(ctx, size-current)
	}
	return nil
}

// stop removes every container of the service.
func (s *Service) stop(ctx context.Context) {
	for _, rec := range s.containers {
		s.stopContainer(ctx, rec)
	}
	s.containers = nil
}

func (s *Service) stopContainer(ctx context.Context, rec record) {
	logrus.Infof("Stopping container %s", utils.ShortID(rec.id))
	if err := s.client.ContainerRemove(ctx, rec.id, types.ContainerRemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
		logrus.Warnf("Failed to remove container %s: %v", utils.ShortID(rec.id), err)
	}
}

func (s *Service) info(store *registry.Store) model.ServiceInfo {
	mode, balance := store.OptionsFor(s.Name)
	refs := []model.ContainerRef{}
	for _, rec := range s.containers {
		refs = append(refs, model.ContainerRef{ID: utils.ShortID(rec.id), Name: rec.name})
	}
	return model.ServiceInfo{
		Name:       s.Name,
		Image:      s.Image,
		Port:       s.Port,
		Scale:      len(s.containers),
		Mode:       mode,
		Balance:    balance,
		Containers: refs,
	}
}
