package registrar

import (
	"context"
	"fmt"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
)

type testHandler struct {
	handlerFunc func(event *events.Message) error
}

func (th *testHandler) Handle(event *events.Message) error {
	return th.handlerFunc(event)
}

type fakeEventClient struct {
	messages   chan events.Message
	errs       chan error
	containers []types.Container
}

func newFakeEventClient() *fakeEventClient {
	return &fakeEventClient{
		messages: make(chan events.Message, 16),
		errs:     make(chan error, 16),
	}
}

func (f *fakeEventClient) Events(ctx context.Context, options types.EventsOptions) (<-chan events.Message, <-chan error) {
	return f.messages, f.errs
}

func (f *fakeEventClient) ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error) {
	return f.containers, nil
}

type notFoundError struct {
	id string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("no such container: %s", e.id)
}

func (e notFoundError) NotFound() {
}

type fakeInspectClient struct {
	mu         sync.Mutex
	containers map[string]types.ContainerJSON
	inspected  int
}

func newFakeInspectClient() *fakeInspectClient {
	return &fakeInspectClient{containers: map[string]types.ContainerJSON{}}
}

func (f *fakeInspectClient) ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspected++
	inspect, ok := f.containers[id]
	if !ok {
		return types.ContainerJSON{}, notFoundError{id: id}
	}
	return inspect, nil
}

func (f *fakeInspectClient) inspectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inspected
}

type containerOpts struct {
	id      string
	name    string
	env     []string
	labels  map[string]string
	network string
	ip      string
	exposed []string
	stopped bool
}

func buildContainer(opts containerOpts) types.ContainerJSON {
	inspect := types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:      opts.id,
			Name:    "/" + opts.name,
			Created: "2023-04-01T10:00:00.000000000Z",
			State:   &types.ContainerState{Running: !opts.stopped},
		},
		Config: &container.Config{
			Env:    opts.env,
			Labels: opts.labels,
		},
		NetworkSettings: &types.NetworkSettings{
			Networks: map[string]*network.EndpointSettings{},
		},
	}
	if opts.network != "" {
		inspect.NetworkSettings.Networks[opts.network] = &network.EndpointSettings{IPAddress: opts.ip}
	}
	if len(opts.exposed) > 0 {
		portSet := nat.PortSet{}
		for _, port := range opts.exposed {
			portSet[nat.Port(port)] = struct{}{}
		}
		inspect.Config.ExposedPorts = portSet
	}
	return inspect
}

func startEvent(id string) *events.Message {
	return &events.Message{
		Type:   "container",
		Action: "start",
		Status: "start",
		Actor:  events.Actor{ID: id},
	}
}

func dieEvent(id string) *events.Message {
	return &events.Message{
		Type:   "container",
		Action: "die",
		Status: "die",
		Actor:  events.Actor{ID: id},
	}
}
