package netmanager

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/network"
	"gopkg.in/check.v1"

	"github.com/trungams/simple-cloud/model"
)

type NetworkManagerTestSuite struct {
}

var _ = check.Suite(&NetworkManagerTestSuite{})

type fakeNetworkClient struct {
	networks    []types.NetworkResource
	connects    map[string]string
	disconnects []string
	removed     []string
	connectErr  error
	containers  map[string]types.ContainerJSON
}

func newFakeNetworkClient() *fakeNetworkClient {
	return &fakeNetworkClient{
		connects:   map[string]string{},
		containers: map[string]types.ContainerJSON{},
	}
}

func (f *fakeNetworkClient) NetworkList(ctx context.Context, options types.NetworkListOptions) ([]types.NetworkResource, error) {
	return f.networks, nil
}

func (f *fakeNetworkClient) NetworkInspect(ctx context.Context, networkID string, options types.NetworkInspectOptions) (types.NetworkResource, error) {
	for _, n := range f.networks {
		if n.ID == networkID || n.Name == networkID {
			return n, nil
		}
	}
	return types.NetworkResource{}, fmt.Errorf("network %s not found", networkID)
}

func (f *fakeNetworkClient) NetworkCreate(ctx context.Context, name string, options types.NetworkCreate) (types.NetworkCreateResponse, error) {
	resource := types.NetworkResource{
		ID:   "netid-" + name,
		Name: name,
	}
	if options.IPAM != nil {
		resource.IPAM = *options.IPAM
		for i := range resource.IPAM.Config {
			prefix := netip.MustParsePrefix(resource.IPAM.Config[i].Subnet)
			resource.IPAM.Config[i].Gateway = prefix.Addr().Next().String()
		}
	}
	f.networks = append(f.networks, resource)
	return types.NetworkCreateResponse{ID: resource.ID}, nil
}

func (f *fakeNetworkClient) NetworkConnect(ctx context.Context, networkID, containerID string, config *network.EndpointSettings) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connects[containerID] = config.IPAMConfig.IPv4Address
	return nil
}

func (f *fakeNetworkClient) NetworkDisconnect(ctx context.Context, networkID, containerID string, force bool) error {
	f.disconnects = append(f.disconnects, containerID)
	return nil
}

func (f *fakeNetworkClient) NetworkRemove(ctx context.Context, networkID string) error {
	f.removed = append(f.removed, networkID)
	return nil
}

func (f *fakeNetworkClient) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	inspect, ok := f.containers[containerID]
	if !ok {
		return types.ContainerJSON{}, fmt.Errorf("container %s not found", containerID)
	}
	return inspect, nil
}

func testConfig() model.CloudConfig {
	return model.CloudConfig{
		Subnet:      "172.18.0.0/24",
		NetworkName: "my_network",
		ProxyIP:     "172.18.0.2",
	}
}

func (s *NetworkManagerTestSuite) TestEnsureCreatesNetwork(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)

	err = manager.Ensure(context.Background())
	c.Assert(err, check.IsNil)
	c.Assert(manager.ID(), check.Equals, "netid-my_network")

	// gateway .1 and reserved proxy .2 are out of the pool
	addr, err := manager.ConnectContainer(context.Background(), "c1", "")
	c.Assert(err, check.IsNil)
	c.Assert(addr.String(), check.Equals, "172.18.0.3")
	c.Assert(cli.connects["c1"], check.Equals, "172.18.0.3")
}

func (s *NetworkManagerTestSuite) TestEnsureAttachesAndPrimes(c *check.C) {
	cli := newFakeNetworkClient()
	cli.networks = []types.NetworkResource{
		{
			ID:   "existing-id",
			Name: "my_network",
			IPAM: network.IPAM{
				Config: []network.IPAMConfig{{Subnet: "172.18.0.0/24", Gateway: "172.18.0.1"}},
			},
			Containers: map[string]types.EndpointResource{
				"other": {Name: "other_container", IPv4Address: "172.18.0.3/24"},
			},
		},
	}

	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	err = manager.Ensure(context.Background())
	c.Assert(err, check.IsNil)
	c.Assert(manager.ID(), check.Equals, "existing-id")

	addr, ok := manager.Address("other")
	c.Assert(ok, check.Equals, true)
	c.Assert(addr.String(), check.Equals, "172.18.0.3")

	next, err := manager.ConnectContainer(context.Background(), "c1", "")
	c.Assert(err, check.IsNil)
	c.Assert(next.String(), check.Equals, "172.18.0.4")
}

func (s *NetworkManagerTestSuite) TestConnectReservedRole(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	c.Assert(manager.Ensure(context.Background()), check.IsNil)

	addr, err := manager.ConnectContainer(context.Background(), "proxy1", "proxy")
	c.Assert(err, check.IsNil)
	c.Assert(addr.String(), check.Equals, "172.18.0.2")

	_, err = manager.ConnectContainer(context.Background(), "x", "gateway")
	c.Assert(err, check.ErrorMatches, ".*no reserved address for role gateway.*")
}

func (s *NetworkManagerTestSuite) TestConnectFailureReleases(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	c.Assert(manager.Ensure(context.Background()), check.IsNil)

	cli.connectErr = fmt.Errorf("daemon said no")
	_, err = manager.ConnectContainer(context.Background(), "c1", "")
	c.Assert(err, check.NotNil)

	cli.connectErr = nil
	addr, err := manager.ConnectContainer(context.Background(), "c1", "")
	c.Assert(err, check.IsNil)
	c.Assert(addr.String(), check.Equals, "172.18.0.3")
}

func (s *NetworkManagerTestSuite) TestDisconnectReleases(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	c.Assert(manager.Ensure(context.Background()), check.IsNil)

	addr, err := manager.ConnectContainer(context.Background(), "c1", "")
	c.Assert(err, check.IsNil)

	err = manager.DisconnectContainer(context.Background(), "c1")
	c.Assert(err, check.IsNil)
	c.Assert(cli.disconnects, check.DeepEquals, []string{"c1"})

	again, err := manager.ConnectContainer(context.Background(), "c2", "")
	c.Assert(err, check.IsNil)
	c.Assert(again, check.Equals, addr)
}

func networkEvent(action, networkID, networkName, containerID string) *events.Message {
	return &events.Message{
		Type:   "network",
		Action: action,
		Actor: events.Actor{
			ID: networkID,
			Attributes: map[string]string{
				"name":      networkName,
				"container": containerID,
			},
		},
	}
}

func (s *NetworkManagerTestSuite) TestConnectHandlerRecords(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	c.Assert(manager.Ensure(context.Background()), check.IsNil)

	cli.containers["c9"] = types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{ID: "c9", Name: "/stray"},
		Config:            &container.Config{},
		NetworkSettings: &types.NetworkSettings{
			Networks: map[string]*network.EndpointSettings{
				"my_network": {IPAddress: "172.18.0.9"},
			},
		},
	}

	handler := &ConnectHandler{Client: cli, Manager: manager}
	err = handler.Handle(networkEvent("connect", manager.ID(), "my_network", "c9"))
	c.Assert(err, check.IsNil)

	addr, ok := manager.Address("c9")
	c.Assert(ok, check.Equals, true)
	c.Assert(addr.String(), check.Equals, "172.18.0.9")
}

func (s *NetworkManagerTestSuite) TestConnectHandlerIgnoresForeignNetwork(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	c.Assert(manager.Ensure(context.Background()), check.IsNil)

	handler := &ConnectHandler{Client: cli, Manager: manager}
	err = handler.Handle(networkEvent("connect", "other-id", "bridge", "c9"))
	c.Assert(err, check.IsNil)

	_, ok := manager.Address("c9")
	c.Assert(ok, check.Equals, false)
}

func (s *NetworkManagerTestSuite) TestDisconnectHandlerReleases(c *check.C) {
	cli := newFakeNetworkClient()
	manager, err := New(cli, testConfig())
	c.Assert(err, check.IsNil)
	c.Assert(manager.Ensure(context.Background()), check.IsNil)

	addr, err := manager.ConnectContainer(context.Background(), "c1", "")
	c.Assert(err, check.IsNil)

	handler := &DisconnectHandler{Manager: manager}
	err = handler.Handle(networkEvent("disconnect", manager.ID(), "my_network", "c1"))
	c.Assert(err, check.IsNil)

	next, err := manager.ConnectContainer(context.Background(), "c2", "")
	c.Assert(err, check.IsNil)
	c.Assert(next, check.Equals, addr)
}
