package netmanager

import (
	"context"
	"net/netip"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// NetworkClient is the slice of the docker client the manager needs.
type NetworkClient interface {
	NetworkList(ctx context.Context, options types.NetworkListOptions) ([]types.NetworkResource, error)
	NetworkInspect(ctx context.Context, networkID string, options types.NetworkInspectOptions) (types.NetworkResource, error)
	NetworkCreate(ctx context.Context, name string, options types.NetworkCreate) (types.NetworkCreateResponse, error)
	NetworkConnect(ctx context.Context, networkID, containerID string, config *network.EndpointSettings) error
	NetworkDisconnect(ctx context.Context, networkID, containerID string, force bool) error
	NetworkRemove(ctx context.Context, networkID string) error
}

// NetworkManager owns the managed bridge network and its address pool.
// Docker calls and pool bookkeeping are serialized behind one mutex.
type NetworkManager struct {
	mu        sync.Mutex
	client    NetworkClient
	name      string
	id        string
	subnet    netip.Prefix
	pool      *AddressPool
	reserved  map[string]netip.Addr
	addresses map[string]netip.Addr
}

func New(client NetworkClient, cfg model.CloudConfig) (*NetworkManager, error) {
	subnet, err := netip.ParsePrefix(cfg.Subnet)
	if err != nil {
		return nil, errors.Wrap(err, constants.EnsureNetworkError+"failed to parse subnet")
	}
	subnet = subnet.Masked()

	pool, err := NewAddressPool(subnet)
	if err != nil {
		return nil, err
	}

	m := &NetworkManager{
		client:    client,
		name:      cfg.NetworkName,
		subnet:    subnet,
		pool:      pool,
		reserved:  map[string]netip.Addr{},
		addresses: map[string]netip.Addr{},
	}

	for role, value := range map[string]string{
		"proxy":   cfg.ProxyIP,
		"gateway": cfg.GatewayIP,
	} {
		if value == "" {
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, errors.Wrapf(err, constants.EnsureNetworkError+"failed to parse %s ip", role)
		}
		m.reserved[role] = addr
		m.pool.Reserve(addr)
	}
	return m, nil
}

func (m *NetworkManager) Name() string {
	return m.name
}

func (m *NetworkManager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *NetworkManager) Subnet() netip.Prefix {
	return m.subnet
}

// ReservedAddress returns the address configured for a role (proxy,
// gateway), if any.
func (m *NetworkManager) ReservedAddress(role string) (netip.Addr, bool) {
	addr, ok := m.reserved[role]
	return addr, ok
}

// Ensure attaches to the named network if it exists, creating it
// otherwise, and primes the pool from what is already connected.
func (m *NetworkManager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := filters.NewArgs()
	filter.Add("name", m.name)
	networks, err := m.client.NetworkList(ctx, types.NetworkListOptions{Filters: filter})
	if err != nil {
		return errors.Wrap(err, constants.EnsureNetworkError+"failed to list networks")
	}

	// the name filter is a substring match
	for _, n := range networks {
		if n.Name == m.name {
			m.id = n.ID
			logrus.Infof("Attaching to existing network %s (%s)", m.name, m.id)
			return m.prime(ctx)
		}
	}

	aux := map[string]string{}
	for role, addr := range m.reserved {
		aux[role] = addr.String()
	}
	created, err := m.client.NetworkCreate(ctx, m.name, types.NetworkCreate{
		CheckDuplicate: true,
		Driver:         "bridge",
		Attachable:     true,
		IPAM: &network.IPAM{
			Driver: "default",
			Config: []network.IPAMConfig{
				{
					Subnet:     m.subnet.String(),
					AuxAddress: aux,
				},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, constants.EnsureNetworkError+"failed to create network")
	}
	m.id = created.ID
	logrus.Infof("Created network %s (%s) with subnet %s", m.name, m.id, m.subnet)
	return m.prime(ctx)
}

// prime pulls the gateway, aux addresses and already-connected containers
// out of the pool. Callers hold the lock.
func (m *NetworkManager) prime(ctx context.Context) error {
	resource, err := m.client.NetworkInspect(ctx, m.id, types.NetworkInspectOptions{})
	if err != nil {
		return errors.Wrap(err, constants.EnsureNetworkError+"failed to inspect network")
	}

	for _, ipam := range resource.IPAM.Config {
		if gw, err := netip.ParseAddr(ipam.Gateway); err == nil {
			m.pool.Reserve(gw)
		}
		for _, value := range ipam.AuxAddress {
			if addr, err := netip.ParseAddr(value); err == nil {
				m.pool.Reserve(addr)
			}
		}
	}

	for id, endpoint := range resource.Containers {
		addr, err := parseEndpointAddress(endpoint.IPv4Address)
		if err != nil {
			continue
		}
		m.pool.Reserve(addr)
		m.addresses[id] = addr
		logrus.Debugf("Network %s already has container %s at %s", m.name, endpoint.Name, addr)
	}
	return nil
}

// ConnectContainer attaches a container with an explicit IPv4 address,
// either the reserved address for role or the next free one.
func (m *NetworkManager) ConnectContainer(ctx context.Context, containerID, role string) (netip.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var addr netip.Addr
	var fromPool bool
	if role != "" {
		reserved, ok := m.reserved[role]
		if !ok {
			return netip.Addr{}, errors.Errorf(constants.ConnectNetworkError+"no reserved address for role %s", role)
		}
		addr = reserved
	} else {
		next, err := m.pool.Next()
		if err != nil {
			return netip.Addr{}, errors.Wrap(err, constants.ConnectNetworkError+"failed to allocate address")
		}
		addr = next
		fromPool = true
	}

	endpoint := &network.EndpointSettings{
		IPAMConfig: &network.EndpointIPAMConfig{IPv4Address: addr.String()},
	}
	if err := m.client.NetworkConnect(ctx, m.id, containerID, endpoint); err != nil {
		if fromPool {
			m.pool.Release(addr)
		}
		return netip.Addr{}, errors.Wrap(err, constants.ConnectNetworkError+"failed to connect container")
	}
	m.addresses[containerID] = addr
	return addr, nil
}

// DisconnectContainer force-detaches a container and returns its address
// to the pool.
func (m *NetworkManager) DisconnectContainer(ctx context.Context, containerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.client.NetworkDisconnect(ctx, m.id, containerID, true); err != nil {
		return errors.Wrap(err, constants.DisconnectNetworkError+"failed to disconnect container")
	}
	m.releaseLocked(containerID)
	return nil
}

// Remove deletes the managed network.
func (m *NetworkManager) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.id
	if target == "" {
		target = m.name
	}
	if err := m.client.NetworkRemove(ctx, target); err != nil {
		return errors.Wrap(err, constants.RemoveNetworkError+"failed to remove network")
	}
	logrus.Infof("Removed network %s", m.name)
	return nil
}

// Address returns the recorded address of a connected container.
func (m *NetworkManager) Address(containerID string) (netip.Addr, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr, ok := m.addresses[containerID]
	return addr, ok
}

func (m *NetworkManager) recordConnect(containerID string, addr netip.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if known, ok := m.addresses[containerID]; ok && known == addr {
		return
	}
	m.pool.Reserve(addr)
	m.addresses[containerID] = addr
}

func (m *NetworkManager) recordDisconnect(containerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(containerID)
}

// releaseLocked returns a tracked container address to the pool unless it
// is one of the role reservations. Callers hold the lock.
func (m *NetworkManager) releaseLocked(containerID string) {
	addr, ok := m.addresses[containerID]
	if !ok {
		return
	}
	delete(m.addresses, containerID)
	for _, reserved := range m.reserved {
		if reserved == addr {
			return
		}
	}
	m.pool.Release(addr)
}

func parseEndpointAddress(cidr string) (netip.Addr, error) {
	if cidr == "" {
		return netip.Addr{}, errors.New("empty address")
	}
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		addr, err := netip.ParseAddr(cidr)
		if err != nil {
			return netip.Addr{}, errors.WithStack(err)
		}
		return addr, nil
	}
	return prefix.Addr(), nil
}
