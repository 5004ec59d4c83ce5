package netmanager

import (
	"context"
	"net/netip"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/utilities/constants"
)

type InspectClient interface {
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
}

// ConnectHandler tracks network connect events on the managed network so
// the pool stays accurate even for containers attached behind our back.
type ConnectHandler struct {
	Client  InspectClient
	Manager *NetworkManager
}

func (h *ConnectHandler) Handle(event *events.Message) error {
	if !h.Manager.owns(event) {
		return nil
	}
	containerID := event.Actor.Attributes["container"]
	if containerID == "" {
		return nil
	}

	inspect, err := h.Client.ContainerInspect(context.Background(), containerID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return errors.Wrap(err, constants.ConnectNetworkError+"failed to inspect connected container")
	}
	addr, ok := endpointAddress(inspect, h.Manager.Name())
	if !ok {
		return nil
	}
	h.Manager.recordConnect(containerID, addr)
	logrus.Debugf("Recorded %s for container %s on network %s", addr, containerID, h.Manager.Name())
	return nil
}

// DisconnectHandler releases addresses when containers leave the managed
// network.
type DisconnectHandler struct {
	Manager *NetworkManager
}

func (h *DisconnectHandler) Handle(event *events.Message) error {
	if !h.Manager.owns(event) {
		return nil
	}
	containerID := event.Actor.Attributes["container"]
	if containerID == "" {
		return nil
	}
	h.Manager.recordDisconnect(containerID)
	return nil
}

// owns reports whether a network event is about the managed network.
func (m *NetworkManager) owns(event *events.Message) bool {
	if event.Actor.ID != "" && event.Actor.ID == m.ID() {
		return true
	}
	return event.Actor.Attributes["name"] == m.name
}

func endpointAddress(inspect types.ContainerJSON, networkName string) (netip.Addr, bool) {
	if inspect.NetworkSettings == nil {
		return netip.Addr{}, false
	}
	endpoint, ok := inspect.NetworkSettings.Networks[networkName]
	if !ok || endpoint == nil {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(endpoint.IPAddress)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}
