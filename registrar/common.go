package registrar

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
)

const simulatedEvent = "-simulated-"

// Handler consumes one docker event.
type Handler interface {
	Handle(*events.Message) error
}

type SimpleDockerClient interface {
	ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error)
}

// DockerEventClient is the slice of the docker client the router and the
// replay need.
type DockerEventClient interface {
	Events(ctx context.Context, options types.EventsOptions) (<-chan events.Message, <-chan error)
	ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error)
}

// routingKey is how the handlers map is keyed: "<type>.<action>". Events
// from old daemons and simulated replays may only carry Status; those are
// container events.
func routingKey(event *events.Message) string {
	eventType := event.Type
	if eventType == "" {
		eventType = "container"
	}
	action := event.Action
	if action == "" {
		action = event.Status
	}
	// exec and health_status actions carry a suffix, e.g.
	// "health_status: healthy"
	if i := strings.IndexByte(action, ':'); i >= 0 {
		action = strings.TrimSpace(action[:i])
	}
	return eventType + "." + action
}

// containerID digs the container ID out of an event, old or new style.
func containerID(event *events.Message) string {
	if event.Actor.ID != "" {
		return event.Actor.ID
	}
	return event.ID
}
