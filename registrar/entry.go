package registrar

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/utilities/constants"
)

func NewDockerEventsProcessor(poolSize int, client DockerEventClient, handlers map[string][]Handler) *DockerEventsProcessor {
	return &DockerEventsProcessor{
		poolSize: poolSize,
		client:   client,
		handlers: handlers,
	}
}

type DockerEventsProcessor struct {
	poolSize int
	client   DockerEventClient
	handlers map[string][]Handler
	router   *EventRouter
}

// Process starts the router and then replays every running container as a
// simulated start event, so a restart of this process resyncs the
// registry with what is actually running.
func (de *DockerEventsProcessor) Process(ctx context.Context) error {
	router, err := NewEventRouter(de.poolSize, de.poolSize, de.client, de.handlers)
	if err != nil {
		return err
	}
	de.router = router
	router.Start(ctx)

	filter := filters.NewArgs()
	filter.Add("status", "running")
	listOpts := types.ContainerListOptions{
		All:     true,
		Filters: filter,
	}
	containers, err := de.client.ContainerList(ctx, listOpts)
	if err != nil {
		return errors.Wrap(err, constants.RegisterError+"failed to list containers for replay")
	}

	for _, c := range containers {
		event := &events.Message{
			ID:     c.ID,
			Status: "start",
			Type:   "container",
			Action: "start",
			From:   simulatedEvent,
			Actor: events.Actor{
				ID:         c.ID,
				Attributes: c.Labels,
			},
		}
		router.listener <- event
	}
	if len(containers) > 0 {
		logrus.Infof("Replayed %d running containers", len(containers))
	}
	return nil
}
