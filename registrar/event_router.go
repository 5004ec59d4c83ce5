package registrar

import (
	"context"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/sirupsen/logrus"
)

const workerTimeout = 60 * time.Second

// EventRouter fans docker events out to a fixed worker pool. Handlers are
// looked up by routingKey.
type EventRouter struct {
	handlers      map[string][]Handler
	dockerClient  DockerEventClient
	listener      chan *events.Message
	workers       chan *worker
	workerTimeout time.Duration
}

func NewEventRouter(bufferSize int, workerPoolSize int, dockerClient DockerEventClient,
	handlers map[string][]Handler) (*EventRouter, error) {
	workers := make(chan *worker, workerPoolSize)
	for i := 0; i < workerPoolSize; i++ {
		workers <- &worker{}
	}

	eventRouter := &EventRouter{
		handlers:      handlers,
		dockerClient:  dockerClient,
		listener:      make(chan *events.Message, bufferSize),
		workers:       workers,
		workerTimeout: workerTimeout,
	}

	return eventRouter, nil
}

func (e *EventRouter) Start(ctx context.Context) error {
	logrus.Info("Starting event router.")
	go e.routeEvents(ctx)
	go e.subscribe(ctx)
	return nil
}

// subscribe keeps a filtered events stream open, resubscribing whenever
// the daemon drops it.
func (e *EventRouter) subscribe(ctx context.Context) {
loop:
	for {
		messages, errs := e.dockerClient.Events(ctx, types.EventsOptions{Filters: eventFilters()})
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				if ctx.Err() != nil {
					return
				}
				// a nil error means the stream ended without one
				logrus.Errorf("Docker events stream failed: %v. Resubscribing.", err)
				time.Sleep(time.Second)
				continue loop
			case m := <-messages:
				event := m
				e.listener <- &event
			}
		}
	}
}

func eventFilters() filters.Args {
	filter := filters.NewArgs()
	filter.Add("type", "container")
	filter.Add("type", "network")
	for _, action := range []string{"start", "die", "stop", "kill", "destroy", "connect", "disconnect"} {
		filter.Add("event", action)
	}
	return filter
}

func (e *EventRouter) routeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-e.listener:
			timer := time.NewTimer(e.workerTimeout)
			gotWorker := false
			for !gotWorker {
				select {
				case w := <-e.workers:
					go w.doWork(event, e)
					gotWorker = true
				case <-timer.C:
					logrus.Infof("Timed out waiting for worker. Re-initializing wait.")
				}
			}
			timer.Stop()
		}
	}
}

type worker struct{}

func (w *worker) doWork(event *events.Message, e *EventRouter) {
	defer func() { e.workers <- w }()
	if event == nil {
		return
	}
	if handlers, ok := e.handlers[routingKey(event)]; ok {
		logrus.Debugf("Processing event: %#v", event)
		for _, handler := range handlers {
			if err := handler.Handle(event); err != nil {
				logrus.Errorf("Error processing event %#v. Error: %v", event, err)
			}
		}
	}
}
