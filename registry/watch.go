package registry

import (
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/model"
)

type watcher struct {
	id int
	ch chan model.RegistryEvent
}

// Watch subscribes to registry events. Events are delivered in mutation
// order per watcher; a watcher whose buffer is full has the event dropped,
// so slow consumers must re-snapshot via List. The cancel func closes the
// channel.
func (s *Store) Watch(buffer int) (<-chan model.RegistryEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w := &watcher{
		id: s.nextWatch,
		ch: make(chan model.RegistryEvent, buffer),
	}
	s.nextWatch++
	s.watchers[w.id] = w

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[w.id]; !ok {
			return
		}
		delete(s.watchers, w.id)
		close(w.ch)
	}
	return w.ch, cancel
}

// notify must run with the write lock held so watcher channels only ever
// have one sender.
func (s *Store) notify(event model.RegistryEvent) {
	for _, w := range s.watchers {
		select {
		case w.ch <- event:
		default:
			logrus.Warnf("Registry watcher %d is behind, dropping event %d", w.id, event.Index)
		}
	}
}
