package registry

import (
	"sort"
	"sync"

	"github.com/trungams/simple-cloud/model"
)

// Store is the in-memory registry of live service instances plus the
// per-service proxy options. Every mutation bumps a single modify index
// and is fanned out to watchers in order.
type Store struct {
	mu        sync.RWMutex
	index     uint64
	instances map[string]model.ServiceInstance
	options   map[string]map[string]string
	watchers  map[int]*watcher
	nextWatch int
}

func NewStore() *Store {
	return &Store{
		instances: map[string]model.ServiceInstance{},
		options:   map[string]map[string]string{},
		watchers:  map[int]*watcher{},
	}
}

// Put upserts an instance by container ID. The second return is true when
// the instance was not registered before. A re-put of the same content
// still bumps the index and notifies watchers.
func (s *Store) Put(inst model.ServiceInstance) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.instances[inst.ID]
	s.instances[inst.ID] = inst.Copy()
	s.index++

	event := inst.Copy()
	s.notify(model.RegistryEvent{
		Kind:     model.EventPut,
		Index:    s.index,
		Instance: &event,
		ID:       inst.ID,
		Service:  inst.Service,
	})
	return s.index, !existed
}

// Delete removes an instance. Unknown IDs neither bump the index nor emit
// an event.
func (s *Store) Delete(id string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return s.index, false
	}
	delete(s.instances, id)
	s.index++

	s.notify(model.RegistryEvent{
		Kind:    model.EventDelete,
		Index:   s.index,
		ID:      id,
		Service: inst.Service,
	})
	return s.index, true
}

func (s *Store) Get(id string) (model.ServiceInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	if !ok {
		return model.ServiceInstance{}, false
	}
	return inst.Copy(), true
}

// List returns all instances sorted by service then instance name.
func (s *Store) List() []model.ServiceInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]model.ServiceInstance, 0, len(s.instances))
	for _, inst := range s.instances {
		ret = append(ret, inst.Copy())
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Service != ret[j].Service {
			return ret[i].Service < ret[j].Service
		}
		return ret[i].Name < ret[j].Name
	})
	return ret
}

// Services groups the instances by service name, each group sorted by
// instance name.
func (s *Store) Services() map[string][]model.ServiceInstance {
	ret := map[string][]model.ServiceInstance{}
	for _, inst := range s.List() {
		ret[inst.Service] = append(ret[inst.Service], inst)
	}
	return ret
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

func (s *Store) Index() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}
