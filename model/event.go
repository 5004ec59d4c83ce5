package model

type EventKind string

const (
	EventPut          EventKind = "put"
	EventDelete       EventKind = "delete"
	EventOptionPut    EventKind = "option-put"
	EventOptionDelete EventKind = "option-delete"
)

// RegistryEvent describes one registry mutation. Index is the registry
// modify index at the time of the mutation. Instance is set for put events,
// Service/Key/Value for option events.
type RegistryEvent struct {
	Kind     EventKind        `json:"kind"`
	Index    uint64           `json:"index"`
	Instance *ServiceInstance `json:"instance,omitempty"`
	ID       string           `json:"id,omitempty"`
	Service  string           `json:"service,omitempty"`
	Key      string           `json:"key,omitempty"`
	Value    string           `json:"value,omitempty"`
}
