package model

import "time"

// ServiceInstance is one running container registered for a service. ID is
// the full container ID.
type ServiceInstance struct {
	ID      string            `json:"id"`
	Service string            `json:"service"`
	Name    string            `json:"name"`
	Address string            `json:"address"`
	Port    int               `json:"port"`
	Labels  map[string]string `json:"labels,omitempty"`
	Created time.Time         `json:"created"`
}

func (i ServiceInstance) Copy() ServiceInstance {
	c := i
	if i.Labels != nil {
		c.Labels = make(map[string]string, len(i.Labels))
		for k, v := range i.Labels {
			c.Labels[k] = v
		}
	}
	return c
}

// ServiceSpec is a desired service, either a config file entry or an API
// create payload.
type ServiceSpec struct {
	Name    string   `json:"name" mapstructure:"name"`
	Image   string   `json:"image" mapstructure:"image"`
	Port    int      `json:"port" mapstructure:"port"`
	Scale   int      `json:"scale" mapstructure:"scale"`
	Command []string `json:"command,omitempty" mapstructure:"command"`
}

type ServiceInfo struct {
	Name       string         `json:"name"`
	Image      string         `json:"image"`
	Port       int            `json:"port"`
	Scale      int            `json:"scale"`
	Mode       string         `json:"mode"`
	Balance    string         `json:"balance"`
	Containers []ContainerRef `json:"containers"`
}

// ContainerRef identifies a service container by short ID and name.
type ContainerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type HostInfo struct {
	UUID     string                 `json:"uuid"`
	Hostname string                 `json:"hostname"`
	Info     map[string]interface{} `json:"info"`
}
