package proxy

import (
	"bytes"
	"sort"
	"text/template"

	"github.com/pkg/errors"
	"github.com/trungams/simple-cloud/registry"
)

type Server struct {
	Name    string
	Address string
	Port    int
}

// Backend is one service worth of proxy config: a frontend binding the
// service port and the servers behind it.
type Backend struct {
	Service string
	Port    int
	Mode    string
	Balance string
	Servers []Server
}

type ConfigData struct {
	Socket   string
	Backends []Backend
}

const haproxyTemplate = `global
    daemon
    maxconn 4096{{if .Socket}}
    stats socket {{.Socket}} mode 600 level admin{{end}}

defaults
    timeout connect 5s
    timeout client 50s
    timeout server 50s
{{range .Backends}}
frontend {{.Service}}_frontend
    bind *:{{.Port}}
    mode {{.Mode}}
    default_backend {{.Service}}_backend

backend {{.Service}}_backend
    mode {{.Mode}}
    balance {{.Balance}}{{range .Servers}}
    server {{.Name}} {{.Address}}:{{.Port}} check{{end}}
{{end}}`

var configTemplate = template.Must(template.New("haproxy").Parse(haproxyTemplate))

func RenderConfig(data ConfigData) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := configTemplate.Execute(buf, data); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// BuildModel snapshots the registry into backends sorted by service name.
// Services with no usable instance are left out entirely.
func BuildModel(store *registry.Store) []Backend {
	services := store.Services()
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	backends := make([]Backend, 0, len(names))
	for _, name := range names {
		mode, balance := store.OptionsFor(name)
		backend := Backend{
			Service: name,
			Mode:    mode,
			Balance: balance,
		}
		for _, inst := range services[name] {
			if inst.Address == "" || inst.Port == 0 {
				continue
			}
			if backend.Port == 0 {
				backend.Port = inst.Port
			}
			backend.Servers = append(backend.Servers, Server{
				Name:    inst.Name,
				Address: inst.Address,
				Port:    inst.Port,
			})
		}
		if len(backend.Servers) == 0 {
			continue
		}
		backends = append(backends, backend)
	}
	return backends
}
