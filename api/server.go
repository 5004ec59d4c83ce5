package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trungams/simple-cloud/host_info"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/proxy"
	"github.com/trungams/simple-cloud/registry"
)

// Orchestrator is the part of the cloud the API drives.
type Orchestrator interface {
	StartService(ctx context.Context, spec model.ServiceSpec) error
	StopService(ctx context.Context, name string) bool
	ScaleService(ctx context.Context, name string, size int) error
	ListServices(ctx context.Context) []model.ServiceInfo
	ServiceInfo(ctx context.Context, name string) (model.ServiceInfo, bool)
}

// StatsSource reads the proxy admin socket. Nil means no socket is
// configured.
type StatsSource interface {
	Stats() ([]proxy.Stat, error)
	Info() (map[string]string, error)
}

type Server struct {
	listen     string
	store      *registry.Store
	cloud      Orchestrator
	monitor    StatsSource
	collectors []hostInfo.Collector
}

func NewServer(listen string, store *registry.Store, cloud Orchestrator, monitor StatsSource, collectors []hostInfo.Collector) *Server {
	return &Server{
		listen:     listen,
		store:      store,
		cloud:      cloud,
		monitor:    monitor,
		collectors: collectors,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Methods("GET").Path("/ping").HandlerFunc(logRequest(s.ping))
	router.Methods("GET").Path("/v1/services").HandlerFunc(logRequest(s.listServices))
	router.Methods("POST").Path("/v1/services").HandlerFunc(logRequest(s.createService))
	router.Methods("GET").Path("/v1/services/{name}").HandlerFunc(logRequest(s.getService))
	router.Methods("DELETE").Path("/v1/services/{name}").HandlerFunc(logRequest(s.deleteService))
	router.Methods("PUT").Path("/v1/services/{name}/scale").HandlerFunc(logRequest(s.scaleService))
	router.Methods("GET").Path("/v1/services/{name}/config/{key}").HandlerFunc(logRequest(s.getOption))
	router.Methods("PUT").Path("/v1/services/{name}/config/{key}").HandlerFunc(logRequest(s.putOption))
	router.Methods("DELETE").Path("/v1/services/{name}/config/{key}").HandlerFunc(logRequest(s.deleteOption))
	router.Methods("GET").Path("/v1/instances").HandlerFunc(logRequest(s.listInstances))
	router.Methods("GET").Path("/v1/host").HandlerFunc(logRequest(s.hostInfo))
	router.Methods("GET").Path("/v1/proxy/stats").HandlerFunc(logRequest(s.proxyStats))
	router.Methods("GET").Path("/v1/watch").HandlerFunc(s.watch)
	return router
}

// Run serves the API until the context is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.listen, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()
	logrus.Infof("API server listening on %s", s.listen)

	select {
	case err := <-errc:
		return errors.Wrap(err, "api server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logRequest(f http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		logrus.Infof("Received request: Method: %s, Path: %s, Remote: %s", req.Method, req.URL.Path, req.RemoteAddr)
		f(rw, req)
	}
}
