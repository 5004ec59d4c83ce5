package worker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Server is the sample web server that service images run. It answers every
// request with the container hostname and address, which makes the load
// balancer rotation easy to observe with curl.
type Server struct {
	listen string
}

func NewServer(listen string) *Server {
	return &Server{listen: listen}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Methods("GET").Path("/").HandlerFunc(hello)
	return router
}

// Run serves until the context is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.listen, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()
	logrus.Infof("Worker listening on %s", s.listen)

	select {
	case err := <-errc:
		return errors.Wrap(err, "worker failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func hello(rw http.ResponseWriter, req *http.Request) {
	logrus.Infof("Received request: Method: %s, Path: %s, Remote: %s", req.Method, req.URL.Path, req.RemoteAddr)
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(rw, "Hostname: %s\nIPv4: %s\n", hostname, ipv4Address(hostname))
}

// ipv4Address resolves the hostname first, which inside a container returns
// the address docker assigned. Outside a container the hostname may not
// resolve, so fall back to the first non-loopback interface address.
func ipv4Address(hostname string) string {
	if addrs, err := net.LookupHost(hostname); err == nil {
		for _, addr := range addrs {
			if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				return addr
			}
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		logrus.Warnf("Failed to list interface addresses: %v", err)
		return ""
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return ""
}
