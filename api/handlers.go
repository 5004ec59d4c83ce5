package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/trungams/simple-cloud/host_info"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/registry"
	"github.com/trungams/simple-cloud/utilities/config"
	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/utilities/utils"
)

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(rw http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(rw, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func decodeBody(req *http.Request) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Server) ping(rw http.ResponseWriter, req *http.Request) {
	rw.Write([]byte("pong"))
}

func (s *Server) listServices(rw http.ResponseWriter, req *http.Request) {
	writeJSON(rw, http.StatusOK, s.cloud.ListServices(req.Context()))
}

func (s *Server) createService(rw http.ResponseWriter, req *http.Request) {
	body, err := decodeBody(req)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	spec, err := utils.DecodeServiceSpec(body)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if err := config.ValidateServiceSpec(spec); err != nil {
		writeError(rw, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	if err := s.cloud.StartService(req.Context(), spec); err != nil {
		writeError(rw, http.StatusConflict, "%v", err)
		return
	}
	info, _ := s.cloud.ServiceInfo(req.Context(), spec.Name)
	writeJSON(rw, http.StatusCreated, info)
}

func (s *Server) getService(rw http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	info, ok := s.cloud.ServiceInfo(req.Context(), name)
	if !ok {
		writeError(rw, http.StatusNotFound, "service %s does not exist", name)
		return
	}
	writeJSON(rw, http.StatusOK, info)
}

func (s *Server) deleteService(rw http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if !s.cloud.StopService(req.Context(), name) {
		writeError(rw, http.StatusNotFound, "service %s does not exist", name)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) scaleService(rw http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if _, ok := s.cloud.ServiceInfo(req.Context(), name); !ok {
		writeError(rw, http.StatusNotFound, "service %s does not exist", name)
		return
	}

	body, err := decodeBody(req)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	value, ok := utils.GetFieldsIfExist(body, "scale")
	if !ok {
		writeError(rw, http.StatusBadRequest, "missing field scale")
		return
	}

	if err := s.cloud.ScaleService(req.Context(), name, utils.InterfaceToInt(value)); err != nil {
		writeError(rw, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	info, _ := s.cloud.ServiceInfo(req.Context(), name)
	writeJSON(rw, http.StatusOK, info)
}

func (s *Server) getOption(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	name, key := vars["name"], vars["key"]
	if _, ok := s.cloud.ServiceInfo(req.Context(), name); !ok {
		writeError(rw, http.StatusNotFound, "service %s does not exist", name)
		return
	}
	if !registry.IsOptionKey(key) {
		writeError(rw, http.StatusNotFound, "unknown config key %s", key)
		return
	}

	value, ok := s.store.Option(name, key)
	if !ok {
		// unset keys read as the proxy defaults
		if key == constants.OptionMode {
			value = constants.DefaultMode
		} else {
			value = constants.DefaultBalance
		}
	}
	writeJSON(rw, http.StatusOK, map[string]string{"service": name, "key": key, "value": value})
}

func (s *Server) putOption(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	name, key := vars["name"], vars["key"]
	if _, ok := s.cloud.ServiceInfo(req.Context(), name); !ok {
		writeError(rw, http.StatusNotFound, "service %s does not exist", name)
		return
	}

	body, err := decodeBody(req)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	raw, ok := utils.GetFieldsIfExist(body, "value")
	if !ok {
		writeError(rw, http.StatusBadRequest, "missing field value")
		return
	}

	index, err := s.store.SetOption(name, key, utils.InterfaceToString(raw))
	if err != nil {
		writeError(rw, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]interface{}{"service": name, "key": key, "index": index})
}

func (s *Server) deleteOption(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	name, key := vars["name"], vars["key"]
	if _, ok := s.cloud.ServiceInfo(req.Context(), name); !ok {
		writeError(rw, http.StatusNotFound, "service %s does not exist", name)
		return
	}
	if !registry.IsOptionKey(key) {
		writeError(rw, http.StatusNotFound, "unknown config key %s", key)
		return
	}
	if _, ok := s.store.DeleteOption(name, key); !ok {
		writeError(rw, http.StatusNotFound, "config key %s is not set for service %s", key, name)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) listInstances(rw http.ResponseWriter, req *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]interface{}{
		"index":     s.store.Index(),
		"instances": s.store.List(),
	})
}

func (s *Server) hostInfo(rw http.ResponseWriter, req *http.Request) {
	uuid, err := config.CloudUUID()
	if err != nil {
		logrus.Warnf("Failed to read cloud uuid: %v", err)
	}
	hostname, err := config.Hostname()
	if err != nil {
		logrus.Warnf("Failed to read hostname: %v", err)
	}
	writeJSON(rw, http.StatusOK, model.HostInfo{
		UUID:     uuid,
		Hostname: hostname,
		Info:     hostInfo.CollectData(s.collectors),
	})
}

func (s *Server) proxyStats(rw http.ResponseWriter, req *http.Request) {
	if s.monitor == nil {
		writeError(rw, http.StatusServiceUnavailable, "proxy admin socket is not configured")
		return
	}
	stats, err := s.monitor.Stats()
	if err != nil {
		writeError(rw, http.StatusServiceUnavailable, "%v", err)
		return
	}
	info, err := s.monitor.Info()
	if err != nil {
		writeError(rw, http.StatusServiceUnavailable, "%v", err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]interface{}{"info": info, "stats": stats})
}
