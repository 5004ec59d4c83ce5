package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	watchBuffer  = 64
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// watch streams registry events to the client as JSON messages until the
// client goes away. A client that cannot keep up with its buffer misses
// events and should re-read /v1/instances.
func (s *Server) watch(rw http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		logrus.Errorf("Error during upgrade: [%v]", err)
		return
	}
	defer closeConnection(ws)

	events, cancel := s.store.Watch(watchBuffer)
	defer cancel()

	// drain control frames and notice the peer hanging up
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logrus.Debugf("Watch client connected: %s", req.RemoteAddr)
	for {
		select {
		case <-done:
			return
		case <-req.Context().Done():
			return
		case event := <-events:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteJSON(event); err != nil {
				logrus.Debugf("Watch client %s write failed: %v", req.RemoteAddr, err)
				return
			}
		}
	}
}

func closeConnection(ws *websocket.Conn) {
	ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	ws.Close()
}
