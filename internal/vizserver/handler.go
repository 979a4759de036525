package vizserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"aicars/internal/sim"
)

type homeResponse struct {
	Road      sim.RoadView `json:"road"`
	Tick      int          `json:"tick"`
	Watchers  int          `json:"watchers"`
	Dropped   int          `json:"dropped"`
	Endpoints []string     `json:"endpoints"`
}

func (viz *VizService) home(w http.ResponseWriter, _ *http.Request) {
	_, tick := viz.latestFrame()
	viz.mu.RLock()
	dropped := viz.dropped
	viz.mu.RUnlock()

	writeJSON(w, http.StatusOK, homeResponse{
		Road:      viz.road,
		Tick:      tick,
		Watchers:  viz.GetNumberWatchers(),
		Dropped:   dropped,
		Endpoints: []string{"/frame", "/ws"},
	})
}

// frame serves the data of the latest published frame message.
func (viz *VizService) frame(w http.ResponseWriter, _ *http.Request) {
	latest, _ := viz.latestFrame()
	if latest == nil {
		http.Error(w, "no frame published yet", http.StatusNotFound)
		return
	}

	var msg struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(latest, &msg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(msg.Data)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (viz *VizService) stream(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}

	watcher := NewWatcher(c)
	defer func() {
		viz.pool.Remove(watcher.GetId())
		c.Close()
	}()

	if err := c.WriteJSON(message{Type: "init", Data: viz.road}); err != nil {
		log.Print("init:", err)
		return
	}
	if latest, _ := viz.latestFrame(); latest != nil {
		watcher.offer(latest)
	}
	viz.pool.Set(watcher)

	// Reading is mandatory to notice the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-watcher.send:
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Print("write:", err)
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Print("encode:", err)
	}
}
