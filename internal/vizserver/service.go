// Package vizserver streams simulation frames to browser viewers over a
// websocket and serves the latest frame over plain HTTP.
package vizserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"aicars/internal/sim"
)

type message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type VizService struct {
	addr    string
	logOut  io.Writer
	road    sim.RoadView
	pool    *WatcherMap
	dropped int

	mu     sync.RWMutex
	latest []byte
	tick   int
}

// NewVizService serves road to every new viewer. Access logs go to logOut,
// or stdout when nil.
func NewVizService(addr string, road sim.RoadView, logOut io.Writer) *VizService {
	if logOut == nil {
		logOut = os.Stdout
	}
	return &VizService{
		addr:   addr,
		logOut: logOut,
		road:   road,
		pool:   NewWatcherMap(),
	}
}

func (viz *VizService) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/", handlers.CombinedLoggingHandler(viz.logOut,
		http.HandlerFunc(viz.home),
	)).Methods("GET")
	router.Handle("/frame", handlers.CombinedLoggingHandler(viz.logOut,
		http.HandlerFunc(viz.frame),
	)).Methods("GET")
	router.Handle("/ws", handlers.CombinedLoggingHandler(viz.logOut,
		http.HandlerFunc(viz.stream),
	)).Methods("GET")
	return router
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (viz *VizService) ListenAndServe(ctx context.Context) error {
	server := &http.Server{Addr: viz.addr, Handler: viz.Handler()}

	errc := make(chan error, 1)
	go func() {
		log.Println("VIZ Listening on " + viz.addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Publish records frame as the latest one and fans it out to every viewer.
// Viewers that are behind skip the frame.
func (viz *VizService) Publish(frame sim.Frame) error {
	encoded, err := json.Marshal(message{Type: "frame", Data: frame})
	if err != nil {
		return err
	}

	viz.mu.Lock()
	viz.latest = encoded
	viz.tick = frame.Tick
	viz.mu.Unlock()

	viz.pool.each(func(w *Watcher) {
		if !w.offer(encoded) {
			viz.mu.Lock()
			viz.dropped++
			viz.mu.Unlock()
		}
	})
	return nil
}

func (viz *VizService) GetNumberWatchers() int {
	return viz.pool.Size()
}

func (viz *VizService) latestFrame() ([]byte, int) {
	viz.mu.RLock()
	defer viz.mu.RUnlock()
	return viz.latest, viz.tick
}
