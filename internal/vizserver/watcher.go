package vizserver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// watcherBuffer is how many frames a slow viewer may lag before frames are
// dropped for it.
const watcherBuffer = 16

type Watcher struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func NewWatcher(conn *websocket.Conn) *Watcher {
	return &Watcher{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, watcherBuffer),
	}
}

func (w *Watcher) GetId() string {
	return w.id
}

// offer queues a message without blocking; it reports false when the
// watcher is behind and the message was dropped.
func (w *Watcher) offer(msg []byte) bool {
	select {
	case w.send <- msg:
		return true
	default:
		return false
	}
}

type WatcherMap struct {
	mu       sync.RWMutex
	watchers map[string]*Watcher
}

func NewWatcherMap() *WatcherMap {
	return &WatcherMap{watchers: make(map[string]*Watcher)}
}

func (m *WatcherMap) Set(w *Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers[w.GetId()] = w
}

func (m *WatcherMap) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watchers, id)
}

func (m *WatcherMap) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.watchers)
}

func (m *WatcherMap) each(fn func(*Watcher)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.watchers {
		fn(w)
	}
}
