package web

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/tasks"
	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 64
	writeWait    = 5 * time.Second
	logHistory   = 200
)

// Event is one message on the websocket stream.
type Event struct {
	Type     string    `json:"type"` // "snapshot", "status" or "log"
	RunID    string    `json:"run_id,omitempty"`
	Row      int       `json:"row,omitempty"` // 1-based; zero for run-level lines
	VideoID  string    `json:"video_id,omitempty"`
	State    string    `json:"state,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Level    string    `json:"level,omitempty"`
	Text     string    `json:"text,omitempty"`
	Time     time.Time `json:"time,omitzero"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// RowStatus is the latest known state of one row.
type RowStatus struct {
	Row     int    `json:"row"`
	VideoID string `json:"video_id"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
}

// Snapshot is the full current view served by /status and sent to new subscribers.
type Snapshot struct {
	RunID  string         `json:"run_id"`
	Counts map[string]int `json:"counts"`
	Rows   []RowStatus    `json:"rows"`
	Log    []string       `json:"log"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub is a [tasks.Observer] that keeps a live snapshot of a run and fans events out to websocket subscribers.
//
// A subscriber that cannot keep up is disconnected; the pipeline never waits on the network.
type Hub struct {
	logger *log.Logger

	mu       sync.RWMutex
	runID    string
	rows     []RowStatus
	position map[int]int
	lines    []string
	clients  map[*client]struct{}
}

// NewHub creates a hub with no tracked rows.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:   logger,
		position: map[int]int{},
		clients:  map[*client]struct{}{},
	}
}

// Track resets the snapshot to rows, all Ready, under runID.
func (h *Hub) Track(runID string, rows []models.Row) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runID = runID
	h.rows = make([]RowStatus, len(rows))
	h.position = make(map[int]int, len(rows))
	h.lines = nil
	for i, row := range rows {
		h.position[row.Index] = i
		h.rows[i] = RowStatus{Row: row.Index + 1, VideoID: row.VideoID, State: models.Ready.String()}
	}
}

// Snapshot returns a copy of the current view.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() Snapshot {
	s := Snapshot{
		RunID:  h.runID,
		Counts: map[string]int{},
		Rows:   append([]RowStatus{}, h.rows...),
		Log:    append([]string{}, h.lines...),
	}
	for _, r := range h.rows {
		s.Counts[r.State]++
	}
	return s
}

func (h *Hub) OnStatus(u tasks.StatusUpdate) {
	h.mu.Lock()
	if i, ok := h.position[u.Index]; ok {
		h.rows[i].State = u.State.String()
		h.rows[i].Reason = u.Reason
	}
	h.mu.Unlock()

	h.broadcast(Event{
		Type:    "status",
		RunID:   u.RunID,
		Row:     u.Index + 1,
		VideoID: u.VideoID,
		State:   u.State.String(),
		Reason:  u.Reason,
		Time:    u.Time,
	})
}

func (h *Hub) OnLog(l tasks.LogLine) {
	h.mu.Lock()
	h.lines = append(h.lines, l.String())
	if len(h.lines) > logHistory {
		h.lines = h.lines[len(h.lines)-logHistory:]
	}
	h.mu.Unlock()

	ev := Event{Type: "log", RunID: l.RunID, Level: l.Level.String(), Text: l.Text, Time: l.Time}
	if l.Index != tasks.RunLevel {
		ev.Row = l.Index + 1
	}
	h.broadcast(ev)
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("dropping slow event subscriber", "remote", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

// Clients is the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// subscribe registers conn and queues the current snapshot as its first message.
func (h *Hub) subscribe(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan Event, clientBuffer)}

	h.mu.Lock()
	snap := h.snapshotLocked()
	c.send <- Event{Type: "snapshot", RunID: snap.RunID, Snapshot: &snap}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.logger.Debug("event write failed", "remote", c.conn.RemoteAddr(), "err", err)
			h.unsubscribe(c)
			for range c.send {
			}
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
}
