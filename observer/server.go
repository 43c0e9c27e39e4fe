// Package observer streams drained paint batches to websocket viewers.
package observer

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/render"
)

const (
	sessionBuffer = 256
	writeTimeout  = 5 * time.Second
	readTimeout   = 60 * time.Second
)

type session struct {
	id  uint64
	out chan []byte
}

// Server keeps its own copy of the picture so every new viewer starts from
// the current frame, then receives each batch passed to Broadcast.
type Server struct {
	upgrader websocket.Upgrader

	// AllowRemote accepts non-loopback clients.
	AllowRemote bool

	mu       sync.Mutex
	fb       *render.Framebuffer
	sessions map[uint64]*session
	nextID   uint64
	seq      uint64
	closed   bool
}

// NewServer creates a server for a w×h board.
func NewServer(w, h int) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		fb:       render.NewFramebuffer(w, h),
		sessions: make(map[uint64]*session),
	}
}

// Broadcast applies batch to the server frame and queues it for every
// viewer. Viewers that cannot keep up are disconnected; the simulation is
// never held back by a slow viewer.
func (s *Server) Broadcast(batch []events.Event) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, e := range batch {
		s.fb.Apply(e)
	}
	if len(s.sessions) == 0 {
		return
	}
	s.seq++
	b, err := json.Marshal(PaintMsg{Type: TypePaint, Seq: s.seq, Cells: toCells(batch)})
	if err != nil {
		slog.Error("observer encode failed", "error", err)
		return
	}
	for id, sess := range s.sessions {
		select {
		case sess.out <- b:
		default:
			slog.Warn("observer dropping slow viewer", "session", id)
			delete(s.sessions, id)
			close(sess.out)
		}
	}
}

// Viewers returns the number of connected sessions.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close disconnects every viewer. Later Broadcasts are ignored.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, sess := range s.sessions {
		delete(s.sessions, id)
		close(sess.out)
	}
}

func (s *Server) join() (*session, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, false
	}
	hello, err := json.Marshal(HelloMsg{
		Type:            TypeHello,
		ProtocolVersion: ProtocolVersion,
		Width:           s.fb.W,
		Height:          s.fb.H,
		Cells:           toCells(s.fb.Cells()),
	})
	if err != nil {
		return nil, nil, false
	}
	s.nextID++
	sess := &session{id: s.nextID, out: make(chan []byte, sessionBuffer)}
	s.sessions[sess.id] = sess
	return sess, hello, true
}

func (s *Server) leave(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.id]; ok {
		delete(s.sessions, sess.id)
		close(sess.out)
	}
}

// Handler returns the websocket endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.AllowRemote && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, hello, ok := s.join()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer s.leave(sess)
		slog.Info("observer joined", "session", sess.id, "remote", r.RemoteAddr)

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}

		// Reader goroutine: viewers send nothing, but reading processes
		// control frames and notices disconnects.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case b, ok := <-sess.out:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// ListenAndServe serves the websocket endpoint at /ws on addr until the
// returned server is shut down.
func (s *Server) ListenAndServe(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observer server stopped", "error", err)
		}
	}()
	slog.Info("observer listening", "addr", ln.Addr().String())
	return srv, nil
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
