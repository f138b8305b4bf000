package web

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mkarlsen/tidelist/internal/session"
	"github.com/mkarlsen/tidelist/internal/syncer"
	"github.com/mkarlsen/tidelist/internal/todo"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientMessage is what the browser sends over the socket.
type clientMessage struct {
	Op   string `json:"op"`             // add | toggle | delete | filter
	Text string `json:"text,omitempty"` // add
	ID   string `json:"id,omitempty"`   // toggle, delete
	Mode string `json:"mode,omitempty"` // filter
}

// snapshotMessage carries the filtered snapshot to the browser. A fresh
// one is pushed after every applied change notification.
type snapshotMessage struct {
	Type   string      `json:"type"` // always "snapshot"
	State  string      `json:"state"`
	Filter string      `json:"filter"`
	Items  []todo.Item `json:"items"`
}

// errorMessage carries a transient, dismissible failure to the browser.
type errorMessage struct {
	Type    string `json:"type"` // always "error"
	Message string `json:"message"`
}

// handleSocket hosts one full client shell (session store + synchronizer)
// per websocket connection. The shell resumes the cookie's principal,
// issues the live query, and pushes the filtered snapshot on every change.
// Closing the socket tears the shell down; a notification racing the
// teardown is discarded by the synchronizer's generation guard.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := session.New(s.ident, s.logger)
	sy := syncer.New(sess, syncer.Wrap(s.store), s.logger)
	defer sy.Close()

	var mu sync.Mutex
	mode := todo.FilterAll

	// Coalescing wakeup: the writer always reads the latest snapshot, so a
	// burst of notifications collapses into one push of the final state.
	notify := make(chan struct{}, 1)
	wake := func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
	sy.OnChange(wake)

	if err := sess.Resume(r.Context(), p.ID); err != nil {
		s.logger.Error("websocket resume failed", "principal", p.ID, "error", err)
		return
	}

	errCh := make(chan string, 8)
	done := make(chan struct{})

	// Single writer: gorilla/websocket allows one concurrent writer, so
	// snapshot pushes and error messages funnel through this goroutine.
	go func() {
		for {
			select {
			case <-done:
				return
			case msg := <-errCh:
				if err := conn.WriteJSON(errorMessage{Type: "error", Message: msg}); err != nil {
					return
				}
			case <-notify:
				mu.Lock()
				m := mode
				mu.Unlock()
				out := snapshotMessage{
					Type:   "snapshot",
					State:  sy.State().String(),
					Filter: m.String(),
					Items:  todo.Visible(sy.Snapshot(), m),
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			}
		}
	}()
	defer close(done)

	for {
		var m clientMessage
		if err := conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		switch m.Op {
		case "add":
			if err := sy.AddItem(r.Context(), m.Text); err != nil {
				errCh <- mutationMessage(err)
			}
		case "toggle":
			if err := sy.ToggleItem(r.Context(), m.ID); err != nil {
				errCh <- mutationMessage(err)
			}
		case "delete":
			if err := sy.DeleteItem(r.Context(), m.ID); err != nil {
				errCh <- mutationMessage(err)
			}
		case "filter":
			parsed, err := todo.ParseFilterMode(m.Mode)
			if err != nil {
				errCh <- "Unknown filter."
				continue
			}
			mu.Lock()
			mode = parsed
			mu.Unlock()
			wake()
		default:
			errCh <- "Unknown operation."
		}
	}
}

// mutationMessage maps a mutation failure to its transient user-facing
// text. Validation failures name the problem; storage failures just ask
// for a retry, since retrying the user action is always safe here.
func mutationMessage(err error) string {
	switch {
	case errors.Is(err, todo.ErrEmptyText):
		return "Item text can't be empty."
	case errors.Is(err, todo.ErrNoSession):
		return "Your session ended. Please log in again."
	default:
		return "That didn't stick. Please try again."
	}
}
