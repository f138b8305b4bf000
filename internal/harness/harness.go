package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkarlsen/tidelist/internal/identity"
	"github.com/mkarlsen/tidelist/internal/session"
	"github.com/mkarlsen/tidelist/internal/store"
	"github.com/mkarlsen/tidelist/internal/syncer"
	"github.com/mkarlsen/tidelist/internal/testutil"
	"github.com/mkarlsen/tidelist/internal/todo"
)

// settleTimeout bounds how long a step waits for the synchronizer to
// converge on the committed store state.
const settleTimeout = 2 * time.Second

// TraceEvent records the synchronizer's observable state after one step.
type TraceEvent struct {
	Seq    int         `json:"seq"`
	Op     string      `json:"op"`
	Error  string      `json:"error,omitempty"`
	State  string      `json:"state"`
	Filter string      `json:"filter"`
	Items  []TraceItem `json:"items"`
}

// TraceItem is the stable projection of an item into the trace. Wall-clock
// timestamps are deliberately excluded; created_seq carries the ordering.
type TraceItem struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Completed  bool   `json:"completed"`
	CreatedSeq int64  `json:"created_seq"`
}

// Result holds the outcome of a scenario run.
type Result struct {
	Trace []TraceEvent
}

// Run executes the scenario against a fresh stack backed by a database at
// dbPath. Ids and timestamps come from deterministic generators, so the
// same scenario always produces the same trace.
func Run(scenario *Scenario, dbPath string) (*Result, error) {
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	st, err := store.Open(dbPath,
		store.WithIDGenerator(testutil.NewSequentialIDGenerator("obj")),
		store.WithNow(testutil.NewSteppingClock(start, time.Minute).Now),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ident := identity.New(st, identity.WithBcryptCost(bcrypt.MinCost))
	sess := session.New(ident, logger)
	sy := syncer.New(sess, syncer.Wrap(st), logger)
	defer sy.Close()

	r := &runner{store: st, sess: sess, sy: sy, mode: todo.FilterAll}

	trace := make([]TraceEvent, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		err := r.execute(ctx, step)

		if step.ExpectError != "" {
			if err == nil {
				return nil, fmt.Errorf("steps[%d] (%s): expected error containing %q, got none",
					i, step.Op, step.ExpectError)
			}
			if !strings.Contains(err.Error(), step.ExpectError) {
				return nil, fmt.Errorf("steps[%d] (%s): error %q does not contain %q",
					i, step.Op, err, step.ExpectError)
			}
		} else if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}

		if err == nil {
			if serr := r.settle(ctx, step.Op); serr != nil {
				return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, serr)
			}
		}

		trace = append(trace, r.record(i+1, step.Op, err))
	}

	return &Result{Trace: trace}, nil
}

// runner carries per-run state. The filter mode is view state, held here
// exactly as a connected view would hold it.
type runner struct {
	store *store.Store
	sess  *session.Store
	sy    *syncer.Synchronizer
	mode  todo.FilterMode
}

func (r *runner) execute(ctx context.Context, step Step) error {
	switch step.Op {
	case OpSignup:
		return r.sess.Signup(ctx, step.Email, step.Password)
	case OpLogin:
		return r.sess.Login(ctx, step.Email, step.Password)
	case OpLogout:
		return r.sess.Logout(ctx)
	case OpAdd:
		return r.sy.AddItem(ctx, step.Text)
	case OpToggle:
		id, err := r.findByText(step.Text)
		if err != nil {
			return err
		}
		return r.sy.ToggleItem(ctx, id)
	case OpDelete:
		id, err := r.findByText(step.Text)
		if err != nil {
			return err
		}
		return r.sy.DeleteItem(ctx, id)
	case OpFilter:
		mode, err := todo.ParseFilterMode(step.Mode)
		if err != nil {
			return err
		}
		r.mode = mode
		return nil
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// findByText resolves a step's item reference against the current
// snapshot.
func (r *runner) findByText(text string) (string, error) {
	for _, it := range r.sy.Snapshot() {
		if it.Text == text {
			return it.ID, nil
		}
	}
	return "", fmt.Errorf("no item with text %q in snapshot", text)
}

// settle blocks until the synchronizer has converged after the step:
// logged-in steps wait for a live snapshot matching the committed store
// state, logout waits for teardown. Notifications are asynchronous, so
// convergence is polled.
func (r *runner) settle(ctx context.Context, op string) error {
	if op == OpFilter {
		return nil
	}

	deadline := time.Now().Add(settleTimeout)
	for {
		ok, err := r.converged(ctx, op)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("synchronizer did not settle after %s (state %s)",
				op, r.sy.State())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (r *runner) converged(ctx context.Context, op string) (bool, error) {
	if op == OpLogout {
		return r.sy.State() == syncer.Unsubscribed && len(r.sy.Snapshot()) == 0, nil
	}

	if r.sy.State() != syncer.Live {
		return false, nil
	}

	p := r.sess.Current()
	if p == nil {
		return false, fmt.Errorf("no principal after %s", op)
	}
	want, err := r.store.ItemsByOwner(ctx, p.ID)
	if err != nil {
		return false, err
	}

	got := r.sy.Snapshot()
	if len(got) != len(want) {
		return false, nil
	}
	for i := range got {
		if got[i].ID != want[i].ID || got[i].Completed != want[i].Completed {
			return false, nil
		}
	}
	return true, nil
}

func (r *runner) record(seq int, op string, err error) TraceEvent {
	ev := TraceEvent{
		Seq:    seq,
		Op:     op,
		State:  r.sy.State().String(),
		Filter: r.mode.String(),
		Items:  make([]TraceItem, 0),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	for _, it := range todo.Visible(r.sy.Snapshot(), r.mode) {
		ev.Items = append(ev.Items, TraceItem{
			ID:         it.ID,
			Text:       it.Text,
			Completed:  it.Completed,
			CreatedSeq: it.CreatedSeq,
		})
	}
	return ev
}
