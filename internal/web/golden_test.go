package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/tidelist/internal/todo"
)

// Golden files pin the wire shape of the socket payloads: a field rename
// breaks a test here instead of every connected browser.
//
// To regenerate golden files, run:
//
//	go test ./internal/web -update
func TestSocketPayload_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	owner := "0190e6a0-7aaa-7bbb-8ccc-0000000000aa"
	items := []todo.Item{
		{
			ID:         "0190e6a0-7aaa-7bbb-8ccc-000000000002",
			Text:       "write the report",
			Completed:  false,
			OwnerID:    owner,
			CreatedSeq: 2,
			CreatedAt:  time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC),
		},
		{
			ID:         "0190e6a0-7aaa-7bbb-8ccc-000000000001",
			Text:       "buy milk",
			Completed:  true,
			OwnerID:    owner,
			CreatedSeq: 1,
			CreatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	t.Run("snapshot all", func(t *testing.T) {
		out := snapshotMessage{
			Type:   "snapshot",
			State:  "live",
			Filter: "all",
			Items:  todo.Visible(items, todo.FilterAll),
		}
		g.Assert(t, "snapshot_all", marshalPayload(t, out))
	})

	t.Run("snapshot active", func(t *testing.T) {
		out := snapshotMessage{
			Type:   "snapshot",
			State:  "live",
			Filter: "active",
			Items:  todo.Visible(items, todo.FilterActive),
		}
		g.Assert(t, "snapshot_active", marshalPayload(t, out))
	})

	t.Run("error empty text", func(t *testing.T) {
		out := errorMessage{Type: "error", Message: "Item text can't be empty."}
		g.Assert(t, "error_empty_text", marshalPayload(t, out))
	})
}

func marshalPayload(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	return data
}
