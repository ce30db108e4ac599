package queue

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage_AppendsLines(t *testing.T) {
	dir := t.TempDir()
	c := NewAuditConsumer("", "tasks.events", dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	for _, ev := range []Event{
		{Type: UserRegistered, UserID: 1, ActorID: 1, OccurredAt: at},
		{Type: TaskCreated, ActorID: 1, TaskID: "1", OwnerID: 1, Title: "T", Status: "Active", OccurredAt: at},
		{Type: TaskDeleted, ActorID: 9, TaskID: "1", OwnerID: 1, OccurredAt: at},
	} {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, c.handleMessage(body))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[2026-02-03T04:05:06Z] user.registered | user_id=1", lines[0])
	assert.Contains(t, lines[1], `task.created | actor_id=1 | task_id="1" | owner_id=1 | title="T" | status=Active`)
	assert.Contains(t, lines[2], `task.deleted | actor_id=9`)
}

func TestHandleMessage_RejectsBadPayloads(t *testing.T) {
	c := NewAuditConsumer("", "tasks.events", t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, c.handleMessage([]byte("{")))
	assert.Error(t, c.handleMessage([]byte(`{"task_id":"1"}`)))
}
