package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/publisher"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/queue"
)

const publishTimeout = 2 * time.Second

// publish sends ev after the response outcome is settled. A broker failure
// is logged and never changes the response.
func publish(c echo.Context, p publisher.Publisher, log *slog.Logger, ev queue.Event) {
	ev.OccurredAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("event not published", "event", ev.Type, "error", err)
	}
}

func taskEvent(typ queue.EventType, actorID uint64, t *model.Task) queue.Event {
	return queue.Event{
		Type:    typ,
		ActorID: actorID,
		TaskID:  t.ID,
		OwnerID: t.OwnerID,
		Title:   t.Title,
		Status:  string(t.Status),
	}
}
