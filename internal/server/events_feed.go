package server

import (
	"context"
	"log/slog"

	"ctchen222/bookshelf/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleEvents streams the caller's list item events over a websocket until
// either side goes away. Incoming messages are ignored.
func (s *Server) handleEvents(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx, span := tracer.Start(c.Request.Context(), "server.handleEvents", trace.WithAttributes(
		attribute.String("user.id", user.ID),
	))
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribe before upgrading so a broker failure is still an HTTP error.
	stream, unsubscribe, err := s.opts.Subscriber.Subscribe(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		c.Error(err)
		return
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered the request.
		slog.WarnContext(ctx, "Failed to upgrade connection", "user.id", user.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	defer conn.Close()
	slog.InfoContext(ctx, "Event feed connected", "user.id", user.ID)

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Event feed disconnected", "user.id", user.ID)
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				slog.WarnContext(ctx, "Failed to write event", "user.id", user.ID, "event.type", event.Type, "error", err)
				return
			}
		}
	}
}
