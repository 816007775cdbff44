package server

import (
	"context"
	"net/http"

	"ctchen222/bookshelf/internal/api/controller"
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Options are the collaborators the server routes to. Subscriber and
// HealthCheck are optional.
type Options struct {
	Guard     *middleware.Guard
	Auth      *controller.AuthController
	ListItems *controller.ListItemController
	Books     *controller.BookController

	// Subscriber enables the list item event feed.
	Subscriber events.Subscriber
	// HealthCheck is consulted by /healthz.
	HealthCheck func(ctx context.Context) error
	// OnFailure receives errors raised after a response was written.
	OnFailure response.FailureHandler
}

type Server struct {
	engine   *gin.Engine
	opts     Options
	upgrader websocket.Upgrader
}

func NewServer(opts Options) *Server {
	s := &Server{
		engine: gin.New(),
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.RegisterHandlers()
	return s
}

// Engine returns the HTTP handler serving every route.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterHandlers() {
	guard := s.opts.Guard

	s.engine.Use(gin.Recovery(), traceRequests(), response.ErrorHandler(s.opts.OnFailure))
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", s.opts.Auth.Register)
	auth.POST("/login", s.opts.Auth.Login)
	auth.GET("/me", guard.RequireUser(), s.opts.Auth.Me)

	api.GET("/books/:id", guard.RequireUser(), s.opts.Books.Get)

	items := api.Group("/list-items", guard.RequireUser())
	items.GET("", s.opts.ListItems.List)
	items.POST("", s.opts.ListItems.Create)
	if s.opts.Subscriber != nil {
		items.GET("/events", s.handleEvents)
	}

	item := items.Group("/:id", guard.LoadListItem("id"))
	item.GET("", s.opts.ListItems.Get)
	item.PUT("", s.opts.ListItems.Update)
	item.DELETE("", s.opts.ListItems.Delete)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.opts.HealthCheck != nil {
		if err := s.opts.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// traceRequests starts a server span for every request, continuing any
// trace propagated by the caller.
func traceRequests() gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Request.Method),
				semconv.HTTPRoute(route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
