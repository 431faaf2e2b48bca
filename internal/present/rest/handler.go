package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/arcadefolio/arcadefolio/internal/domain"
	"github.com/arcadefolio/arcadefolio/internal/present/rest/middleware"
	"github.com/arcadefolio/arcadefolio/internal/present/rest/presenter"
	"github.com/arcadefolio/arcadefolio/internal/service"
	"github.com/arcadefolio/arcadefolio/internal/usecase"
)

// EventSource streams content mutation events for the realtime feed.
type EventSource interface {
	Listen(ctx context.Context, out chan<- domain.Event)
}

type Handler struct {
	db       *gorm.DB
	resource *usecase.ResourceUsecase
	auth     *service.AuthService
	signal   EventSource
}

func NewHandler(
	db *gorm.DB,
	resource *usecase.ResourceUsecase,
	auth *service.AuthService,
	signal EventSource,
) *Handler {
	return &Handler{
		db:       db,
		resource: resource,
		auth:     auth,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, authmw *middleware.AuthMiddleware, throttle *middleware.ThrottleMiddleware) {
	api := e.Group("/api")

	api.GET("/health", h.handleHealth)
	api.POST("/auth/login", h.handleLogin)
	api.GET("/realtime", h.handleRealtime)

	admin := []echo.MiddlewareFunc{authmw.RequireAdmin, throttle.Throttle}

	for _, rt := range domain.Resources() {
		group := api.Group("/" + rt.Name)
		group.GET("", h.handleList(rt))
		group.POST("", h.handleCreate(rt), admin...)
		group.PUT("/:id", h.handleUpdate(rt), admin...)
		group.DELETE("/:id", h.handleDelete(rt), admin...)
	}
}

func (h *Handler) handleList(rt domain.ResourceType) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		records, err := h.resource.List(ctx, rt)
		if err != nil {
			return presenter.InternalError(c, "failed to fetch "+rt.Name, err)
		}
		if records == nil {
			records = []domain.Record{}
		}
		return presenter.OK(c, records)
	}
}

func (h *Handler) handleCreate(rt domain.ResourceType) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		payload := map[string]any{}
		if err := c.Bind(&payload); err != nil {
			return presenter.BadRequest(c, "invalid request body")
		}

		record, err := h.resource.Create(ctx, rt, payload)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				return presenter.BadRequest(c, err.Error())
			}
			return presenter.InternalError(c, "failed to create "+rt.Singular, err)
		}

		return presenter.Created(c, record)
	}
}

func (h *Handler) handleUpdate(rt domain.ResourceType) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		payload := map[string]any{}
		if err := c.Bind(&payload); err != nil {
			return presenter.BadRequest(c, "invalid request body")
		}

		record, err := h.resource.Update(ctx, rt, c.Param("id"), payload)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNoUpdates):
				return presenter.BadRequest(c, "no updates provided")
			case errors.Is(err, domain.ErrValidation):
				return presenter.BadRequest(c, err.Error())
			case errors.Is(err, domain.ErrNotFound):
				return presenter.NotFound(c, rt.Singular+" not found")
			}
			return presenter.InternalError(c, "failed to update "+rt.Singular, err)
		}

		return presenter.OK(c, record)
	}
}

func (h *Handler) handleDelete(rt domain.ResourceType) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		err := h.resource.Delete(ctx, rt, c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrValidation):
				return presenter.BadRequest(c, err.Error())
			case errors.Is(err, domain.ErrNotFound):
				return presenter.NotFound(c, rt.Singular+" not found")
			}
			return presenter.InternalError(c, "failed to delete "+rt.Singular, err)
		}

		return presenter.Message(c, rt.Singular+" deleted successfully")
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, "invalid request body")
	}

	token, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return presenter.Unauthorized(c, "invalid credentials")
		}
		return presenter.InternalError(c, "login failed", err)
	}

	return presenter.OK(c, echo.Map{"token": token})
}

func (h *Handler) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()

	sqlDB, err := h.db.DB()
	if err != nil {
		return presenter.Unavailable(c, "database unreachable")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return presenter.Unavailable(c, "database unreachable")
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRealtime streams content mutation events so clients can refetch
// the affected collection instead of polling.
func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	events := make(chan domain.Event)
	go h.signal.Listen(ctx, events)

	// buffered so the read pump can still exit after the write loop has
	// already returned on a write error
	quit := make(chan struct{}, 1)

	go func() {
		// the read side only exists to notice the peer going away
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, fmt.Sprintf("Error reading message: %v", err),
						slog.String("module", "socket"),
					)
				}
				quit <- struct{}{}
				break
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case event := <-events:
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
