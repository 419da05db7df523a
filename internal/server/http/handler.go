package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"luchess/internal/server/core"
	"luchess/internal/server/processor"
	"luchess/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: service.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")

	// Register: 5 req/min per IP
	auth.Post("/register", ipLimiter(5, time.Minute, "5 registrations per minute allowed"), h.RegisterHandler)

	// Login: 10 req/min per IP
	auth.Post("/login", ipLimiter(10, time.Minute, "10 login attempts per minute allowed"), h.LoginHandler)

	validateToken := svc.ValidateToken

	auth.Get("/me", AuthRequired(validateToken), h.GetCurrentUserHandler)
	auth.Post("/logout", AuthRequired(validateToken), h.LogoutHandler)

	// Game routes with standard rate limiting
	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	identify := OptionalAuth(validateToken)

	// Games are open to anonymous players; a token ties actions to a user
	api.Post("/games", identify, h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", identify, h.DeleteGame)
	api.Post("/games/:gameId/join", AuthRequired(validateToken), h.JoinGame)
	api.Post("/games/:gameId/moves", identify, h.MakeMove)
	api.Get("/games/:gameId/moves", h.LegalMoves)
	api.Post("/games/:gameId/promotion", identify, h.Promote)
	api.Post("/games/:gameId/undo", identify, h.UndoMove)
	api.Post("/games/:gameId/redo", identify, h.RedoMove)
	api.Get("/games/:gameId/board", h.GetBoard)

	return app
}

func ipLimiter(max int, window time.Duration, details string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: details,
			})
		},
	})
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps a processor error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrResourceLimit:
		return fiber.StatusServiceUnavailable
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	case core.ErrGameOver, core.ErrPromotionPending, core.ErrGameFull:
		return fiber.StatusConflict
	case core.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case core.ErrForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}

// respond writes a processor response with the given success status
func respond(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if resp.Pending {
		okStatus = fiber.StatusAccepted
	}
	return c.Status(okStatus).JSON(resp.Data)
}

func invalidGameID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid game ID format",
		Code:    core.ErrInvalidRequest,
		Details: "game ID must be a valid UUID",
	})
}

func validationBypass(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: "validation bypass detected",
		Code:  core.ErrInternalError,
	})
}

// Health reports storage state, games in memory and parked long-polls. A
// failing store marks the server degraded while games keep running.
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	resp := core.HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Unix(),
		Storage: h.svc.GetStorageHealth(),
		Games:   h.svc.GameCount(),
		Waiting: h.svc.WaitingRequests(),
	}
	if resp.Storage == "degraded" {
		resp.Status = "degraded"
	}
	return c.JSON(resp)
}

// asUser runs cmd on behalf of the caller, if identified
func asUser(c *fiber.Ctx, cmd processor.Command) processor.Command {
	cmd.UserID = requestUser(c)
	return cmd
}

// CreateGame starts a game, optionally from a custom position
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, ok := validatedRequest[core.CreateGameRequest](c)
	if !ok {
		return validationBypass(c)
	}

	return respond(c, h.proc.Execute(asUser(c, processor.NewCreateGameCommand(req))), fiber.StatusCreated)
}

// GetGame retrieves current game state. With wait=true the request is held
// until the move count differs from moveCount or the wait times out.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	if c.Query("wait", "false") != "true" {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}

	if _, err := h.svc.GetGame(gameID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}

	// Park first, then compare, so a move landing in between still wakes us.
	// Cancelling on return unparks early answers.
	ctx := c.Context()
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	notify := h.svc.RegisterWait(gameID, moveCount, waitCtx)

	v, err := h.svc.GetGame(gameID)
	if err != nil || moveCount != v.MoveCount() {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	select {
	case <-notify:
		// Changed, timed out or deleted
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	case <-ctx.Done():
		return nil
	}
}

// MakeMove submits a move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.MoveRequest](c)
	if !ok {
		return validationBypass(c)
	}

	return respond(c, h.proc.Execute(asUser(c, processor.NewMakeMoveCommand(gameID, req))), fiber.StatusOK)
}

// Promote chooses the piece for a pending promotion
func (h *HTTPHandler) Promote(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.PromotionRequest](c)
	if !ok {
		return validationBypass(c)
	}

	return respond(c, h.proc.Execute(asUser(c, processor.NewPromoteCommand(gameID, req))), fiber.StatusOK)
}

// UndoMove steps back one or more moves
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.UndoRequest](c)
	if !ok {
		return validationBypass(c)
	}

	return respond(c, h.proc.Execute(asUser(c, processor.NewUndoMoveCommand(gameID, req))), fiber.StatusOK)
}

// RedoMove steps forward through undone moves
func (h *HTTPHandler) RedoMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, ok := validatedRequest[core.RedoRequest](c)
	if !ok {
		return validationBypass(c)
	}

	return respond(c, h.proc.Execute(asUser(c, processor.NewRedoMoveCommand(gameID, req))), fiber.StatusOK)
}

// DeleteGame removes a game from memory. Games with a creator can only be
// deleted by that user.
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	return respond(c, h.proc.Execute(processor.NewDeleteGameCommand(gameID, requestUser(c))), fiber.StatusNoContent)
}

// JoinGame takes the first free side for the signed-in user
func (h *HTTPHandler) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	return respond(c, h.proc.Execute(processor.NewJoinGameCommand(gameID, requestUser(c))), fiber.StatusOK)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	return respond(c, h.proc.Execute(processor.NewGetBoardCommand(gameID)), fiber.StatusOK)
}

// LegalMoves lists legal moves, optionally for the piece on ?from=
func (h *HTTPHandler) LegalMoves(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	from := strings.ToLower(c.Query("from"))
	if from != "" {
		if _, err := core.ParseSquare(from); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid square",
				Code:    core.ErrInvalidRequest,
				Details: err.Error(),
			})
		}
	}

	return respond(c, h.proc.Execute(processor.NewLegalMovesCommand(gameID, from)), fiber.StatusOK)
}
