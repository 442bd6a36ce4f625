package api

import (
	"errors"
	"time"

	"attentiond/internal/engine"
	"attentiond/internal/gate"
	"attentiond/internal/schedule"
	"attentiond/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// #region server

// Server exposes the engine, gate, and session control surface to
// local collaborators over HTTP. All query paths read the latest
// committed snapshot; nothing here mutates the sampling loop.
type Server struct {
	app          *fiber.App
	engine       *engine.Engine
	gate         *gate.Gate
	sessions     *session.Manager
	schedule     *schedule.Store
	schedulePath string
}

// New builds the server and registers all routes.
func New(eng *engine.Engine, g *gate.Gate, sessions *session.Manager,
	sched *schedule.Store, schedulePath string) *Server {
	s := &Server{
		app:          fiber.New(fiber.Config{DisableStartupMessage: true}),
		engine:       eng,
		gate:         g,
		sessions:     sessions,
		schedule:     sched,
		schedulePath: schedulePath,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())

	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/access", s.handleAccess)
	api.Post("/session/start", s.handleSessionStart)
	api.Post("/session/end", s.handleSessionEnd)
	api.Get("/session/completion", s.handleCompletion)
	api.Get("/session/progress", s.handleProgress)
	api.Post("/session/content", s.handleContent)
	api.Post("/schedule/reload", s.handleScheduleReload)
	api.Get("/schedule/next", s.handleScheduleNext)
}

// Listen serves until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// #endregion server

// #region health

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// #endregion health

// #region state

func (s *Server) handleState(c *fiber.Ctx) error {
	snap := s.engine.Snapshot()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no snapshot yet",
		})
	}
	return c.JSON(fiber.Map{
		"state":             snap.State,
		"score":             snap.Score,
		"confidence":        snap.Confidence,
		"trend":             snap.Trend,
		"signals":           snap.Breakdown,
		"available_signals": snap.AvailableSignals,
		"recommendations":   snap.Recommendations,
		"at":                snap.At,
	})
}

// #endregion state

// #region access

func (s *Server) handleAccess(c *fiber.Ctx) error {
	category := c.Query("category")
	if category == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "category query parameter is required",
		})
	}
	decision := s.gate.CheckAccess(category, time.Now())
	return c.JSON(decisionJSON(decision))
}

func decisionJSON(d gate.Decision) fiber.Map {
	out := fiber.Map{
		"requested_category": d.RequestedCategory,
		"allowed":            d.Allowed,
		"reason":             d.Reason,
		"allowed_categories": d.AllowedCategories,
	}
	if d.ActiveBlock != nil {
		out["active_block"] = fiber.Map{
			"name":     d.ActiveBlock.Name,
			"category": d.ActiveBlock.Category,
			"start":    d.ActiveBlock.StartTime,
			"end":      d.ActiveBlock.EndTime,
		}
	}
	if d.NextBlock != nil {
		out["next_block"] = fiber.Map{
			"name":  d.NextBlock.Name,
			"start": d.NextBlock.StartTime,
		}
	}
	return out
}

// #endregion access

// #region session-handlers

type startRequest struct {
	BlockName   string  `json:"block_name"`
	Category    string  `json:"category"`
	GoalMinutes float64 `json:"goal_minutes"`
	Threshold   float64 `json:"threshold"`
}

func (s *Server) handleSessionStart(c *fiber.Ctx) error {
	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	goal := time.Duration(req.GoalMinutes * float64(time.Minute))
	sess, err := s.sessions.Start(req.BlockName, req.Category, goal, req.Threshold)
	if err != nil {
		return sessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": sess.ID,
		"block_name": sess.BlockName,
		"started_at": sess.StartedAt,
	})
}

type endRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleSessionEnd(c *fiber.Ctx) error {
	var req endRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	sum, err := s.sessions.End(req.Notes)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{
		"session_id":      sum.Session.ID,
		"duration_min":    sum.Duration.Minutes(),
		"mean_engagement": sum.MeanEngagement,
		"content_count":   sum.ContentCount,
		"completed":       sum.Completed,
	})
}

func (s *Server) handleCompletion(c *fiber.Ctx) error {
	comp, err := s.sessions.Completion()
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{
		"is_complete":   comp.IsComplete,
		"time_met":      comp.TimeMet,
		"attention_met": comp.AttentionMet,
		"can_end":       comp.CanEnd,
		"metrics": fiber.Map{
			"elapsed_minutes":    comp.Metrics.ElapsedMinutes,
			"goal_minutes":       comp.Metrics.GoalMinutes,
			"mean_engagement":    comp.Metrics.MeanEngagement,
			"threshold":          comp.Metrics.Threshold,
			"time_progress":      comp.Metrics.TimeProgress,
			"attention_progress": comp.Metrics.AttentionProgress,
		},
	})
}

func (s *Server) handleProgress(c *fiber.Ctx) error {
	prog, err := s.sessions.Progress()
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(fiber.Map{
		"block_name":      prog.BlockName,
		"elapsed_min":     prog.Elapsed.Minutes(),
		"goal_min":        prog.Goal.Minutes(),
		"percent_time":    prog.PercentTime,
		"mean_engagement": prog.MeanEngagement,
		"threshold":       prog.Threshold,
		"can_end":         prog.CanEnd,
		"content_count":   prog.ContentCount,
	})
}

type contentRequest struct {
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
}

func (s *Server) handleContent(c *fiber.Ctx) error {
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ContentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content_id is required"})
	}
	if err := s.sessions.RecordContent(req.ContentID, req.ContentType, req.Title); err != nil {
		return sessionError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrSessionActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, session.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
}

// #endregion session-handlers

// #region schedule-handlers

func (s *Server) handleScheduleReload(c *fiber.Ctx) error {
	if err := s.schedule.Reload(s.schedulePath); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"blocks": len(s.schedule.Blocks())})
}

func (s *Server) handleScheduleNext(c *fiber.Ctx) error {
	next, ok := s.schedule.NextBlock(time.Now())
	if !ok {
		return c.JSON(fiber.Map{"next_block": nil})
	}
	return c.JSON(fiber.Map{"next_block": fiber.Map{
		"name":     next.Name,
		"start":    next.StartTime,
		"end":      next.EndTime,
		"category": next.Category,
	}})
}

// #endregion schedule-handlers
