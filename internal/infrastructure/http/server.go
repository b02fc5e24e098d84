// Package http provides the HTTP server infrastructure.
// It is the outermost layer: gin handlers translating between the wire and
// the engine, with SSE streaming for generated answers.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ragdesk/internal/domain/entities"
	"ragdesk/internal/engine"
)

// Server is the HTTP API over one engine instance.
type Server struct {
	engine *engine.Engine
	log    *logrus.Entry
}

// NewServer creates the API server.
func NewServer(eng *engine.Engine, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{engine: eng, log: log}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/presets", s.handlePresets)

	api.POST("/pipelines", s.handleCreatePipeline)
	api.GET("/pipelines", s.handleListPipelines)
	api.POST("/pipelines/import", s.handleImport)
	api.GET("/pipelines/:id", s.handleGetPipeline)
	api.PATCH("/pipelines/:id", s.handleUpdatePipeline)
	api.DELETE("/pipelines/:id", s.handleDeletePipeline)

	api.POST("/pipelines/:id/ingest", s.handleIngest)
	api.DELETE("/pipelines/:id/documents/:docID", s.handleRemoveDocument)

	api.POST("/pipelines/:id/query", s.handleQuery)
	api.GET("/pipelines/:id/history", s.handleHistory)
	api.DELETE("/pipelines/:id/history", s.handleClearHistory)

	api.GET("/pipelines/:id/export", s.handleExport)

	return router
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	s.log.WithField("addr", addr).Info("http server starting")
	return s.Router().Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("request")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"modelServer": s.engine.Status(c.Request.Context()),
	})
}

func (s *Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": entities.PresetNames()})
}

type createPipelineRequest struct {
	Name         string             `json:"name" binding:"required"`
	EmbedModel   string             `json:"embedModel" binding:"required"`
	ChatModel    string             `json:"chatModel" binding:"required"`
	Preset       string             `json:"preset"`
	Settings     *entities.Settings `json:"settings"`
	SystemPrompt string             `json:"systemPrompt"`
}

func (s *Server) handleCreatePipeline(c *gin.Context) {
	var req createPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.engine.CreatePipeline(engine.CreateRequest{
		Name:         req.Name,
		EmbedModel:   req.EmbedModel,
		ChatModel:    req.ChatModel,
		Preset:       req.Preset,
		Settings:     req.Settings,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleListPipelines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pipelines": s.engine.ListPipelines()})
}

func (s *Server) handleGetPipeline(c *gin.Context) {
	p, err := s.engine.GetPipeline(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updatePipelineRequest struct {
	Name         *string            `json:"name"`
	EmbedModel   *string            `json:"embedModel"`
	ChatModel    *string            `json:"chatModel"`
	SystemPrompt *string            `json:"systemPrompt"`
	Settings     *entities.Settings `json:"settings"`
}

func (s *Server) handleUpdatePipeline(c *gin.Context) {
	var req updatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.engine.UpdatePipeline(c.Param("id"), engine.UpdateRequest{
		Name:         req.Name,
		EmbedModel:   req.EmbedModel,
		ChatModel:    req.ChatModel,
		SystemPrompt: req.SystemPrompt,
		Settings:     req.Settings,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletePipeline(c *gin.Context) {
	if err := s.engine.DeletePipeline(c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ingestRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	ingested, err := s.engine.Ingest(c.Request.Context(), id, req.Paths, func(p entities.Progress) {
		s.log.WithFields(logrus.Fields{
			"pipeline": id,
			"stage":    p.Stage,
			"file":     p.FileName,
		}).Debug("ingest progress")
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingested": ingested})
}

func (s *Server) handleRemoveDocument(c *gin.Context) {
	if err := s.engine.RemoveDocument(c.Request.Context(), c.Param("id"), c.Param("docID")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type queryRequest struct {
	Question string `json:"question" binding:"required"`
	Stream   *bool  `json:"stream"`
}

// handleQuery answers a question. Streaming mode (the default) emits SSE
// events: one "token" event per fragment and a final "result" event with
// the answer and sources.
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	stream := req.Stream == nil || *req.Stream
	if !stream {
		result, err := s.engine.Query(c.Request.Context(), id, req.Question, nil)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	result, err := s.engine.Query(c.Request.Context(), id, req.Question, func(token string) {
		sendSSE(c.Writer, flusher, "token", gin.H{"content": token})
	})
	if err != nil {
		// Streaming already started: report the error on a dedicated
		// event instead of a status code.
		sendSSE(c.Writer, flusher, "error", gin.H{"error": err.Error(), "kind": entities.KindOf(err)})
		return
	}
	sendSSE(c.Writer, flusher, "result", result)
}

func (s *Server) handleHistory(c *gin.Context) {
	history, err := s.engine.History(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.engine.ClearHistory(c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleExport(c *gin.Context) {
	id := c.Param("id")
	c.Writer.Header().Set("Content-Type", "application/json")
	c.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.ragdesk.json", id))
	if err := s.engine.Export(id, c.Writer); err != nil {
		s.renderError(c, err)
	}
}

func (s *Server) handleImport(c *gin.Context) {
	p, err := s.engine.Import(c.Request.Context(), c.Request.Body)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// renderError maps the engine error taxonomy onto HTTP status codes.
func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch entities.KindOf(err) {
	case entities.ErrConfig:
		status = http.StatusNotFound
	case entities.ErrDomain:
		status = http.StatusUnprocessableEntity
	case entities.ErrConnection:
		status = http.StatusServiceUnavailable
	case entities.ErrProtocol:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": entities.KindOf(err)})
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
