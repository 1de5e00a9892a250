package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/rampup/internal/bus"
	"github.com/stellarlinkco/rampup/internal/collab"
	"github.com/stellarlinkco/rampup/internal/config"
	"github.com/stellarlinkco/rampup/internal/onboard"
	"github.com/stellarlinkco/rampup/internal/store"
	"github.com/stellarlinkco/rampup/internal/workflow"
)

//go:embed static
var staticFiles embed.FS

type wsClient struct {
	conn *websocket.Conn
	id   string
}

// Server exposes the onboarding API, the dashboard, and a websocket feed
// of bus events for live progress updates.
type Server struct {
	host     string
	port     int
	store    *store.Store
	orch     *onboard.Orchestrator
	resolver *workflow.Resolver
	docs     collab.Docs
	server   *http.Server
	clients  sync.Map
	nextID   atomic.Int64
}

func New(cfg config.ServerConfig, st *store.Store, orch *onboard.Orchestrator, resolver *workflow.Resolver, docs collab.Docs, b *bus.EventBus) *Server {
	s := &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		store:    st,
		orch:     orch,
		resolver: resolver,
		docs:     docs,
	}
	if b != nil {
		b.Subscribe("web", s.broadcast)
	}
	return s
}

func (s *Server) router() (*gin.Engine, error) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("embed static fs: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/employees", s.handleListEmployees)
	api.GET("/employees/:id", s.handleGetEmployee)
	api.POST("/onboard", s.handleOnboard)
	api.POST("/employees/:id/tasks/:taskID/complete", s.handleCompleteTask)
	api.POST("/employees/:id/tasks/:taskID/fail", s.handleFailTask)
	api.GET("/checklist/:role", s.handleChecklist)
	api.GET("/docs", s.handleDocs)

	r.GET("/ws", s.handleWS)
	r.NoRoute(gin.WrapH(http.FileServer(http.FS(staticFS))))

	return r, nil
}

func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r, err := s.router()
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: r,
	}

	go func() {
		log.Printf("[web] listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[web] server error: %v", err)
		}
	}()

	return nil
}

func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.Printf("[web] shutdown error: %v", err)
		}
	}
	s.clients.Range(func(key, value any) bool {
		c := value.(*wsClient)
		c.conn.CloseNow()
		return true
	})
	log.Printf("[web] stopped")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListEmployees(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.AllStatuses())
}

func (s *Server) handleGetEmployee(c *gin.Context) {
	status, err := s.store.GetStatus(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleOnboard(c *gin.Context) {
	var req onboard.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.orch.Onboard(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	var body struct {
		Details string `json:"details"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	task, out, err := s.store.MarkTaskComplete(c.Param("id"), c.Param("taskID"), body.Details)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if out.Err != nil {
		log.Printf("[web] persist warning: %v", out.Err)
	}

	status, _ := s.store.GetStatus(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"task": task, "progress": status.ProgressPercent})
}

func (s *Server) handleFailTask(c *gin.Context) {
	var body struct {
		Details string `json:"details"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	task, out, err := s.store.MarkTaskFailed(c.Param("id"), c.Param("taskID"), body.Details)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if out.Err != nil {
		log.Printf("[web] persist warning: %v", out.Err)
	}

	status, _ := s.store.GetStatus(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"task": task, "progress": status.ProgressPercent})
}

func (s *Server) handleChecklist(c *gin.Context) {
	tpl, err := s.resolver.Resolve(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) handleDocs(c *gin.Context) {
	c.JSON(http.StatusOK, s.docs.ListLibrary())
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[web] websocket accept error: %v", err)
		return
	}

	clientID := fmt.Sprintf("dash-%d", s.nextID.Add(1))
	client := &wsClient{conn: conn, id: clientID}
	s.clients.Store(clientID, client)
	log.Printf("[web] client connected: %s", clientID)

	defer func() {
		s.clients.Delete(clientID)
		conn.CloseNow()
		log.Printf("[web] client disconnected: %s", clientID)
	}()

	// Dashboard clients only listen; the read loop just detects disconnect.
	for {
		if _, _, err := conn.Read(c.Request.Context()); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(ev bus.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.clients.Range(func(key, value any) bool {
		c := value.(*wsClient)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.conn.Write(ctx, websocket.MessageText, data)
		return true
	})
}
