package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/bidboard-backend/internal/handler"
	appmw "github.com/shinyyama/bidboard-backend/internal/middleware"
	"github.com/shinyyama/bidboard-backend/internal/realtime"
	"github.com/shinyyama/bidboard-backend/internal/repository"
	"github.com/shinyyama/bidboard-backend/internal/service"
	"github.com/shinyyama/bidboard-backend/internal/storage"
	"gorm.io/gorm"
)

type Options struct {
	SHA       string
	BuildTime string

	Auth  *appmw.AuthMiddleware
	Users handler.UserGetter  // optional, enables /api/users/:uid/public
	Store storage.ObjectStore // optional, enables /api/uploads

	AllowedOriginSuffixes []string
	RealtimeBuffer        int
	MaxUploadBytes        int64
}

type dbSetter interface {
	SetDB(db *gorm.DB)
}

type Server struct {
	e     *echo.Echo
	hub   *realtime.Hub
	repos []dbSetter
}

// New wires every route. db may be nil; repositories report ErrDBNotReady
// until SetDB is called.
func New(db *gorm.DB, opts Options) *Server {
	allowOrigin := originAllowed(opts.AllowedOriginSuffixes)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return allowOrigin(origin), nil
		},
	}))

	hub := realtime.NewHub(opts.RealtimeBuffer)

	postRepo := repository.NewPostRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	notifSvc := service.NewNotificationService(notifRepo)
	postSvc := service.NewPostService(postRepo)
	threadSvc := service.NewThreadService(threadRepo, quoteRepo)
	quoteSvc := service.NewQuoteService(quoteRepo, postRepo, threadSvc, notifSvc)
	msgSvc := service.NewMessageService(msgRepo, threadSvc, hub, notifSvc)

	postHandler := handler.NewPostHandler(postSvc)
	quoteHandler := handler.NewQuoteHandler(quoteSvc)
	threadHandler := handler.NewThreadHandler(threadSvc, msgSvc, allowOrigin)
	notifHandler := handler.NewNotificationHandler(notifSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    opts.SHA,
			"build_time": opts.BuildTime,
		})
	})

	api := e.Group("/api")
	auth := opts.Auth.RequireAuth

	api.POST("/rpc/accept-quote", quoteHandler.AcceptRPC, opts.Auth.Identify)

	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Get)
	api.POST("/posts", postHandler.Create, auth)
	api.PUT("/posts/:id", postHandler.Update, auth)
	api.DELETE("/posts/:id", postHandler.Delete, auth)
	api.GET("/me/posts", postHandler.ListMine, auth)

	api.POST("/posts/:id/quotes", quoteHandler.Submit, auth)
	api.GET("/posts/:id/quotes", quoteHandler.ListForPost, auth)
	api.GET("/me/quotes", quoteHandler.ListMine, auth)
	api.POST("/quotes/:id/accept", quoteHandler.Accept, auth)
	api.POST("/quotes/:id/reject", quoteHandler.Reject, auth)
	api.POST("/quotes/:id/messages", threadHandler.PostMessageToQuote, auth)

	api.GET("/threads", threadHandler.List, auth)
	api.GET("/threads/:id", threadHandler.Get, auth)
	api.GET("/threads/:id/messages", threadHandler.ListMessages, auth)
	api.POST("/threads/:id/messages", threadHandler.CreateMessage, auth)
	api.GET("/threads/:id/ws", threadHandler.Subscribe, auth)

	api.GET("/notifications", notifHandler.List, auth)
	api.POST("/notifications/read", notifHandler.MarkAllRead, auth)

	if opts.Store != nil {
		uploadHandler := handler.NewUploadHandler(opts.Store, opts.MaxUploadBytes)
		limit := "20M"
		if opts.MaxUploadBytes > 0 {
			// leave room for multipart framing
			limit = fmt.Sprintf("%dK", opts.MaxUploadBytes/1024+64)
		}
		api.POST("/uploads", uploadHandler.Upload, middleware.BodyLimit(limit), auth)
	}
	if opts.Users != nil {
		api.GET("/users/:uid/public", handler.NewUserHandler(opts.Users).GetPublic)
	}

	return &Server{
		e:     e,
		hub:   hub,
		repos: []dbSetter{postRepo, quoteRepo, threadRepo, msgRepo, notifRepo},
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown closes realtime subscriptions first so open WebSockets get a
// resync event before the listener drains.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.e.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
}

func originAllowed(suffixes []string) func(origin string) bool {
	return func(origin string) bool {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		host := strings.ToLower(u.Hostname())
		for _, suffix := range suffixes {
			suffix = strings.ToLower(strings.TrimSpace(suffix))
			if suffix != "" && (host == suffix || strings.HasSuffix(host, "."+suffix)) {
				return true
			}
		}
		return false
	}
}
