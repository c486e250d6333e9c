package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"deskswap/internal/config"
	"deskswap/internal/fsroot"
	"deskswap/internal/logging"
	"deskswap/internal/metrics"
)

type Server struct {
	engine     *gin.Engine
	handler    http.Handler
	httpServer *http.Server
	root       *fsroot.Root
	cfg        *config.Config
	logger     *logging.Logger
	metrics    *metrics.Metrics
	startedAt  time.Time
}

func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	root, err := fsroot.NewRoot(cfg.Files.Root, fsroot.WithCompressionLevel(cfg.Files.ArchiveLevel))
	if err != nil {
		return nil, err
	}

	pages, err := newTemplates()
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		requestID(logger),
		requestLogger(logger),
		m.Middleware(),
		corsMiddleware(cfg.CORS),
	)
	if cfg.RateLimit.Enabled {
		engine.Use(rateLimit(cfg.RateLimit))
	}
	engine.SetHTMLTemplate(pages)

	srv := &Server{
		engine:    engine,
		root:      root,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		startedAt: time.Now(),
	}

	engine.GET("/", srv.handleIndex)
	engine.GET("/download/*filepath", srv.handleDownload)
	engine.POST("/download-multiple", srv.handleDownloadMultiple)
	engine.GET("/download-all", srv.handleDownloadAll)
	engine.GET("/download-all/*subpath", srv.handleDownloadAll)
	engine.POST("/upload", srv.handleUpload)

	api := engine.Group("/api")
	api.GET("/list", srv.handleAPIList)
	api.GET("/search", srv.handleAPISearch)
	api.GET("/usage", srv.handleAPIUsage)
	api.GET("/system", srv.handleAPISystem)

	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	engine.NoRoute(srv.handleBrowse)

	// pages and API responses only; download handlers opt out per response
	compress, err := gzhttp.NewWrapper(gzhttp.ContentTypes([]string{
		"text/html",
		"text/plain",
		"application/json",
	}))
	if err != nil {
		return nil, err
	}
	srv.handler = compress(engine)
	srv.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	logger.Info("serving directory",
		zap.String("root", root.Path()),
		zap.Bool("show_hidden", cfg.Files.ShowHidden),
	)

	return srv, nil
}

func (s *Server) log(c *gin.Context) *logging.Logger {
	return requestLog(c, s.logger)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Run() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
