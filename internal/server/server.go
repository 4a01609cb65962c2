package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/config"
	"github.com/agenthands/groundtruth/internal/core"
	"github.com/agenthands/groundtruth/internal/driver"
	"github.com/agenthands/groundtruth/internal/metrics"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type Server struct {
	Directory *core.Directory
	Logger    *zap.Logger
	Metrics   *metrics.Collector
}

// NewServer wires the HubSpot driver and the directory service from cfg.
// cfg must already be validated.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	m := metrics.NewCollector("groundtruth")

	d := driver.NewHubSpotDriver(cfg.HubSpot.BaseURL, cfg.HubSpot.AccessToken, cfg.Timeout())
	d.Metrics = m
	d.Logger = logger

	return &Server{
		Directory: core.NewDirectory(d, cfg, logger, m),
		Logger:    logger,
		Metrics:   m,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.Logger), s.instrument())
	r.SetHTMLTemplate(templates)

	r.GET("/", s.Home)
	r.GET("/update-cobj", s.NewZipCode)
	r.POST("/update-cobj", s.CreateZipCode)

	r.GET("/contacts", s.Contacts)
	r.POST("/contacts/:id/associate", s.Associate)
	r.POST("/contacts/:id/disassociate", s.Disassociate)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	return r
}
