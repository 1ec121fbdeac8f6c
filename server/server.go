package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cockroachdb/errors"
	"github.com/openrecon/openrecon/config"
	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/safehttp"
	"github.com/openrecon/openrecon/scanner"
)

// Run - Execute the recon HTTP server
func Run(cfg *config.Config, name string, version string, revision string) error {
	zap.S().Infow("starting recon server")

	// Format version string with revision if available
	versionString := version
	if revision != "" && revision != "xxx" {
		versionString = versionString + " (" + revision + ")"
	}

	zap.S().Debugw("creating safe fetch client")
	client := safehttp.NewClient(&safehttp.Config{
		ConnectTimeout: cfg.Fetch.ConnectTimeout,
		ReadTimeout:    cfg.Fetch.ReadTimeout,
		UserAgent:      cfg.Fetch.UserAgent,
		MaxRedirects:   cfg.Fetch.MaxRedirects,
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
		MaxRetries:     cfg.Fetch.MaxRetries,
		RetryBackoff:   cfg.Fetch.RetryBackoff,
	})

	zap.S().Debugw("building probe registry")
	registry := probe.NewRegistry(client, safehttp.SystemResolver(), probe.Config{
		DNSTimeout:    cfg.Scan.DNSTimeout,
		PortTimeout:   cfg.Scan.PortTimeout,
		MaxSubdomains: cfg.Scan.MaxSubdomains,
	})

	sc := scanner.New(registry, time.Duration(cfg.Scan.ProbeDeadline)*time.Second)

	zap.S().Debugw("creating HTTP engine",
		"name", name,
		"version", versionString,
		"address", cfg.Server.Address,
	)
	engine := NewEngine(cfg, sc, name, versionString)

	zap.S().Infow("listening", "address", cfg.Server.Address)
	if err := engine.Run(cfg.Server.Address); err != nil {
		zap.S().Errorw("failed to start server", "error", err)
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// NewEngine builds the gin engine with middleware and routes. Split from
// Run so handler tests can drive it without binding a socket.
func NewEngine(cfg *config.Config, sc *scanner.Scanner, name, versionString string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(RequestLogger())
	engine.Use(Recovery())
	engine.Use(CORS(cfg.Server.AllowedOrigins))

	limiter := NewRateLimiter(cfg.Server.RatePerMinute, cfg.Server.RateBurst)
	h := &Handler{scanner: sc, name: name, version: versionString}

	engine.GET("/", h.Index)
	engine.GET("/health", h.Health)

	scan := engine.Group("/scan", RateLimit(limiter))
	scan.GET("/full", h.ScanFull)
	scan.GET("/:probe", h.ScanProbe)

	return engine
}
