package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openrecon/openrecon/analysis"
	"github.com/openrecon/openrecon/scanner"
	"github.com/openrecon/openrecon/target"
)

// Handler - HTTP handlers over the scan orchestrator
type Handler struct {
	scanner *scanner.Scanner
	name    string
	version string
}

// errorBody - Wire shape of every error response
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// Index - Service metadata and available probes
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    h.name,
		"version": h.version,
		"probes":  h.scanner.ProbeNames(),
		"endpoints": []string{
			"GET /health",
			"GET /scan/full?target=<domain|ipv4|email>",
			"GET /scan/{probe}?target=<domain|ipv4|email>",
		},
	})
}

// Health - Liveness check
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// validatedTarget runs input validation and writes the 400 envelope on
// rejection. Email targets scan their domain part.
func validatedTarget(c *gin.Context) (string, bool) {
	raw := c.Query("target")
	result := target.Validate(raw)
	if !result.IsValid {
		zap.S().Debugw("target rejected", "target", raw, "reason", result.Error)
		fail(c, http.StatusBadRequest, "INVALID_TARGET", result.Error)
		return "", false
	}

	t := result.Normalized
	if result.InputType == target.TypeEmail {
		t = t[strings.LastIndex(t, "@")+1:]
	}
	return t, true
}

// ScanFull - Run every probe and attach the downstream analysis
func (h *Handler) ScanFull(c *gin.Context) {
	t, ok := validatedTarget(c)
	if !ok {
		return
	}

	agg := h.scanner.Run(c.Request.Context(), t)
	c.JSON(http.StatusOK, gin.H{
		"scan":           agg,
		"risk":           analysis.Score(agg),
		"attack_surface": analysis.MapSurface(agg),
	})
}

// ScanProbe - Run one named probe
func (h *Handler) ScanProbe(c *gin.Context) {
	name := c.Param("probe")
	t, ok := validatedTarget(c)
	if !ok {
		return
	}

	outcome, found := h.scanner.RunOne(c.Request.Context(), name, t)
	if !found {
		fail(c, http.StatusNotFound, "UNKNOWN_PROBE", "no probe named "+name)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"target": t,
		"probe":  name,
		"result": outcome,
	})
}
