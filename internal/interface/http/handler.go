package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lassnet/powerdash/internal/domain/energy"
)

// Handler wires the HTTP transport to the dashboard domain.
type Handler struct {
	energySvc energy.Service
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(energySvc energy.Service, logger *slog.Logger) *Handler {
	return &Handler{
		energySvc: energySvc,
		logger:    logger.With("component", "http.handler"),
	}
}

// Dashboard returns every table, chart and metric the dashboard renders.
func (h *Handler) Dashboard(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.energySvc.Dashboard(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Series returns the wide table of a single feed.
func (h *Handler) Series(c *gin.Context) {
	source, ok := bindSource(c)
	if !ok {
		return
	}
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	table, err := h.energySvc.Series(c.Request.Context(), source, req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": source, "table": table})
}

// ExportSeries streams a feed's wide table as an XLSX workbook or CSV file.
func (h *Handler) ExportSeries(c *gin.Context) {
	source, ok := bindSource(c)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", formatXLSX)))
	if format != formatXLSX && format != formatCSV {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("unsupported format %q", format), nil))
		return
	}
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	table, err := h.energySvc.Series(c.Request.Context(), source, req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	var (
		payload     []byte
		contentType string
	)
	if format == formatCSV {
		payload, err = encodeCSV(table)
		contentType = "text/csv; charset=utf-8"
	} else {
		payload, err = encodeXLSX(string(source), table)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, codeExportFailed, "failed to encode export", err))
		return
	}

	name := fmt.Sprintf("%s_%s.%s", source, time.Now().Format("20060102"), format)
	h.logger.Info("series exported", "source", source, "format", format, "rows", table.Len(), "bytes", len(payload))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, payload)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindRequest(c *gin.Context) (energy.Request, bool) {
	var req energy.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, codeInvalidRequest, errMessage(err), err))
		return energy.Request{}, false
	}
	return req, true
}

func bindSource(c *gin.Context) (energy.Source, bool) {
	source, err := energy.ParseSource(c.Param("source"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusNotFound, codeUnknownSource, errMessage(err), err))
		return "", false
	}
	return source, true
}
