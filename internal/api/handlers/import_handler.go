package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ensina-app/ensina-backend/internal/api/middleware"
	"github.com/ensina-app/ensina-backend/internal/db"
	"github.com/ensina-app/ensina-backend/internal/importer"
	"github.com/ensina-app/ensina-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// maxImportFileSize caps uploaded audience files at 10MB.
const maxImportFileSize = 10 << 20

const lastReportTTL = 24 * time.Hour

// ImportHandler exposes the bulk audience import endpoints.
type ImportHandler struct {
	importService service.ImportService
	tenantService service.TenantService
	cache         *db.RedisDB
}

func NewImportHandler(importService service.ImportService, tenantService service.TenantService, cache *db.RedisDB) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		tenantService: tenantService,
		cache:         cache,
	}
}

// ImportAudience handles POST /api/audience/import.
// The caller must be an owner or admin of the resolved tenant; the tenant is
// taken from the X-Tenant-ID header when present, otherwise from the caller's
// first membership. Authorization is checked before the upload is parsed.
func (h *ImportHandler) ImportAudience(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	tenantID, err := h.tenantService.ResolveForAdmin(c.Request.Context(), userID, c.GetHeader("X-Tenant-ID"))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para importar convidados"})
			return
		}
		log.Printf("❌ [Import] Tenant resolution failed - UserID: %s, Error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve tenant"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo não enviado. Envie o campo 'file' como multipart/form-data"})
		return
	}
	if fileHeader.Size > maxImportFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Arquivo muito grande. O limite é 10MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Não foi possível ler o arquivo enviado"})
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxImportFileSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Não foi possível ler o arquivo enviado"})
		return
	}

	log.Printf("📥 [Import] Starting audience import - Tenant: %s, File: %s (%d bytes)", tenantID, fileHeader.Filename, len(payload))

	report, err := h.importService.ImportAudience(c.Request.Context(), tenantID, userID, payload)
	if err != nil {
		log.Printf("❌ [Import] Import failed - Tenant: %s, Error: %v", tenantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Falha ao processar o arquivo de importação",
		})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetCache(c.Request.Context(), "import:last:"+tenantID, report, lastReportTTL); err != nil {
			log.Printf("⚠️ [Import] Failed to cache report - Tenant: %s, Error: %v", tenantID, err)
		}
	}

	log.Printf("✅ [Import] Completed - Tenant: %s, Processed: %d, Invited: %d, Skipped: %d, Errors: %d",
		tenantID, report.TotalProcessed, report.Successful, report.Skipped, len(report.Errors))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Importação concluída: %d convidado(s), %d ignorado(s), %d erro(s)",
			report.Successful, report.Skipped, len(report.Errors)),
		"results": report,
	})
}

// LastReport handles GET /api/audience/import/last, returning the most recent
// import report for the caller's tenant while it is still cached.
func (h *ImportHandler) LastReport(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	tenantID, err := h.tenantService.ResolveForAdmin(c.Request.Context(), userID, c.GetHeader("X-Tenant-ID"))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para ver relatórios de importação"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve tenant"})
		return
	}

	if h.cache == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nenhum relatório de importação disponível"})
		return
	}

	var report importer.Report
	if err := h.cache.GetCache(c.Request.Context(), "import:last:"+tenantID, &report); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nenhum relatório de importação disponível"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": report})
}
