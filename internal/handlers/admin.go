// internal/handlers/admin.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type AdminHandler struct {
	adminService   *services.AdminService
	storageService *services.StorageService
}

func NewAdminHandler(adminService *services.AdminService, storageService *services.StorageService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		storageService: storageService,
	}
}

// GET /api/admin/summary
func (h *AdminHandler) GetSummary(c *gin.Context) {
	summary, err := h.adminService.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyReportUnavailable)
		return
	}

	utils.SuccessResponse(c, summary)
}

// GET /api/admin/orders/export?format=csv|xlsx
func (h *AdminHandler) ExportOrders(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", services.ExportFormatCSV))

	var contentType string
	switch format {
	case services.ExportFormatCSV:
		contentType = "text/csv; charset=utf-8"
	case services.ExportFormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "format"), nil)
		return
	}

	// Buffer so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.adminService.ExportOrders(c.Request.Context(), format, &buf); err != nil {
		respondError(c, err, i18n.KeyReportUnavailable)
		return
	}

	filename := fmt.Sprintf("orders-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// POST /api/admin/upload
func (h *AdminHandler) Upload(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	options := h.storageService.ProductImageOptions()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "file"), nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadFile(c.Request.Context(), file, header.Filename, options)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFile) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadInvalidFile, options.MaxSize/(1024*1024)), err.Error())
			return
		}
		logrus.WithError(err).WithField("filename", header.Filename).Error("Upload failed")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyUploadFailed))
		return
	}

	utils.SuccessResponse(c, result)
}
