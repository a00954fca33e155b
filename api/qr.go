package api

import (
	"net/http"

	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

// QRAPI генерация и распознавание QR-кодов
type QRAPI struct {
	handlerBase
	qr *services.QRService
}

// NewQRAPI создает новый экземпляр QRAPI
func NewQRAPI(base handlerBase, qr *services.QRService) *QRAPI {
	return &QRAPI{handlerBase: base, qr: qr}
}

// Scan POST /api/qr/scan (multipart, поле imagen)
func (api *QRAPI) Scan(c *gin.Context) {
	if !isMultipart(c) {
		api.respondError(c, services.FieldError("imagen", "Se requiere una imagen (multipart/form-data)"))
		return
	}

	upload, closeUpload, err := formUpload(c, "imagen")
	if err != nil {
		api.respondError(c, err)
		return
	}
	defer closeUpload()
	if upload == nil {
		api.respondError(c, services.FieldError("imagen", "Campo obligatorio"))
		return
	}

	result, err := api.qr.Scan(upload)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, result, "Código reconocido")
}

// Generate GET /api/qr/generate/:id отдает PNG
func (api *QRAPI) Generate(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	code, err := api.qr.Generate(id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.Header("X-QR-Content", code.Content)
	c.Header("X-QR-URL", code.URLPath)
	c.Data(http.StatusOK, "image/png", code.PNG)
}
