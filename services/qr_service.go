package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"backend_extintores/models"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
)

// QRPrefix префикс содержимого QR-кода огнетушителя
const QRPrefix = "EXT:"

const qrImageSize = 256

// QRFileName имя PNG-файла с QR-кодом огнетушителя
func QRFileName(id uint) string {
	return fmt.Sprintf("extintor_%d.png", id)
}

// QRContent содержимое QR-кода огнетушителя
func QRContent(id uint) string {
	return QRPrefix + strconv.FormatUint(uint64(id), 10)
}

// QRCode сгенерированный QR-код
type QRCode struct {
	PNG     []byte
	URLPath string
	Content string
}

// ScanResult результат распознавания
type ScanResult struct {
	Content      string                   `json:"contenido"`
	Extinguisher *models.ExtinguisherView `json:"extintor"`
}

// QRService генерация и распознавание QR-кодов огнетушителей
type QRService struct {
	extinguishers *ExtinguisherService
	uploads       *FileStore
	codes         *FileStore
	logger        *logrus.Logger
}

// NewQRService создает сервис QR; uploads проверяет загружаемые изображения, codes хранит PNG
func NewQRService(extinguishers *ExtinguisherService, uploads, codes *FileStore, logger *logrus.Logger) *QRService {
	return &QRService{extinguishers: extinguishers, uploads: uploads, codes: codes, logger: logger}
}

// Generate создает PNG для огнетушителя и сохраняет его в каталог QR-кодов
func (s *QRService) Generate(id uint) (*QRCode, error) {
	if _, err := s.extinguishers.GetByID(id); err != nil {
		return nil, err
	}

	content := QRContent(id)
	png, err := qrcode.Encode(content, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, NewInternalError(fmt.Errorf("ошибка генерации QR: %w", err))
	}

	name := QRFileName(id)
	if _, err := s.codes.WriteFile(name, png); err != nil {
		// PNG все равно отдается клиенту
		s.logger.WithError(err).WithField("extintor_id", id).Warn("Не удалось сохранить QR-код")
	}

	return &QRCode{PNG: png, URLPath: s.codes.URLFor(name), Content: content}, nil
}

// Scan распознает QR на загруженном изображении и находит огнетушитель
func (s *QRService) Scan(up *Upload) (*ScanResult, error) {
	data, _, err := s.uploads.ReadImage("imagen", up)
	if err != nil {
		return nil, err
	}

	content, err := DecodeQR(data)
	if err != nil {
		return nil, FieldError("imagen", "No se encontró un código QR legible en la imagen")
	}

	extinguisher, err := s.Resolve(content)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Content: content, Extinguisher: extinguisher}, nil
}

// Resolve находит огнетушитель по содержимому кода: EXT:<id>, числовой id или внутренний код
func (s *QRService) Resolve(content string) (*models.ExtinguisherView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, FieldError("contenido", "Código vacío")
	}

	raw := content
	if strings.HasPrefix(strings.ToUpper(raw), QRPrefix) {
		raw = raw[len(QRPrefix):]
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil, FieldError("contenido", "Código QR inválido")
		}
		return s.extinguishers.GetByID(uint(id))
	}

	if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
		view, err := s.extinguishers.GetByID(uint(id))
		if err == nil || !IsKind(err, KindNotFound) {
			return view, err
		}
	}
	return s.extinguishers.FindByCode(raw)
}

// DecodeQR извлекает текст QR-кода из изображения JPEG или PNG
func DecodeQR(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("не удалось декодировать изображение: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}
