package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxImageSize ограничение размера загружаемого изображения
const MaxImageSize = 5 * 1024 * 1024

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Upload загружаемый файл
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// StoredFile результат сохранения: публичный путь и путь на диске
type StoredFile struct {
	URLPath  string
	DiskPath string
	MIME     string
}

// FileStore хранит файлы в каталоге, который раздается как статика по urlPrefix
type FileStore struct {
	dir       string
	urlPrefix string
	maxSize   int64
	logger    *logrus.Logger
}

// NewFileStore создает хранилище и его каталог
func NewFileStore(dir, urlPrefix string, maxSize int64, logger *logrus.Logger) (*FileStore, error) {
	if maxSize <= 0 {
		maxSize = MaxImageSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог %s: %w", dir, err)
	}
	return &FileStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/"), maxSize: maxSize, logger: logger}, nil
}

// Dir каталог хранилища
func (fs *FileStore) Dir() string {
	return fs.dir
}

// ReadImage читает загрузку и проверяет размер и тип по содержимому (jpeg, png, webp)
func (fs *FileStore) ReadImage(field string, up *Upload) ([]byte, string, error) {
	if up == nil || up.Reader == nil {
		return nil, "", FieldError(field, "Archivo obligatorio")
	}
	if up.Size > fs.maxSize {
		return nil, "", FieldError(field, fmt.Sprintf("El archivo supera el tamaño máximo de %d MB", fs.maxSize/(1024*1024)))
	}

	data, err := io.ReadAll(io.LimitReader(up.Reader, fs.maxSize+1))
	if err != nil {
		return nil, "", NewInternalError(err)
	}
	if int64(len(data)) > fs.maxSize {
		return nil, "", FieldError(field, fmt.Sprintf("El archivo supera el tamaño máximo de %d MB", fs.maxSize/(1024*1024)))
	}
	if len(data) == 0 {
		return nil, "", FieldError(field, "El archivo está vacío")
	}

	mtype := mimetype.Detect(data)
	if _, ok := allowedImageTypes[mtype.String()]; !ok {
		return nil, "", FieldError(field, "Tipo de archivo no permitido: use JPEG, PNG o WEBP")
	}

	return data, mtype.String(), nil
}

// SaveImage проверяет и атомарно сохраняет изображение (временный файл, затем rename)
func (fs *FileStore) SaveImage(field string, up *Upload) (*StoredFile, error) {
	data, mtype, err := fs.ReadImage(field, up)
	if err != nil {
		return nil, err
	}

	name := uuid.New().String() + allowedImageTypes[mtype]
	diskPath, err := fs.WriteFile(name, data)
	if err != nil {
		return nil, NewInternalError(err)
	}

	return &StoredFile{
		URLPath:  fs.urlPrefix + "/" + name,
		DiskPath: diskPath,
		MIME:     mtype,
	}, nil
}

// WriteFile пишет данные во временный файл в том же каталоге и переименовывает его в name
func (fs *FileStore) WriteFile(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(fs.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	// Временный файл удаляется на любом пути выхода, кроме успешного rename
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	target := filepath.Join(fs.dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		return "", err
	}
	committed = true
	return target, nil
}

// URLFor публичный путь для имени файла
func (fs *FileStore) URLFor(name string) string {
	return fs.urlPrefix + "/" + name
}

// Remove удаляет файл по публичному пути; отсутствие файла не ошибка
func (fs *FileStore) Remove(urlPath string) {
	if urlPath == "" {
		return
	}
	name := path.Base(urlPath)
	if name == "." || name == "/" || !strings.HasPrefix(urlPath, fs.urlPrefix+"/") {
		fs.logger.WithField("path", urlPath).Warn("Путь вне хранилища, файл не удален")
		return
	}
	if err := os.Remove(filepath.Join(fs.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		fs.logger.WithError(err).WithField("path", urlPath).Warn("Не удалось удалить файл")
	}
}

// RemoveStored удаляет только что сохраненный файл (компенсация при ошибке записи в БД)
func (fs *FileStore) RemoveStored(file *StoredFile) {
	if file == nil {
		return
	}
	if err := os.Remove(file.DiskPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fs.logger.WithError(err).WithField("path", file.DiskPath).Warn("Не удалось удалить файл после ошибки")
	}
}
