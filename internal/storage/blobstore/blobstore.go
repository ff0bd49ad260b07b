// Пакет blobstore — адаптер blob-хранилища двоичного содержимого.
// Хранилище append-mostly: объекты не перезаписываются, только вытесняются
// новыми ключами. Локатор — это ключ объекта, по которому содержимое
// извлекается обратно.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore — контракт blob-хранилища для Lifecycle Manager.
// put/get по ключу; Delete используется только расширением очистки при purge.
type BlobStore interface {
	// Put сохраняет содержимое под указанным ключом и возвращает локатор.
	Put(ctx context.Context, key string, data []byte) (locator string, err error)
	// Get возвращает содержимое и MIME-тип по локатору.
	Get(ctx context.Context, locator string) (data []byte, contentType string, err error)
	// Delete удаляет объект. Отсутствующий объект не считается ошибкой.
	Delete(ctx context.Context, locator string) error
}

// DiskStore — реализация BlobStore на локальной файловой системе.
type DiskStore struct {
	// dataDir — корневая директория хранения объектов (DS_DATA_DIR)
	dataDir string
}

// NewDiskStore создаёт DiskStore. Создаёт директорию, если она не существует.
func NewDiskStore(dataDir string) (*DiskStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}
	return &DiskStore{dataDir: dataDir}, nil
}

// Put записывает данные на диск под указанным ключом.
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется, частично записанный объект не остаётся.
func (s *DiskStore) Put(_ context.Context, key string, data []byte) (string, error) {
	fullPath := filepath.Join(s.dataDir, key)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return key, nil
}

// Get читает объект с диска. MIME-тип восстанавливается из расширения ключа,
// при неизвестном расширении — application/octet-stream.
func (s *DiskStore) Get(_ context.Context, locator string) ([]byte, string, error) {
	fullPath := filepath.Join(s.dataDir, locator)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("объект не найден: %s", locator)
		}
		return nil, "", fmt.Errorf("ошибка чтения объекта %s: %w", locator, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(locator))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return data, contentType, nil
}

// Delete удаляет объект с диска. Возвращает nil, если объект уже не существует.
func (s *DiskStore) Delete(_ context.Context, locator string) error {
	fullPath := filepath.Join(s.dataDir, locator)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления объекта %s: %w", locator, err)
	}
	return nil
}

// Checksum вычисляет SHA-256 хэш объекта. Используется в диагностике.
func (s *DiskStore) Checksum(locator string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, locator))
	if err != nil {
		return "", fmt.Errorf("ошибка чтения объекта %s: %w", locator, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// DataDir возвращает путь к директории данных.
func (s *DiskStore) DataDir() string {
	return s.dataDir
}

// DeriveKey генерирует ключ объекта из названия документа, MIME-типа
// и момента загрузки. Формат: {title}-{unix-ms}-{short-uuid}.{ext}
// Пример: report-1767225600123-a1b2c3d4.pdf
// Временная метка и короткий UUID исключают коллизии одноимённых документов.
func DeriveKey(title, contentType string, now time.Time) string {
	name := sanitize(title)
	if len(name) > 50 {
		name = name[:50]
	}

	ts := now.UnixMilli()
	uid := uuid.New().String()[:8]

	ext := extensionFor(contentType)
	if ext != "" {
		return fmt.Sprintf("%s-%d-%s.%s", name, ts, uid, ext)
	}
	return fmt.Sprintf("%s-%d-%s", name, ts, uid)
}

// extensionFor возвращает расширение файла из MIME-типа.
// "application/pdf" → "pdf", "image/png" → "png".
func extensionFor(contentType string) string {
	if idx := strings.Index(contentType, "/"); idx != -1 && idx+1 < len(contentType) {
		ext := contentType[idx+1:]
		// Отбрасываем параметры ("; charset=utf-8") и суффиксы вида "svg+xml"
		if semi := strings.Index(ext, ";"); semi != -1 {
			ext = strings.TrimSpace(ext[:semi])
		}
		if plus := strings.Index(ext, "+"); plus != -1 {
			ext = ext[:plus]
		}
		return ext
	}
	return ""
}

// sanitize убирает небезопасные символы из строки для использования в ключе.
// Оставляет только буквы, цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' ||
			(r >= 0x0400 && r <= 0x04FF) { // Кириллица
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "document"
	}
	return result.String()
}
