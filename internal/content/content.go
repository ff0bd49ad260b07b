// Пакет content — нормализация и декодирование загружаемого содержимого.
// Клиенты присылают содержимое в одном из трёх видов:
//   - чистый base64 ("JVBERi0x...")
//   - data URL ("data:application/pdf;base64,JVBERi0x...")
//   - испорченный data URL без разделителей ("dataapplication/pdfbase64JVBERi0x...")
//
// Decode приводит все три формы к исходным байтам.
package content

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// dataURLPrefix — префикс корректного data URL.
const dataURLPrefix = "data:"

// base64Marker — маркер начала base64-части в испорченном data URL.
const base64Marker = "base64"

// Normalize извлекает base64-часть из строки содержимого.
// Корректный data URL режется по запятой, испорченный — по маркеру "base64".
// Чистый base64 возвращается как есть.
func Normalize(data string) string {
	if strings.HasPrefix(data, dataURLPrefix) {
		if comma := strings.Index(data, ","); comma != -1 {
			return data[comma+1:]
		}
		return data
	}

	// Испорченный префикс от фронтенда: "dataapplication/pdfbase64JVBERi..."
	if strings.HasPrefix(data, "data") {
		if idx := strings.Index(data, base64Marker); idx != -1 {
			return data[idx+len(base64Marker):]
		}
	}

	return data
}

// Decode нормализует строку содержимого и декодирует base64 в байты.
// Возвращает ошибку, если base64-часть не декодируется.
func Decode(data string) ([]byte, error) {
	payload := Normalize(data)
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("некорректное base64-содержимое: %w", err)
	}
	return raw, nil
}

// EncodeDataURL формирует data URL из байтов и MIME-типа.
// Используется при отдаче содержимого в JSON-ответе.
func EncodeDataURL(raw []byte, contentType string) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(raw))
}
