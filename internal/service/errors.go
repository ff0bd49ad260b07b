// Пакет service — бизнес-логика docstore: жизненный цикл документов,
// права доступа, выдача содержимого и фоновая очистка корзины.
package service

import "errors"

// Sentinel-ошибки сервисного слоя. Обработчики HTTP сопоставляют их
// с кодами ответов через errors.Is.
var (
	// ErrNotFound — документ или его содержимое не найдены.
	ErrNotFound = errors.New("документ не найден")

	// ErrValidation — некорректные входные данные (base64, capability и т.д.).
	ErrValidation = errors.New("ошибка валидации")

	// ErrStorage — сбой blob-хранилища.
	ErrStorage = errors.New("ошибка blob-хранилища")

	// ErrPersistence — сбой слоя метаданных (PostgreSQL).
	ErrPersistence = errors.New("ошибка сохранения метаданных")
)
