// Пакет model — доменные модели docstore.
// DocumentRecord — единая структура метаданных документа, используется
// как in-memory представление и как формат строки таблицы documents.
package model

import (
	"time"
)

// Capability — класс прав доступа к документу.
type Capability string

const (
	// CapabilityView — право просмотра документа
	CapabilityView Capability = "view"
	// CapabilityEdit — право редактирования документа
	CapabilityEdit Capability = "edit"
	// CapabilityDelete — право удаления документа
	CapabilityDelete Capability = "delete"
)

// ParseCapability проверяет строку и возвращает Capability.
// Возвращает ("", false) для неизвестного значения.
func ParseCapability(s string) (Capability, bool) {
	switch Capability(s) {
	case CapabilityView, CapabilityEdit, CapabilityDelete:
		return Capability(s), true
	}
	return "", false
}

// PermissionSet — три независимых множества грантов (view/edit/delete).
// Семантика множества: email встречается в каждом списке не более одного раза,
// порядок не имеет значения. Классы прав не иерархичны: edit не подразумевает view.
type PermissionSet struct {
	// View — email-адреса с правом просмотра
	View []string `json:"view"`
	// Edit — email-адреса с правом редактирования
	Edit []string `json:"edit"`
	// Delete — email-адреса с правом удаления
	Delete []string `json:"delete"`
}

// Grant идемпотентно добавляет email в множество указанного класса прав.
// Возвращает true, если множество изменилось (dirty-флаг для сохранения).
func (p *PermissionSet) Grant(cap Capability, email string) bool {
	set := p.set(cap)
	if set == nil {
		return false
	}
	for _, e := range *set {
		if e == email {
			return false
		}
	}
	*set = append(*set, email)
	return true
}

// Has проверяет наличие email в множестве указанного класса прав.
func (p *PermissionSet) Has(cap Capability, email string) bool {
	set := p.set(cap)
	if set == nil {
		return false
	}
	for _, e := range *set {
		if e == email {
			return true
		}
	}
	return false
}

// HasAny проверяет наличие email хотя бы в одном из трёх множеств.
func (p *PermissionSet) HasAny(email string) bool {
	return p.Has(CapabilityView, email) ||
		p.Has(CapabilityEdit, email) ||
		p.Has(CapabilityDelete, email)
}

// set возвращает указатель на список выбранного класса прав.
func (p *PermissionSet) set(cap Capability) *[]string {
	switch cap {
	case CapabilityView:
		return &p.View
	case CapabilityEdit:
		return &p.Edit
	case CapabilityDelete:
		return &p.Delete
	}
	return nil
}

// DocumentRecord — метаданные документа. Соответствует строке таблицы documents.
// Поле Locator хранит ключ объекта в blob-хранилище, сырые байты в метаданных
// не хранятся никогда.
type DocumentRecord struct {
	// ID — уникальный идентификатор документа (UUID v4).
	// Неизменен на протяжении всей жизни записи, включая soft delete.
	ID string `json:"id"`

	// Title — название документа
	Title string `json:"title"`

	// ContentType — MIME-тип содержимого
	ContentType string `json:"type"`

	// Size — размер содержимого в байтах
	Size int64 `json:"size"`

	// Locator — ключ объекта в blob-хранилище.
	// Переназначается только при обновлении содержимого.
	Locator string `json:"locator"`

	// AuthorID — идентификатор владельца (sub из JWT). Неизменен после создания.
	AuthorID string `json:"author_id"`

	// AuthorName — отображаемое имя владельца
	AuthorName string `json:"author_name,omitempty"`

	// Version — монотонно растущая версия. 0 при создании,
	// +1 на каждое обновление (в том числе без смены содержимого).
	// Soft delete и restore версию не меняют.
	Version int `json:"version"`

	// Deleted — флаг soft delete
	Deleted bool `json:"deleted"`

	// DeletedAt — время soft delete (nil для активной записи)
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// DeletedBy — кто выполнил soft delete (nil для активной записи)
	DeletedBy *string `json:"deleted_by,omitempty"`

	// Permissions — гранты доступа (view/edit/delete)
	Permissions PermissionSet `json:"access_permissions"`

	// CreatedAt — время создания (управляется репозиторием)
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения (управляется репозиторием)
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive проверяет, что документ не помечен на удаление.
func (d *DocumentRecord) IsActive() bool {
	return !d.Deleted
}

// PurgeEligible проверяет, истёк ли срок хранения soft-deleted документа.
// retention — окно хранения корзины.
func (d *DocumentRecord) PurgeEligible(now time.Time, retention time.Duration) bool {
	if !d.Deleted || d.DeletedAt == nil {
		return false
	}
	return d.DeletedAt.Before(now.Add(-retention))
}
