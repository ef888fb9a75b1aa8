package model

// Career — карьерный путь, корень иерархии канваса.
// Таблица careers, для Admin Module — только чтение.
type Career struct {
	// ID — UUID карьеры
	ID string
	// Name — название карьеры
	Name string
	// Slug — URL-идентификатор
	Slug string
	// Icon — имя иконки (может быть nil)
	Icon *string
	// Color — цвет карточки (hex)
	Color string
	// Status — статус (draft, published, archived)
	Status string
}

// Course — курс внутри карьеры.
// Таблица courses, для Admin Module — только чтение.
type Course struct {
	// ID — UUID курса
	ID string
	// Name — название курса
	Name string
	// Slug — URL-идентификатор
	Slug string
	// Icon — имя иконки (может быть nil)
	Icon *string
	// Status — статус (draft, published, archived)
	Status string
}

// Статусы курсов и карьер.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)
