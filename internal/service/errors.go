// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — канвас не проходит инварианты и не может быть сохранён.
	ErrValidation = errors.New("команда не проходит проверку инвариантов")
	// ErrTeamNameConflict — не удалось подобрать уникальное имя команды.
	ErrTeamNameConflict = errors.New("название команды уже занято для этой карьеры")
	// ErrTeamArchived — команда архивирована и недоступна для редактирования.
	ErrTeamArchived = errors.New("команда архивирована")
	// ErrNoBaseline — попытка сохранить изменения без baseline (режим edit
	// требует гидрации загрузчиком).
	ErrNoBaseline = errors.New("канвас не загружен из сохранённой команды")
)
