package services

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	typeCodeRe = regexp.MustCompile(`^[A-Z0-9_-]{1,20}$`)
)

// fieldErrors накапливает ошибки по полям
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError("Datos inválidos", f)
}

// requireText проверяет обязательную строку после обрезки пробелов
func (f fieldErrors) requireText(field, value string, max int) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		f.add(field, "Campo obligatorio")
	case utf8.RuneCountInString(value) > max:
		f.add(field, "Longitud máxima excedida")
	}
	return value
}

// optionalText проверяет необязательную строку
func (f fieldErrors) optionalText(field, value string, max int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > max {
		f.add(field, "Longitud máxima excedida")
	}
	return value
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern шаблон подстроки для LIKE ... ESCAPE '\'
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// ValidHexColor формат #RRGGBB
func ValidHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

// ValidTypeCode короткий код типа огнетушителя
func ValidTypeCode(s string) bool {
	return typeCodeRe.MatchString(s)
}

// ValidEmail проверяет адрес электронной почты
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Optional поле частичного обновления: отличает отсутствие поля от явного null
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some возвращает заданное значение
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null возвращает явное обнуление поля
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON вызывается только если поле присутствует в JSON
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
