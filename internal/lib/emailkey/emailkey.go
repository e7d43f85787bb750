// Package emailkey формирует канонический ключ поиска учётной записи
// по «сырому» email. Нормализация чистая и идемпотентная:
// Normalize(Normalize(x)) == Normalize(x), побочных эффектов и ошибок нет.
package emailkey

import "strings"

// Normalize приводит email к каноническому виду:
// обрезает пробельные символы по краям и переводит в нижний регистр.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
