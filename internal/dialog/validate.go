package dialog

import (
	"regexp"
	"strings"
)

// Телефон: +7 и десять цифр, пробелы между группами допустимы.
var phonePattern = regexp.MustCompile(`^\+7\s?\d{3}\s?\d{3}\s?\d{2}\s?\d{2}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}
