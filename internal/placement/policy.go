package placement

import (
	"fmt"
	"strings"
)

// Policy определяет поведение при повторной отправке чанка с тем же orgFileName.
type Policy string

const (
	// PolicyOverwrite заменяет существующий чанк (повторы клиента идемпотентны).
	PolicyOverwrite Policy = "overwrite"
	// PolicyReject отклоняет дубликат с конфликтом, исходный файл не трогается.
	PolicyReject Policy = "reject"
	// PolicyVersion сохраняет дубликат под именем <name>~vN.
	PolicyVersion Policy = "version"
)

// DefaultPolicy — перезапись: так ведут себя существующие клиенты при ретраях.
const DefaultPolicy = PolicyOverwrite

// maxVersions ограничивает перебор свободного имени для PolicyVersion.
const maxVersions = 1000

// versionSep отделяет номер версии; имена клиентов с таким суффиксом отклоняются.
const versionSep = "~v"

// ParsePolicy разбирает значение из конфигурации; пустая строка — политика по умолчанию.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPolicy, nil
	case PolicyOverwrite, PolicyReject, PolicyVersion:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

func versionName(name string, n int) string {
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s%s%d", name, versionSep, n)
}

// isVersionName сообщает, что имя оканчивается на ~v<цифры>.
func isVersionName(name string) bool {
	i := strings.LastIndex(name, versionSep)
	if i < 0 {
		return false
	}
	digits := name[i+len(versionSep):]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
