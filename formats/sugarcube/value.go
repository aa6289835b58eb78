package sugarcube

import (
	"strconv"
	"strings"
)

// ParseValue parsa un token literal in un valore tipizzato.
// Tipi supportati: int, float64, bool, string.
// Non c'è un percorso di errore: ogni input produce un valore.
func ParseValue(valueStr string) interface{} {
	valueStr = strings.TrimSpace(valueStr)

	// Stringa con quotes (singole o doppie)
	if len(valueStr) >= 2 {
		first := valueStr[0]
		last := valueStr[len(valueStr)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return valueStr[1 : len(valueStr)-1]
		}
	}

	// Booleano (case-insensitive)
	switch strings.ToLower(valueStr) {
	case "true":
		return true
	case "false":
		return false
	}

	// Numerico: con '.' è float, altrimenti int
	if strings.Contains(valueStr, ".") {
		if num, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return num
		}
	} else if num, err := strconv.Atoi(valueStr); err == nil {
		return num
	}

	// Default: stringa senza quotes
	return valueStr
}

// FormatValue converte un valore nella sua forma stampata
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// quoteValue converte un valore nella sua forma literal, reinseribile
// in un'espressione (le stringhe vengono quotate)
func quoteValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return strconv.Quote(s)
	}
	return FormatValue(value)
}

// toNumber converte un valore in float64 se possibile
func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// toBool converte un valore in booleano (semantica Twee: zero e stringa vuota sono false)
func toBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return false
	}
}
