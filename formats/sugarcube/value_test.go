package sugarcube

import (
	"testing"
)

// ============================================
// Test: ParseValue
// ============================================

func TestParseValueInteger(t *testing.T) {
	value := ParseValue("42")
	if v, ok := value.(int); !ok || v != 42 {
		t.Errorf("Expected int 42, got %T %v", value, value)
	}

	t.Logf("✅ Intero: %v", value)
}

func TestParseValueFloat(t *testing.T) {
	value := ParseValue("3.14")
	if v, ok := value.(float64); !ok || v != 3.14 {
		t.Errorf("Expected float 3.14, got %T %v", value, value)
	}

	t.Logf("✅ Float: %v", value)
}

func TestParseValueBoolean(t *testing.T) {
	if v := ParseValue("true"); v != true {
		t.Errorf("Expected true, got %v", v)
	}
	if v := ParseValue("FALSE"); v != false {
		t.Errorf("Expected false (case-insensitive), got %v", v)
	}

	t.Log("✅ Booleani riconosciuti, case-insensitive")
}

func TestParseValueQuotedString(t *testing.T) {
	if v := ParseValue(`"hello"`); v != "hello" {
		t.Errorf(`Expected 'hello', got %v`, v)
	}
	if v := ParseValue(`'world'`); v != "world" {
		t.Errorf(`Expected 'world', got %v`, v)
	}
	// I numeri quotati restano stringhe
	if v := ParseValue(`"42"`); v != "42" {
		t.Errorf(`Expected string "42", got %T %v`, v, v)
	}

	t.Log("✅ Stringhe quotate: quotes rimosse, tipo preservato")
}

func TestParseValueFallbackString(t *testing.T) {
	if v := ParseValue("hero of the realm"); v != "hero of the realm" {
		t.Errorf("Expected raw string, got %v", v)
	}

	t.Log("✅ Fallback a stringa grezza")
}

// ============================================
// Test: FormatValue
// ============================================

func TestFormatValue(t *testing.T) {
	if s := FormatValue(42); s != "42" {
		t.Errorf("Expected '42', got '%s'", s)
	}
	if s := FormatValue(2.5); s != "2.5" {
		t.Errorf("Expected '2.5', got '%s'", s)
	}
	if s := FormatValue(true); s != "true" {
		t.Errorf("Expected 'true', got '%s'", s)
	}
	if s := FormatValue("abc"); s != "abc" {
		t.Errorf("Expected 'abc', got '%s'", s)
	}
	if s := FormatValue(nil); s != "" {
		t.Errorf("Expected empty string for nil, got '%s'", s)
	}

	t.Log("✅ Forma stampata corretta per tutti i tipi")
}
