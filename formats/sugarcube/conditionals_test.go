package sugarcube

import (
	"strings"
	"testing"
)

// ============================================
// Test: IF standalone
// ============================================

func TestIfStandaloneTrue(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"vita": 100})

	result := ResolveConditional("<<if $vita gt 50>>Salute OK<<endif>>", mp)
	if result != "Salute OK" {
		t.Errorf("Expected 'Salute OK', got '%s'", result)
	}

	t.Logf("✅ IF standalone (true): '%s'", result)
}

func TestIfStandaloneFalse(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"vita": 30})

	result := ResolveConditional("<<if $vita gt 50>>Salute OK<<endif>>", mp)
	if result != "" {
		t.Errorf("Expected empty result, got '%s'", result)
	}

	t.Log("✅ IF standalone (false): ramo nascosto")
}

// ============================================
// Test: IF + ELSE
// ============================================

func TestIfElse(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"vita": 30})

	result := ResolveConditional("<<if $vita gt 50>>Ottimo<<else>>Male<<endif>>", mp)
	if result != "Male" {
		t.Errorf("Expected 'Male', got '%s'", result)
	}

	t.Logf("✅ IF+ELSE: '%s'", result)
}

// ============================================
// Test: catena ELSEIF
// ============================================

func TestIfElseIfChain(t *testing.T) {
	// A falsa, B vera: deve vincere esattamente il ramo Y
	mp := NewMacroProcessor(map[string]interface{}{"x": 2})

	result := ResolveConditional("<<if $x is 1>>X<<elseif $x is 2>>Y<<else>>Z<<endif>>", mp)
	if result != "Y" {
		t.Errorf("Expected 'Y', got '%s'", result)
	}

	t.Logf("✅ Catena elseif: '%s'", result)
}

func TestIfElseIfFirstMatchWins(t *testing.T) {
	// Più condizioni vere: vince la prima
	mp := NewMacroProcessor(map[string]interface{}{"x": 5})

	result := ResolveConditional("<<if $x gt 1>>A<<elseif $x gt 2>>B<<endif>>", mp)
	if result != "A" {
		t.Errorf("Expected 'A', got '%s'", result)
	}

	t.Log("✅ First-match wins")
}

func TestIfChainWhitespace(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"x": 2})

	text := "<<if $x is 1 >>X<<elseif  $x is 2 >>Y<<else>>Z<<endif>>"
	result := ResolveConditional(text, mp)
	if result != "Y" {
		t.Errorf("Expected 'Y', got '%s'", result)
	}

	t.Log("✅ Whitespace extra attorno ai tag tollerato")
}

// ============================================
// Test: nesting
// ============================================

func TestNestedConditionals(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"a": 1, "b": 2})

	text := "<<if $a is 1>>A1 <<if $b is 1>>B1<<else>>B2<<endif>><<else>>A2<<endif>>"

	// Una invocazione risolve solo il blocco più esterno
	result := ResolveConditional(text, mp)
	if result != "A1 <<if $b is 1>>B1<<else>>B2<<endif>>" {
		t.Errorf("Outer pass result unexpected: '%s'", result)
	}

	// La seconda invocazione risolve il blocco interno
	result = ResolveConditional(result, mp)
	if result != "A1 B2" {
		t.Errorf("Expected 'A1 B2', got '%s'", result)
	}

	t.Logf("✅ Nesting risolto in due passate: '%s'", result)
}

func TestNestedElseBelongsToInnerBlock(t *testing.T) {
	// L'else interno non deve delimitare il blocco esterno
	mp := NewMacroProcessor(map[string]interface{}{"a": 2})

	text := "<<if $a is 1>>X <<if $a is 3>>in<<else>>out<<endif>><<endif>>dopo"
	result := ResolveConditional(text, mp)
	if result != "dopo" {
		t.Errorf("Expected 'dopo', got '%s'", result)
	}

	t.Log("✅ else interno ignorato a profondità > 1")
}

func TestClosingTagSyntax(t *testing.T) {
	// <</if>> equivale a <<endif>>
	mp := NewMacroProcessor(map[string]interface{}{"x": 1})

	result := ResolveConditional("<<if $x is 1>>dentro<</if>>fuori", mp)
	if result != "dentrofuori" {
		t.Errorf("Expected 'dentrofuori', got '%s'", result)
	}

	t.Log("✅ Forma chiusa <</if>> supportata")
}

// ============================================
// Test: casi degeneri
// ============================================

func TestUnmatchedIfLeftIntact(t *testing.T) {
	mp := NewMacroProcessor(nil)

	text := "<<if $x is 1>>senza endif"
	result := ResolveConditional(text, mp)
	if result != text {
		t.Errorf("Unmatched block should be untouched, got '%s'", result)
	}

	t.Log("✅ Blocco incompleto lasciato intatto")
}

func TestSurroundingTextUntouched(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"x": 1})

	result := ResolveConditional("prima <<if $x is 1>>mezzo<<endif>> dopo", mp)
	if result != "prima mezzo dopo" {
		t.Errorf("Expected 'prima mezzo dopo', got '%s'", result)
	}

	t.Log("✅ Testo fuori dal blocco intatto")
}

func TestResolveAllConditionalsBounded(t *testing.T) {
	mp := NewMacroProcessor(map[string]interface{}{"x": 1})

	text := "<<if $x is 1>>uno <<if $x is 1>>due <<if $x is 1>>tre<<endif>><<endif>><<endif>>"
	result := resolveAllConditionals(text, mp)
	if strings.Contains(result, "<<if") {
		t.Errorf("Expected all conditionals resolved, got '%s'", result)
	}
	if result != "uno due tre" {
		t.Errorf("Expected 'uno due tre', got '%s'", result)
	}

	t.Logf("✅ Loop limitato collassa tutto: '%s'", result)
}
