package sugarcube

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// ============================================
// EXPRESSION EVALUATOR
// ============================================

// Operatori testuali Twee normalizzati in forma simbolica.
// L'ordine è fisso per avere una normalizzazione deterministica.
var textOperators = []struct {
	pattern *regexp.Regexp
	symbol  string
}{
	{regexp.MustCompile(`\bis\b`), "=="},
	{regexp.MustCompile(`\bneq\b`), "!="},
	{regexp.MustCompile(`\bgte\b`), ">="},
	{regexp.MustCompile(`\bgt\b`), ">"},
	{regexp.MustCompile(`\blte\b`), "<="},
	{regexp.MustCompile(`\blt\b`), "<"},
}

var (
	variableRegex = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	eitherRegex   = regexp.MustCompile(`either\(([^)]+)\)`)
	randomRegex   = regexp.MustCompile(`random\(([^,]+),\s*([^)]+)\)`)
)

// Evaluator valuta espressioni Twee contro uno store di variabili.
// Le variabili hanno lookup case-insensitive, una variabile mancante
// vale stringa vuota (comportamento Twee 1.0, non un errore).
type Evaluator struct {
	variables map[string]interface{}
	Errors    []string
}

// NewEvaluator crea un nuovo evaluator sullo store dato
func NewEvaluator(variables map[string]interface{}) *Evaluator {
	if variables == nil {
		variables = make(map[string]interface{})
	}
	return &Evaluator{variables: variables}
}

// Evaluate valuta un'espressione in un valore tipizzato.
// In caso di fallimento registra un errore e restituisce nil (assente).
func (e *Evaluator) Evaluate(expr string) interface{} {
	// 1. Normalizza gli operatori testuali
	normalized := e.normalizeExpression(expr)

	// 2. Sostituisci le variabili con la loro forma literal
	resolved := e.resolveVariables(normalized)

	// 3. Risolvi le funzioni either() e random()
	resolved, err := e.resolveFunctions(resolved)
	if err != nil {
		e.Errors = append(e.Errors, fmt.Sprintf("Expression error: %s - %v", expr, err))
		return nil
	}

	// 4. Valuta l'espressione risultante
	result, err := evalExpression(resolved)
	if err != nil {
		e.Errors = append(e.Errors, fmt.Sprintf("Expression error: %s - %v", expr, err))
		return nil
	}
	return result
}

// EvaluateCondition valuta una condizione in booleano.
// Non fallisce mai: un risultato assente vale false.
func (e *Evaluator) EvaluateCondition(condition string) bool {
	result := e.Evaluate(condition)
	if result == nil {
		return false
	}
	return toBool(result)
}

// normalizeExpression riscrive gli operatori testuali in forma simbolica,
// con word boundary per non corrompere gli identificatori
func (e *Evaluator) normalizeExpression(expr string) string {
	result := expr
	for _, op := range textOperators {
		result = op.pattern.ReplaceAllString(result, op.symbol)
	}
	return result
}

// resolveVariables sostituisce ogni riferimento $VAR con la forma literal
// del valore risolto. I nomi non risolti diventano stringa vuota.
func (e *Evaluator) resolveVariables(expr string) string {
	return variableRegex.ReplaceAllStringFunc(expr, func(match string) string {
		varName := match[1:] // Salta il '$'
		value, found := e.getVariable(varName)
		if !found {
			return ""
		}
		return quoteValue(value)
	})
}

// getVariable cerca una variabile: prima match esatto, poi scansione
// case-insensitive
func (e *Evaluator) getVariable(varName string) (interface{}, bool) {
	if value, ok := e.variables[varName]; ok {
		return value, true
	}
	lower := strings.ToLower(varName)
	for key, value := range e.variables {
		if strings.ToLower(key) == lower {
			return value, true
		}
	}
	return nil, false
}

// resolveFunctions sostituisce le chiamate either() e random() col loro risultato
func (e *Evaluator) resolveFunctions(expr string) (string, error) {
	var resolveErr error

	// either(a, b, ...) sceglie un argomento a caso
	expr = eitherRegex.ReplaceAllStringFunc(expr, func(match string) string {
		argsStr := eitherRegex.FindStringSubmatch(match)[1]
		args := splitArgs(argsStr)
		if len(args) == 0 {
			return `""`
		}
		choice := args[rand.Intn(len(args))]
		return quoteValue(ParseValue(choice))
	})

	// random(min, max) genera un intero nell'intervallo inclusivo.
	// Il risultato è emesso come stringa quotata per comporsi nelle concatenazioni.
	expr = randomRegex.ReplaceAllStringFunc(expr, func(match string) string {
		groups := randomRegex.FindStringSubmatch(match)
		minVal, minOK := toNumber(ParseValue(groups[1]))
		maxVal, maxOK := toNumber(ParseValue(groups[2]))
		if !minOK || !maxOK {
			resolveErr = fmt.Errorf("random() requires numeric bounds")
			return match
		}
		lo, hi := int(minVal), int(maxVal)
		if hi < lo {
			resolveErr = fmt.Errorf("random() range is empty: %d > %d", lo, hi)
			return match
		}
		return fmt.Sprintf(`"%d"`, lo+rand.Intn(hi-lo+1))
	})

	return expr, resolveErr
}

// splitArgs divide gli argomenti di una funzione per virgola,
// rispettando le sottostringhe quotate
func splitArgs(argsStr string) []string {
	args := []string{}
	var current strings.Builder
	inQuotes := false
	var quoteChar byte

	for i := 0; i < len(argsStr); i++ {
		c := argsStr[i]
		switch {
		case (c == '"' || c == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = c
			current.WriteByte(c)
		case c == quoteChar && inQuotes:
			inQuotes = false
			current.WriteByte(c)
		case c == ',' && !inQuotes:
			if arg := strings.TrimSpace(current.String()); arg != "" {
				args = append(args, arg)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	if arg := strings.TrimSpace(current.String()); arg != "" {
		args = append(args, arg)
	}
	return args
}
