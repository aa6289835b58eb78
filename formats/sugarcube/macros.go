package sugarcube

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================
// MACRO PROCESSOR
// ============================================

// setRegex parsa l'assegnazione dopo la keyword 'set':
// $VAR op valore, con op tra =, to, +=, -=, *=, /=
var setRegex = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)\s+(=|to|\+=|-=|\*=|/=)\s+(.+)$`)

// MacroProcessor applica le macro <<set>> e <<print>> a uno store di variabili
type MacroProcessor struct {
	variables map[string]interface{}
	evaluator *Evaluator
	Errors    []string
}

// NewMacroProcessor crea un processor sullo store dato
func NewMacroProcessor(variables map[string]interface{}) *MacroProcessor {
	if variables == nil {
		variables = make(map[string]interface{})
	}
	return &MacroProcessor{
		variables: variables,
		evaluator: NewEvaluator(variables),
	}
}

// Variables restituisce lo store sottostante
func (mp *MacroProcessor) Variables() map[string]interface{} {
	return mp.variables
}

// ProcessSet applica una macro <<set>>. Il contenuto è quello tra << e >>,
// keyword 'set' inclusa. Una sintassi malformata registra un errore e non
// muta lo store.
func (mp *MacroProcessor) ProcessSet(content string) {
	assignment := strings.TrimSpace(content[len("set"):])

	match := setRegex.FindStringSubmatch(assignment)
	if match == nil {
		mp.Errors = append(mp.Errors, fmt.Sprintf("Invalid <<set>> syntax: %s", content))
		return
	}

	varName := match[1]
	operator := match[2]
	valueExpr := strings.TrimSpace(match[3])

	newValue := mp.evaluator.Evaluate(valueExpr)
	mp.drainEvaluatorErrors()
	if newValue == nil {
		// Errore già registrato dall'evaluator, lo store resta invariato
		return
	}

	switch operator {
	case "=", "to":
		mp.variables[varName] = newValue

	case "+=":
		current, ok := mp.variables[varName]
		if !ok {
			current = 0
		}
		result, err := addValues(current, newValue)
		if err != nil {
			mp.Errors = append(mp.Errors, fmt.Sprintf("Error in <<set>> %s: %v", content, err))
			return
		}
		mp.variables[varName] = result

	case "-=":
		current, ok := mp.variables[varName]
		if !ok {
			current = 0
		}
		result, err := arithmetic(current, newValue, "-")
		if err != nil {
			mp.Errors = append(mp.Errors, fmt.Sprintf("Error in <<set>> %s: %v", content, err))
			return
		}
		mp.variables[varName] = result

	case "*=":
		current, ok := mp.variables[varName]
		if !ok {
			current = 1
		}
		result, err := arithmetic(current, newValue, "*")
		if err != nil {
			mp.Errors = append(mp.Errors, fmt.Sprintf("Error in <<set>> %s: %v", content, err))
			return
		}
		mp.variables[varName] = result

	case "/=":
		if num, ok := toNumber(newValue); ok && num == 0 {
			mp.Errors = append(mp.Errors, fmt.Sprintf("Division by zero in: %s", content))
			return
		}
		current, ok := mp.variables[varName]
		if !ok {
			current = 1
		}
		result, err := arithmetic(current, newValue, "/")
		if err != nil {
			mp.Errors = append(mp.Errors, fmt.Sprintf("Error in <<set>> %s: %v", content, err))
			return
		}
		mp.variables[varName] = result
	}
}

// ProcessPrint valuta una macro <<print>> e restituisce la forma stampata,
// stringa vuota se la valutazione è assente
func (mp *MacroProcessor) ProcessPrint(content string) string {
	expr := strings.TrimSpace(content[len("print"):])
	value := mp.evaluator.Evaluate(expr)
	mp.drainEvaluatorErrors()
	return FormatValue(value)
}

// EvaluateCondition valuta una condizione per <<if>>/<<elseif>>
func (mp *MacroProcessor) EvaluateCondition(condition string) bool {
	result := mp.evaluator.EvaluateCondition(condition)
	mp.drainEvaluatorErrors()
	return result
}

// drainEvaluatorErrors travasa gli errori dell'evaluator nel processor,
// così il chiamante li raccoglie da un punto solo
func (mp *MacroProcessor) drainEvaluatorErrors() {
	if len(mp.evaluator.Errors) > 0 {
		mp.Errors = append(mp.Errors, mp.evaluator.Errors...)
		mp.evaluator.Errors = nil
	}
}
