package sugarcube

import (
	"regexp"

	"twee-engine/parser"
)

// ============================================
// SPECIAL PASSAGES - StoryInit & TestSetup
// ============================================

var (
	setMacroRegex = regexp.MustCompile(`<<(set\s+.+?)>>`)
	ifStartRegex  = regexp.MustCompile(`<<if\s+`)
)

// ExtractSpecialVariables estrae lo snapshot di variabili da un passaggio
// bootstrap (StoryInit o TestSetup) con il protocollo a tre passate:
//
//  1. le <<set>> top-level (prima del primo <<if>>) vengono applicate in
//     ordine di documento a uno store nuovo
//  2. i conditionals nel testo rimanente vengono collassati in un loop
//     limitato, usando lo store della passata 1 come contesto
//  3. le <<set>> sopravvissute (solo quelle dei rami selezionati) vengono
//     applicate in ordine di documento allo stesso store
//
// Un passaggio assente produce uno snapshot vuoto, mai un errore.
func ExtractSpecialVariables(passage *parser.Passage) (map[string]interface{}, []string) {
	variables := make(map[string]interface{})
	if passage == nil {
		return variables, nil
	}

	content := passage.Content
	mp := NewMacroProcessor(variables)

	// PASSATA 1: <<set>> top-level, prima del primo <<if>>
	topLevel := content
	ifLoc := ifStartRegex.FindStringIndex(content)
	if ifLoc != nil {
		topLevel = content[:ifLoc[0]]
	}
	applySetMacros(topLevel, mp)

	if ifLoc != nil {
		// PASSATA 2: collassa i conditionals del testo rimanente usando
		// le variabili della passata 1 come contesto vivo
		resolved := resolveAllConditionals(content[ifLoc[0]:], mp)

		// PASSATA 3: applica le <<set>> dei soli rami selezionati
		applySetMacros(resolved, mp)
	}

	return variables, mp.Errors
}

// applySetMacros applica ogni macro <<set>> del testo in ordine di documento
func applySetMacros(text string, mp *MacroProcessor) {
	for _, match := range setMacroRegex.FindAllStringSubmatch(text, -1) {
		mp.ProcessSet(match[1])
	}
}
