package sugarcube

import (
	"regexp"
	"strings"

	"twee-engine/parser"
)

// SugarCubeFormat implementa formats.StoryFormat per Twee 1.0 / SugarCube 1.x
type SugarCubeFormat struct{}

// NewSugarCubeFormat crea un nuovo parser di formato
func NewSugarCubeFormat() *SugarCubeFormat {
	return &SugarCubeFormat{}
}

// GetFormatName restituisce "SugarCube"
func (f *SugarCubeFormat) GetFormatName() string {
	return "SugarCube"
}

var (
	setVarRegex = regexp.MustCompile(`<<set\s+\$([A-Za-z_][A-Za-z0-9_]*)\s+(?:=|to|\+=|-=|\*=|/=)\s+(.+?)>>`)
	macroRegex  = regexp.MustCompile(`(?s)<<.+?>>`)
)

// ParseLinks estrae i target dei link [[...]] dal contenuto
func (f *SugarCubeFormat) ParseLinks(content string) []string {
	links := parser.ExtractLinksFromText(content)
	targets := []string{}
	for _, link := range links {
		targets = append(targets, link.Target)
	}
	return targets
}

// ParseVariables estrae le variabili assegnate via <<set>>.
// I valori restano espressioni grezze: per la valutazione c'è l'Evaluator.
func (f *SugarCubeFormat) ParseVariables(content string) map[string]interface{} {
	variables := make(map[string]interface{})
	for _, match := range setVarRegex.FindAllStringSubmatch(content, -1) {
		variables[match[1]] = strings.TrimSpace(match[2])
	}
	return variables
}

// StripCode rimuove macro e markup lasciando solo il testo leggibile
func (f *SugarCubeFormat) StripCode(content string) string {
	// Rimuovi tutte le macro <<...>>
	cleaned := macroRegex.ReplaceAllString(content, "")

	// Rimuovi i tag immagine
	cleaned = regexp.MustCompile(`\[img\[[^\]]+\]\]`).ReplaceAllString(cleaned, "")

	// Riduci i link al solo testo visualizzato
	cleaned = regexp.MustCompile(`\[\[([^\]|]+)\|[^\]]+\]\]`).ReplaceAllString(cleaned, "$1")
	cleaned = regexp.MustCompile(`\[\[([^\]]+)\]\]`).ReplaceAllString(cleaned, "$1")

	// Pulisci spazi multipli
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	return strings.TrimSpace(cleaned)
}
