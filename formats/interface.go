package formats

// StoryFormat definisce l'interface comune dei formati di storia supportati.
// I layer esterni (API, test runner) passano solo da qui: il contenuto è
// sempre testo grezzo di un passaggio.
type StoryFormat interface {
	// GetFormatName restituisce il nome del formato
	GetFormatName() string

	// ParseLinks estrae i target dei collegamenti dal contenuto
	ParseLinks(content string) []string

	// ParseVariables estrae le variabili assegnate nel contenuto
	// (nome -> espressione grezza del valore)
	ParseVariables(content string) map[string]interface{}

	// StripCode rimuove le macro lasciando solo il testo leggibile
	StripCode(content string) string
}
