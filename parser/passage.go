package parser

// Passage rappresenta un singolo passaggio Twee 1.0
type Passage struct {
	Name       string   `json:"name"`
	Tags       []string `json:"tags"`
	Content    string   `json:"content"`     // Contenuto senza il tag [img[...]]
	RawContent string   `json:"raw_content"` // Contenuto originale (tag immagine incluso)
	ImageURL   string   `json:"image_url,omitempty"`
}

// Setter rappresenta un'assegnazione inline in un link (variabile, operatore, valore)
// Presente per compatibilità col formato: l'estrazione attuale non li popola mai
type Setter struct {
	Variable string `json:"variable"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Link rappresenta un collegamento [[...]] verso un altro passaggio
type Link struct {
	Display string   `json:"display"`
	Target  string   `json:"target"`
	Setters []Setter `json:"setters"`
}

// ParseResult è il risultato del parsing di un intero documento Twee
type ParseResult struct {
	Passages      map[string]*Passage    `json:"passages"`
	StoryInitVars map[string]interface{} `json:"story_init_vars"`
	TestSetupVars map[string]interface{} `json:"test_setup_vars"`
	Errors        []string               `json:"errors"`
}

// RenderResult è il risultato del rendering di un singolo passaggio
type RenderResult struct {
	Text            string                 `json:"text"`
	Links           []Link                 `json:"links"`
	VariableChanges map[string]interface{} `json:"variable_changes"` // Riservato, sempre vuoto
	Errors          []string               `json:"errors"`
}
