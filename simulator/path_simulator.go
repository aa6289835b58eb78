package simulator

import (
	"fmt"

	"twee-engine/formats/sugarcube"
	"twee-engine/parser"
)

// PathSimulator simula un percorso attraverso la storia eseguendo davvero
// le macro di ogni passaggio contro uno store condiviso
type PathSimulator struct {
	story *parser.ParseResult
}

// VariableChange rappresenta il cambiamento di una variabile in uno step
type VariableChange struct {
	Name     string      `json:"name"`
	Previous interface{} `json:"previous"`
	Current  interface{} `json:"current"`
	Delta    interface{} `json:"delta,omitempty"` // Solo per numeri
}

// StepResult risultato di un singolo step
type StepResult struct {
	PassageName    string                    `json:"passage_name"`
	PassageIndex   int                       `json:"passage_index"`
	Text           string                    `json:"text"`
	Changes        map[string]VariableChange `json:"changes"`
	Warnings       []string                  `json:"warnings,omitempty"`
	AvailableLinks []string                  `json:"available_links"`
}

// SimulationResult risultato completo della simulazione
type SimulationResult struct {
	Success       bool                   `json:"success"`
	Path          []string               `json:"path"`
	Steps         []StepResult           `json:"steps"`
	FinalState    map[string]interface{} `json:"final_state"`
	Errors        []string               `json:"errors,omitempty"`
	TotalWarnings int                    `json:"total_warnings"`
}

// NewPathSimulator crea un nuovo simulatore sulla storia parsata
func NewPathSimulator(story *parser.ParseResult) *PathSimulator {
	return &PathSimulator{story: story}
}

// ValidatePath verifica che il path sia valido: ogni passaggio esiste e
// ogni salto segue un link del passaggio precedente
func (ps *PathSimulator) ValidatePath(path []string) []string {
	errors := []string{}

	for i, name := range path {
		if _, exists := ps.story.Passages[name]; !exists {
			errors = append(errors, fmt.Sprintf("Step %d: passaggio '%s' non esiste", i+1, name))
		}
	}

	for i := 0; i < len(path)-1; i++ {
		passage, exists := ps.story.Passages[path[i]]
		if !exists {
			continue // Già segnalato sopra
		}

		targets := linkTargets(parser.ExtractLinks(passage))
		linked := false
		for _, target := range targets {
			if target == path[i+1] {
				linked = true
				break
			}
		}
		if !linked {
			errors = append(errors, fmt.Sprintf(
				"Step %d→%d: '%s' non ha un link diretto a '%s'. Link disponibili: %v",
				i+1, i+2, path[i], path[i+1], targets,
			))
		}
	}

	return errors
}

// SimulatePath esegue il percorso passaggio per passaggio.
// Lo stato iniziale è una copia dello snapshot StoryInit, così ogni
// simulazione parte pulita; initial (se non nil) lo sovrascrive.
func (ps *PathSimulator) SimulatePath(path []string, initial map[string]interface{}) *SimulationResult {
	result := &SimulationResult{
		Success:    true,
		Path:       path,
		Steps:      []StepResult{},
		FinalState: map[string]interface{}{},
		Errors:     []string{},
	}

	if validationErrors := ps.ValidatePath(path); len(validationErrors) > 0 {
		result.Success = false
		result.Errors = validationErrors
		return result
	}

	state := copyState(ps.story.StoryInitVars)
	for name, value := range initial {
		state[name] = value
	}

	for i, name := range path {
		passage := ps.story.Passages[name]

		before := copyState(state)
		render := sugarcube.RenderPassage(passage, state, ps.story.Passages, nil)

		step := StepResult{
			PassageName:    name,
			PassageIndex:   i + 1,
			Text:           render.Text,
			Changes:        diffStates(before, state),
			Warnings:       render.Errors,
			AvailableLinks: linkTargets(render.Links),
		}
		result.TotalWarnings += len(step.Warnings)
		result.Steps = append(result.Steps, step)
	}

	result.FinalState = state
	return result
}

// GetSuggestedPaths suggerisce percorsi seguendo i link statici, in BFS,
// a partire dal passaggio dato
func (ps *PathSimulator) GetSuggestedPaths(startPassage string, maxDepth int) [][]string {
	paths := [][]string{}
	queue := [][]string{{startPassage}}

	// Limite a 10 path per non esplodere su storie molto ramificate
	for len(queue) > 0 && len(paths) < 10 {
		currentPath := queue[0]
		queue = queue[1:]

		if len(currentPath) >= maxDepth {
			paths = append(paths, currentPath)
			continue
		}

		passage, exists := ps.story.Passages[currentPath[len(currentPath)-1]]
		if !exists {
			continue
		}

		targets := linkTargets(parser.ExtractLinks(passage))
		if len(targets) == 0 {
			// Vicolo cieco: il percorso finisce qui
			paths = append(paths, currentPath)
			continue
		}

		for _, target := range targets {
			next := make([]string, len(currentPath), len(currentPath)+1)
			copy(next, currentPath)
			queue = append(queue, append(next, target))
		}
	}

	return paths
}

// diffStates calcola i cambiamenti tra due stati
func diffStates(before, after map[string]interface{}) map[string]VariableChange {
	changes := map[string]VariableChange{}

	for name, current := range after {
		previous, existed := before[name]
		if existed && previous == current {
			continue
		}

		change := VariableChange{Name: name, Current: current}
		if existed {
			change.Previous = previous
			prevNum, prevOK := toNumber(previous)
			currNum, currOK := toNumber(current)
			if prevOK && currOK {
				change.Delta = currNum - prevNum
			}
		}
		changes[name] = change
	}

	return changes
}

func copyState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for name, value := range state {
		out[name] = value
	}
	return out
}

func linkTargets(links []parser.Link) []string {
	targets := []string{}
	for _, link := range links {
		targets = append(targets, link.Target)
	}
	return targets
}

// toNumber converte un valore in numero se possibile
func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
