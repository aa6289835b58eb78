package sugarcube

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"twee-engine/parser"
)

// ============================================
// PASSAGE RENDERER + PARSING DOCUMENTO
// ============================================

var (
	printMacroRegex = regexp.MustCompile(`<<(print\s+[^>]+)>>`)
	nobrRegex       = regexp.MustCompile(`(?s)<<nobr>>(.*?)<<endnobr>>`)
	displayRegex    = regexp.MustCompile(`(?i)<<display\s+["']([^"']+)["']\s*>>`)
)

// ParseDocument parsa un documento Twee completo in una tabella di passaggi
// più i due snapshot di variabili bootstrap. Non solleva mai errori: i
// problemi strutturali finiscono in ParseResult.Errors.
// Se più passaggi condividono il nome vince l'ultimo in ordine di documento
// (una leniency del formato, non un difetto).
func ParseDocument(content string) *parser.ParseResult {
	passages := make(map[string]*parser.Passage)
	errors := []string{}

	for _, section := range parser.SplitDocument(content) {
		passage, err := parser.ParsePassage(section)
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}
		passages[passage.Name] = passage
	}

	// Snapshot indipendenti: mutarne uno non deve mai toccare l'altro
	storyInitVars, initErrs := ExtractSpecialVariables(passages["StoryInit"])
	errors = append(errors, initErrs...)

	testSetupVars, setupErrs := ExtractSpecialVariables(passages["TestSetup"])
	errors = append(errors, setupErrs...)

	return &parser.ParseResult{
		Passages:      passages,
		StoryInitVars: storyInitVars,
		TestSetupVars: testSetupVars,
		Errors:        errors,
	}
}

// ParseFile legge un file .twee e lo parsa.
// L'I/O su file vive qui, fuori dal core puro su testo.
func ParseFile(filepath string) (*parser.ParseResult, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("errore lettura file: %w", err)
	}
	return ParseDocument(string(content)), nil
}

// RenderPassage espande le macro di un passaggio contro lo store fornito,
// che viene mutato in place. La tabella passages serve alle inclusioni
// <<display>>; displayStack è lo stack delle inclusioni in corso (nil alla
// chiamata più esterna).
func RenderPassage(passage *parser.Passage, variables map[string]interface{}, passages map[string]*parser.Passage, displayStack []string) *parser.RenderResult {
	errors := []string{}
	text := passage.Content
	mp := NewMacroProcessor(variables)

	// 1. Espandi le inclusioni <<display>> PRIMA di tutto, così i passaggi
	// inclusi portano dentro i propri conditionals e le proprie <<set>>
	if passages != nil {
		text = processDisplayMacros(text, passages, variables, displayStack, &errors)
	}

	// 2. Alterna una passata del conditional resolver e una spazzata
	// completa delle <<set>> rimaste, fino al punto fisso
	for i := 0; i < maxConditionalIterations; i++ {
		previous := text

		text = ResolveConditional(text, mp)

		text = setMacroRegex.ReplaceAllStringFunc(text, func(match string) string {
			mp.ProcessSet(setMacroRegex.FindStringSubmatch(match)[1])
			return ""
		})

		if text == previous {
			break
		}
	}

	// 3. Espandi le <<print>> rimaste (le variabili sono ormai stabili)
	text = printMacroRegex.ReplaceAllStringFunc(text, func(match string) string {
		return mp.ProcessPrint(printMacroRegex.FindStringSubmatch(match)[1])
	})

	// 4. Collassa gli span <<nobr>>...<<endnobr>>
	text = nobrRegex.ReplaceAllStringFunc(text, func(match string) string {
		inner := nobrRegex.FindStringSubmatch(match)[1]
		return strings.ReplaceAll(inner, "\n", " ")
	})

	// 5. Estrai i link dal testo finale espanso, non dal contenuto originale
	links := parser.ExtractLinksFromText(text)

	errors = append(errors, mp.Errors...)

	return &parser.RenderResult{
		Text:            strings.TrimSpace(text),
		Links:           links,
		VariableChanges: map[string]interface{}{},
		Errors:          errors,
	}
}

// processDisplayMacros espande le macro <<display "NOME">> includendo il
// contenuto renderizzato del passaggio target. I riferimenti circolari e i
// passaggi mancanti producono un marker inline e un errore registrato,
// senza ricorsione.
func processDisplayMacros(text string, passages map[string]*parser.Passage, variables map[string]interface{}, displayStack []string, errors *[]string) string {
	return displayRegex.ReplaceAllStringFunc(text, func(match string) string {
		passageName := strings.TrimSpace(displayRegex.FindStringSubmatch(match)[1])

		// Riferimento circolare: il nome è già sullo stack delle inclusioni
		for _, name := range displayStack {
			if name == passageName {
				msg := fmt.Sprintf("Circular <<display>> reference detected: %s",
					strings.Join(append(append([]string{}, displayStack...), passageName), " -> "))
				*errors = append(*errors, msg)
				return "[ERROR: " + msg + "]"
			}
		}

		// Lookup case-insensitive nella tabella dei passaggi
		var target *parser.Passage
		for name, passage := range passages {
			if strings.EqualFold(name, passageName) {
				target = passage
				break
			}
		}
		if target == nil {
			msg := fmt.Sprintf("<<display>> passage not found: %s", passageName)
			*errors = append(*errors, msg)
			return "[ERROR: " + msg + "]"
		}

		// Rendering ricorsivo col MEDESIMO store del chiamante
		newStack := append(append([]string{}, displayStack...), passageName)
		result := RenderPassage(target, variables, passages, newStack)
		*errors = append(*errors, result.Errors...)
		return result.Text
	})
}
