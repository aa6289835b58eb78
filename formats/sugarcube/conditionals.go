package sugarcube

import (
	"regexp"
	"strings"
)

// ============================================
// CONDITIONAL RESOLVER
// ============================================
// Risolve UN blocco <<if>>...<<endif>> più esterno per invocazione,
// con uno scan in avanti che traccia la profondità di nesting.
// Il chiamante deve reinvocare in un loop limitato: risolvere un blocco
// esterno può esporre nuove macro <<set>> da applicare prima dei blocchi
// interni che dipendono da quelle variabili.

// maxConditionalIterations limita i loop a punto fisso su conditionals e
// macro: è una rete di sicurezza contro input malformati, non un controllo
// di performance
const maxConditionalIterations = 20

var (
	// Prima macro <<if CONDIZIONE>>: la condizione si ferma al primo >>
	ifOpenRegex = regexp.MustCompile(`(?s)<<if\s+(.+?)>>`)

	// Tag di controllo del blocco: <<if>>, <<elseif>>, <<else>>, <<endif>>
	// e la forma chiusa equivalente <</if>>
	controlTagRegex = regexp.MustCompile(`(?s)<<(/?)(if|elseif|else|endif)(?:\s+(.+?))?>>`)
)

// branchKind identifica il tipo di ramo di un blocco condizionale
type branchKind int

const (
	branchIf branchKind = iota
	branchElseIf
	branchElse
)

// branch è un ramo delimitato del blocco corrente
type branch struct {
	kind      branchKind
	condition string // Vuota per branchElse
	content   string
}

// ResolveConditional individua il primo blocco <<if>> non ancora risolto,
// lo delimita in rami fratelli (solo a profondità 1) e lo sostituisce col
// contenuto del primo ramo vincente. Tutto il resto del testo è intatto.
// Se non c'è nessun blocco completo, il testo torna invariato.
func ResolveConditional(text string, mp *MacroProcessor) string {
	open := ifOpenRegex.FindStringSubmatchIndex(text)
	if open == nil {
		return text
	}

	blockStart := open[0]
	scanStart := open[1]
	current := branch{kind: branchIf, condition: text[open[2]:open[3]]}
	contentStart := scanStart

	branches := []branch{}
	depth := 1
	pos := scanStart

	for pos < len(text) && depth > 0 {
		m := controlTagRegex.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			// Nessun <<endif>> corrispondente: blocco incompleto, non toccare
			return text
		}

		isClosing := text[pos+m[2]:pos+m[3]] == "/"
		tag := text[pos+m[4] : pos+m[5]]
		if isClosing && tag == "if" {
			tag = "endif"
		}
		tagStart := pos + m[0]
		tagEnd := pos + m[1]

		switch tag {
		case "if":
			depth++
			pos = tagEnd

		case "endif":
			depth--
			if depth > 0 {
				pos = tagEnd
				continue
			}
			// Blocco delimitato: chiudi l'ultimo ramo e scegli il vincente
			current.content = text[contentStart:tagStart]
			branches = append(branches, current)
			return text[:blockStart] + selectBranch(branches, mp) + text[tagEnd:]

		case "elseif", "else":
			if depth != 1 {
				// Appartiene a un blocco interno, non è un confine qui
				pos = tagEnd
				continue
			}
			current.content = text[contentStart:tagStart]
			branches = append(branches, current)

			if tag == "elseif" {
				condition := ""
				if m[6] != -1 {
					condition = text[pos+m[6] : pos+m[7]]
				}
				current = branch{kind: branchElseIf, condition: condition}
			} else {
				current = branch{kind: branchElse}
			}
			contentStart = tagEnd
			pos = tagEnd

		default:
			pos = tagEnd
		}
	}

	return text
}

// selectBranch sceglie il primo ramo else, o il primo con condizione vera.
// I rami successivi al vincente vengono scartati.
func selectBranch(branches []branch, mp *MacroProcessor) string {
	for _, b := range branches {
		if b.kind == branchElse {
			return b.content
		}
		if mp.EvaluateCondition(strings.TrimSpace(b.condition)) {
			return b.content
		}
	}
	return ""
}

// resolveAllConditionals reinvoca il resolver in un loop limitato finché
// non restano blocchi <<if>> o un'iterazione non produce cambiamenti
func resolveAllConditionals(text string, mp *MacroProcessor) string {
	for i := 0; i < maxConditionalIterations; i++ {
		previous := text
		text = ResolveConditional(text, mp)
		if text == previous || !strings.Contains(text, "<<if") {
			break
		}
	}
	return text
}
