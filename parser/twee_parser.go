package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Regex per la sintassi Twee 1.0
var (
	// Intestazione: :: Nome [tag1, tag2] — il nome non può contenere '[' o newline
	headerRegex = regexp.MustCompile(`^::\s*([^\[\n]+?)(?:\s*\[([^\]]+)\])?\s*$`)

	// Marker di inizio passaggio a inizio riga
	passageMarkerRegex = regexp.MustCompile(`(?m)^::`)

	// Link: [[Target]] oppure [[Display|Target]]
	linkRegex = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)

	// Immagine: [img[URL]]
	imageRegex = regexp.MustCompile(`\[img\[([^\]]+)\]\]`)
)

// SplitDocument divide il testo del documento in sezioni passaggio,
// ogni sezione inizia con il marker "::" a inizio riga.
// Le sezioni vuote vengono scartate.
func SplitDocument(content string) []string {
	starts := passageMarkerRegex.FindAllStringIndex(content, -1)
	if len(starts) == 0 {
		return nil
	}

	sections := []string{}
	for i, loc := range starts {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		section := strings.TrimSpace(content[loc[0]:end])
		if section != "" && strings.HasPrefix(section, "::") {
			sections = append(sections, section)
		}
	}
	return sections
}

// ParsePassage parsa una singola sezione (intestazione + contenuto).
// Un'intestazione non valida produce un errore e nessun passaggio parziale.
func ParsePassage(section string) (*Passage, error) {
	header := section
	content := ""
	if idx := strings.Index(section, "\n"); idx != -1 {
		header = section[:idx]
		content = section[idx+1:]
	}

	matches := headerRegex.FindStringSubmatch(header)
	if matches == nil {
		return nil, fmt.Errorf("invalid passage header: %s", header)
	}

	name := strings.TrimSpace(matches[1])

	// Tag separati da virgola, i tag vuoti vengono scartati
	tags := []string{}
	if matches[2] != "" {
		for _, tag := range strings.Split(matches[2], ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	// Estrai l'URL immagine e rimuovi il tag dal contenuto processato
	imageURL := ExtractImageURL(content)
	contentWithoutImage := content
	if imageURL != "" {
		contentWithoutImage = imageRegex.ReplaceAllString(content, "")
	}

	return &Passage{
		Name:       name,
		Tags:       tags,
		Content:    strings.TrimSpace(contentWithoutImage),
		RawContent: strings.TrimSpace(content),
		ImageURL:   imageURL,
	}, nil
}

// ExtractImageURL estrae l'URL dalla sintassi [img[...]].
// Solo la prima occorrenza per passaggio viene considerata.
func ExtractImageURL(content string) string {
	match := imageRegex.FindStringSubmatch(content)
	if match == nil {
		return ""
	}
	return match[1]
}

// ExtractLinks estrae tutti i link dal contenuto di un passaggio
func ExtractLinks(passage *Passage) []Link {
	return ExtractLinksFromText(passage.Content)
}

// ExtractLinksFromText estrae i link [[...]] da un testo, da sinistra a destra
func ExtractLinksFromText(text string) []Link {
	links := []Link{}
	for _, match := range linkRegex.FindAllStringSubmatch(text, -1) {
		var display, target string
		if match[2] != "" {
			// Formato [[Display|Target]]
			display = strings.TrimSpace(match[1])
			target = strings.TrimSpace(match[2])
		} else {
			// Formato [[Target]]
			target = strings.TrimSpace(match[1])
			display = target
		}
		links = append(links, Link{Display: display, Target: target, Setters: []Setter{}})
	}
	return links
}
