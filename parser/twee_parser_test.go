package parser

import (
	"testing"
)

// ============================================
// Test: Splitting del documento
// ============================================

func TestSplitDocumentMultiplePassages(t *testing.T) {
	content := ":: Start\nBenvenuto.\n\n:: Forest\nAlberi ovunque.\n\n:: End\nFine.\n"

	sections := SplitDocument(content)
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}

	if sections[0][:8] != ":: Start" {
		t.Errorf("Expected first section to start with ':: Start', got '%s'", sections[0][:8])
	}

	t.Logf("✅ Documento diviso in %d sezioni", len(sections))
}

func TestSplitDocumentIgnoresPreamble(t *testing.T) {
	content := "testo libero prima del primo passaggio\n:: Start\nContenuto.\n"

	sections := SplitDocument(content)
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}

	t.Log("✅ Preambolo senza marker ignorato")
}

func TestSplitDocumentEmpty(t *testing.T) {
	if sections := SplitDocument(""); len(sections) != 0 {
		t.Errorf("Expected no sections for empty document, got %d", len(sections))
	}

	t.Log("✅ Documento vuoto: nessuna sezione")
}

// ============================================
// Test: Parsing dell'intestazione
// ============================================

func TestParsePassageBasic(t *testing.T) {
	passage, err := ParsePassage(":: Start\nPrima riga.\nSeconda riga.")
	if err != nil {
		t.Fatalf("Error: %v", err)
	}

	if passage.Name != "Start" {
		t.Errorf("Expected name 'Start', got '%s'", passage.Name)
	}
	if passage.Content != "Prima riga.\nSeconda riga." {
		t.Errorf("Unexpected content: '%s'", passage.Content)
	}
	if len(passage.Tags) != 0 {
		t.Errorf("Expected no tags, got %v", passage.Tags)
	}

	t.Logf("✅ Passaggio base: name = '%s'", passage.Name)
}

func TestParsePassageWithTags(t *testing.T) {
	passage, err := ParsePassage(":: Forest [dark, outdoor, , danger]\nAlberi.")
	if err != nil {
		t.Fatalf("Error: %v", err)
	}

	// I tag vuoti vengono scartati
	if len(passage.Tags) != 3 {
		t.Fatalf("Expected 3 tags, got %v", passage.Tags)
	}
	if passage.Tags[0] != "dark" || passage.Tags[1] != "outdoor" || passage.Tags[2] != "danger" {
		t.Errorf("Unexpected tags: %v", passage.Tags)
	}

	t.Logf("✅ Tag parsati: %v", passage.Tags)
}

func TestParsePassageNameWithSpaces(t *testing.T) {
	passage, err := ParsePassage(":: The Dark Cave [cave]\nBuio.")
	if err != nil {
		t.Fatalf("Error: %v", err)
	}

	if passage.Name != "The Dark Cave" {
		t.Errorf("Expected 'The Dark Cave', got '%s'", passage.Name)
	}

	t.Logf("✅ Nome con spazi: '%s'", passage.Name)
}

func TestParsePassageInvalidHeader(t *testing.T) {
	// Nome mancante prima della lista tag
	_, err := ParsePassage(":: [broken]\nContenuto.")
	if err == nil {
		t.Fatal("Expected error for invalid header")
	}

	t.Logf("✅ Intestazione non valida rifiutata: %v", err)
}

// ============================================
// Test: Immagini
// ============================================

func TestParsePassageWithImage(t *testing.T) {
	passage, err := ParsePassage(":: Start\nGuarda qui.\n[img[images/castle.png]]\nAndiamo.")
	if err != nil {
		t.Fatalf("Error: %v", err)
	}

	if passage.ImageURL != "images/castle.png" {
		t.Errorf("Expected image URL 'images/castle.png', got '%s'", passage.ImageURL)
	}

	// Il tag immagine va rimosso dal contenuto processato ma non dal raw
	if passage.Content == passage.RawContent {
		t.Error("Expected content and raw_content to differ when an image is present")
	}
	if ExtractImageURL(passage.Content) != "" {
		t.Errorf("Image tag still present in content: '%s'", passage.Content)
	}
	if ExtractImageURL(passage.RawContent) == "" {
		t.Error("Image tag missing from raw_content")
	}

	t.Logf("✅ Immagine estratta: %s", passage.ImageURL)
}

func TestExtractImageURLFirstWins(t *testing.T) {
	content := "[img[first.png]] testo [img[second.png]]"

	if url := ExtractImageURL(content); url != "first.png" {
		t.Errorf("Expected 'first.png', got '%s'", url)
	}

	t.Log("✅ Solo la prima immagine viene considerata")
}

// ============================================
// Test: Link
// ============================================

func TestExtractLinksSimple(t *testing.T) {
	passage := &Passage{Content: "Vai a [[Next]] oppure torna a [[Start]]."}

	links := ExtractLinks(passage)
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}
	if links[0].Display != "Next" || links[0].Target != "Next" {
		t.Errorf("Unexpected first link: %+v", links[0])
	}

	t.Logf("✅ Link semplici: %v -> %v", links[0].Target, links[1].Target)
}

func TestExtractLinksWithDisplay(t *testing.T) {
	passage := &Passage{Content: "Entra nella [[caverna oscura|Dark Cave]]."}

	links := ExtractLinks(passage)
	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	if links[0].Display != "caverna oscura" {
		t.Errorf("Expected display 'caverna oscura', got '%s'", links[0].Display)
	}
	if links[0].Target != "Dark Cave" {
		t.Errorf("Expected target 'Dark Cave', got '%s'", links[0].Target)
	}
	if len(links[0].Setters) != 0 {
		t.Errorf("Setters should always be empty, got %v", links[0].Setters)
	}

	t.Logf("✅ Link con display: '%s' -> '%s'", links[0].Display, links[0].Target)
}
