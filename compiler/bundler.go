package compiler

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"twee-engine/formats"
	"twee-engine/formats/sugarcube"
	"twee-engine/parser"
)

// Version del bundler, esposta dall'API
const Version = "1.0.0"

// StoryBundler compila un file .twee in un bundle pubblicabile
// (JSON della storia + anteprima HTML)
type StoryBundler struct {
	workDir string
}

// BuildOptions opzioni per la build
type BuildOptions struct {
	Format     string // Story format registrato (default: "sugarcube")
	Output     string // Nome file output senza estensione (default: "story")
	StartNode  string // Passaggio iniziale (default: "Start")
	Title      string // Titolo della storia
	StrictMode bool   // Modalità strict (warnings = errors)
}

// BuildResult risultato della build
type BuildResult struct {
	Success      bool     `json:"success"`
	BuildID      string   `json:"build_id"`
	OutputFile   string   `json:"output_file,omitempty"`
	PreviewFile  string   `json:"preview_file,omitempty"`
	PassageCount int      `json:"passage_count"`
	Warnings     []string `json:"warnings,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// storyBundle è il formato JSON scritto su disco
type storyBundle struct {
	BuildID   string                     `json:"build_id"`
	Title     string                     `json:"title"`
	Format    string                     `json:"format"`
	StartNode string                     `json:"start_node"`
	BuiltAt   time.Time                  `json:"built_at"`
	InitVars  map[string]interface{}     `json:"init_vars"`
	Passages  map[string]*parser.Passage `json:"passages"`
}

// NewStoryBundler crea un nuovo bundler. workDir è dove finiscono gli output
func NewStoryBundler(workDir string) (*StoryBundler, error) {
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return nil, fmt.Errorf("impossibile creare workDir: %w", err)
		}
	}
	return &StoryBundler{workDir: workDir}, nil
}

// Build compila un file .twee in bundle JSON + anteprima HTML
func (sb *StoryBundler) Build(inputFile string, options *BuildOptions) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		BuildID: uuid.New().String(),
	}

	if options == nil {
		options = &BuildOptions{}
	}
	if options.Format == "" {
		options.Format = "sugarcube"
	}
	if options.Output == "" {
		options.Output = "story"
	}
	if options.StartNode == "" {
		options.StartNode = "Start"
	}

	if err := sb.validateBeforeBuild(inputFile, options); err != nil {
		result.ErrorMessage = err.Error()
		return result, err
	}

	story, err := sugarcube.ParseFile(inputFile)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("build fallita: %w", err)
	}
	result.PassageCount = len(story.Passages)
	result.Warnings = append(result.Warnings, story.Errors...)

	if _, exists := story.Passages[options.StartNode]; !exists {
		err := fmt.Errorf("passaggio iniziale '%s' non trovato", options.StartNode)
		result.ErrorMessage = err.Error()
		return result, err
	}

	// Controllo integrità dei link: i link rotti sono warning,
	// in strict mode diventano errori
	result.Warnings = append(result.Warnings, brokenLinkWarnings(story)...)

	if options.StrictMode && len(result.Warnings) > 0 {
		err := fmt.Errorf("build strict fallita con %d warning", len(result.Warnings))
		result.ErrorMessage = err.Error()
		return result, err
	}

	title := options.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	}

	bundle := storyBundle{
		BuildID:   result.BuildID,
		Title:     title,
		Format:    options.Format,
		StartNode: options.StartNode,
		BuiltAt:   time.Now(),
		InitVars:  story.StoryInitVars,
		Passages:  story.Passages,
	}

	outputPath := sb.outputPath(options.Output + ".json")
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("serializzazione bundle fallita: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("scrittura bundle fallita: %w", err)
	}
	result.OutputFile = outputPath

	previewPath := sb.outputPath(options.Output + ".html")
	if err := os.WriteFile(previewPath, []byte(renderPreview(&bundle)), 0644); err != nil {
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("scrittura anteprima fallita: %w", err)
	}
	result.PreviewFile = previewPath

	result.Success = true
	return result, nil
}

// ListFormats elenca i formati registrati nel motore
func (sb *StoryBundler) ListFormats() []string {
	return formats.GetAvailableFormats()
}

// GetVersion ritorna la versione del bundler
func (sb *StoryBundler) GetVersion() string {
	return Version
}

func (sb *StoryBundler) outputPath(name string) string {
	if sb.workDir == "" {
		return name
	}
	return filepath.Join(sb.workDir, name)
}

// validateBeforeBuild valida file e opzioni prima della build
func (sb *StoryBundler) validateBeforeBuild(inputFile string, options *BuildOptions) error {
	fileInfo, err := os.Stat(inputFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("file input non trovato: %s", inputFile)
	}
	if err != nil {
		return fmt.Errorf("impossibile leggere info file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file input vuoto: %s", inputFile)
	}

	if !strings.HasSuffix(strings.ToLower(inputFile), ".twee") {
		return fmt.Errorf("il file deve avere estensione .twee")
	}

	if !formats.IsFormatRegistered(options.Format) {
		return fmt.Errorf("formato '%s' non riconosciuto. Formati disponibili: %v",
			options.Format, formats.GetAvailableFormats())
	}

	return nil
}

// brokenLinkWarnings segnala i link verso passaggi inesistenti
func brokenLinkWarnings(story *parser.ParseResult) []string {
	warnings := []string{}
	for name, passage := range story.Passages {
		for _, link := range parser.ExtractLinks(passage) {
			if _, exists := story.Passages[link.Target]; !exists {
				warnings = append(warnings, fmt.Sprintf(
					"Link rotto in '%s': destinazione '%s' non esiste", name, link.Target))
			}
		}
	}
	return warnings
}

// renderPreview genera un'anteprima HTML statica del bundle
func renderPreview(bundle *storyBundle) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString(fmt.Sprintf("<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(bundle.Title)))
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(bundle.Title)))
	sb.WriteString(fmt.Sprintf("<p>Build %s — %d passaggi — start: %s</p>\n",
		bundle.BuildID, len(bundle.Passages), html.EscapeString(bundle.StartNode)))

	names := make([]string, 0, len(bundle.Passages))
	for name := range bundle.Passages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sb.WriteString(fmt.Sprintf("<section id=\"%s\">\n<h2>%s</h2>\n<pre>%s</pre>\n</section>\n",
			html.EscapeString(name), html.EscapeString(name), html.EscapeString(bundle.Passages[name].RawContent)))
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
