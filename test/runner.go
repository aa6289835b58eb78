package test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"twee-engine/compiler"
	"twee-engine/formats"
	"twee-engine/formats/sugarcube"
	"twee-engine/parser"
	"twee-engine/simulator"
)

// TestRunner esegue test batch su cartelle di fixture .twee.
// Ogni fixture può avere un manifest YAML di aspettative accanto
// (storia.twee → storia.expect.yaml)
type TestRunner struct {
	baseDir   string
	bundler   *compiler.StoryBundler
	format    string
	formatDir string
}

// ExpectManifest aspettative dichiarative per una fixture
type ExpectManifest struct {
	Format   string                 `yaml:"format"`
	InitVars map[string]interface{} `yaml:"init_vars"` // Valori attesi nello snapshot StoryInit
	Render   []RenderExpect         `yaml:"render"`
	Simulate *SimulateExpect        `yaml:"simulate"`
}

// RenderExpect aspettativa sul rendering di un passaggio
type RenderExpect struct {
	Passage   string                 `yaml:"passage"`
	UseInit   bool                   `yaml:"use_init"`
	Variables map[string]interface{} `yaml:"variables"`
	Contains  []string               `yaml:"contains"`
	Links     []string               `yaml:"links"`
}

// SimulateExpect aspettativa su una simulazione di percorso
type SimulateExpect struct {
	Path       []string               `yaml:"path"`
	FinalState map[string]interface{} `yaml:"final_state"`
}

// FixtureReport rapporto di una singola fixture
type FixtureReport struct {
	Filename     string   `json:"filename"`
	TestedAt     string   `json:"tested_at"`
	Success      bool     `json:"success"`
	PassageCount int      `json:"passage_count"`
	Failures     []string `json:"failures,omitempty"`
	ParseErrors  []string `json:"parse_errors,omitempty"`
}

// TestSummary riassunto dei test
type TestSummary struct {
	Format     string `json:"format"`
	TotalFiles int    `json:"total_files"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Duration   string `json:"duration"`
}

// NewTestRunner crea un nuovo test runner
func NewTestRunner(baseDir string, bundler *compiler.StoryBundler) *TestRunner {
	return &TestRunner{
		baseDir: baseDir,
		bundler: bundler,
	}
}

// GetAvailableFormats restituisce i formati con cartelle test disponibili
func (tr *TestRunner) GetAvailableFormats() ([]string, error) {
	entries, err := os.ReadDir(tr.baseDir)
	if err != nil {
		return nil, fmt.Errorf("impossibile leggere cartella test: %w", err)
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			found = append(found, entry.Name())
		}
	}

	return found, nil
}

// RunTests esegue i test per un formato specifico
func (tr *TestRunner) RunTests(format string) (*TestSummary, error) {
	startTime := time.Now()

	tr.format = format
	tr.formatDir = filepath.Join(tr.baseDir, format)

	if _, err := os.Stat(tr.formatDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("cartella test/%s non trovata", format)
	}

	if !formats.IsFormatRegistered(format) {
		return nil, fmt.Errorf("parser per formato '%s' non registrato", format)
	}

	tweeFiles, err := tr.findTweeFiles()
	if err != nil {
		return nil, err
	}
	if len(tweeFiles) == 0 {
		return nil, fmt.Errorf("nessun file .twee trovato in test/%s", format)
	}

	summary := &TestSummary{
		Format:     format,
		TotalFiles: len(tweeFiles),
	}

	fmt.Printf("\n📁 Trovati %d file .twee in test/%s\n", len(tweeFiles), format)
	fmt.Println(strings.Repeat("─", 50))

	for _, tweeFile := range tweeFiles {
		filename := filepath.Base(tweeFile)
		fmt.Printf("\n📄 %s\n", filename)

		report := tr.runFixture(tweeFile)
		if report.Success {
			summary.Passed++
			fmt.Printf("   ✅ OK - %d passaggi\n", report.PassageCount)
		} else {
			summary.Failed++
			fmt.Printf("   ❌ FAILED:\n")
			for _, failure := range report.Failures {
				fmt.Printf("      - %s\n", failure)
			}
		}

		reportPath := tr.getOutputPath(tweeFile, "_report.json")
		if err := tr.saveJSON(reportPath, report); err != nil {
			fmt.Printf("   ⚠️  Errore salvataggio report: %v\n", err)
		} else {
			fmt.Printf("   💾 %s\n", filepath.Base(reportPath))
		}
	}

	summary.Duration = time.Since(startTime).String()

	fmt.Println()
	fmt.Println(strings.Repeat("═", 50))
	fmt.Printf("📊 RIASSUNTO TEST - %s\n", strings.ToUpper(format))
	fmt.Println(strings.Repeat("═", 50))
	fmt.Printf("   File testati:  %d\n", summary.TotalFiles)
	fmt.Printf("   Passati:       %d/%d\n", summary.Passed, summary.TotalFiles)
	fmt.Printf("   Durata:        %s\n", summary.Duration)
	fmt.Println(strings.Repeat("═", 50))

	return summary, nil
}

// runFixture parsa una fixture e verifica le aspettative del manifest
func (tr *TestRunner) runFixture(tweeFile string) *FixtureReport {
	report := &FixtureReport{
		Filename: filepath.Base(tweeFile),
		TestedAt: time.Now().Format(time.RFC3339),
	}

	story, err := sugarcube.ParseFile(tweeFile)
	if err != nil {
		report.Failures = append(report.Failures, err.Error())
		return report
	}
	report.PassageCount = len(story.Passages)
	report.ParseErrors = story.Errors

	manifest, err := tr.loadManifest(tweeFile)
	if err != nil {
		report.Failures = append(report.Failures, err.Error())
		return report
	}

	if manifest != nil {
		report.Failures = append(report.Failures, tr.checkManifest(story, manifest)...)
	} else if len(story.Errors) > 0 {
		// Senza manifest il test è un semplice smoke parse
		report.Failures = append(report.Failures, story.Errors...)
	}

	// Build di verifica, se il bundler è configurato e la fixture ha uno Start
	if tr.bundler != nil {
		if _, hasStart := story.Passages["Start"]; hasStart {
			baseName := strings.TrimSuffix(filepath.Base(tweeFile), ".twee")
			_, err := tr.bundler.Build(tweeFile, &compiler.BuildOptions{
				Format: tr.format,
				Output: baseName + "_build",
			})
			if err != nil {
				report.Failures = append(report.Failures, "build: "+err.Error())
			}
		}
	}

	report.Success = len(report.Failures) == 0
	return report
}

// loadManifest carica il manifest YAML accanto alla fixture, se esiste
func (tr *TestRunner) loadManifest(tweeFile string) (*ExpectManifest, error) {
	manifestPath := strings.TrimSuffix(tweeFile, ".twee") + ".expect.yaml"
	data, err := os.ReadFile(manifestPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lettura manifest fallita: %w", err)
	}

	var manifest ExpectManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("manifest YAML non valido: %w", err)
	}
	return &manifest, nil
}

// checkManifest verifica tutte le aspettative di un manifest
func (tr *TestRunner) checkManifest(story *parser.ParseResult, manifest *ExpectManifest) []string {
	failures := []string{}

	for name, expected := range manifest.InitVars {
		actual, exists := story.StoryInitVars[name]
		if !exists {
			failures = append(failures, fmt.Sprintf("init_vars: variabile '%s' assente", name))
			continue
		}
		if !valuesMatch(expected, actual) {
			failures = append(failures, fmt.Sprintf(
				"init_vars: %s = %v, atteso %v", name, actual, expected))
		}
	}

	for _, expect := range manifest.Render {
		failures = append(failures, tr.checkRender(story, expect)...)
	}

	if manifest.Simulate != nil {
		failures = append(failures, tr.checkSimulate(story, manifest.Simulate)...)
	}

	return failures
}

// checkRender renderizza un passaggio e verifica testo e link attesi
func (tr *TestRunner) checkRender(story *parser.ParseResult, expect RenderExpect) []string {
	failures := []string{}

	passage, exists := story.Passages[expect.Passage]
	if !exists {
		return []string{fmt.Sprintf("render: passaggio '%s' non trovato", expect.Passage)}
	}

	variables := map[string]interface{}{}
	if expect.UseInit {
		for name, value := range story.StoryInitVars {
			variables[name] = value
		}
	}
	for name, value := range expect.Variables {
		variables[name] = value
	}

	result := sugarcube.RenderPassage(passage, variables, story.Passages, nil)

	for _, want := range expect.Contains {
		if !strings.Contains(result.Text, want) {
			failures = append(failures, fmt.Sprintf(
				"render %s: testo non contiene %q", expect.Passage, want))
		}
	}

	for _, wantTarget := range expect.Links {
		found := false
		for _, link := range result.Links {
			if link.Target == wantTarget {
				found = true
				break
			}
		}
		if !found {
			failures = append(failures, fmt.Sprintf(
				"render %s: link verso '%s' assente", expect.Passage, wantTarget))
		}
	}

	return failures
}

// checkSimulate simula un percorso e verifica lo stato finale
func (tr *TestRunner) checkSimulate(story *parser.ParseResult, expect *SimulateExpect) []string {
	failures := []string{}

	sim := simulator.NewPathSimulator(story)
	result := sim.SimulatePath(expect.Path, nil)
	if !result.Success {
		for _, msg := range result.Errors {
			failures = append(failures, "simulate: "+msg)
		}
		return failures
	}

	for name, expected := range expect.FinalState {
		actual, exists := result.FinalState[name]
		if !exists {
			failures = append(failures, fmt.Sprintf("simulate: variabile finale '%s' assente", name))
			continue
		}
		if !valuesMatch(expected, actual) {
			failures = append(failures, fmt.Sprintf(
				"simulate: %s = %v, atteso %v", name, actual, expected))
		}
	}

	return failures
}

// valuesMatch confronta un valore atteso (da YAML) con uno del motore.
// YAML decodifica i numeri come uint64/int64/float64, il motore usa int
func valuesMatch(expected, actual interface{}) bool {
	if expected == actual {
		return true
	}
	expNum, expOK := asFloat(expected)
	actNum, actOK := asFloat(actual)
	if expOK && actOK {
		return expNum == actNum
	}
	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// findTweeFiles trova tutti i file .twee nella cartella del formato
func (tr *TestRunner) findTweeFiles() ([]string, error) {
	var files []string

	err := filepath.Walk(tr.formatDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".twee") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// getOutputPath genera il path per un file di output
func (tr *TestRunner) getOutputPath(inputPath, suffix string) string {
	baseName := strings.TrimSuffix(filepath.Base(inputPath), ".twee")
	return filepath.Join(tr.formatDir, baseName+suffix)
}

// saveJSON salva un oggetto come JSON
func (tr *TestRunner) saveJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, jsonData, 0644)
}
