package main

import (
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"

	"twee-engine/api"
	"twee-engine/compiler"
	_ "twee-engine/formats/sugarcube" // Registra il formato SugarCube
	"twee-engine/test"
)

// Config configurazione del motore, letta dall'ambiente
type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	WorkDir    string `env:"WORK_DIR" envDefault:"./output"`
	TestDir    string `env:"TEST_DIR" envDefault:"./testdata"`
	EnableCORS bool   `env:"ENABLE_CORS" envDefault:"true"`
	Debug      bool   `env:"DEBUG" envDefault:"false"`
}

func main() {
	fmt.Printf("Twee Engine v%s\n", compiler.Version)
	fmt.Println("================================")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("❌ Configurazione non valida: %v", err)
	}

	bundler, err := compiler.NewStoryBundler(cfg.WorkDir)
	if err != nil {
		log.Fatalf("❌ Errore inizializzazione bundler: %v", err)
	}

	// Modalità batch: `twee-engine test <formato>`
	if len(os.Args) > 1 && os.Args[1] == "test" {
		runBatchTests(cfg, bundler)
		return
	}

	server := api.NewServer(api.ServerConfig{
		Port:       cfg.Port,
		Bundler:    bundler,
		EnableCORS: cfg.EnableCORS,
		Debug:      cfg.Debug,
	})

	if err := server.Start(); err != nil {
		log.Fatalf("❌ Errore avvio server: %v", err)
	}
}

func runBatchTests(cfg Config, bundler *compiler.StoryBundler) {
	runner := test.NewTestRunner(cfg.TestDir, bundler)

	format := "sugarcube"
	if len(os.Args) > 2 {
		format = os.Args[2]
	}

	summary, err := runner.RunTests(format)
	if err != nil {
		log.Fatalf("❌ Test batch falliti: %v", err)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
