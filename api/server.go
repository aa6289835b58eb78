package api

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"twee-engine/compiler"
	"twee-engine/formats"
	"twee-engine/formats/sugarcube"
	"twee-engine/parser"
	"twee-engine/simulator"
	"twee-engine/watcher"
)

// Server rappresenta il server API
type Server struct {
	router       *gin.Engine
	bundler      *compiler.StoryBundler
	watcher      *watcher.FileWatcher
	watcherMutex sync.Mutex
	wsClients    map[*websocket.Conn]bool
	wsUpgrader   websocket.Upgrader
	port         int
}

// ServerConfig configurazione del server
type ServerConfig struct {
	Port       int
	Bundler    *compiler.StoryBundler
	EnableCORS bool
	Debug      bool
}

// NewServer crea un nuovo server API
func NewServer(config ServerConfig) *Server {
	// Imposta modalità Gin
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS se abilitato
	if config.EnableCORS {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	server := &Server{
		router:    router,
		bundler:   config.Bundler,
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		port: config.Port,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configura tutti gli endpoint
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		// Health check
		api.GET("/health", s.healthCheck)

		// Story endpoints
		api.POST("/story/parse", s.parseStory)
		api.POST("/story/render", s.renderPassage)
		api.POST("/story/evaluate", s.evaluateExpression)
		api.POST("/story/compile", s.compileStory)
		api.POST("/story/info", s.getStoryInfo)

		// Passage endpoints
		api.GET("/story/:file/passages", s.getPassages)
		api.GET("/story/:file/passage/:title", s.getPassage)

		// Path Simulator endpoints
		api.POST("/simulator/validate", s.validatePath)
		api.POST("/simulator/simulate", s.simulatePath)
		api.POST("/simulator/suggest", s.suggestPaths)

		// Watcher endpoints
		api.POST("/watch/start", s.startWatcher)
		api.POST("/watch/stop", s.stopWatcher)
		api.GET("/watch/status", s.getWatcherStatus)

		// Utils endpoints
		api.GET("/formats", s.getFormats)
		api.GET("/version", s.getVersion)
	}

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)
}

// Start avvia il server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("🚀 Server avviato su http://localhost%s", addr)
	log.Printf("📚 API disponibile su http://localhost%s/api", addr)
	log.Printf("🔌 WebSocket su ws://localhost%s/ws", addr)
	return s.router.Run(addr)
}

// loadStory carica la storia da contenuto inline o da file.
// Le richieste possono portare l'uno o l'altro, mai entrambi obbligatori.
func loadStory(content, filePath string) (*parser.ParseResult, error) {
	if content != "" {
		return sugarcube.ParseDocument(content), nil
	}
	if filePath != "" {
		return sugarcube.ParseFile(filePath)
	}
	return nil, fmt.Errorf("serve 'content' oppure 'file_path'")
}

// ============================================
// Handlers
// ============================================

// healthCheck verifica lo stato del server
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": compiler.Version,
	})
}

// ParseStoryRequest richiesta di parsing
type ParseStoryRequest struct {
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
}

// parseStory parsa una storia e arricchisce i passaggi con link e anteprima
func (s *Server) parseStory(c *gin.Context) {
	var req ParseStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := loadStory(req.Content, req.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format := sugarcube.NewSugarCubeFormat()

	enrichedPassages := make(map[string]interface{})
	for name, passage := range story.Passages {
		enrichedPassages[name] = gin.H{
			"name":      passage.Name,
			"tags":      passage.Tags,
			"content":   passage.Content,
			"image_url": passage.ImageURL,
			"links":     format.ParseLinks(passage.Content),
			"variables": format.ParseVariables(passage.Content),
			"preview":   format.StripCode(passage.Content),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"story": gin.H{
			"passages":        enrichedPassages,
			"count":           len(story.Passages),
			"story_init_vars": story.StoryInitVars,
			"test_setup_vars": story.TestSetupVars,
			"errors":          story.Errors,
		},
	})
}

// RenderPassageRequest richiesta di rendering
type RenderPassageRequest struct {
	Content   string                 `json:"content"`
	FilePath  string                 `json:"file_path"`
	Passage   string                 `json:"passage" binding:"required"`
	Variables map[string]interface{} `json:"variables"`
	UseInit   bool                   `json:"use_init"` // Parti dallo snapshot StoryInit
}

// renderPassage esegue le macro di un passaggio e ritorna testo e link
func (s *Server) renderPassage(c *gin.Context) {
	var req RenderPassageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := loadStory(req.Content, req.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passage, exists := story.Passages[req.Passage]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Passaggio non trovato"})
		return
	}

	variables := map[string]interface{}{}
	if req.UseInit {
		for name, value := range story.StoryInitVars {
			variables[name] = value
		}
	}
	for name, value := range req.Variables {
		variables[name] = value
	}

	result := sugarcube.RenderPassage(passage, variables, story.Passages, nil)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"passage":   req.Passage,
		"text":      result.Text,
		"links":     result.Links,
		"variables": variables,
		"errors":    result.Errors,
	})
}

// EvaluateRequest richiesta di valutazione espressione
type EvaluateRequest struct {
	Expression string                 `json:"expression" binding:"required"`
	Variables  map[string]interface{} `json:"variables"`
}

// evaluateExpression valuta una singola espressione
func (s *Server) evaluateExpression(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variables := req.Variables
	if variables == nil {
		variables = map[string]interface{}{}
	}

	eval := sugarcube.NewEvaluator(variables)
	value := eval.Evaluate(req.Expression)

	c.JSON(http.StatusOK, gin.H{
		"success": len(eval.Errors) == 0,
		"value":   value,
		"text":    sugarcube.FormatValue(value),
		"errors":  eval.Errors,
	})
}

// CompileStoryRequest richiesta di compilazione
type CompileStoryRequest struct {
	FilePath   string `json:"file_path" binding:"required"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	StartNode  string `json:"start_node"`
	Title      string `json:"title"`
	StrictMode bool   `json:"strict_mode"`
}

// compileStory compila un file .twee in bundle
func (s *Server) compileStory(c *gin.Context) {
	var req CompileStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.bundler.Build(req.FilePath, &compiler.BuildOptions{
		Format:     req.Format,
		Output:     req.Output,
		StartNode:  req.StartNode,
		Title:      req.Title,
		StrictMode: req.StrictMode,
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StoryInfoRequest richiesta info storia
type StoryInfoRequest struct {
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
}

// getStoryInfo ritorna statistiche e snapshot variabili della storia
func (s *Server) getStoryInfo(c *gin.Context) {
	var req StoryInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := loadStory(req.Content, req.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	totalLinks := 0
	brokenLinks := []string{}
	passageNames := []string{}
	for name, passage := range story.Passages {
		passageNames = append(passageNames, name)
		for _, link := range parser.ExtractLinks(passage) {
			totalLinks++
			if _, exists := story.Passages[link.Target]; !exists {
				brokenLinks = append(brokenLinks, fmt.Sprintf("%s → %s", name, link.Target))
			}
		}
	}
	sort.Strings(passageNames)

	// Il titolo vive nel passaggio convenzionale StoryTitle, se presente
	storyTitle := ""
	if titlePassage, exists := story.Passages["StoryTitle"]; exists {
		storyTitle = strings.TrimSpace(titlePassage.Content)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"story_title":     storyTitle,
		"passage_count":   len(story.Passages),
		"passage_names":   passageNames,
		"link_count":      totalLinks,
		"broken_links":    brokenLinks,
		"story_init_vars": story.StoryInitVars,
		"test_setup_vars": story.TestSetupVars,
		"parse_errors":    story.Errors,
	})
}

// getPassages ottiene tutti i passaggi di un file
func (s *Server) getPassages(c *gin.Context) {
	filePath := c.Param("file")

	story, err := sugarcube.ParseFile(filePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"passages": story.Passages,
	})
}

// getPassage ottiene un singolo passaggio
func (s *Server) getPassage(c *gin.Context) {
	filePath := c.Param("file")
	passageName := c.Param("title")

	story, err := sugarcube.ParseFile(filePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	passage, exists := story.Passages[passageName]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Passaggio non trovato"})
		return
	}

	format := sugarcube.NewSugarCubeFormat()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"passage": gin.H{
			"name":      passage.Name,
			"tags":      passage.Tags,
			"content":   passage.Content,
			"image_url": passage.ImageURL,
			"links":     format.ParseLinks(passage.Content),
			"variables": format.ParseVariables(passage.Content),
			"preview":   format.StripCode(passage.Content),
		},
	})
}

// StartWatcherRequest richiesta avvio watcher
type StartWatcherRequest struct {
	Paths     []string `json:"paths" binding:"required"`
	Format    string   `json:"format"`
	Output    string   `json:"output"`
	AutoBuild bool     `json:"auto_build"`
}

// startWatcher avvia il file watcher
func (s *Server) startWatcher(c *gin.Context) {
	s.watcherMutex.Lock()
	defer s.watcherMutex.Unlock()

	if s.watcher != nil && s.watcher.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Watcher già in esecuzione"})
		return
	}

	var req StartWatcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := watcher.WatcherConfig{
		Paths: req.Paths,
	}
	if req.AutoBuild {
		config.Bundler = s.bundler
		config.BuildOpts = &compiler.BuildOptions{
			Format: req.Format,
			Output: req.Output,
		}
	}

	fw, err := watcher.NewFileWatcher(config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := fw.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.watcher = fw

	// Invia eventi ai client WebSocket
	go s.broadcastWatcherEvents()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Watcher avviato",
		"paths":   req.Paths,
	})
}

// stopWatcher ferma il file watcher
func (s *Server) stopWatcher(c *gin.Context) {
	s.watcherMutex.Lock()
	defer s.watcherMutex.Unlock()

	if s.watcher == nil || !s.watcher.IsRunning() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Watcher non in esecuzione"})
		return
	}

	if err := s.watcher.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.watcher = nil

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Watcher fermato",
	})
}

// getWatcherStatus ottiene lo stato del watcher
func (s *Server) getWatcherStatus(c *gin.Context) {
	s.watcherMutex.Lock()
	defer s.watcherMutex.Unlock()

	isRunning := s.watcher != nil && s.watcher.IsRunning()

	c.JSON(http.StatusOK, gin.H{
		"running": isRunning,
	})
}

// getFormats ottiene i formati registrati
func (s *Server) getFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"formats": formats.GetAvailableFormats(),
	})
}

// getVersion ottiene la versione del motore
func (s *Server) getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"version": compiler.Version,
	})
}

// ============================================
// Path Simulator Handlers
// ============================================

// ValidatePathRequest richiesta di validazione path
type ValidatePathRequest struct {
	Content  string   `json:"content"`
	FilePath string   `json:"file_path"`
	Path     []string `json:"path" binding:"required"`
}

// validatePath valida un percorso
func (s *Server) validatePath(c *gin.Context) {
	var req ValidatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := loadStory(req.Content, req.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim := simulator.NewPathSimulator(story)
	errors := sim.ValidatePath(req.Path)

	c.JSON(http.StatusOK, gin.H{
		"valid":  len(errors) == 0,
		"path":   req.Path,
		"errors": errors,
	})
}

// SimulatePathRequest richiesta di simulazione path
type SimulatePathRequest struct {
	Content   string                 `json:"content"`
	FilePath  string                 `json:"file_path"`
	Path      []string               `json:"path" binding:"required"`
	Variables map[string]interface{} `json:"variables"`
}

// simulatePath simula l'esecuzione di un percorso
func (s *Server) simulatePath(c *gin.Context) {
	var req SimulatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := loadStory(req.Content, req.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim := simulator.NewPathSimulator(story)
	result := sim.SimulatePath(req.Path, req.Variables)

	c.JSON(http.StatusOK, result)
}

// SuggestPathsRequest richiesta di suggerimento percorsi
type SuggestPathsRequest struct {
	Content      string `json:"content"`
	FilePath     string `json:"file_path"`
	StartPassage string `json:"start_passage" binding:"required"`
	MaxDepth     int    `json:"max_depth"`
}

// suggestPaths suggerisce percorsi validi
func (s *Server) suggestPaths(c *gin.Context) {
	var req SuggestPathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Default max depth
	if req.MaxDepth == 0 || req.MaxDepth > 10 {
		req.MaxDepth = 5
	}

	story, err := loadStory(req.Content, req.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim := simulator.NewPathSimulator(story)
	paths := sim.GetSuggestedPaths(req.StartPassage, req.MaxDepth)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"start_passage": req.StartPassage,
		"max_depth":     req.MaxDepth,
		"paths":         paths,
		"count":         len(paths),
	})
}

// ============================================
// WebSocket
// ============================================

// handleWebSocket gestisce connessioni WebSocket
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Errore upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	s.wsClients[conn] = true
	log.Printf("🔌 Client WebSocket connesso (totale: %d)", len(s.wsClients))

	// Mantieni la connessione aperta
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			delete(s.wsClients, conn)
			log.Printf("🔌 Client WebSocket disconnesso (totale: %d)", len(s.wsClients))
			break
		}
	}
}

// broadcastWatcherEvents invia eventi del watcher ai client WebSocket
func (s *Server) broadcastWatcherEvents() {
	if s.watcher == nil {
		return
	}

	for event := range s.watcher.Events() {
		message := gin.H{
			"type":      event.Type,
			"path":      filepath.Base(event.Path),
			"full_path": event.Path,
			"timestamp": event.Timestamp,
		}

		// Broadcast a tutti i client connessi
		for client := range s.wsClients {
			if err := client.WriteJSON(message); err != nil {
				log.Printf("Errore invio WebSocket: %v", err)
				client.Close()
				delete(s.wsClients, client)
			}
		}
	}
}
