package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ironsheep/scene-relations-mcp/internal/config"
	"github.com/ironsheep/scene-relations-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("scene-relations-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := loadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Debug() {
		log.Printf("Scene MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		engineCfg, err := cfg.Engine()
		if err == nil {
			log.Printf("Engine thresholds: %s", engineCfg)
		}
		if cfg.GeminiAPIKey == "" {
			log.Printf("GEMINI_API_KEY not set, narratives disabled")
		}
	}

	srv, err := server.NewFromConfig(cfg, server.WithVersion(Version))
	if err != nil {
		log.Fatalf("Server setup error: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func printHelp() {
	fmt.Println("scene-relations-mcp - MCP server for spatial relationships between detected objects")
	fmt.Println()
	fmt.Println("Usage: scene-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  SCENE_MCP_LOG_LEVEL=debug        Enable debug logging")
	fmt.Println("  GEMINI_API_KEY                   Enables narrative generation")
	fmt.Println("  GEMINI_MODEL                     Default gemini-2.5-pro")
	fmt.Println("  GEMINI_BASE_URL                  Default https://generativelanguage.googleapis.com")
	fmt.Println("  SCENE_NARRATIVE_TIMEOUT          Default 30s")
	fmt.Println("  SCENE_MIN_CONFIDENCE             Drop detections below this score")
	fmt.Println("  SCENE_DOMINANCE_AREA_RATIO       Default 0.10")
	fmt.Println("  SCENE_PROXIMITY_WIDTH_RATIO      Default 0.15")
	fmt.Println("  SCENE_OVERLAP_IOU                Default 0.05")
	fmt.Println("  SCENE_OVERLAP_WEIGHT             Default 1000")
	fmt.Println("  SCENE_MAX_PAIRS                  Default 15")
	fmt.Println("  SCENE_ENGINE_CONFIG              YAML file overriding the thresholds")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
}
