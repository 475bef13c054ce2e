package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"docchat/internal/chromemdb"
	"docchat/internal/config"
	"docchat/internal/controller"
	"docchat/internal/embedding"
	"docchat/internal/helper"
	"docchat/internal/llmservice"
	"docchat/internal/models"
	"docchat/internal/parser"
	"docchat/internal/rag"
	"docchat/internal/session"
	"docchat/internal/tui"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	filePath := flag.String("file", "", "Path to the document file")
	query := flag.String("query", "", "Question to ask about the document (requires -file)")
	asJSON := flag.Bool("json", false, "Print the one-shot answer as JSON")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	oneShot := *query != ""
	closer, err := helper.SetupLogger(cfg.Log, !oneShot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := newController(cfg)

	if oneShot {
		if *filePath == "" {
			log.Fatal().Msg("Please provide a document file using the -file flag together with -query")
		}
		runOnce(ctx, ctrl, *filePath, *query, *asJSON)
		return
	}

	p := tea.NewProgram(tui.New(ctx, ctrl, *filePath), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("TUI exited with error")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newController(cfg *config.Config) *controller.Controller {
	embedder, err := embedding.NewFromConfig(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating embedder")
	}

	llm, err := llmservice.NewChatModel(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating chat model")
	}

	buildIndex := session.MemoryIndexBuilder
	if cfg.RAG.Index == config.IndexChromem {
		buildIndex = chromemdb.BuildIndex
	}

	return controller.New(
		parser.NewFileExtractor(),
		embedder,
		rag.NewAnswerer(llm, &cfg.ChatLLM),
		session.New(),
		buildIndex,
		cfg.RAG,
	)
}

func runOnce(ctx context.Context, ctrl *controller.Controller, filePath, query string, asJSON bool) {
	if strings.TrimSpace(query) == "" {
		log.Fatal().Err(errBlankQuery).Msg("Please provide a non-empty question with the -query flag")
	}

	res, err := ctrl.LoadDocument(ctx, filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Error loading document")
	}
	log.Info().Int("chunks", res.ChunkCount).Dur("took", res.Duration).Msg("Document embedded successfully")

	response, err := ctrl.Ask(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	if asJSON {
		helper.PrettyPrint(response)
		return
	}

	if err := printResponse(os.Stdout, response); err != nil {
		log.Fatal().Err(err).Msg("Error printing answer")
	}
}

var errBlankQuery = errors.New("blank query, nothing to answer")

// printResponse writes the query, the ranked sources and the answer.
func printResponse(w io.Writer, response models.PromptResponse) error {
	switch response.Status {
	case models.AskSkipped:
		return errBlankQuery
	case models.AskWarning:
		_, err := fmt.Fprintln(w, response.Warning)
		return err
	}

	var b strings.Builder
	b.WriteString("Query:\n")
	fmt.Fprintf(&b, "%s\n\n", response.Query)

	b.WriteString("Sources:\n")
	for _, s := range response.Sources {
		fmt.Fprintf(&b, "chunk %d (%.2f)\n", s.ChunkID+1, s.Score)
	}
	b.WriteString("\n")

	b.WriteString("Assistant:\n")
	fmt.Fprintf(&b, "%s\n\n", response.Content)

	_, err := io.WriteString(w, b.String())
	return err
}
