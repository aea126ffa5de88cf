package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/generator"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file to ingest")
	query := flag.String("query", "", "Question to ask against the ingested document")
	topK := flag.Int("top-k", 0, "Number of chunks to retrieve (0 = config default)")
	flag.Parse()

	if *filePath == "" && *query == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag or a question using the -query flag")
	}
	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Please provide either -file or -query, but not both")
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	store, err := vectorstore.New(ctx, &cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer store.Close()

	embedder := embedding.NewProvider(cfg.EmbedLLM)
	gen := generator.New(cfg.GenLLM, generator.Options{
		MaxContextChars: cfg.RAG.MaxContextChars,
		MaxTokens:       cfg.RAG.MaxTokens,
		Timeout:         cfg.GenTimeout(),
	})

	svc := rag.NewService(embedder, store, gen, rag.Options{
		Collection: cfg.Store.Collection,
		ChunkSize:  cfg.RAG.ChunkSize,
		TopK:       cfg.RAG.TopK,
	})

	if *filePath != "" {
		count, err := svc.Ingest(ctx, *filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error ingesting document")
		}
		log.Info().Int("chunks", count).Msg("document ingested")
		return
	}

	answer, err := svc.Query(ctx, *query, *topK)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Answer: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer)
}
