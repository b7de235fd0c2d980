// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the corpus-engine CLI. Every command
// operates on one research session's corpus, selected with --session.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/internal/generate"
	"github.com/meshintel/corpus-engine/internal/secrets"
	"github.com/meshintel/corpus-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// logger is the process-wide logger, built in the root PersistentPreRunE.
var logger = zap.NewNop()

// rootCmd is the base command for the corpus-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "corpus-engine",
	Short: "Source-grounded retrieval and generation over per-session paper corpora",
	Long: `corpus-engine manages per-session corpora of research papers and generates
answers, drafts, and bibliographies grounded in them.

Add papers to a session with "source add" or "source add-upload", then ask
grounded questions with "ask", compose drafts with "draft", export citations
with "bibliography", and inspect per-paper relevance with "metrics". Every
generated claim cites the corpus excerpt it came from; questions the corpus
cannot support are refused rather than answered from model memory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./corpus-engine.yaml or ~/.config/corpus-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("session", "", "research session ID (required by most commands)")
	rootCmd.PersistentFlags().String("topic", "", "session research topic, used for drafts and metrics")
	rootCmd.PersistentFlags().String("title", "", "session display title")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("corpus-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "corpus-engine"))
		}
	}

	viper.SetEnvPrefix("CORPUS_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("corpus.data_dir", "data")
	viper.SetDefault("generation.model", "claude-sonnet-4-5-20250929")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine settings from the config file, the
// environment, and the loaded secrets. Zero values fall back to package
// defaults at use sites.
func engineConfig() types.EngineConfig {
	return types.EngineConfig{
		Corpus: types.CorpusConfig{
			DataDir:       viper.GetString("corpus.data_dir"),
			MaxChunkChars: viper.GetInt("corpus.max_chunk_chars"),
			ChunkOverlap:  viper.GetInt("corpus.chunk_overlap"),
		},
		Retrieval: types.RetrievalConfig{
			DefaultK:    viper.GetInt("retrieval.default_k"),
			MaxResults:  viper.GetInt("retrieval.max_results"),
			MaxPerPaper: viper.GetInt("retrieval.max_per_paper"),
			MinScore:    viper.GetFloat64("retrieval.min_score"),
		},
		Generation: types.GenerationConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("generation.model"),
				APIKey:     loadedSecrets.Get(secrets.AnthropicAPIKey, viper.GetString("generation.api_key")),
				MaxRetries: viper.GetInt("generation.max_retries"),
			},
			MaxContextChunks: viper.GetInt("generation.max_context_chunks"),
			HistoryWindow:    viper.GetInt("generation.history_window"),
			Timeout:          viper.GetDuration("generation.timeout"),
		},
		Draft: types.DraftConfig{
			ChunkBudget: viper.GetInt("draft.chunk_budget"),
			MaxThemes:   viper.GetInt("draft.max_themes"),
		},
	}
}

// openStore opens the corpus store for the configured data directory.
// Callers must Close it.
func openStore(cfg types.EngineConfig) (*corpus.Store, error) {
	return corpus.NewStore(cfg.Corpus, cfg.Retrieval, corpus.WithLogger(logger))
}

// newGenerator wires a generator over the store with the Claude backend.
func newGenerator(store *corpus.Store, cfg types.EngineConfig) *generate.Generator {
	backend := &generate.ClaudeBackend{
		APIKey:     cfg.Generation.APIKey,
		Model:      cfg.Generation.Model,
		MaxRetries: cfg.Generation.MaxRetries,
	}
	return generate.NewGenerator(store, backend, cfg.Generation, generate.WithLogger(logger))
}

// requireSession reads the --session flag and fails when it is missing.
func requireSession(cmd *cobra.Command) (string, error) {
	session, _ := cmd.Flags().GetString("session")
	if session == "" {
		return "", fmt.Errorf("--session is required")
	}
	return session, nil
}

// sessionFromFlags builds the session descriptor from persistent flags.
func sessionFromFlags(cmd *cobra.Command) (types.Session, error) {
	id, err := requireSession(cmd)
	if err != nil {
		return types.Session{}, err
	}
	title, _ := cmd.Flags().GetString("title")
	topic, _ := cmd.Flags().GetString("topic")
	return types.Session{ID: id, Title: title, Topic: topic}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
