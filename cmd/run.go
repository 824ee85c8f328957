package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/app"
	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/llm"
	"github.com/nalibo/nalibopath/internal/logging"
	"github.com/nalibo/nalibopath/internal/screens/chat"
	"github.com/nalibo/nalibopath/internal/store"
	"github.com/nalibo/nalibopath/internal/tutor"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the course",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	eventRepo := st.EventRepo()
	opts := app.Options{
		Accounts: account.NewService(account.NewSQLStore(st.UserRepo()), account.WithLogger(logger)),
		Catalog:  curriculum.Default(),
		EventLog: eventRepo,
		Player:   audio.NewCommandPlayer(cfg.PlayCmd),
		Recorder: audio.NewCommandRecorder(cfg.RecordCmd),
		OpenChat: func(apiKey string) (chat.Conversation, error) {
			return tutor.NewChat(apiKey, tutor.WithChatEvents(eventRepo), tutor.WithChatLogger(logger))
		},
		Logger: logger,
	}

	if !cfg.LLMEnabled {
		fmt.Fprintln(os.Stderr, "LLM provider not configured; tutor feedback and speech scoring will use offline fallbacks.")
	} else {
		provider, err := llm.NewProvider(ctx, cfg.LLM, eventRepo, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "AI features will be unavailable.")
		} else {
			opts.Feedback = tutor.NewFeedbackService(provider, cfg.LLM.MaxTokens)
			opts.Speech = tutor.NewSpeechService(provider, cfg.LLM.MaxTokens)
		}
	}

	synth, err := llm.NewSynthesizer(ctx, cfg.LLM, eventRepo, logger)
	if err != nil {
		logger.Warn("pronunciation audio disabled", zap.Error(err))
	} else if synth != nil {
		opts.Pronouncer = tutor.NewPronouncer(synth, cfg.TTSCache, logger)
	}

	logger.Info("starting", zap.String("db", dbPath), zap.Bool("llm", opts.Feedback != nil))
	return app.Run(opts)
}
