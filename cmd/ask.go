package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resaleh-labs/resaleh/internal/llm"
	"github.com/resaleh-labs/resaleh/internal/rag"
	"github.com/resaleh-labs/resaleh/internal/retriever"
	"github.com/resaleh-labs/resaleh/internal/session"
)

var (
	sessionID  string
	showStatus bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the ingested corpus",
	Long: `Ask a natural-language question against the ingested corpus.

The answer streams token by token and ends with the cited rulings.
Questions naming an explicit ruling number ("مسئله ۴۰۰ چیست") are looked
up directly; everything else goes through multi-query semantic search.

Required environment variables:
  OPENAI_API_KEY            - OpenAI API key for embeddings and the LLM
  RESALEH_MILVUS_ADDRESS    - Milvus server address (default: localhost:19530)

Examples:
  resaleh ask "حکم سیگار در ماه رمضان چیست؟"
  resaleh ask "مسئله ۴۰۰ چیست"
  resaleh ask --session my-chat "و اگر فراموش کنم؟"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&sessionID, "session", "", "Session identifier for follow-up questions (default: random)")
	askCmd.Flags().BoolVar(&showStatus, "status", false, "Show pipeline progress messages")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// Ctrl-C cancels the in-flight request cleanly mid-stream
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Styling
	var (
		headerColor   = lipgloss.Color("#F780FF")
		questionColor = lipgloss.Color("#8BE9FD")
		answerColor   = lipgloss.Color("#E9E9F4")
		statusColor   = lipgloss.Color("#6272A4")
		errorColor    = lipgloss.Color("#FF5555")
		sourceColor   = lipgloss.Color("#50FA7B")
	)

	headerStyle := lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	questionStyle := lipgloss.NewStyle().Foreground(questionColor).Italic(true)
	answerStyle := lipgloss.NewStyle().Foreground(answerColor)
	statusStyle := lipgloss.NewStyle().Foreground(statusColor).Italic(true)
	errorStyle := lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	sourceStyle := lipgloss.NewStyle().Foreground(sourceColor)

	embedder, err := rag.NewOpenAIEmbedder(rag.EmbedderConfig{
		Model:     cfg.EmbedModel,
		Dimension: cfg.EmbedDim,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := rag.NewMilvusStore(ctx, rag.MilvusConfig{
		Address:        cfg.MilvusAddress,
		CollectionName: cfg.MilvusCollection,
		Dimension:      cfg.EmbedDim,
		M:              16,
		EfConstruction: 256,
	})
	if err != nil {
		return fmt.Errorf("failed to create chunk store: %w", err)
	}
	defer store.Close()

	model, err := llm.NewOpenAILLM(llm.Config{
		Model:       cfg.ChatModel,
		Temperature: 0.05,
		MaxTokens:   cfg.MaxAnswerTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM: %w", err)
	}

	memory := session.New(cfg.SessionTurns, cfg.SessionTTL, cfg.SweepInterval)

	engine, err := retriever.New(store, embedder, model, model, memory, logger)
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	sid := sessionID
	if sid == "" {
		sid = uuid.NewString()
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Question:"))
	fmt.Println(questionStyle.Render(question))
	fmt.Println()

	var answered bool
	for ev := range engine.AnswerQuestionStream(ctx, question, sid) {
		switch ev.Type {
		case retriever.EventStatus:
			if showStatus {
				fmt.Println(statusStyle.Render("→ " + ev.Content))
			}
		case retriever.EventAnswer:
			if !answered {
				fmt.Println(headerStyle.Render("Answer:"))
				answered = true
			}
			fmt.Print(answerStyle.Render(ev.Content))
		case retriever.EventDone:
			fmt.Println()
			if len(ev.Sources) > 0 {
				fmt.Println()
				fmt.Println(headerStyle.Render("Sources:"))
				for _, src := range ev.Sources {
					line := fmt.Sprintf("  %s | %s", src.Label, src.Section)
					fmt.Println(sourceStyle.Render(line))
				}
			}
			if len(ev.Keywords) > 0 {
				fmt.Println(statusStyle.Render("Keywords: " + strings.Join(ev.Keywords, "، ")))
			}
		case retriever.EventCancelled:
			fmt.Println()
			fmt.Println(statusStyle.Render("Cancelled."))
		case retriever.EventError:
			fmt.Println()
			fmt.Println(errorStyle.Render("Error: " + ev.Content))
		}
	}

	return nil
}
