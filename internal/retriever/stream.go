package retriever

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const maxSources = 6

// terminalGrace bounds how long the terminal event waits for a consumer
// that cancelled and stopped draining before the producer gives up.
const terminalGrace = 500 * time.Millisecond

// Fixed user-facing messages.
const (
	msgNoFiles       = "هنوز فایلی بارگذاری نشده."
	msgNotFound      = "این مسئله در رساله موجود نیست."
	statusTranslate  = "در حال ترجمه سوال..."
	statusAnalyzing  = "در حال تحلیل سوال..."
	statusSearching  = "در حال جستجو در رساله..."
	statusGenerating = "در حال تولید پاسخ..."
)

// AnswerQuestionStream answers a question as a lazy, single-pass sequence
// of typed events: zero or more status events, answer fragments, then
// exactly one terminal done, cancelled or error event, after which the
// channel is closed. Cancel ctx to stop the run; cancellation is observed
// cooperatively before each phase and each emitted fragment.
//
// The caller should drain the channel until it closes. A caller that
// cancels ctx and walks away does not pin the producing goroutine: pending
// sends abort on cancellation and the terminal event waits at most a short
// grace period for its receiver.
func (r *Retriever) AnswerQuestionStream(ctx context.Context, question, sessionID string) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		r.run(ctx, strings.TrimSpace(question), sessionID, events)
	}()
	return events
}

// emit blocks until the consumer takes the event or ctx is cancelled. On
// cancellation it delivers the terminal cancelled event itself and reports
// false so the caller unwinds without emitting anything further.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		emitTerminal(events, Event{Type: EventCancelled, Done: true})
		return false
	}
}

// emitTerminal delivers the terminal event even under a cancelled context.
// A draining consumer receives it immediately; an abandoned channel is given
// up on after the grace period so the producer can exit.
func emitTerminal(events chan<- Event, ev Event) {
	t := time.NewTimer(terminalGrace)
	defer t.Stop()
	select {
	case events <- ev:
	case <-t.C:
	}
}

func (r *Retriever) run(ctx context.Context, question, sessionID string, events chan<- Event) {
	// Small talk short-circuits before any retrieval work
	if reply := SmallTalkReply(question); reply != "" {
		if !emit(ctx, events, Event{Type: EventAnswer, Content: reply}) {
			return
		}
		emitTerminal(events, Event{Type: EventDone, Done: true, FoundInDocs: true})
		return
	}

	count, err := r.store.Count(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("chunk count failed")
		count = 0
	}
	if count == 0 {
		if !emit(ctx, events, Event{Type: EventAnswer, Content: msgNoFiles}) {
			return
		}
		emitTerminal(events, Event{Type: EventDone, Done: true, FoundInDocs: false})
		return
	}

	lang := DetectLanguage(question)
	searchQuestion := question
	if lang != LangFarsi {
		if !emit(ctx, events, Event{Type: EventStatus, Content: statusTranslate}) {
			return
		}
		searchQuestion = r.translateToFarsi(ctx, question, lang)
	}

	// Fast path: an explicit ruling number bypasses semantic search
	if num, ok := extractFromEither(question, searchQuestion); ok {
		if !emit(ctx, events, Event{Type: EventStatus, Content: fmt.Sprintf("جستجوی مسئله %d...", num)}) {
			return
		}
		results := r.searchByNumber(ctx, num)
		if len(results) > 0 {
			convContext := ""
			if sessionID != "" {
				convContext = r.memory.GetContext(sessionID)
			}
			system := buildSystemPrompt("", nil, convContext, renderPassages(results, false), lang)
			r.generate(ctx, events, generation{
				system:    system,
				question:  question,
				sessionID: sessionID,
				sources:   collectSources(results),
			})
			return
		}
	}

	normalized := NormalizeColloquial(searchQuestion)

	if !emit(ctx, events, Event{Type: EventStatus, Content: statusAnalyzing}) {
		return
	}

	// Analysis and a warm-up embedding of the question are independent;
	// dispatch both and join once so their latencies overlap. The warm-up
	// result is discarded, later queries re-embed per variant.
	analysisCh := make(chan Analysis, 1)
	warmCh := make(chan struct{})
	go func() {
		analysisCh <- r.analyzeQuestion(ctx, searchQuestion, normalized)
	}()
	go func() {
		defer close(warmCh)
		_, _ = r.embedder.Embed(ctx, []string{searchQuestion})
	}()
	analysis := <-analysisCh
	<-warmCh

	if !emit(ctx, events, Event{Type: EventStatus, Content: statusSearching}) {
		return
	}
	if ctx.Err() != nil {
		emitTerminal(events, Event{Type: EventCancelled, Done: true})
		return
	}

	results := r.fullSearch(ctx, searchQuestion, normalized, analysis)
	if len(results) == 0 {
		// Last resort: one loose pass before giving up
		loose := r.searchSemantic(ctx, []string{searchQuestion, normalized}, 5, "")
		for _, res := range loose {
			if res.Similarity >= lastResortThreshold {
				results = append(results, res)
			}
		}
	}

	if len(results) == 0 {
		if !emit(ctx, events, Event{Type: EventAnswer, Content: msgNotFound}) {
			return
		}
		emitTerminal(events, Event{Type: EventDone, Done: true, FoundInDocs: false})
		return
	}

	keywords := append([]string{}, analysis.KeywordsFa...)
	keywords = append(keywords, analysis.KeywordsAr...)
	if len(keywords) > 8 {
		keywords = keywords[:8]
	}

	convContext := ""
	if sessionID != "" {
		convContext = r.memory.GetContext(sessionID)
	}

	system := buildSystemPrompt(analysis.Section, keywords, convContext, renderPassages(results, true), lang)

	doneKeywords := analysis.KeywordsFa
	if len(doneKeywords) > 5 {
		doneKeywords = doneKeywords[:5]
	}

	r.generate(ctx, events, generation{
		system:    system,
		question:  question,
		sessionID: sessionID,
		sources:   collectSources(results),
		keywords:  doneKeywords,
	})
}

// generation bundles everything the final streaming phase needs.
type generation struct {
	system    string
	question  string
	sessionID string
	sources   []Source
	keywords  []string
}

// generate streams the grounded answer, checking for cancellation before
// each emitted fragment. On success it records the exchange in conversation
// memory and emits the done event; a mid-stream provider failure surfaces
// as a terminal error event since partial answers cannot be salvaged.
func (r *Retriever) generate(ctx context.Context, events chan<- Event, g generation) {
	if !emit(ctx, events, Event{Type: EventStatus, Content: statusGenerating}) {
		return
	}
	if ctx.Err() != nil {
		emitTerminal(events, Event{Type: EventCancelled, Done: true})
		return
	}

	stream, err := r.streamer.StreamComplete(ctx, g.system, g.question)
	if err != nil {
		r.log.Error().Err(err).Msg("answer stream failed to start")
		emitTerminal(events, Event{Type: EventError, Content: fmt.Sprintf("خطا: %v", err), Done: true})
		return
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		if ctx.Err() != nil {
			stream.Close()
			emitTerminal(events, Event{Type: EventCancelled, Done: true})
			return
		}

		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.log.Error().Err(err).Msg("answer stream failed")
			emitTerminal(events, Event{Type: EventError, Content: fmt.Sprintf("خطا: %v", err), Done: true})
			return
		}

		answer.WriteString(fragment)
		if !emit(ctx, events, Event{Type: EventAnswer, Content: fragment}) {
			stream.Close()
			return
		}
	}

	fullAnswer := answer.String()

	// The only write path into conversation memory
	if g.sessionID != "" && fullAnswer != "" {
		r.memory.AddExchange(g.sessionID, g.question, fullAnswer)
	}

	emitTerminal(events, Event{
		Type:        EventDone,
		Done:        true,
		Sources:     g.sources,
		Keywords:    g.keywords,
		FoundInDocs: !answerNotFound(fullAnswer),
	})
}

// collectSources deduplicates citations by (source document, ruling
// number), preserving result order, capped at maxSources.
func collectSources(results []SearchResult) []Source {
	seen := make(map[string]bool)
	var sources []Source
	for _, res := range results {
		key := fmt.Sprintf("%s/%d", res.Chunk.Source, res.Chunk.ProblemNumber)
		if seen[key] {
			continue
		}
		seen[key] = true

		label := "توضیح"
		if res.Chunk.ProblemNumber > 0 {
			label = fmt.Sprintf("مسئله %d", res.Chunk.ProblemNumber)
		}

		sources = append(sources, Source{
			Filename:   res.Chunk.Source,
			Number:     res.Chunk.ProblemNumber,
			Similarity: res.Similarity,
			Label:      label,
			Section:    sectionPathOf(res),
		})
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}
