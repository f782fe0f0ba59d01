package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	analysisMaxTokens    = 400
	translationMaxTokens = 200
)

// Analysis is the structured multi-query bundle produced for one question.
// Ephemeral; never persisted.
type Analysis struct {
	KeywordsFa         []string `json:"keywords_fa"`
	KeywordsAr         []string `json:"keywords_ar"`
	Section            string   `json:"section"`
	FormalQuery        string   `json:"formal_query"`
	KeywordQuery       string   `json:"keyword_query"`
	ExpandedQuery      string   `json:"expanded_query"`
	IsAboutProhibition bool     `json:"is_about_prohibition"`
}

// fallbackAnalysis degrades to the normalized question when the provider
// fails or returns malformed output; analysis failure must never abort the
// pipeline. The expanded variant still gets the static synonym table.
func fallbackAnalysis(normalized string) Analysis {
	return Analysis{
		FormalQuery:   normalized,
		KeywordQuery:  normalized,
		ExpandedQuery: ExpandQuery(normalized),
	}
}

const analysisPromptTemplate = `تو متخصص فقه اسلامی و رساله‌های عملیه هستی.
سوال فارسی (ممکن است عامیانه باشد) درباره رساله فقهی دریافت کن و JSON برگردان:

{
  "keywords_fa": ["کلمات کلیدی فقهی فارسی - حداکثر 8 تا"],
  "keywords_ar": ["مترادف عربی فقهی"],
  "section": "بخش رساله که جواب احتمالاً در آن است (مثل: احکام روزه)",
  "formal_query": "سوال به فارسی فقهی رسمی و کامل",
  "keyword_query": "فقط کلمات کلیدی فقهی بدون فعل و کمک‌فعل",
  "expanded_query": "سوال با توضیحات و مترادف‌های فقهی بیشتر",
  "is_about_prohibition": true/false
}

مهم:
- "سیگار در رمضون" → formal: "حکم دود سیگار و دخان برای روزه‌دار در ماه رمضان"
- "میشه نماز خوند" → formal: "آیا نماز خواندن در این شرایط جایز است"
- کلمات عامیانه را به اصطلاح فقهی تبدیل کن
- keywords_ar: معادل عربی اگر در متون فقهی رایج است

سوال اصلی: %s
سوال نرمال‌شده: %s

فقط JSON بده.`

// analyzeQuestion asks the language model for a structured analysis of the
// question. Deterministic call, bounded output; any failure or malformed
// output falls back to the normalized question.
func (r *Retriever) analyzeQuestion(ctx context.Context, original, normalized string) Analysis {
	prompt := fmt.Sprintf(analysisPromptTemplate, original, normalized)

	out, err := r.llm.Complete(ctx, prompt, analysisMaxTokens)
	if err != nil {
		r.log.Warn().Err(err).Msg("question analysis failed, using fallback")
		return fallbackAnalysis(normalized)
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &analysis); err != nil {
		r.log.Warn().Err(err).Msg("question analysis returned malformed JSON, using fallback")
		return fallbackAnalysis(normalized)
	}

	if analysis.FormalQuery == "" {
		analysis.FormalQuery = normalized
	}
	if analysis.KeywordQuery == "" {
		analysis.KeywordQuery = normalized
	}
	if analysis.ExpandedQuery == "" {
		analysis.ExpandedQuery = ExpandQuery(normalized)
	}

	return analysis
}

// translateToFarsi produces a Farsi version of a non-Farsi question for
// searching. Translation failure degrades to the original question.
func (r *Retriever) translateToFarsi(ctx context.Context, question string, lang Language) string {
	prompt := fmt.Sprintf(
		"Translate this %s question about Islamic jurisprudence to Farsi. Keep Islamic terminology accurate.\nQuestion: %s\nFarsi translation:",
		lang, question,
	)

	out, err := r.llm.Complete(ctx, prompt, translationMaxTokens)
	if err != nil {
		r.log.Warn().Err(err).Msg("translation failed, searching with original question")
		return question
	}

	translated := strings.TrimSpace(out)
	if translated == "" {
		return question
	}
	return translated
}

// stripCodeFence unwraps a ```json ... ``` fenced block if the model added
// one around its output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
