package retriever

import (
	"fmt"
	"strings"
)

// systemPromptTemplate is the fixed policy preamble: answer only from the
// provided rulings and cite their numbers. Placeholders: topic, keywords,
// conversation block, passages.
const systemPromptTemplate = `تو دستیار تخصصی رساله فقهی آیت‌الله سید علی محمد دستغیب هستی.

## قوانین مطلق:
1. **فقط** از متن مسائل رساله استفاده کن - هرگز از دانش عمومی خود استفاده نکن
2. اگر جواب در مسائل بود → کامل توضیح بده و **شماره مسئله** را ذکر کن
3. اگر جواب نبود → بگو: «این مسئله در رساله موجود نیست.»
4. سوالات عامیانه فارسی را کاملاً درک کن و جواب فقهی رسمی بده
5. اگر چند مسئله مرتبط بود، همه را ذکر کن
6. جواب را با بخش‌بندی واضح بده:
   - **حکم:** ...
   - **توضیح:** ...
   - **مرجع:** مسئله [شماره] - [نام بخش]

## موضوع سوال: %s
## کلمات کلیدی: %s
%s
## مسائل رساله:
%s`

// languageAddendums instruct the answer language for non-Farsi questions.
var languageAddendums = map[Language]string{
	LangEnglish: "\n\nIMPORTANT: Provide your answer in English. Transliterate key Farsi terms.",
	LangArabic:  "\n\nمهم: أجب باللغة العربية. مع ذکر المصطلحات الفقهية.",
	LangFarsi:   "",
}

// Not-found phrasings the model is instructed to use; their presence in the
// full answer drives the found_in_docs flag.
var notFoundPhrases = []string{"موجود نیست", "یافت نشد"}

// passageHeader renders the citation header of one retrieved passage.
func passageHeader(res SearchResult, showScore bool) string {
	var header string
	if res.Chunk.ProblemNumber > 0 {
		header = fmt.Sprintf("مسئله %d | %s", res.Chunk.ProblemNumber, sectionPathOf(res))
	} else {
		header = fmt.Sprintf("توضیح | %s", sectionPathOf(res))
	}
	if showScore {
		header = fmt.Sprintf("%s (امتیاز: %.2f)", header, res.Similarity)
	}
	return header
}

func sectionPathOf(res SearchResult) string {
	if res.Chunk.SectionPath != "" {
		return res.Chunk.SectionPath
	}
	return res.Chunk.Section
}

// renderPassages joins the retrieved passages, each under its citation
// header. Scores are shown except on the fast path, where the single exact
// hit makes them meaningless.
func renderPassages(results []SearchResult, showScore bool) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, fmt.Sprintf("━━ %s ━━\n%s", passageHeader(res, showScore), res.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

// buildSystemPrompt assembles the grounded generation prompt.
func buildSystemPrompt(topic string, keywords []string, convContext, passages string, lang Language) string {
	convSection := ""
	if convContext != "" {
		convSection = fmt.Sprintf("\n## مکالمه قبلی:\n%s\n", convContext)
	}

	prompt := fmt.Sprintf(systemPromptTemplate,
		topic,
		strings.Join(keywords, "، "),
		convSection,
		passages,
	)
	return prompt + languageAddendums[lang]
}

// answerNotFound reports whether the generated answer says the ruling is
// not present in the corpus.
func answerNotFound(answer string) bool {
	for _, phrase := range notFoundPhrases {
		if strings.Contains(answer, phrase) {
			return true
		}
	}
	return false
}
