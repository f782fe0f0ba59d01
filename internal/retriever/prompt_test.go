package retriever

import (
	"strings"
	"testing"

	"github.com/resaleh-labs/resaleh/internal/rag"
)

func TestRenderPassages(t *testing.T) {
	results := []SearchResult{
		{
			Chunk: rag.Chunk{
				ProblemNumber: 1700,
				SectionPath:   "احکام روزه > روزه مسافر",
				Text:          "مسافری که هشت فرسخ سفر کند...",
			},
			Similarity: 0.42,
		},
		{
			Chunk: rag.Chunk{
				ProblemNumber: rag.UnnumberedProblem,
				Section:       "احکام روزه",
				Text:          "توضیحات کلی درباره روزه",
			},
			Similarity: 0.3,
		},
	}

	out := renderPassages(results, true)

	if !strings.Contains(out, "مسئله 1700 | احکام روزه > روزه مسافر") {
		t.Errorf("numbered passage header missing: %q", out)
	}
	if !strings.Contains(out, "(امتیاز: 0.42)") {
		t.Errorf("similarity score missing: %q", out)
	}
	if !strings.Contains(out, "توضیح | احکام روزه") {
		t.Errorf("unnumbered passages are headed توضیح with the section fallback: %q", out)
	}

	plain := renderPassages(results, false)
	if strings.Contains(plain, "امتیاز") {
		t.Errorf("scores must be suppressed when not requested: %q", plain)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt(
		"احکام روزه",
		[]string{"روزه", "مسافر"},
		"سوال قبلی: حکم وضو\nپاسخ قبلی: وضو صحیح است",
		"━━ مسئله 1700 ━━\nمتن",
		LangFarsi,
	)

	for _, want := range []string{
		"## موضوع سوال: احکام روزه",
		"روزه، مسافر",
		"## مکالمه قبلی:",
		"سوال قبلی: حکم وضو",
		"مسئله 1700",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Contains(prompt, "IMPORTANT: Provide your answer in English") {
		t.Error("Farsi questions get no language addendum")
	}

	english := buildSystemPrompt("", nil, "", "متن", LangEnglish)
	if !strings.Contains(english, "Provide your answer in English") {
		t.Error("English questions get the English addendum")
	}

	noConv := buildSystemPrompt("", nil, "", "متن", LangFarsi)
	if strings.Contains(noConv, "مکالمه قبلی") {
		t.Error("empty conversation context must not render a conversation block")
	}
}

func TestAnswerNotFound(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"این مسئله در رساله موجود نیست.", true},
		{"پاسخی برای این سوال یافت نشد.", true},
		{"حکم: روزه مسافر صحیح نیست. مرجع: مسئله 1700", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := answerNotFound(tt.answer); got != tt.want {
			t.Errorf("answerNotFound(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}
