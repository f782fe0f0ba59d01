package retriever

import (
	"regexp"
	"strings"
)

// Language tags for detected question languages.
type Language string

const (
	LangFarsi   Language = "fa"
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
)

// substitution is one colloquial → formal rewrite.
type substitution struct {
	from string
	to   string
}

// colloquialFixes rewrites colloquial Persian phrases and spellings to the
// formal wording used in the corpus. Applied in order; longer phrases are
// listed before their prefixes where overlap matters.
var colloquialFixes = []substitution{
	// colloquial pronunciation → formal
	{"رمضون", "رمضان"},
	{"ماه رمضون", "ماه رمضان"},
	{"نمازخوندن", "نماز خواندن"},
	{"نماز خوندن", "نماز خواندن"},
	{"وضوگرفتن", "وضو گرفتن"},
	{"وضو گرفتن", "وضو گرفتن"},
	{"دستشویی", "تخلی"},
	{"توالت", "تخلی"},
	{"عروسی", "ازدواج نکاح"},
	// colloquial words → jurisprudential terms
	{"سیگار کشیدن در", "دود سیگار تنباکو در"},
	{"سیگار کشیدن", "سیگار دود دخان تنباکو"},
	{"قلیان کشیدن", "قلیان دود دخان"},
	{"ناپاک", "نجس"},
	{"پاک کردن", "تطهیر"},
	{"گناهه", "حرام است"},
	{"گناه داره", "حرام است"},
	{"چی میشه", "حکم چیست"},
	{"چیه حکمش", "حکم چیست"},
	{"حکمش چیه", "حکم چیست"},
	{"مشکلی داره", "جایز است یا خیر"},
	{"نمیشه", "جایز نیست"},
	{"میشه", "جایز است"},
	{"میتونم", "می‌توانم"},
	{"میتوانم", "می‌توانم"},
	{"چیه", "چیست"},
	{"کجاست", "کجاست"},
	{"باطله", "باطل است"},
	{"صحیحه", "صحیح است"},
	// bodily fluids
	{"آبی که از آلت", "منی مذی"},
	{"آب آلت", "منی مذی"},
	{"آب مرد", "منی"},
	{"ریخته بشه", "خارج شود"},
	{"ریخته", "خارج شده"},
	{"ریختن", "خروج"},
	{"بریزه", "خارج شود"},
	// colloquial verbs
	{"خوردم", "خوردن"},
	{"بخورم", "خوردن"},
	{"بزنم", "زدن"},
	{"برم", "رفتن"},
	{"بیام", "آمدن"},
	{"بشینم", "نشستن"},
	// other colloquialisms
	{"حالا", "اکنون"},
	{"الان", "اکنون"},
	{"واسه", "برای"},
	{"بخاطر", "به خاطر"},
	{"اشکال داره", "اشکال دارد"},
	{"فرق داره", "تفاوت دارد"},
	// colloquial religious idioms
	{"آبدست", "وضو"},
	{"غسل کردن", "غسل"},
}

// fiqhExpansions appends jurisprudential synonyms to a query when the
// trigger word is present, widening semantic recall.
var fiqhExpansions = []substitution{
	{"سیگار", "دود سیگار دخان تنباکو"},
	{"قلیان", "قلیان دود دخان"},
	{"روزه", "روزه صوم صائم"},
	{"رمضان", "رمضان ماه رمضان"},
	{"نماز", "نماز صلات"},
	{"وضو", "وضو طهارت"},
	{"غسل", "غسل جنابت"},
	{"نجس", "نجس نجاست"},
	{"پاک", "طاهر طهارت"},
	{"خون", "خون دم"},
	{"نفاس", "خون نفاس"},
	{"حیض", "حیض خون حیض"},
	{"جنب", "جنابت جنب"},
	{"ازدواج", "نکاح ازدواج عقد"},
	{"طلاق", "طلاق فسخ"},
	{"خرید", "بیع معامله خرید و فروش"},
	{"ربا", "ربا بهره سود"},
	{"خمس", "خمس"},
	{"زکات", "زکات"},
	{"حج", "حج"},
	{"منی", "منی مذی وذی جنابت"},
	{"مذی", "مذی وذی"},
	{"استحاضه", "استحاضه خون استحاضه"},
	{"میت", "میت مرده جنازه"},
	{"تیمم", "تیمم بدل وضو بدل غسل"},
	{"شک", "شک شکیات"},
	{"سجده", "سجده سجود"},
	{"رکوع", "رکوع"},
	{"قبله", "قبله استقبال"},
	{"حرام", "حرام محرمات"},
	{"مکروه", "مکروه مکروهات"},
	{"واجب", "واجب واجبات فرض"},
	{"مستحب", "مستحب مستحبات"},
}

var punctuationRuns = regexp.MustCompile(`[؟?!]+`)

// NormalizeColloquial rewrites a colloquial question into formal wording and
// collapses runs of question/exclamation marks to a single question mark.
// Pure string transformation, idempotent.
func NormalizeColloquial(q string) string {
	result := q
	for _, s := range colloquialFixes {
		result = strings.ReplaceAll(result, s.from, s.to)
	}
	result = punctuationRuns.ReplaceAllString(result, "؟")
	return strings.TrimSpace(result)
}

// ExpandQuery appends jurisprudential synonyms for every trigger word
// present in the query.
func ExpandQuery(q string) string {
	var expansions []string
	for _, s := range fiqhExpansions {
		if strings.Contains(q, s.from) {
			expansions = append(expansions, s.to)
		}
	}
	if len(expansions) == 0 {
		return q
	}
	return q + " " + strings.Join(expansions, " ")
}

// extendedFarsiLetters appear in Persian but not in the base Arabic
// alphabet; any of them settles detection in favour of Farsi.
var extendedFarsiLetters = []rune{'پ', 'چ', 'ژ', 'گ'}

// arabicOnlyLetters are spelled differently in Persian orthography (ک/ی,
// no teh marbuta), so their presence marks Arabic text.
var arabicOnlyLetters = []rune{'ة', 'ك', 'ي'}

// DetectLanguage classifies the question by character-class ratios without
// any external call: Latin-dominant text is English; a Persian-only letter
// settles Farsi; Arabic-only orthography settles Arabic; any remaining
// Perso-Arabic text is Farsi; otherwise English.
func DetectLanguage(question string) Language {
	persian := 0
	english := 0
	hasExtended := false
	hasArabic := false

	for _, r := range question {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			persian++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			english++
		}
		for _, l := range extendedFarsiLetters {
			if r == l {
				hasExtended = true
			}
		}
		for _, l := range arabicOnlyLetters {
			if r == l {
				hasArabic = true
			}
		}
	}

	if english > persian {
		return LangEnglish
	}
	if hasExtended {
		return LangFarsi
	}
	if hasArabic {
		return LangArabic
	}
	if persian > 0 {
		return LangFarsi
	}
	return LangEnglish
}

// digitFolds maps Perso-Arabic digits to ASCII so numeric patterns match
// regardless of the script the user typed in.
var digitFolds = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

func foldDigits(s string) string {
	return digitFolds.Replace(s)
}
