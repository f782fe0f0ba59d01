package retriever

import "strings"

// smallTalkMaxLen bounds how long a question can be and still count as
// small talk; anything longer is assumed to be a real question that merely
// contains a greeting.
const smallTalkMaxLen = 70

// smallTalkReplies maps greeting keywords to canned replies, answered
// before any retrieval work.
var smallTalkReplies = []substitution{
	{"سلام", "سلام! خوش آمدید.\nمن دستیار رساله آیت‌الله سید علی محمد دستغیب هستم.\nسوال فقهی خود را بپرسید."},
	{"خوبی", "ممنون! در خدمتم. چه سوالی دارید؟"},
	{"چطوری", "خوبم! آماده پاسخ به سوالات فقهی شما هستم."},
	{"ممنونم", "خواهش می‌کنم! در خدمتم."},
	{"ممنون", "خواهش می‌کنم! اگر سوال دیگری دارید بفرمایید."},
	{"مرسی", "خواهش می‌کنم!"},
	{"خداحافظ", "خداحافظ! موفق باشید."},
	{"بای", "خداحافظ!"},
	{"hello", "سلام! چه سوالی از رساله دارید؟"},
	{"hi", "سلام!"},
	{"کی هستی", "من دستیار رساله فقهی آیت‌الله سید علی محمد دستغیب هستم و سوالات فقهی را از رساله ایشان پاسخ می‌دهم."},
	{"چی میدونی", "رساله کامل آیت‌الله دستغیب را می‌دانم: از احکام طهارت، نماز، روزه، خمس، زکات تا احکام معاملات، ازدواج، طلاق و امر به معروف."},
	{"چه بلدی", "رساله کامل آیت‌الله دستغیب را می‌دانم. هر سوال فقهی که دارید بپرسید."},
}

// SmallTalkReply returns the canned reply for a greeting-like question, or
// "" if the question is not small talk.
func SmallTalkReply(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if len([]rune(q)) > smallTalkMaxLen {
		return ""
	}
	for _, s := range smallTalkReplies {
		if strings.Contains(q, s.from) {
			return s.to
		}
	}
	return ""
}
