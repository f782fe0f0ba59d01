package retriever

// ProblemRange is the inclusive span of ruling numbers within a section.
type ProblemRange struct {
	First int64
	Last  int64
}

// sectionProblemMap is the corpus table of contents: section name to the
// range of ruling numbers it covers. A section hint from question analysis
// is only used as a search filter when it matches a key here exactly.
var sectionProblemMap = map[string]ProblemRange{
	"احکام تقلید":                {1, 15},
	"احکام طهارت":                {16, 83},
	"نجاسات":                     {84, 149},
	"مطهرات":                     {150, 236},
	"وضو":                        {237, 347},
	"غسل":                        {348, 530},
	"احکام میت":                  {531, 644},
	"تیمم":                       {645, 723},
	"احکام نماز":                 {724, 1620},
	"احکام روزه":                 {1621, 1818},
	"احکام خمس":                  {1819, 1921},
	"احکام زکات":                 {1922, 2104},
	"احکام حج":                   {2105, 2120},
	"احکام خرید و فروش":          {2121, 2214},
	"احکام شرکت":                 {2215, 2240},
	"احکام صلح":                  {2241, 2260},
	"احکام اجاره":                {2261, 2310},
	"احکام جعاله":                {2311, 2320},
	"احکام مزارعه":               {2321, 2340},
	"احکام مساقات":               {2341, 2350},
	"احکام حجر و بلوغ":           {2351, 2370},
	"احکام وکالت":                {2371, 2390},
	"احکام قرض":                  {2391, 2410},
	"احکام حواله":                {2411, 2420},
	"احکام رهن":                  {2421, 2435},
	"احکام ضامن شدن":             {2436, 2451},
	"احکام نکاح":                 {2452, 2554},
	"احکام شیر دادن":             {2555, 2588},
	"احکام طلاق":                 {2589, 2637},
	"احکام غصب":                  {2638, 2660},
	"احکام ارث":                  {2661, 2716},
	"احکام خوردنیها":             {2717, 2732},
	"احکام نذر و عهد":            {2733, 2780},
	"احکام قسم خوردن":            {2781, 2800},
	"احکام وقف":                  {2801, 2860},
	"احکام وصیت":                 {2861, 2900},
	"امر به معروف و نهی از منکر": {2901, 2950},
}

// KnownSection reports whether name is a section of the corpus.
func KnownSection(name string) bool {
	_, ok := sectionProblemMap[name]
	return ok
}

// SectionRange returns the ruling-number range of a known section.
func SectionRange(name string) (ProblemRange, bool) {
	r, ok := sectionProblemMap[name]
	return r, ok
}
