// Package taxonomy ships the one domain-specific constant the ranking engine
// depends on: the coarse category table and the keyword/regex rules used to
// derive medium and minor labels when an article hasn't been precategorized.
//
// Everything here is immutable and compile-time (spec §9: "Taxonomy as a
// mutable map" is a pattern to avoid, not to repeat) — never mutate the
// returned slices/maps.
package taxonomy

import "regexp"

// Category is one of the 13 coarse tags a feed's comma-joined category field
// may contain, together with the keyword list used for medium-level
// inference when no precomputed category_medium is cached.
type Category struct {
	Name     string
	Keywords []string
}

// categories is the full 13-category table. Order is significant only for
// iteration determinism (medium inference scans an article's declared
// category first, then falls through these in order).
var categories = []Category{
	{Name: "政治", Keywords: []string{"選挙", "国会", "内閣", "与党", "野党", "外交", "防衛", "憲法", "政策", "行政"}},
	{Name: "経済", Keywords: []string{"株式", "為替", "金融", "企業", "雇用", "貿易", "景気", "物価", "税制", "投資", "不動産"}},
	{Name: "国際", Keywords: []string{"米国", "中国", "韓国", "北朝鮮", "ロシア", "EU", "中東", "アジア", "国連", "紛争"}},
	{Name: "IT・テクノロジー", Keywords: []string{"AI", "人工知能", "スマホ", "セキュリティ", "SNS", "半導体", "ロボット", "宇宙", "通信", "ゲーム", "アプリ"}},
	{Name: "スポーツ", Keywords: []string{"野球", "サッカー", "テニス", "ゴルフ", "バスケ", "陸上", "水泳", "格闘技", "相撲", "競馬", "五輪", "ラグビー"}},
	{Name: "エンタメ", Keywords: []string{"映画", "音楽", "ドラマ", "アニメ", "芸能", "お笑い", "漫画", "舞台", "アイドル", "バラエティ"}},
	{Name: "科学", Keywords: []string{"宇宙", "医療", "環境", "気候", "生物", "物理", "化学", "研究", "ノーベル", "発見"}},
	{Name: "社会", Keywords: []string{"事件", "事故", "裁判", "福祉", "教育", "医療", "災害", "犯罪", "少子化", "高齢化"}},
	{Name: "地方", Keywords: []string{"観光", "祭り", "特産", "自治体", "再開発", "過疎", "移住", "地域"}},
	{Name: "ビジネス", Keywords: []string{"起業", "決算", "M&A", "IPO", "マーケティング", "人事", "経営"}},
	{Name: "生活", Keywords: []string{"健康", "グルメ", "レシピ", "育児", "住まい", "ファッション", "旅行"}},
	{Name: "環境", Keywords: []string{"気候変動", "脱炭素", "再生可能", "リサイクル", "生態系", "温暖化"}},
	{Name: "文化", Keywords: []string{"文学", "美術", "歴史", "伝統", "哲学", "宗教", "建築"}},
}

// onboardingNames is the 9-category subset offered during onboarding
// sample selection, and the basis for HealthRecord.MissingCategories at the
// major level.
var onboardingNames = []string{
	"政治", "経済", "国際", "IT・テクノロジー", "スポーツ", "エンタメ", "科学", "社会", "地方",
}

// minorBlocklist excludes common, uninformative katakana terms from
// minor-keyword extraction (spec §4.8).
var minorBlocklist = map[string]bool{
	"ニュース":  true,
	"テレビ":   true,
	"インター":  true,
	"サービス":  true,
	"システム":  true,
	"プロジェクト": true,
	"コメント":  true,
}

// KatakanaTokenPattern matches katakana runs of 3 or more characters, one of
// the two minor-keyword extraction patterns named in spec §6.
var KatakanaTokenPattern = regexp.MustCompile(`[ァ-ヴー]{3,}`)

// BracketedPattern matches「…」-bracketed substrings, the other minor-keyword
// extraction pattern named in spec §6.
var BracketedPattern = regexp.MustCompile(`「([^」]+)」`)

// Categories returns the full 13-category table.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// OnboardingCategories returns the 9-category onboarding subset.
func OnboardingCategories() []string {
	out := make([]string, len(onboardingNames))
	copy(out, onboardingNames)
	return out
}

// IsMinorBlocklisted reports whether term is a blocklisted minor keyword.
func IsMinorBlocklisted(term string) bool {
	return minorBlocklist[term]
}

// KeywordsFor returns the keyword list for a named category, or nil if the
// name isn't one of the 13.
func KeywordsFor(name string) []string {
	for _, c := range categories {
		if c.Name == name {
			out := make([]string, len(c.Keywords))
			copy(out, c.Keywords)
			return out
		}
	}
	return nil
}
