package language

// Language is one supported transcription language, keyed by its ISO-639-3
// code as used in config (language_hint).
type Language struct {
	Code string
	Name string
}

// Auto is used when no hint is configured: providers auto-detect.
var Auto = Language{Code: "", Name: "Auto-detect"}

var languages = []Language{
	{Code: "khm", Name: "Khmer"},
	{Code: "eng", Name: "English"},
	{Code: "tha", Name: "Thai"},
	{Code: "vie", Name: "Vietnamese"},
	{Code: "zho", Name: "Chinese"},
	{Code: "jpn", Name: "Japanese"},
	{Code: "kor", Name: "Korean"},
	{Code: "fra", Name: "French"},
	{Code: "spa", Name: "Spanish"},
	{Code: "deu", Name: "German"},
	{Code: "ita", Name: "Italian"},
	{Code: "por", Name: "Portuguese"},
	{Code: "rus", Name: "Russian"},
	{Code: "ara", Name: "Arabic"},
	{Code: "hin", Name: "Hindi"},
	{Code: "ind", Name: "Indonesian"},
	{Code: "lao", Name: "Lao"},
	{Code: "mya", Name: "Burmese"},
	{Code: "nld", Name: "Dutch"},
	{Code: "pol", Name: "Polish"},
	{Code: "swe", Name: "Swedish"},
	{Code: "tur", Name: "Turkish"},
	{Code: "ukr", Name: "Ukrainian"},
}

// iso2 maps ISO-639-3 hints to the two-letter codes the Whisper-style APIs
// expect; providers that take full names use Name instead.
var iso2 = map[string]string{
	"khm": "km", "eng": "en", "tha": "th", "vie": "vi", "zho": "zh",
	"jpn": "ja", "kor": "ko", "fra": "fr", "spa": "es", "deu": "de",
	"ita": "it", "por": "pt", "rus": "ru", "ara": "ar", "hin": "hi",
	"ind": "id", "lao": "lo", "mya": "my", "nld": "nl", "pol": "pl",
	"swe": "sv", "tur": "tr", "ukr": "uk",
}

var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages)+1)
	codeIndex[""] = Auto
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
	}
}

// FromCode returns the Language for an ISO-639-3 code, or Auto when unknown.
func FromCode(code string) Language {
	if lang, ok := codeIndex[code]; ok {
		return lang
	}
	return Auto
}

// IsValidCode reports whether the code is recognized ("" means auto-detect).
func IsValidCode(code string) bool {
	_, ok := codeIndex[code]
	return ok
}

// ISO2 converts an ISO-639-3 hint to its two-letter equivalent, or "" when
// the hint is unknown (providers then auto-detect).
func ISO2(code string) string {
	return iso2[code]
}

// List returns all supported languages (excluding Auto).
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}
