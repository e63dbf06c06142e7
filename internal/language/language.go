/*
Responsibilities
- Determine the language of article text
- Decide whether that language is in the configured supported set

Detection Order
- Wikipedia subdomain (en.wikipedia.org is en)
- Statistical detection over the cleaned text
- Script ratio fallback (Han versus Latin letters)

A page whose language cannot be determined is still accepted when it comes
from a supported Wikipedia subdomain.
*/
package language

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

const Unknown = "unknown"

// Below this many cleaned characters detection is not attempted.
const minDetectableChars = 10

type Method string

const (
	MethodDomain  Method = "domain"
	MethodContent Method = "content"
	MethodScript  Method = "script"
	MethodNone    Method = "none"
)

type Result struct {
	Language  string
	Supported bool
	Method    Method
}

//nolint:gochecknoglobals // static lookup table
var domainLanguages = map[string]string{
	"en.wikipedia.org":    "en",
	"zh.wikipedia.org":    "zh",
	"zh-cn.wikipedia.org": "zh-cn",
	"zh-tw.wikipedia.org": "zh-tw",
}

//nolint:gochecknoglobals // static lookup table
var aliases = map[string]string{
	"chinese":  "zh",
	"mandarin": "zh",
	"english":  "en",
	"zh-hans":  "zh-cn",
	"zh-hant":  "zh-tw",
	"zh-sg":    "zh-cn",
	"zh-my":    "zh-cn",
}

// Languages the content detector can tell apart. Anything outside the
// supported set only needs to be recognisable as "not supported".
//
//nolint:gochecknoglobals // static lookup table
var detectable = []lingua.Language{
	lingua.English,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Malay,
	lingua.Indonesian,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Arabic,
	lingua.Tamil,
	lingua.Hindi,
	lingua.Vietnamese,
	lingua.Thai,
}

var (
	urlPattern    = regexp.MustCompile(`https?://\S+`)
	emailPattern  = regexp.MustCompile(`\S+@\S+`)
	symbolPattern = regexp.MustCompile(`[0-9\[\](){}.,;:!?"'\-#*_|>` + "`" + `]+`)
	spacesPattern = regexp.MustCompile(`\s+`)
)

type Detector struct {
	supported map[string]bool
	detector  lingua.LanguageDetector
}

func NewDetector(supportedLanguages []string) *Detector {
	supported := make(map[string]bool, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		supported[Normalize(lang)] = true
	}
	return &Detector{
		supported: supported,
		detector:  lingua.NewLanguageDetectorBuilder().FromLanguages(detectable...).Build(),
	}
}

// IsSupported reports whether lang, after alias normalization, is configured.
func (d *Detector) IsSupported(lang string) bool {
	return d.supported[Normalize(lang)]
}

// Filter detects the language of content and decides whether it is kept.
func (d *Detector) Filter(content string, pageURL url.URL) Result {
	lang, method := d.Detect(content, pageURL)
	if d.IsSupported(lang) {
		return Result{Language: Normalize(lang), Supported: true, Method: method}
	}

	if lang == Unknown {
		if domainLang := fromDomain(pageURL); d.IsSupported(domainLang) {
			return Result{Language: domainLang, Supported: true, Method: MethodDomain}
		}
	}
	return Result{Language: Normalize(lang), Supported: false, Method: method}
}

// Detect returns the language code of content and how it was determined.
func (d *Detector) Detect(content string, pageURL url.URL) (string, Method) {
	if strings.TrimSpace(content) == "" {
		return Unknown, MethodNone
	}
	if lang := fromDomain(pageURL); lang != Unknown {
		return lang, MethodDomain
	}

	cleaned := cleanForDetection(content)
	if len([]rune(cleaned)) < minDetectableChars {
		return Unknown, MethodNone
	}

	if detected, ok := d.detector.DetectLanguageOf(cleaned); ok {
		return strings.ToLower(detected.IsoCode639_1().String()), MethodContent
	}
	if lang := fromScript(cleaned); lang != Unknown {
		return lang, MethodScript
	}
	return Unknown, MethodNone
}

// Normalize lowercases a language code and resolves common aliases.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return Unknown
	}
	if alias, ok := aliases[lang]; ok {
		return alias
	}
	return lang
}

func fromDomain(pageURL url.URL) string {
	if lang, ok := domainLanguages[strings.ToLower(pageURL.Hostname())]; ok {
		return lang
	}
	return Unknown
}

func fromScript(text string) string {
	var han, latin, total int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		default:
			continue
		}
		total++
	}
	if total == 0 {
		return Unknown
	}
	if float64(han)/float64(total) > 0.1 {
		return "zh"
	}
	if float64(latin)/float64(total) > 0.8 {
		return "en"
	}
	return Unknown
}

func cleanForDetection(content string) string {
	content = urlPattern.ReplaceAllString(content, "")
	content = emailPattern.ReplaceAllString(content, "")
	content = symbolPattern.ReplaceAllString(content, " ")
	content = spacesPattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
