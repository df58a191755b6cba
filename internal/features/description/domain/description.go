package domain

import (
	"strings"
	"time"
)

// Stage identifies one step of the description pipeline.
type Stage string

const (
	StageGenerate  Stage = "generate"
	StageTranslate Stage = "translate"
	StageCustomize Stage = "customize"
)

// Stages lists the pipeline steps in the order the page presents them.
func Stages() []Stage {
	return []Stage{StageGenerate, StageTranslate, StageCustomize}
}

// DecodingMethod is the sampling strategy requested from the model.
type DecodingMethod string

const (
	DecodingGreedy DecodingMethod = "greedy"
	DecodingSample DecodingMethod = "sample"
)

// StageConfig holds the fixed inference parameters of one stage.
type StageConfig struct {
	ModelID        string         `json:"model_id"`
	OpenAIModel    string         `json:"openai_model,omitempty"` // used when LLM_PROVIDER=openai
	GeminiModel    string         `json:"gemini_model,omitempty"` // used when LLM_PROVIDER=gemini
	DecodingMethod DecodingMethod `json:"decoding_method"`
	MinNewTokens   int            `json:"min_new_tokens"`
	MaxNewTokens   int            `json:"max_new_tokens"`
	StopSequences  []string       `json:"stop_sequences"`
}

// ProductInput is the product data collected from the sidebar.
type ProductInput struct {
	Name           string `json:"name"`
	Features       string `json:"features"`
	Benefits       string `json:"benefits"`
	Specifications string `json:"specifications"`
}

// MissingFields returns the json names of the empty fields, in form order.
func (p ProductInput) MissingFields() []string {
	var missing []string
	if isBlank(p.Name) {
		missing = append(missing, "name")
	}
	if isBlank(p.Features) {
		missing = append(missing, "features")
	}
	if isBlank(p.Benefits) {
		missing = append(missing, "benefits")
	}
	if isBlank(p.Specifications) {
		missing = append(missing, "specifications")
	}
	return missing
}

// Language is a translation target.
type Language string

const (
	LanguageArabic     Language = "Arabic"
	LanguageChinese    Language = "Chinese"
	LanguageFrench     Language = "French"
	LanguageGerman     Language = "German"
	LanguageJapanese   Language = "Japanese"
	LanguagePortuguese Language = "Portuguese"
	LanguageRussian    Language = "Russian"
	LanguageSpanish    Language = "Spanish"
	LanguageUrdu       Language = "Urdu"
)

// Languages returns the supported translation targets.
func Languages() []Language {
	return []Language{
		LanguageArabic, LanguageChinese, LanguageFrench, LanguageGerman, LanguageJapanese,
		LanguagePortuguese, LanguageRussian, LanguageSpanish, LanguageUrdu,
	}
}

// ParseLanguage matches s case-insensitively against the supported languages.
// "Portugese" is accepted for Portuguese since older forms submit that spelling.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Portugese") {
		return LanguagePortuguese, true
	}
	for _, l := range Languages() {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

// Tone is the voice requested for a customized description. Any non-empty
// value is accepted; the constants are the ones offered on the page.
type Tone string

const (
	ToneFormal       Tone = "Formal"
	ToneCasual       Tone = "Casual"
	ToneProfessional Tone = "Professional"
	TonePlayful      Tone = "Playful"
)

// Tones returns the example tones offered on the page.
func Tones() []Tone {
	return []Tone{ToneFormal, ToneCasual, ToneProfessional, TonePlayful}
}

// CustomizeInput carries the inputs of the customize stage.
type CustomizeInput struct {
	Tone        Tone   `json:"tone"`
	SEOKeywords string `json:"seo_keywords"`
	Request     string `json:"request"`
}

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// Feedback is the single rating record of a session.
type Feedback struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// NewFeedback clamps rating into [MinRating, MaxRating]; zero means "not set"
// and becomes DefaultRating.
func NewFeedback(rating int, comments string) Feedback {
	switch {
	case rating == 0:
		rating = DefaultRating
	case rating < MinRating:
		rating = MinRating
	case rating > MaxRating:
		rating = MaxRating
	}
	return Feedback{Rating: rating, Comments: comments}
}

// Session is the state of one interactive session. Empty strings mean the
// stage has not produced a result yet.
type Session struct {
	ID                    string    `json:"id"`
	GeneratedDescription  string    `json:"generated_description,omitempty"`
	TranslatedDescription string    `json:"translated_description,omitempty"`
	TranslatedLanguage    Language  `json:"translated_language,omitempty"`
	CustomizedDescription string    `json:"customized_description,omitempty"`
	Feedback              *Feedback `json:"feedback,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// HasGenerated reports whether the translate and customize stages are reachable.
func (s *Session) HasGenerated() bool {
	return s.GeneratedDescription != ""
}

// Clone returns a deep copy safe to hand out of the store.
func (s *Session) Clone() *Session {
	c := *s
	if s.Feedback != nil {
		fb := *s.Feedback
		c.Feedback = &fb
	}
	return &c
}

// TranslateRequest is the body of the translate action.
type TranslateRequest struct {
	TargetLanguage string `json:"target_language"`
}

// FeedbackRequest is the body of the feedback action.
type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// StageResult is what a successful stage returns to the page.
type StageResult struct {
	Stage    Stage    `json:"stage"`
	Text     string   `json:"text"`
	Message  string   `json:"message"`
	Language Language `json:"language,omitempty"`
	Session  *Session `json:"session"`
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
