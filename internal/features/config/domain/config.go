package domain

import (
	description "productprose/backend/internal/features/description/domain"
)

// AppConfig represents the application configuration.
type AppConfig struct {
	Stages        map[description.Stage]description.StageConfig `json:"stages"`
	Languages     []description.Language                        `json:"languages"`
	Tones         []description.Tone                            `json:"tones"`
	DefaultTone   description.Tone                              `json:"default_tone"`
	DefaultRating int                                           `json:"default_rating"`
	FormDefaults  FormDefaults                                  `json:"form_defaults"`
}

// FormDefaults are the values the page pre-fills.
type FormDefaults struct {
	Product        description.ProductInput `json:"product"`
	TargetLanguage description.Language     `json:"target_language"`
	SEOKeywords    string                   `json:"seo_keywords"`
}

func defaultStage(modelID string) description.StageConfig {
	return description.StageConfig{
		ModelID:        modelID,
		DecodingMethod: description.DecodingGreedy,
		MinNewTokens:   50,
		MaxNewTokens:   200,
		StopSequences:  []string{"\n"},
	}
}

// DefaultAppConfig returns the built-in configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Stages: map[description.Stage]description.StageConfig{
			description.StageGenerate:  defaultStage("ibm/granite-13b-instruct-v2"),
			description.StageTranslate: defaultStage("ibm/granite-20b-multilingual"),
			description.StageCustomize: defaultStage("ibm/granite-13b-chat-v2"),
		},
		Languages:     description.Languages(),
		Tones:         description.Tones(),
		DefaultTone:   description.ToneFormal,
		DefaultRating: description.DefaultRating,
		FormDefaults: FormDefaults{
			Product: description.ProductInput{
				Name:           "Example Product",
				Features:       "Feature 1, Feature 2, Feature 3",
				Benefits:       "Benefit 1, Benefit 2, Benefit 3",
				Specifications: "Specification 1, Specification 2, Specification 3",
			},
			TargetLanguage: description.LanguageArabic,
			SEOKeywords:    "smart home, intelligent, automation",
		},
	}
}
