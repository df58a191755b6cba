package application

import (
	"fmt"
	"slices"
	"strings"

	"productprose/backend/internal/features/description/domain"
)

const generatePromptTemplate = `You are an AI that generates high-quality product descriptions. Based on the following details, generate a professional and engaging product description:

Product Name: %s

Features: %s

Benefits: %s

Specifications: %s

Generate only the final product description text, without including any instruction or prompt context.`

const translatePromptTemplate = `Translate the following product description into %s:
%s
Return only the translated text, without including any instruction or prompt context.`

const customizePromptTemplate = `Customize the following product description with a %s tone, using the following SEO keywords: %s.
Product Description:
%s
Customization Request: %s
Generate only the final customized product description.`

// BuildGeneratePrompt composes the generate-stage prompt from the product data.
func BuildGeneratePrompt(in domain.ProductInput) (string, error) {
	if missing := in.MissingFields(); len(missing) > 0 {
		return "", domain.NewMissingInputError(domain.StageGenerate, missing...)
	}
	return fmt.Sprintf(generatePromptTemplate, in.Name, in.Features, in.Benefits, in.Specifications), nil
}

// BuildTranslatePrompt composes the translate-stage prompt for a previously
// generated description. A non-empty allowed list narrows the accepted languages.
func BuildTranslatePrompt(generated string, language domain.Language, allowed []domain.Language) (string, error) {
	if strings.TrimSpace(generated) == "" {
		return "", domain.NewMissingPreconditionError(domain.StageTranslate, "no generated description")
	}
	lang, ok := domain.ParseLanguage(string(language))
	if !ok || (len(allowed) > 0 && !slices.Contains(allowed, lang)) {
		return "", domain.NewMissingInputError(domain.StageTranslate, "target_language")
	}
	return fmt.Sprintf(translatePromptTemplate, lang, generated), nil
}

// BuildCustomizePrompt composes the customize-stage prompt. An empty tone
// falls back to defaultTone, or Formal when that is empty too.
func BuildCustomizePrompt(generated string, in domain.CustomizeInput, defaultTone domain.Tone) (string, error) {
	if strings.TrimSpace(generated) == "" {
		return "", domain.NewMissingPreconditionError(domain.StageCustomize, "no generated description")
	}
	if strings.TrimSpace(in.Request) == "" {
		return "", domain.NewMissingPreconditionError(domain.StageCustomize, "no customization request")
	}
	tone := in.Tone
	if strings.TrimSpace(string(tone)) == "" {
		tone = defaultTone
	}
	if strings.TrimSpace(string(tone)) == "" {
		tone = domain.ToneFormal
	}
	return fmt.Sprintf(customizePromptTemplate, tone, in.SEOKeywords, generated, in.Request), nil
}
