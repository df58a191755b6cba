package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"productprose/backend/internal/features/description/domain"
	"productprose/backend/internal/features/description/infrastructure"
	"productprose/backend/internal/metrics"
)

// DescriptionService defines the interface for the description pipeline.
type DescriptionService interface {
	StartSession(ctx context.Context) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ResetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	Generate(ctx context.Context, sessionID string, in domain.ProductInput) (*domain.StageResult, error)
	Translate(ctx context.Context, sessionID string, language domain.Language) (*domain.StageResult, error)
	Customize(ctx context.Context, sessionID string, in domain.CustomizeInput) (*domain.StageResult, error)
	SubmitFeedback(ctx context.Context, sessionID string, rating int, comments string) (*domain.Session, error)
}

// Options are the configured pipeline settings. Zero-valued defaults fall
// back to the built-in ones; an empty Languages list allows every language.
type Options struct {
	Stages        map[domain.Stage]domain.StageConfig
	Languages     []domain.Language
	DefaultTone   domain.Tone
	DefaultRating int
}

// descriptionService is the implementation of DescriptionService.
type descriptionService struct {
	models  infrastructure.ModelFactory
	store   SessionStore
	opts    Options
	metrics *metrics.Registry
}

// NewDescriptionService creates a new instance of descriptionService.
func NewDescriptionService(models infrastructure.ModelFactory, store SessionStore, opts Options, reg *metrics.Registry) DescriptionService {
	if opts.DefaultTone == "" {
		opts.DefaultTone = domain.ToneFormal
	}
	if opts.DefaultRating < domain.MinRating || opts.DefaultRating > domain.MaxRating {
		opts.DefaultRating = domain.DefaultRating
	}
	return &descriptionService{models: models, store: store, opts: opts, metrics: reg}
}

func (s *descriptionService) StartSession(ctx context.Context) (*domain.Session, error) {
	session, err := s.store.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.metrics.Inc(ctx, metrics.SessionsCreated, nil, 1)
	log.Ctx(ctx).Info().Str("session_id", session.ID).Msg("session started")
	return session, nil
}

func (s *descriptionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *descriptionService) ResetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.Reset(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("session_id", sessionID).Msg("session reset")
	return session, nil
}

// Generate produces a new description. A new description supersedes any
// translation of the previous one; the customized text is kept.
func (s *descriptionService) Generate(ctx context.Context, sessionID string, in domain.ProductInput) (*domain.StageResult, error) {
	var text string
	session, err := s.store.Update(ctx, sessionID, func(sess *domain.Session) error {
		prompt, err := BuildGeneratePrompt(in)
		if err != nil {
			return err
		}
		text, err = s.call(ctx, domain.StageGenerate, prompt)
		if err != nil {
			return err
		}
		sess.GeneratedDescription = text
		sess.TranslatedDescription = ""
		sess.TranslatedLanguage = ""
		return nil
	})
	s.record(ctx, domain.StageGenerate, err)
	if err != nil {
		return nil, err
	}
	return &domain.StageResult{
		Stage:   domain.StageGenerate,
		Text:    text,
		Message: "Product description generated!",
		Session: session,
	}, nil
}

// Translate translates the generated description into language.
func (s *descriptionService) Translate(ctx context.Context, sessionID string, language domain.Language) (*domain.StageResult, error) {
	var text string
	lang, _ := domain.ParseLanguage(string(language))
	session, err := s.store.Update(ctx, sessionID, func(sess *domain.Session) error {
		prompt, err := BuildTranslatePrompt(sess.GeneratedDescription, language, s.opts.Languages)
		if err != nil {
			return err
		}
		text, err = s.call(ctx, domain.StageTranslate, prompt)
		if err != nil {
			return err
		}
		sess.TranslatedDescription = text
		sess.TranslatedLanguage = lang
		return nil
	})
	s.record(ctx, domain.StageTranslate, err)
	if err != nil {
		return nil, err
	}
	return &domain.StageResult{
		Stage:    domain.StageTranslate,
		Text:     text,
		Message:  fmt.Sprintf("Product description translated to %s!", lang),
		Language: lang,
		Session:  session,
	}, nil
}

// Customize rewrites the generated description in the requested tone.
func (s *descriptionService) Customize(ctx context.Context, sessionID string, in domain.CustomizeInput) (*domain.StageResult, error) {
	var text string
	session, err := s.store.Update(ctx, sessionID, func(sess *domain.Session) error {
		prompt, err := BuildCustomizePrompt(sess.GeneratedDescription, in, s.opts.DefaultTone)
		if err != nil {
			return err
		}
		text, err = s.call(ctx, domain.StageCustomize, prompt)
		if err != nil {
			return err
		}
		sess.CustomizedDescription = text
		return nil
	})
	s.record(ctx, domain.StageCustomize, err)
	if err != nil {
		return nil, err
	}
	return &domain.StageResult{
		Stage:   domain.StageCustomize,
		Text:    text,
		Message: "Product description customized!",
		Session: session,
	}, nil
}

// SubmitFeedback overwrites the session's feedback record. A zero rating
// takes the configured default.
func (s *descriptionService) SubmitFeedback(ctx context.Context, sessionID string, rating int, comments string) (*domain.Session, error) {
	if rating == 0 {
		rating = s.opts.DefaultRating
	}
	fb := domain.NewFeedback(rating, comments)
	session, err := s.store.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.Feedback = &fb
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(ctx, metrics.FeedbackSubmitted, map[string]string{"rating": fmt.Sprint(fb.Rating)}, 1)
	log.Ctx(ctx).Info().Str("session_id", sessionID).Int("rating", fb.Rating).Msg("feedback recorded")
	return session, nil
}

// call runs one stage against a freshly created model handle. Every failure
// is returned as a RemoteCallFailure.
func (s *descriptionService) call(ctx context.Context, stage domain.Stage, prompt string) (string, error) {
	cfg, ok := s.opts.Stages[stage]
	if !ok {
		return "", domain.NewRemoteCallError(stage, fmt.Errorf("no model configured for stage %s", stage))
	}
	model, err := s.models.NewModel(ctx, cfg)
	if err != nil {
		return "", domain.NewRemoteCallError(stage, err)
	}

	start := time.Now()
	text, err := model.GenerateText(ctx, prompt)
	logger := log.Ctx(ctx).With().
		Str("stage", string(stage)).
		Str("provider", s.models.Provider()).
		Str("model_id", cfg.ModelID).
		Dur("duration", time.Since(start)).
		Logger()
	if err != nil {
		logger.Error().Err(err).Msg("stage call failed")
		return "", domain.NewRemoteCallError(stage, err)
	}
	if strings.TrimSpace(text) == "" {
		logger.Warn().Msg("stage call returned empty text")
		return "", domain.NewRemoteCallError(stage, errors.New("model returned an empty completion"))
	}
	logger.Info().Int("chars", len(text)).Msg("stage call succeeded")
	return text, nil
}

func (s *descriptionService) record(ctx context.Context, stage domain.Stage, err error) {
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
		if errors.Is(err, domain.ErrSessionNotFound) {
			outcome = "SessionNotFound"
		}
	}
	s.metrics.Inc(ctx, metrics.StageCalls, map[string]string{"stage": string(stage), "outcome": outcome}, 1)
}
