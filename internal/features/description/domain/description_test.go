package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeedback(t *testing.T) {
	tests := []struct {
		name       string
		rating     int
		wantRating int
	}{
		{"unset uses default", 0, DefaultRating},
		{"below range", -2, MinRating},
		{"lower bound", 1, 1},
		{"upper bound", 5, 5},
		{"above range", 9, MaxRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := NewFeedback(tt.rating, "ok")
			assert.Equal(t, tt.wantRating, fb.Rating)
			assert.Equal(t, "ok", fb.Comments)
		})
	}
}

func TestParseLanguage(t *testing.T) {
	l, ok := ParseLanguage("french")
	require.True(t, ok)
	assert.Equal(t, LanguageFrench, l)

	l, ok = ParseLanguage("Portugese")
	require.True(t, ok)
	assert.Equal(t, LanguagePortuguese, l)

	_, ok = ParseLanguage("Klingon")
	assert.False(t, ok)

	_, ok = ParseLanguage("")
	assert.False(t, ok)
}

func TestProductInput_MissingFields(t *testing.T) {
	in := ProductInput{Name: "Lamp", Features: "  ", Specifications: "E27"}
	assert.Equal(t, []string{"features", "benefits"}, in.MissingFields())

	full := ProductInput{Name: "a", Features: "b", Benefits: "c", Specifications: "d"}
	assert.Empty(t, full.MissingFields())
}

func TestSession_Clone(t *testing.T) {
	s := &Session{ID: "s1", GeneratedDescription: "text", Feedback: &Feedback{Rating: 4}}
	c := s.Clone()
	c.Feedback.Rating = 1
	c.GeneratedDescription = "other"

	assert.Equal(t, 4, s.Feedback.Rating)
	assert.Equal(t, "text", s.GeneratedDescription)
}

func TestStageError_Kinds(t *testing.T) {
	remote := NewRemoteCallError(StageTranslate, errors.New("quota exceeded"))
	wrapped := fmt.Errorf("translate: %w", remote)

	assert.True(t, IsRemoteCallFailure(wrapped))
	assert.False(t, IsMissingInput(wrapped))
	assert.Equal(t, "An error occurred while translating the description: quota exceeded", remote.Error())
	assert.EqualError(t, errors.Unwrap(remote), "quota exceeded")

	assert.True(t, IsMissingInput(NewMissingInputError(StageGenerate, "name")))
	assert.True(t, IsMissingPrecondition(NewMissingPreconditionError(StageCustomize, "no description")))
	assert.True(t, IsCredentialsMissing(NewCredentialsMissingError("WATSONX_API_KEY")))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "RemoteCallFailure", ErrorKindRemoteCallFailure.String())
}
