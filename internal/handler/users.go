package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/logging"
	"github.com/lingualoop/learning-api/internal/store"
	"go.uber.org/zap"
)

type userRequest struct {
	UserID              string         `json:"userId"`
	Email               string         `json:"email"`
	Name                string         `json:"name"`
	NativeLanguage      *string        `json:"nativeLanguage"`
	TargetLanguage      *string        `json:"targetLanguage"`
	InitialProficiency  string         `json:"initialProficiency"`
	FinalLevel          *string        `json:"finalLevel"`
	AssessmentScore     float64        `json:"assessmentScore"`
	TotalQuestions      int            `json:"totalQuestions"`
	SkillBreakdown      map[string]any `json:"skillBreakdown"`
	WeakAreas           []string       `json:"weakAreas"`
	StrongAreas         []string       `json:"strongAreas"`
	RecommendedFocus    []string       `json:"recommendedFocus"`
	DetailedResults     []any          `json:"detailedResults"`
	OnboardingCompleted *bool          `json:"onboardingCompleted"`
	AssessmentDate      string         `json:"assessmentDate"`
}

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// GetUser returns the profile named by the userId query parameter.
func (h *Handler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID := strings.TrimSpace(req.QueryStringParameters["userId"])
	if userID == "" {
		return h.fail(ctx, domain.ErrMissingUserID)
	}

	user, err := h.Users.GetUser(ctx, userID)
	if err != nil {
		return h.fail(ctx, err)
	}
	return ok(userResponse{User: user})
}

// PostUser creates a profile, or updates the assessment and language
// fields of an existing one.
func (h *Handler) PostUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in userRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return h.fail(ctx, domain.ErrMissingUserID)
	}

	native, err := normalizeOptional(in.NativeLanguage, "nativeLanguage")
	if err != nil {
		return h.fail(ctx, err)
	}
	target, err := normalizeOptional(in.TargetLanguage, "targetLanguage")
	if err != nil {
		return h.fail(ctx, err)
	}

	raced := false
	_, err = h.Users.GetUser(ctx, in.UserID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user, err := h.createUser(ctx, in, native, target)
		if err == nil {
			return JSON(http.StatusCreated, userResponse{Message: "User created successfully", User: user}), nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return h.fail(ctx, err)
		}
		// created concurrently; apply this request as an update
		raced = true
	case err != nil:
		return h.fail(ctx, err)
	}

	user, err := h.Users.UpdateUserRecord(ctx, in.UserID, store.UserUpdate{
		LastLoginAt:         h.timestamp(),
		FinalLevel:          in.FinalLevel,
		SkillBreakdown:      in.SkillBreakdown,
		WeakAreas:           in.WeakAreas,
		RecommendedFocus:    in.RecommendedFocus,
		OnboardingCompleted: in.OnboardingCompleted,
		NativeLanguage:      native,
		TargetLanguage:      target,
	})
	if err != nil {
		return h.fail(ctx, err)
	}

	if native != nil || target != nil {
		h.Resolver.Invalidate(ctx, in.UserID)
		h.logger(ctx).Info("user languages updated",
			zap.String(logging.FieldUserID, in.UserID), zap.Bool("concurrent_create", raced))
	}
	return ok(userResponse{Message: "User updated successfully", User: user})
}

func (h *Handler) createUser(ctx context.Context, in userRequest, native, target *string) (*domain.User, error) {
	if native == nil || target == nil {
		return nil, fmt.Errorf("%w: nativeLanguage and targetLanguage are required", domain.ErrMissingLanguagePreferences)
	}

	now := h.timestamp()
	user := &domain.User{
		UserID:              in.UserID,
		Email:               in.Email,
		Name:                in.Name,
		NativeLanguage:      *native,
		TargetLanguage:      *target,
		InitialProficiency:  orDefault(in.InitialProficiency, "absolute-beginner"),
		FinalLevel:          "Beginner",
		AssessmentScore:     in.AssessmentScore,
		TotalQuestions:      in.TotalQuestions,
		SkillBreakdown:      in.SkillBreakdown,
		WeakAreas:           nonNil(in.WeakAreas),
		StrongAreas:         nonNil(in.StrongAreas),
		RecommendedFocus:    nonNil(in.RecommendedFocus),
		DetailedResults:     in.DetailedResults,
		AssessmentDate:      orDefault(in.AssessmentDate, now),
		CreatedAt:           now,
		LastLoginAt:         now,
		OnboardingCompleted: in.OnboardingCompleted != nil && *in.OnboardingCompleted,
	}
	if in.FinalLevel != nil && strings.TrimSpace(*in.FinalLevel) != "" {
		user.FinalLevel = *in.FinalLevel
	}
	if user.SkillBreakdown == nil {
		user.SkillBreakdown = map[string]any{}
	}
	if user.DetailedResults == nil {
		user.DetailedResults = []any{}
	}
	user.Preferences = domain.Preferences{
		Difficulty: strings.ToLower(user.FinalLevel),
		Topics:     []string{"daily conversation"},
		FocusAreas: user.RecommendedFocus,
	}
	user.LearningStats = domain.LearningStats{}

	if err := h.Users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// normalizeOptional normalizes a language field that may be omitted.
func normalizeOptional(raw *string, field string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	code, err := language.Normalize(*raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	s := string(code)
	return &s, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
