// Package recommendation provides the application layer for nutrition
// targeting, meal planning, food scanning and meal logging.
// This implements the use cases defined in the inbound ports
package recommendation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/domain/mealplan"
	"github.com/nutrimom/api/internal/domain/meallog"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
	"github.com/nutrimom/api/internal/domain/shared"
	"github.com/nutrimom/api/internal/ports/inbound"
	"github.com/nutrimom/api/internal/ports/outbound"
	apperrors "github.com/nutrimom/api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultMealLogLimit = 10
	MaxMealLogLimit     = 100

	dateLayout = "2006-01-02"
)

// Defaults are the operator tunables applied when a request leaves a
// parameter unset
type Defaults struct {
	Scoring         menu.ScoringParameters
	Days            int
	OptionsPerMeal  int
	DetectionTopK   int
	ScanSearchLimit int
	MealLogLimit    int
}

// StaticDefaults returns the built-in tunables
func StaticDefaults() Defaults {
	return Defaults{
		Scoring:         menu.DefaultScoringParameters(),
		Days:            mealplan.DefaultDays,
		OptionsPerMeal:  mealplan.DefaultOptionsPerMeal,
		DetectionTopK:   detection.DefaultTopK,
		ScanSearchLimit: 50,
		MealLogLimit:    DefaultMealLogLimit,
	}
}

// DefaultsProvider is consulted on every request so tunables can change
// at runtime
type DefaultsProvider func() Defaults

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracer overrides the tracer used for plan and scan spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// Service implements the recommendation use cases
type Service struct {
	preferences outbound.PreferenceRepository
	catalog     outbound.CatalogRepository
	mealLogs    outbound.MealLogRepository
	loader      *CatalogLoader
	recognizer  outbound.LabelRecognizer
	events      shared.EventPublisher
	metrics     outbound.MetricsRecorder
	defaults    DefaultsProvider
	validate    *validator.Validate
	tracer      trace.Tracer
	now         func() time.Time
	logger      *zap.Logger
}

// NewService creates a new recommendation service
func NewService(
	preferences outbound.PreferenceRepository,
	catalog outbound.CatalogRepository,
	mealLogs outbound.MealLogRepository,
	loader *CatalogLoader,
	recognizer outbound.LabelRecognizer,
	events shared.EventPublisher,
	metrics outbound.MetricsRecorder,
	defaults DefaultsProvider,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if defaults == nil {
		defaults = StaticDefaults
	}
	s := &Service{
		preferences: preferences,
		catalog:     catalog,
		mealLogs:    mealLogs,
		loader:      loader,
		recognizer:  recognizer,
		events:      events,
		metrics:     metrics,
		defaults:    defaults,
		validate:    validator.New(),
		tracer:      otel.Tracer("github.com/nutrimom/api/recommendation"),
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.Named("recommendation-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ inbound.RecommendationService = (*Service)(nil)

// Targets computes the daily nutrition target of a user
func (s *Service) Targets(ctx context.Context, userID uint) (*inbound.TargetsDTO, error) {
	pref, err := s.requirePreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dto := &inbound.TargetsDTO{
		UserID:       userID,
		Role:         string(pref.RoleKind()),
		TargetBucket: menu.TargetBucket(*pref),
		Targets:      nutrition.ComputeTargets(*pref, now),
	}
	if p, ok := pref.Role.(nutrition.Pregnant); ok && p.LastMenstrualPeriod != nil {
		weeks := p.GestationalAgeWeeks(now)
		trimester := nutrition.Trimester(weeks)
		dto.GestationalAgeWeeks = &weeks
		dto.Trimester = &trimester
	}
	return dto, nil
}

// Recommend builds a meal plan for a user
func (s *Service) Recommend(ctx context.Context, cmd inbound.RecommendCommand) (*mealplan.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.Recommend",
		trace.WithAttributes(attribute.Int("user_id", int(cmd.UserID))))
	defer span.End()
	started := time.Now()

	pref, err := s.requirePreference(ctx, cmd.UserID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	catalog, err := s.loader.Load(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, apperrors.NewDatabaseError("load catalog", err)
	}

	defaults := s.defaults()
	req := mealplan.PlanRequest{
		UserID:         cmd.UserID,
		Preference:     *pref,
		Catalog:        catalog,
		Detected:       menu.NewIngredientSet(cmd.DetectedIDs...),
		Days:           firstPositive(cmd.Days, defaults.Days),
		MealTypeFilter: cmd.MealType,
		OptionsPerMeal: firstPositive(cmd.OptionsPerMeal, defaults.OptionsPerMeal),
		HideOptions:    cmd.HideOptions,
		Scoring:        s.scoring(defaults.Scoring, cmd),
		Now:            s.now(),
	}
	if cmd.StartDate != nil {
		req.StartDate = *cmd.StartDate
	}

	plan := mealplan.BuildPlan(req)

	span.SetAttributes(
		attribute.Int("plan.days", len(plan.Days)),
		attribute.Bool("plan.detection_used", plan.DetectionUsed),
		attribute.Int("plan.menus", len(catalog.Menus)),
	)
	if s.metrics != nil {
		s.metrics.RecordPlan(len(plan.Days), plan.DetectionUsed, time.Since(started))
	}

	s.logger.Info("Meal plan built",
		zap.Uint("user_id", cmd.UserID),
		zap.Int("days", len(plan.Days)),
		zap.Int("target_calories", plan.Targets.Calories),
		zap.Bool("detection_used", plan.DetectionUsed),
	)

	return &plan, nil
}

// ScanFood turns a photo or client labels into ingredient candidates.
// Recognizer failures degrade to an empty result.
func (s *Service) ScanFood(ctx context.Context, cmd inbound.ScanCommand) (*detection.Result, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.ScanFood")
	defer span.End()

	labels := cmd.Labels
	source := "labels"
	failed := false
	if len(labels) == 0 {
		if len(cmd.Image) == 0 {
			err := apperrors.NewImageRequiredError()
			recordSpanError(span, err)
			return nil, err
		}
		source = "image"
		recognized, err := s.recognizer.Recognize(ctx, cmd.Image)
		if err != nil {
			failed = true
			s.logger.Warn("Food recognition failed, continuing without labels",
				zap.Uint("user_id", cmd.UserID),
				zap.Error(err),
			)
			span.AddEvent("recognizer failed", trace.WithAttributes(attribute.String("error", err.Error())))
		}
		labels = recognized
	}

	defaults := s.defaults()
	result := detection.Result{Candidates: []detection.Candidate{}, DetectedIDs: []uint{}}

	terms := detection.SearchTerms(labels)
	if len(terms) > 0 {
		ingredients, err := s.catalog.SearchIngredients(ctx, terms, defaults.ScanSearchLimit)
		if err != nil {
			recordSpanError(span, err)
			return nil, apperrors.NewDatabaseError("search ingredients", err)
		}
		topK := cmd.TopK
		if topK <= 0 {
			topK = defaults.DetectionTopK
		}
		result = detection.Match(labels, ingredients, topK)
	}

	span.SetAttributes(
		attribute.String("scan.source", source),
		attribute.Int("scan.labels", len(labels)),
		attribute.Int("scan.candidates", len(result.Candidates)),
	)
	if s.metrics != nil {
		s.metrics.RecordScan(source, len(result.Candidates), failed)
	}

	s.logger.Info("Food scanned",
		zap.Uint("user_id", cmd.UserID),
		zap.String("source", source),
		zap.Int("labels", len(labels)),
		zap.Uints("detected_ids", result.DetectedIDs),
	)

	return &result, nil
}

// GetPreference returns a user's stored preference
func (s *Service) GetPreference(ctx context.Context, userID uint) (*inbound.PreferenceDTO, error) {
	pref, err := s.preferences.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, nutrition.ErrPreferenceNotFound) {
			return nil, apperrors.NewNotFoundError("preference")
		}
		return nil, apperrors.NewDatabaseError("find preference", err)
	}
	return preferenceToDTO(pref), nil
}

// SavePreference creates or replaces a user's preference
func (s *Service) SavePreference(ctx context.Context, cmd inbound.SavePreferenceCommand) (*inbound.PreferenceDTO, error) {
	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return nil, apperrors.FromValidator(err)
	}

	pref := &nutrition.Preference{
		UserID:           cmd.UserID,
		Role:             nutrition.NewRole(nutrition.ParseRoleKind(cmd.Role), cmd.LastMenstrualPeriod, cmd.LILACm, cmd.LactationPhase),
		HeightCm:         cmd.HeightCm,
		WeightKg:         cmd.WeightKg,
		AgeYear:          cmd.AgeYear,
		AgeMonth:         cmd.AgeMonth,
		FoodProhibitions: cleanList(cmd.FoodProhibitions),
		Allergens:        cleanList(cmd.Allergens),
	}
	if err := pref.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.preferences.Save(ctx, pref); err != nil {
		return nil, apperrors.NewDatabaseError("save preference", err)
	}

	s.logger.Info("Preference saved",
		zap.Uint("user_id", cmd.UserID),
		zap.String("role", string(pref.RoleKind())),
	)

	return preferenceToDTO(pref), nil
}

// LogMeal snapshots a menu into the user's meal log
func (s *Service) LogMeal(ctx context.Context, cmd inbound.LogMealCommand) (*inbound.MealLogDTO, error) {
	m, lines, err := s.catalog.FindMenu(ctx, cmd.MenuID)
	if err != nil {
		if errors.Is(err, menu.ErrMenuNotFound) {
			return nil, apperrors.NewMenuNotFoundError(cmd.MenuID)
		}
		return nil, apperrors.NewDatabaseError("find menu", err)
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		if line.IngredientID != nil {
			ids = append(ids, *line.IngredientID)
		}
	}
	ingredients, err := s.catalog.IngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load ingredients", err)
	}

	loggedAt := s.now()
	if cmd.LoggedAt != nil && !cmd.LoggedAt.IsZero() {
		loggedAt = cmd.LoggedAt.UTC()
	}

	entry, err := meallog.NewMealLog(cmd.UserID, *m, lines, ingredients, cmd.Servings, cmd.IsConsumed, loggedAt)
	if err != nil {
		switch {
		case errors.Is(err, meallog.ErrMenuEmpty):
			return nil, apperrors.NewMenuEmptyError(cmd.MenuID)
		case errors.Is(err, meallog.ErrInvalidUser):
			return nil, apperrors.NewUnauthorizedError("user_id is required")
		}
		return nil, apperrors.Wrap(err, "failed to create meal log")
	}

	if err := s.mealLogs.Create(ctx, entry); err != nil {
		return nil, apperrors.NewDatabaseError("create meal log", err)
	}

	s.publish(ctx, entry)
	if s.metrics != nil {
		s.metrics.RecordMealLog("created")
	}

	s.logger.Info("Meal logged",
		zap.String("meal_log_id", entry.ID().String()),
		zap.Uint("user_id", cmd.UserID),
		zap.Uint("menu_id", cmd.MenuID),
		zap.Float64("servings", entry.Servings()),
	)

	return mealLogToDTO(entry), nil
}

// ConfirmMeal marks a logged meal as eaten. Confirming twice is a no-op.
func (s *Service) ConfirmMeal(ctx context.Context, userID uint, logID uuid.UUID) (*inbound.MealLogDTO, error) {
	entry, err := s.mealLogs.MarkConsumed(ctx, userID, logID)
	if err != nil {
		if errors.Is(err, meallog.ErrMealLogNotFound) {
			return nil, apperrors.NewMealLogNotFoundError(logID.String())
		}
		return nil, apperrors.NewDatabaseError("confirm meal log", err)
	}

	s.publish(ctx, entry)
	if s.metrics != nil {
		s.metrics.RecordMealLog("confirmed")
	}

	s.logger.Info("Meal confirmed",
		zap.String("meal_log_id", logID.String()),
		zap.Uint("user_id", userID),
	)

	return mealLogToDTO(entry), nil
}

// ListMealLogs returns a user's most recent meal logs
func (s *Service) ListMealLogs(ctx context.Context, userID uint, limit int) ([]inbound.MealLogDTO, error) {
	if limit <= 0 {
		limit = firstPositive(s.defaults().MealLogLimit, DefaultMealLogLimit)
	}
	if limit > MaxMealLogLimit {
		limit = MaxMealLogLimit
	}

	logs, err := s.mealLogs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list meal logs", err)
	}

	out := make([]inbound.MealLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, *mealLogToDTO(l))
	}
	return out, nil
}

func (s *Service) requirePreference(ctx context.Context, userID uint) (*nutrition.Preference, error) {
	pref, err := s.preferences.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, nutrition.ErrPreferenceNotFound) {
			return nil, apperrors.NewPreferenceRequiredError(userID)
		}
		return nil, apperrors.NewDatabaseError("find preference", err)
	}
	return pref, nil
}

// scoring overlays the request tunables on the defaults
func (s *Service) scoring(base menu.ScoringParameters, cmd inbound.RecommendCommand) menu.ScoringParameters {
	p := base
	if cmd.BoostPerHit != nil {
		p.BoostPerHit = *cmd.BoostPerHit
	}
	if cmd.BoostPer100g != nil {
		p.BoostPer100g = *cmd.BoostPer100g
	}
	if cmd.MinHits != nil {
		p.MinHits = *cmd.MinHits
	}
	if cmd.BoostByQuantity != nil {
		p.BoostByQuantity = *cmd.BoostByQuantity
	}
	if cmd.RequireDetected != nil {
		p.RequireDetected = cmd.RequireDetected
	}
	return p.Clamp()
}

func (s *Service) publish(ctx context.Context, source shared.EventSource) {
	if s.events == nil {
		return
	}
	if events := source.Events(); len(events) > 0 {
		s.events.Publish(ctx, events...)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func preferenceToDTO(p *nutrition.Preference) *inbound.PreferenceDTO {
	dto := &inbound.PreferenceDTO{
		UserID:           p.UserID,
		Role:             string(p.RoleKind()),
		HeightCm:         p.HeightCm,
		WeightKg:         p.WeightKg,
		AgeYear:          p.AgeYear,
		AgeMonth:         p.AgeMonth,
		FoodProhibitions: nonNil(p.FoodProhibitions),
		Allergens:        nonNil(p.Allergens),
	}
	switch role := p.Role.(type) {
	case nutrition.Pregnant:
		if role.LastMenstrualPeriod != nil {
			lmp := role.LastMenstrualPeriod.Format(dateLayout)
			dto.LastMenstrualPeriod = &lmp
		}
		dto.LILACm = role.LILACm
	case nutrition.Lactating:
		dto.LactationPhase = string(role.Phase)
	}
	return dto
}

func mealLogToDTO(l *meallog.MealLog) *inbound.MealLogDTO {
	items := make([]inbound.MealLogItemDTO, 0, len(l.Items()))
	for _, it := range l.Items() {
		items = append(items, inbound.MealLogItemDTO{
			IngredientID: it.IngredientID,
			QuantityG:    it.QuantityG,
			Calories:     it.Nutrition.Calories,
			ProteinG:     it.Nutrition.ProteinG,
			CarbsG:       it.Nutrition.CarbsG,
			FatG:         it.Nutrition.FatG,
		})
	}
	return &inbound.MealLogDTO{
		ID:         l.ID(),
		MenuID:     l.MenuID(),
		MenuName:   l.MenuName(),
		ImageURL:   l.ImageURL(),
		Servings:   l.Servings(),
		IsConsumed: l.IsConsumed(),
		LoggedAt:   l.LoggedAt(),
		Total:      l.Total(),
		Items:      items,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
