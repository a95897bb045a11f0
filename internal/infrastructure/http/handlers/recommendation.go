// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/infrastructure/http/middleware"
	"github.com/nutrimom/api/internal/ports/inbound"
	apperrors "github.com/nutrimom/api/pkg/errors"
	"go.uber.org/zap"
)

// RecommendationHandlers handles the nutrition REST API
type RecommendationHandlers struct {
	service       inbound.RecommendationService
	maxImageBytes int
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewRecommendationHandlers creates a new handler set
func NewRecommendationHandlers(
	service inbound.RecommendationService,
	maxImageBytes int,
	logger *zap.Logger,
) *RecommendationHandlers {
	return &RecommendationHandlers{
		service:       service,
		maxImageBytes: maxImageBytes,
		validate:      validator.New(),
		logger:        logger.Named("http-handlers"),
	}
}

// ScanRequest is the JSON form of a scan. Labels take precedence over the
// image when both are present.
type ScanRequest struct {
	ImageBase64 string            `json:"image_base64"`
	Labels      []json.RawMessage `json:"labels"`
	TopK        int               `json:"top_k"`
}

// CreateMealLogRequest is the body of POST /meal-logs
type CreateMealLogRequest struct {
	MenuID     uint     `json:"menu_id" validate:"required"`
	Servings   *float64 `json:"servings" validate:"omitempty,gt=0"`
	IsConsumed bool     `json:"is_consumed"`
	LoggedAt   string   `json:"logged_at"`
}

// PreferenceRequest is the body of PUT /preferences
type PreferenceRequest struct {
	Role                string   `json:"role"`
	HeightCm            *float64 `json:"height_cm"`
	WeightKg            *float64 `json:"weight_kg"`
	AgeYear             *int     `json:"age_year"`
	AgeMonth            *int     `json:"age_month"`
	LastMenstrualPeriod string   `json:"last_menstrual_period"`
	LILACm              *float64 `json:"lila_cm"`
	LactationPhase      string   `json:"lactation_phase"`
	FoodProhibitions    []string `json:"food_prohibitions"`
	Allergens           []string `json:"allergens"`
}

// Targets handles GET /api/v1/nutrition/targets
func (h *RecommendationHandlers) Targets(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	targets, err := h.service.Targets(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusOK, targets)
}

// Recommendations handles GET and POST /api/v1/recommendations
func (h *RecommendationHandlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	cmd := inbound.RecommendCommand{
		UserID:          userID,
		Days:            queryInt(query, "days"),
		MealType:        query.Get("meal_type"),
		OptionsPerMeal:  queryInt(query, "options_per_meal"),
		BoostPerHit:     queryFloatPtr(query, "boost_per_hit"),
		BoostPer100g:    queryFloatPtr(query, "boost_per_100g"),
		MinHits:         queryIntPtr(query, "min_hits"),
		BoostByQuantity: queryBoolPtr(query, "boost_by_quantity"),
		RequireDetected: queryBoolPtr(query, "require_detected"),
		HideOptions:     queryBoolPtr(query, "hide_options"),
		DetectedIDs:     DetectedIDsFromQuery(query),
	}

	if raw := query.Get("start_date"); raw != "" {
		start, ok := parseDate(raw)
		if !ok {
			middleware.RespondError(w, r, apperrors.NewValidationError("start_date must be YYYY-MM-DD"))
			return
		}
		cmd.StartDate = &start
	}

	if r.Method == http.MethodPost {
		body, err := decodeBody(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		cmd.DetectedIDs = append(cmd.DetectedIDs, DetectedIDsFromBody(body)...)
	}

	plan, err := h.service.Recommend(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusOK, plan)
}

// Scan handles POST /api/v1/scan. It accepts a multipart "image" file,
// a JSON image_base64 payload or client side labels.
func (h *RecommendationHandlers) Scan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cmd, appErr := h.scanCommand(r)
	if appErr != nil {
		middleware.RespondError(w, r, appErr)
		return
	}
	cmd.UserID = userID

	result, err := h.service.ScanFood(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusOK, result)
}

func (h *RecommendationHandlers) scanCommand(r *http.Request) (inbound.ScanCommand, *apperrors.AppError) {
	var cmd inbound.ScanCommand

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("image")
		if err != nil {
			return cmd, apperrors.NewImageRequiredError()
		}
		defer file.Close()

		var reader io.Reader = file
		if h.maxImageBytes > 0 {
			reader = io.LimitReader(file, int64(h.maxImageBytes)+1)
		}
		image, err := io.ReadAll(reader)
		if err != nil {
			return cmd, apperrors.NewBadRequestError("failed to read image")
		}
		if h.maxImageBytes > 0 && len(image) > h.maxImageBytes {
			return cmd, h.imageTooLarge()
		}
		cmd.Image = image
		return cmd, nil
	}

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return cmd, apperrors.NewBadRequestError("invalid JSON body")
	}
	cmd.TopK = req.TopK

	for _, raw := range req.Labels {
		if label, ok := parseLabel(raw); ok {
			cmd.Labels = append(cmd.Labels, label)
		}
	}
	if len(cmd.Labels) > 0 {
		return cmd, nil
	}

	encoded := strings.TrimSpace(req.ImageBase64)
	if i := strings.Index(encoded, "base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len("base64,"):]
	}
	if encoded == "" {
		return cmd, apperrors.NewImageRequiredError()
	}
	if h.maxImageBytes > 0 && base64.StdEncoding.DecodedLen(len(encoded)) > h.maxImageBytes+2 {
		return cmd, h.imageTooLarge()
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return cmd, apperrors.NewValidationError("image_base64 is not valid base64")
	}
	if h.maxImageBytes > 0 && len(image) > h.maxImageBytes {
		return cmd, h.imageTooLarge()
	}
	cmd.Image = image
	return cmd, nil
}

func (h *RecommendationHandlers) imageTooLarge() *apperrors.AppError {
	return apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", h.maxImageBytes))
}

// parseLabel accepts {"label":..,"confidence":..} or a bare string
func parseLabel(raw json.RawMessage) (detection.Label, bool) {
	var label detection.Label
	if err := json.Unmarshal(raw, &label); err == nil {
		label.Label = strings.TrimSpace(label.Label)
		return label, label.Label != ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil && strings.TrimSpace(name) != "" {
		return detection.Label{Label: strings.TrimSpace(name), Confidence: 1}, true
	}
	return detection.Label{}, false
}

// CreateMealLog handles POST /api/v1/meal-logs
func (h *RecommendationHandlers) CreateMealLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req CreateMealLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondError(w, r, apperrors.NewBadRequestError("invalid JSON body"))
		return
	}
	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		middleware.RespondError(w, r, apperrors.FromValidator(err))
		return
	}

	cmd := inbound.LogMealCommand{
		UserID:     userID,
		MenuID:     req.MenuID,
		Servings:   1,
		IsConsumed: req.IsConsumed,
	}
	if req.Servings != nil {
		cmd.Servings = *req.Servings
	}
	if req.LoggedAt != "" {
		loggedAt, ok := parseTimestamp(req.LoggedAt)
		if !ok {
			middleware.RespondError(w, r, apperrors.NewValidationError("logged_at must be an ISO 8601 timestamp"))
			return
		}
		cmd.LoggedAt = &loggedAt
	}

	log, err := h.service.LogMeal(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusCreated, log)
}

// ListMealLogs handles GET /api/v1/meal-logs
func (h *RecommendationHandlers) ListMealLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	logs, err := h.service.ListMealLogs(r.Context(), userID, queryInt(r.URL.Query(), "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if logs == nil {
		logs = []inbound.MealLogDTO{}
	}
	middleware.RespondJSON(w, http.StatusOK, map[string]interface{}{"items": logs})
}

// ConfirmMealLog handles POST /api/v1/meal-logs/{id}/confirm
func (h *RecommendationHandlers) ConfirmMealLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "id")
	logID, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondError(w, r, apperrors.NewMealLogNotFoundError(raw))
		return
	}

	log, err := h.service.ConfirmMeal(r.Context(), userID, logID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Meal marked as consumed",
		"meal_log_id": log.ID,
		"meal_log":    log,
	})
}

// GetPreference handles GET /api/v1/preferences
func (h *RecommendationHandlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	pref, err := h.service.GetPreference(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusOK, pref)
}

// SavePreference handles PUT /api/v1/preferences
func (h *RecommendationHandlers) SavePreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondError(w, r, apperrors.NewBadRequestError("invalid JSON body"))
		return
	}

	cmd := inbound.SavePreferenceCommand{
		UserID:           userID,
		Role:             strings.ToUpper(strings.TrimSpace(req.Role)),
		HeightCm:         req.HeightCm,
		WeightKg:         req.WeightKg,
		AgeYear:          req.AgeYear,
		AgeMonth:         req.AgeMonth,
		LILACm:           req.LILACm,
		LactationPhase:   strings.TrimSpace(req.LactationPhase),
		FoodProhibitions: req.FoodProhibitions,
		Allergens:        req.Allergens,
	}
	if req.LastMenstrualPeriod != "" {
		lmp, ok := parseDate(req.LastMenstrualPeriod)
		if !ok {
			middleware.RespondError(w, r, apperrors.NewValidationError("last_menstrual_period must be YYYY-MM-DD"))
			return
		}
		cmd.LastMenstrualPeriod = &lmp
	}

	pref, err := h.service.SavePreference(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.RespondJSON(w, http.StatusOK, pref)
}

func (h *RecommendationHandlers) userID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.RespondError(w, r, apperrors.NewUnauthorizedError(""))
	}
	return userID, ok
}

// fail renders err, logging anything that is not the caller's fault
func (h *RecommendationHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		middleware.RespondError(w, r, apperrors.NewBadRequestError(
			fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)))
		return
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, "internal server error")
	}

	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	middleware.RespondError(w, r, appErr)
}
