package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/domain/mealplan"
	"github.com/nutrimom/api/internal/infrastructure/http/middleware"
	"github.com/nutrimom/api/internal/ports/inbound"
	apperrors "github.com/nutrimom/api/pkg/errors"
	"github.com/nutrimom/api/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testUserID uint = 1

type RecommendationHandlersTestSuite struct {
	suite.Suite
	service *testutils.MockRecommendationService
	router  chi.Router
}

func (s *RecommendationHandlersTestSuite) SetupTest() {
	s.service = new(testutils.MockRecommendationService)
	h := NewRecommendationHandlers(s.service, 16, zap.NewNop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Anonymous") == "" {
				r = r.WithContext(middleware.WithUserID(r.Context(), testUserID))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/nutrition/targets", h.Targets)
	r.Get("/recommendations", h.Recommendations)
	r.Post("/recommendations", h.Recommendations)
	r.Post("/scan", h.Scan)
	r.Get("/meal-logs", h.ListMealLogs)
	r.Post("/meal-logs", h.CreateMealLog)
	r.Post("/meal-logs/{id}/confirm", h.ConfirmMealLog)
	r.Get("/preferences", h.GetPreference)
	r.Put("/preferences", h.SavePreference)
	s.router = r
}

func (s *RecommendationHandlersTestSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func (s *RecommendationHandlersTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RecommendationHandlersTestSuite) jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *RecommendationHandlersTestSuite) decode(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *RecommendationHandlersTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	body := s.decode(rec)
	errBody, ok := body["error"].(map[string]interface{})
	s.Require().True(ok, "error envelope expected: %s", rec.Body.String())
	return errBody["code"].(string)
}

func (s *RecommendationHandlersTestSuite) TestTargets() {
	s.service.On("Targets", mock.Anything, testUserID).
		Return(&inbound.TargetsDTO{UserID: testUserID, Role: "UMUM"}, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/nutrition/targets", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("UMUM", s.decode(rec)["role"])
}

func (s *RecommendationHandlersTestSuite) TestTargets_PreferenceRequired() {
	s.service.On("Targets", mock.Anything, testUserID).
		Return(nil, apperrors.NewPreferenceRequiredError(testUserID))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/nutrition/targets", nil))

	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("PREFERENCE_REQUIRED", s.errorCode(rec))
}

func (s *RecommendationHandlersTestSuite) TestRecommendations_QueryParameters() {
	s.service.On("Recommend", mock.Anything, mock.MatchedBy(func(cmd inbound.RecommendCommand) bool {
		return cmd.UserID == testUserID &&
			cmd.Days == 3 &&
			cmd.MealType == "lunch" &&
			cmd.OptionsPerMeal == 2 &&
			cmd.BoostPerHit != nil && *cmd.BoostPerHit == 250 &&
			cmd.BoostPer100g == nil &&
			cmd.MinHits != nil && *cmd.MinHits == 2 &&
			cmd.BoostByQuantity != nil && !*cmd.BoostByQuantity &&
			cmd.RequireDetected != nil && *cmd.RequireDetected &&
			cmd.HideOptions == nil &&
			cmd.StartDate != nil && cmd.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			assertIDs(cmd.DetectedIDs, 4, 5)
	})).Return(&mealplan.Plan{UserID: testUserID, StartDate: "2024-03-01"}, nil)

	target := "/recommendations?days=3&meal_type=lunch&options_per_meal=2&boost_per_hit=250" +
		"&boost_per_100g=abc&min_hits=2&boost_by_quantity=false&require_detected=1" +
		"&detected_ids=4,5&start_date=2024-03-01"
	rec := s.do(httptest.NewRequest(http.MethodGet, target, nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("2024-03-01", s.decode(rec)["start_date"])
}

func (s *RecommendationHandlersTestSuite) TestRecommendations_PostMergesBodyIDs() {
	s.service.On("Recommend", mock.Anything, mock.MatchedBy(func(cmd inbound.RecommendCommand) bool {
		return assertIDs(cmd.DetectedIDs, 1, 7, 8)
	})).Return(&mealplan.Plan{UserID: testUserID}, nil)

	req := s.jsonRequest(http.MethodPost, "/recommendations?detected_ids=1",
		`{"candidates":[{"ingredient_id":7}],"detected_ids":[8]}`)
	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RecommendationHandlersTestSuite) TestRecommendations_InvalidStartDate() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/recommendations?start_date=01-03-2024", nil))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_FAILED", s.errorCode(rec))
}

func (s *RecommendationHandlersTestSuite) TestScan_Labels() {
	s.service.On("ScanFood", mock.Anything, inbound.ScanCommand{
		UserID: testUserID,
		Labels: []detection.Label{{Label: "Chicken", Confidence: 0.9}, {Label: "rice", Confidence: 1}},
		TopK:   3,
	}).Return(&detection.Result{
		Candidates:  []detection.Candidate{},
		DetectedIDs: []uint{4},
	}, nil)

	rec := s.do(s.jsonRequest(http.MethodPost, "/scan",
		`{"labels":[{"label":" Chicken ","confidence":0.9},"rice",""],"top_k":3}`))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal([]interface{}{float64(4)}, s.decode(rec)["detected_ids"])
}

func (s *RecommendationHandlersTestSuite) TestScan_DataURI() {
	s.service.On("ScanFood", mock.Anything, inbound.ScanCommand{
		UserID: testUserID,
		Image:  []byte("jpeg"),
	}).Return(&detection.Result{Candidates: []detection.Candidate{}, DetectedIDs: []uint{}}, nil)

	rec := s.do(s.jsonRequest(http.MethodPost, "/scan", `{"image_base64":"data:image/jpeg;base64,anBlZw=="}`))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RecommendationHandlersTestSuite) TestScan_Multipart() {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "lunch.jpg")
	s.Require().NoError(err)
	_, err = part.Write([]byte("photo"))
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	s.service.On("ScanFood", mock.Anything, inbound.ScanCommand{
		UserID: testUserID,
		Image:  []byte("photo"),
	}).Return(&detection.Result{Candidates: []detection.Candidate{}, DetectedIDs: []uint{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/scan", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RecommendationHandlersTestSuite) TestScan_Rejections() {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"no image", `{}`, "IMAGE_REQUIRED"},
		{"empty body", ``, "IMAGE_REQUIRED"},
		{"bad base64", `{"image_base64":"***"}`, "VALIDATION_FAILED"},
		{"too large", `{"image_base64":"` + strings.Repeat("QUFB", 10) + `"}`, "VALIDATION_FAILED"},
		{"bad json", `{"labels":`, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(s.jsonRequest(http.MethodPost, "/scan", tt.body))
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(tt.code, s.errorCode(rec))
		})
	}
}

func (s *RecommendationHandlersTestSuite) TestCreateMealLog() {
	id := uuid.New()
	s.service.On("LogMeal", mock.Anything, mock.MatchedBy(func(cmd inbound.LogMealCommand) bool {
		return cmd.UserID == testUserID &&
			cmd.MenuID == 3 &&
			cmd.Servings == 1 &&
			!cmd.IsConsumed &&
			cmd.LoggedAt != nil && cmd.LoggedAt.Equal(time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC))
	})).Return(&inbound.MealLogDTO{ID: id, MenuID: 3, Servings: 1}, nil)

	rec := s.do(s.jsonRequest(http.MethodPost, "/meal-logs",
		`{"menu_id":3,"logged_at":"2024-03-01T12:00:00+07:00"}`))

	s.Equal(http.StatusCreated, rec.Code)
	s.Equal(id.String(), s.decode(rec)["meal_log_id"])
}

func (s *RecommendationHandlersTestSuite) TestCreateMealLog_Validation() {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing menu", `{"servings":2}`, "VALIDATION_FAILED"},
		{"negative servings", `{"menu_id":1,"servings":-1}`, "VALIDATION_FAILED"},
		{"bad logged_at", `{"menu_id":1,"logged_at":"soon"}`, "VALIDATION_FAILED"},
		{"bad json", `[`, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(s.jsonRequest(http.MethodPost, "/meal-logs", tt.body))
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(tt.code, s.errorCode(rec))
		})
	}
}

func (s *RecommendationHandlersTestSuite) TestCreateMealLog_MenuNotFound() {
	s.service.On("LogMeal", mock.Anything, mock.Anything).Return(nil, apperrors.NewMenuNotFoundError(99))

	rec := s.do(s.jsonRequest(http.MethodPost, "/meal-logs", `{"menu_id":99,"servings":2}`))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("MENU_NOT_FOUND", s.errorCode(rec))
}

func (s *RecommendationHandlersTestSuite) TestListMealLogs() {
	s.service.On("ListMealLogs", mock.Anything, testUserID, 5).Return([]inbound.MealLogDTO(nil), nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/meal-logs?limit=5", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"items":[]}`, rec.Body.String())
}

func (s *RecommendationHandlersTestSuite) TestConfirmMealLog() {
	id := uuid.New()
	s.service.On("ConfirmMeal", mock.Anything, testUserID, id).
		Return(&inbound.MealLogDTO{ID: id, IsConsumed: true}, nil)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/meal-logs/"+id.String()+"/confirm", nil))

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal("Meal marked as consumed", body["message"])
	s.Equal(id.String(), body["meal_log_id"])
}

func (s *RecommendationHandlersTestSuite) TestConfirmMealLog_NotFound() {
	rec := s.do(httptest.NewRequest(http.MethodPost, "/meal-logs/42/confirm", nil))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("MEAL_LOG_NOT_FOUND", s.errorCode(rec))

	id := uuid.New()
	s.service.On("ConfirmMeal", mock.Anything, testUserID, id).
		Return(nil, apperrors.NewMealLogNotFoundError(id.String()))

	rec = s.do(httptest.NewRequest(http.MethodPost, "/meal-logs/"+id.String()+"/confirm", nil))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RecommendationHandlersTestSuite) TestSavePreference() {
	s.service.On("SavePreference", mock.Anything, mock.MatchedBy(func(cmd inbound.SavePreferenceCommand) bool {
		return cmd.UserID == testUserID &&
			cmd.Role == "IBU_HAMIL" &&
			cmd.LastMenstrualPeriod != nil &&
			cmd.LastMenstrualPeriod.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) &&
			len(cmd.Allergens) == 1 && cmd.Allergens[0] == "udang"
	})).Return(&inbound.PreferenceDTO{UserID: testUserID, Role: "IBU_HAMIL"}, nil)

	rec := s.do(s.jsonRequest(http.MethodPut, "/preferences",
		`{"role":"ibu_hamil","last_menstrual_period":"2024-01-15","allergens":["udang"]}`))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("IBU_HAMIL", s.decode(rec)["role"])
}

func (s *RecommendationHandlersTestSuite) TestGetPreference_NotFound() {
	s.service.On("GetPreference", mock.Anything, testUserID).Return(nil, apperrors.NewNotFoundError("preference"))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/preferences", nil))

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RecommendationHandlersTestSuite) TestUnauthenticated() {
	req := httptest.NewRequest(http.MethodGet, "/nutrition/targets", nil)
	req.Header.Set("X-Anonymous", "1")

	rec := s.do(req)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("UNAUTHORIZED", s.errorCode(rec))
}

func (s *RecommendationHandlersTestSuite) TestUnexpectedErrorIsInternal() {
	s.service.On("ListMealLogs", mock.Anything, testUserID, 0).Return(nil, errors.New("boom"))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/meal-logs", nil))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("INTERNAL_ERROR", s.errorCode(rec))
	s.NotContains(rec.Body.String(), "boom")
}

func assertIDs(got []uint, want ...uint) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestRecommendationHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(RecommendationHandlersTestSuite))
}
