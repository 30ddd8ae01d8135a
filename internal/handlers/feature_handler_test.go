package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
	"presusimple/internal/services"
)

type mockFeatureService struct {
	evaluateAllFn func(userID string) (map[string]bool, error)
	upsertFlagFn  func(key string, input services.FeatureFlagInput) (*models.FeatureFlag, error)
}

var _ services.FeatureFlagServicer = (*mockFeatureService)(nil)

func (m *mockFeatureService) IsEnabled(key, userID string) bool {
	flags, _ := m.EvaluateAll(userID)
	return flags[key]
}

func (m *mockFeatureService) EvaluateAll(userID string) (map[string]bool, error) {
	if m.evaluateAllFn != nil {
		return m.evaluateAllFn(userID)
	}
	return map[string]bool{}, nil
}

func (m *mockFeatureService) UpsertFlag(key string, input services.FeatureFlagInput) (*models.FeatureFlag, error) {
	if m.upsertFlagFn != nil {
		return m.upsertFlagFn(key, input)
	}
	flag := &models.FeatureFlag{Key: key, Enabled: input.Enabled, RolloutPercentage: input.RolloutPercentage}
	flag.SetAllowList(input.AllowedUserIDs)
	return flag, nil
}

func setupFeatureRouter(handler *FeatureHandler) *gin.Engine {
	r := gin.New()
	r.GET("/features", injectUserID(testUserID), handler.GetFeatures)
	r.PUT("/internal/features/:key", handler.UpsertFlag)
	return r
}

func TestFeatureHandler_GetFeatures(t *testing.T) {
	t.Run("returns the caller's evaluation", func(t *testing.T) {
		svc := &mockFeatureService{
			evaluateAllFn: func(userID string) (map[string]bool, error) {
				return map[string]bool{"snapshot_export": userID == testUserID, "beta": false}, nil
			},
		}
		r := setupFeatureRouter(NewFeatureHandler(svc))

		rec := doRequest(r, "GET", "/features", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		features := parseJSON(t, rec)["features"].(map[string]interface{})
		if features["snapshot_export"] != true || features["beta"] != false {
			t.Errorf("unexpected features: %v", features)
		}
	})

	t.Run("surfaces storage errors", func(t *testing.T) {
		svc := &mockFeatureService{
			evaluateAllFn: func(string) (map[string]bool, error) {
				return nil, apperrors.ErrInternalServer
			},
		}
		r := setupFeatureRouter(NewFeatureHandler(svc))

		rec := doRequest(r, "GET", "/features", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestFeatureHandler_UpsertFlag(t *testing.T) {
	t.Run("stores the flag", func(t *testing.T) {
		var gotKey string
		var gotInput services.FeatureFlagInput
		svc := &mockFeatureService{}
		svc.upsertFlagFn = func(key string, input services.FeatureFlagInput) (*models.FeatureFlag, error) {
			gotKey, gotInput = key, input
			flag := &models.FeatureFlag{Key: key, Enabled: input.Enabled, RolloutPercentage: input.RolloutPercentage}
			flag.SetAllowList(input.AllowedUserIDs)
			return flag, nil
		}
		r := setupFeatureRouter(NewFeatureHandler(svc))

		rec := doRequest(r, "PUT", "/internal/features/snapshot_export",
			`{"enabled":true,"rolloutPercentage":25,"allowedUserIds":["`+testUserID+`"]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotKey != "snapshot_export" || !gotInput.Enabled || gotInput.RolloutPercentage != 25 {
			t.Errorf("unexpected upsert %q %+v", gotKey, gotInput)
		}
		result := parseJSON(t, rec)
		ids, ok := result["allowedUserIds"].([]interface{})
		if !ok || len(ids) != 1 || ids[0] != testUserID {
			t.Errorf("expected allow list echoed back, got %v", result["allowedUserIds"])
		}
	})

	t.Run("rejects rollout above 100", func(t *testing.T) {
		r := setupFeatureRouter(NewFeatureHandler(&mockFeatureService{}))

		rec := doRequest(r, "PUT", "/internal/features/beta", `{"enabled":true,"rolloutPercentage":150}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed allow list ids", func(t *testing.T) {
		r := setupFeatureRouter(NewFeatureHandler(&mockFeatureService{}))

		rec := doRequest(r, "PUT", "/internal/features/beta", `{"allowedUserIds":["nope"]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
