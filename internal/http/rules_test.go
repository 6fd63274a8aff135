package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/reader/internal/database"
	"github.com/mrlokans/reader/internal/entities"
	"github.com/mrlokans/reader/internal/replace"
)

func setupRulesTest(t *testing.T) (*gin.Engine, *replace.Repository, *replace.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_rules_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := replace.NewRepository(db.DB)
	engine := replace.NewEngine(nil)
	controller := NewRulesController(repo, engine)

	router := gin.New()
	router.GET("/api/rules", controller.ListRules)
	router.POST("/api/rules", controller.CreateRule)
	router.PUT("/api/rules/:id", controller.UpdateRule)
	router.DELETE("/api/rules/:id", controller.DeleteRule)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, repo, engine, cleanup
}

func TestRulesController_CreateReloadsEngine(t *testing.T) {
	router, _, engine, cleanup := setupRulesTest(t)
	defer cleanup()

	body, _ := json.Marshal(gin.H{"name": "strip ad", "pattern": "广告文字", "replacement": ""})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/rules", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, engine.Len())
	assert.Equal(t, "正文", engine.Apply("正文广告文字"))
}

func TestRulesController_CreateRejectsInvalidRegex(t *testing.T) {
	router, _, engine, cleanup := setupRulesTest(t)
	defer cleanup()

	body, _ := json.Marshal(gin.H{"name": "broken", "pattern": "([", "is_regex": true})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/rules", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, engine.Len())
}

func TestRulesController_UpdateRule(t *testing.T) {
	router, repo, engine, cleanup := setupRulesTest(t)
	defer cleanup()

	rule := &entities.ReplaceRule{Name: "strip ad", Pattern: "x", Enabled: true}
	require.NoError(t, repo.CreateRule(rule))

	body, _ := json.Marshal(gin.H{"name": "strip ad", "pattern": "y", "enabled": false})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/rules/%d", rule.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rules, err := repo.ListRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "y", rules[0].Pattern)
	assert.False(t, rules[0].Enabled)
	// Disabled rule dropped from the compiled set.
	assert.Equal(t, 0, engine.Len())
}

func TestRulesController_UpdateUnknownRule(t *testing.T) {
	router, _, _, cleanup := setupRulesTest(t)
	defer cleanup()

	body, _ := json.Marshal(gin.H{"name": "ghost", "pattern": "x"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/rules/999", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRulesController_DeleteRule(t *testing.T) {
	router, repo, engine, cleanup := setupRulesTest(t)
	defer cleanup()

	rule := &entities.ReplaceRule{Name: "strip ad", Pattern: "x", Enabled: true}
	require.NoError(t, repo.CreateRule(rule))
	engine.Reload([]entities.ReplaceRule{*rule})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/rules/%d", rule.ID), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, engine.Len())

	rules, err := repo.ListRules()
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRulesController_ListRules(t *testing.T) {
	router, repo, _, cleanup := setupRulesTest(t)
	defer cleanup()

	require.NoError(t, repo.CreateRule(&entities.ReplaceRule{Name: "a", Pattern: "a", Enabled: true}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/rules", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["count"])
}
