package http

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/reader/internal/entities"
	"github.com/mrlokans/reader/internal/replace"
)

// RulesController manages reading-rule replacements. Every mutation reloads
// the compiled engine so new rules apply to the next chapter displayed.
type RulesController struct {
	rules  *replace.Repository
	engine *replace.Engine
}

func NewRulesController(rules *replace.Repository, engine *replace.Engine) *RulesController {
	return &RulesController{
		rules:  rules,
		engine: engine,
	}
}

type ruleRequest struct {
	Name        string `json:"name" binding:"required"`
	Pattern     string `json:"pattern" binding:"required"`
	Replacement string `json:"replacement"`
	IsRegex     bool   `json:"is_regex"`
	Enabled     *bool  `json:"enabled"`
	SortOrder   int    `json:"sort_order"`
}

// ListRules returns all replace rules in application order.
func (controller *RulesController) ListRules(c *gin.Context) {
	rules, err := controller.rules.ListRules()
	if err != nil {
		respondInternalError(c, err, "list rules")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

// CreateRule adds a replace rule.
func (controller *RulesController) CreateRule(c *gin.Context) {
	rule, ok := bindRule(c)
	if !ok {
		return
	}
	if err := controller.rules.CreateRule(rule); err != nil {
		respondInternalError(c, err, "create rule")
		return
	}
	controller.reloadEngine()
	respondCreated(c, rule)
}

// UpdateRule saves changes to a rule.
func (controller *RulesController) UpdateRule(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	rule, ok := bindRule(c)
	if !ok {
		return
	}
	rule.ID = id
	if err := controller.rules.UpdateRule(rule); err != nil {
		if errors.Is(err, replace.ErrNotFound) {
			respondNotFound(c, "rule")
			return
		}
		respondInternalError(c, err, "update rule")
		return
	}
	controller.reloadEngine()
	c.JSON(http.StatusOK, rule)
}

// DeleteRule removes a rule.
func (controller *RulesController) DeleteRule(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := controller.rules.DeleteRule(id); err != nil {
		if errors.Is(err, replace.ErrNotFound) {
			respondNotFound(c, "rule")
			return
		}
		respondInternalError(c, err, "delete rule")
		return
	}
	controller.reloadEngine()
	respondSuccess(c, "rule deleted")
}

func bindRule(c *gin.Context) (*entities.ReplaceRule, bool) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name and pattern are required")
		return nil, false
	}
	if req.IsRegex {
		if _, err := regexp.Compile(req.Pattern); err != nil {
			respondBadRequest(c, "invalid regex pattern: "+err.Error())
			return nil, false
		}
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &entities.ReplaceRule{
		Name:        req.Name,
		Pattern:     req.Pattern,
		Replacement: req.Replacement,
		IsRegex:     req.IsRegex,
		Enabled:     enabled,
		SortOrder:   req.SortOrder,
	}, true
}

func (controller *RulesController) reloadEngine() {
	rules, err := controller.rules.ListEnabledRules()
	if err != nil {
		// Keep the previous compiled set; rule CRUD already succeeded.
		return
	}
	controller.engine.Reload(rules)
}
