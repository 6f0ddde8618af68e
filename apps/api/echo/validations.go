package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

type validationApi struct {
	validator *engine.Validator
}

func registerValidationAPI(g *echo.Group, jwt echo.MiddlewareFunc, validator *engine.Validator) {
	api := validationApi{validator: validator}

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/validations/:kind/:operation", api.validate)
	ag.GET("/rules", api.queryRules, adminMiddleware())
	ag.GET("/rules/:kind/:operation", api.retrieveRules, adminMiddleware())
}

// RuleSetInfo describes a registered rule set.
type RuleSetInfo struct {
	Key         string           `json:"key"`
	Kind        engine.Kind      `json:"kind"`
	Operation   engine.Operation `json:"operation"`
	Description string           `json:"description"`
	Fields      []FieldInfo      `json:"fields"`
	Rules       []string         `json:"rules"`
	Audited     bool             `json:"audited"`
}

type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Tag      string `json:"tag,omitempty"`
}

func newRuleSetInfo(rs *engine.RuleSet) RuleSetInfo {
	info := RuleSetInfo{
		Key:         rs.Key.String(),
		Kind:        rs.Key.Kind,
		Operation:   rs.Key.Operation,
		Description: rs.Description,
		Fields:      make([]FieldInfo, 0, len(rs.Fields)),
		Rules:       rs.RuleNames(),
		Audited:     rs.Audited,
	}
	for _, fr := range rs.Fields {
		info.Fields = append(info.Fields, FieldInfo{
			Name:     fr.Field,
			Type:     fr.Type.String(),
			Required: fr.Required,
			Tag:      fr.Tag,
		})
	}
	if info.Rules == nil {
		info.Rules = []string{}
	}
	return info
}

// Handlers

// validate answers whether the candidate record in the body is admissible:
// 200 when accepted, 422 with the failures when rejected.
func (api *validationApi) validate(ctx echo.Context) error {
	key := ruleSetKey(ctx)
	if _, ok := api.validator.Registry().Lookup(key); !ok {
		return errors.Wrapf(engine.ErrUnsupported, "%s", key)
	}

	fields, err := bindCandidate(ctx)
	if err != nil {
		return err
	}

	req := ctx.Request()
	rc := engine.RequestContext{
		RequestID: ctx.Response().Header().Get(echo.HeaderXRequestID),
		Actor:     getContextActor(ctx),
		IP:        ctx.RealIP(),
		UserAgent: req.UserAgent(),
	}
	res, err := api.validator.Validate(req.Context(), rc, key.Kind, key.Operation, fields)
	if err != nil {
		return errors.Wrapf(err, "validating %s", key)
	}

	if !res.Accepted {
		return ctx.JSON(http.StatusUnprocessableEntity, res)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *validationApi) queryRules(ctx echo.Context) error {
	var filter RulesFilter
	if err := filter.Bind(ctx); err != nil {
		return err
	}

	reg := api.validator.Registry()
	sets := make([]RuleSetInfo, 0)
	for _, key := range reg.Keys() {
		if !filter.Matches(key.String()) {
			continue
		}
		rs, _ := reg.Lookup(key)
		sets = append(sets, newRuleSetInfo(rs))
	}
	return ctx.JSON(http.StatusOK, sets)
}

func (api *validationApi) retrieveRules(ctx echo.Context) error {
	rs, ok := api.validator.Registry().Lookup(ruleSetKey(ctx))
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, newRuleSetInfo(rs))
}

func ruleSetKey(ctx echo.Context) engine.RuleSetKey {
	return engine.Key(
		engine.Kind(core.CleanString(ctx.Param("kind"), true)),
		engine.Operation(core.CleanString(ctx.Param("operation"), true)),
	)
}
