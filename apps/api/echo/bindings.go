package echoapi

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core"
)

var (
	errBodyRequired = errors.New("request body is required")
	errBodyObject   = errors.New("request body must be a JSON object")
)

// bindCandidate decodes the request body into the raw candidate fields. Numbers are kept as
// json.Number so amounts reach the rules exactly as submitted.
func bindCandidate(ctx echo.Context) (map[string]interface{}, error) {
	body := ctx.Request().Body
	if body == nil {
		return nil, core.NewValidationError(errBodyRequired)
	}

	dec := json.NewDecoder(body)
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		if err == io.EOF {
			return nil, core.NewValidationError(errBodyRequired)
		}
		return nil, core.NewValidationError(errors.Wrap(err, "decoding request body"))
	}
	if fields == nil {
		return nil, core.NewValidationError(errBodyObject)
	}
	if dec.More() {
		return nil, core.NewValidationError(errors.New("request body must hold a single JSON object"))
	}
	return fields, nil
}

// RulesFilter narrows the listed rule sets.
type RulesFilter struct {
	Kind string `json:"kind" validate:"omitempty,oneof=student teacher fee attendance exam payroll audit approval rollback"`
}

func (f *RulesFilter) Bind(ctx echo.Context) error {
	f.Kind = core.CleanString(ctx.QueryParam("kind"), true)
	return core.Validate.Struct(f)
}

func (f RulesFilter) Matches(key string) bool {
	return f.Kind == "" || strings.HasPrefix(key, f.Kind+".")
}
