package service

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	appErrors "github.com/unclebandit/smsleopard-dashboard/internal/errors"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
)

// Form is a submitted form after trimming.
type Form map[string]any

// CleanForm trims string values.
func CleanForm(in map[string]any) Form {
	out := make(Form, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		out[k] = v
	}
	return out
}

// Str returns the string value of key.
func (f Form) Str(key string) string {
	s, _ := f[key].(string)
	return s
}

const nonEmpty = `{"type": "string", "minLength": 1}`

type formSchema struct {
	form    string
	message string
	schema  *gojsonschema.Schema
}

func mustSchema(form, message, doc string) formSchema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", form, err))
	}
	return formSchema{form: form, message: message, schema: s}
}

var (
	clientForm = mustSchema("client", "Client name is required", `{
		"type": "object",
		"required": ["name"],
		"properties": {"name": `+nonEmpty+`}
	}`)

	campaignForm = mustSchema("campaign", "Campaign name is required", `{
		"type": "object",
		"anyOf": [
			{"required": ["campaign_name"], "properties": {"campaign_name": `+nonEmpty+`}},
			{"required": ["name"], "properties": {"name": `+nonEmpty+`}}
		]
	}`)

	companyForm = mustSchema("company", "Company name and slug are required", `{
		"type": "object",
		"required": ["company_name", "company_slug"],
		"properties": {
			"company_name": `+nonEmpty+`,
			"company_slug": `+nonEmpty+`,
			"approval_method": {"enum": ["both", "email", "dashboard", "auto", "none"]}
		}
	}`)
)

func (s formSchema) validate(data Form) error {
	res, err := s.schema.Validate(gojsonschema.NewGoLoader(map[string]any(data)))
	if err != nil {
		return fmt.Errorf("validate %s form: %w", s.form, err)
	}
	if res.Valid() {
		return nil
	}
	for _, e := range res.Errors() {
		logging.WithComponent("validation").Debug("form rejected", "form", s.form, "field", e.Field(), "problem", e.Description())
	}
	return appErrors.NewValidation(s.form, s.message)
}
