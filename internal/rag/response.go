package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/csheth/candyrag/internal/i18n"
)

// Step is one labelled phase of a query response.
type Step struct {
	Tag            string
	Title          Localized
	Description    Localized
	Payload        Payload
	ProcessingTime float64
}

type wireStep struct {
	Step           string          `json:"step"`
	Title          Localized       `json:"title"`
	Description    Localized       `json:"description"`
	Data           json.RawMessage `json:"data,omitempty"`
	ProcessingTime Value           `json:"processing_time"`
}

// UnmarshalJSON implements json.Unmarshaler. Only a step that is not a JSON
// object fails to decode.
func (s *Step) UnmarshalJSON(data []byte) error {
	var wire struct {
		Step           Value           `json:"step"`
		Title          Localized       `json:"title"`
		Description    Localized       `json:"description"`
		Data           json.RawMessage `json:"data"`
		ProcessingTime Value           `json:"processing_time"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	seconds, _ := wire.ProcessingTime.Float()
	*s = Step{
		Tag:            wire.Step.String(),
		Title:          wire.Title,
		Description:    wire.Description,
		Payload:        DecodePayload(wire.Step.String(), wire.Data),
		ProcessingTime: seconds,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Step) MarshalJSON() ([]byte, error) {
	wire := wireStep{
		Step:           s.Tag,
		Title:          s.Title,
		Description:    s.Description,
		ProcessingTime: Number(s.ProcessingTime),
	}
	switch p := s.Payload.(type) {
	case nil:
	case UnknownPayload:
		wire.Data = p.Raw
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		wire.Data = raw
	}
	return json.Marshal(wire)
}

// NewStep builds a step whose tag matches its payload.
func NewStep(payload Payload, title, description Localized, seconds float64) Step {
	return Step{
		Tag:            string(payload.Kind()),
		Title:          title,
		Description:    description,
		Payload:        payload,
		ProcessingTime: seconds,
	}
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Query       string        `json:"query"`
	Language    i18n.Language `json:"language"`
	Steps       []Step        `json:"steps" validate:"required,min=1"`
	FinalAnswer Localized     `json:"final_answer" validate:"alllangs"`
	TotalTime   float64       `json:"total_time" validate:"gte=0"`
}

// ErrInvalidResponse marks a body that decoded but broke the response schema.
var ErrInvalidResponse = errors.New("invalid query response")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func responseValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("alllangs", func(fl validator.FieldLevel) bool {
			answers, ok := fl.Field().Interface().(Localized)
			if !ok {
				return false
			}
			for _, lang := range i18n.Supported {
				if !answers.Has(lang) {
					return false
				}
			}
			return true
		})
	})
	return validate
}

// Validate checks the response invariants: at least one step and a final
// answer for every supported language.
func (r *QueryResponse) Validate() error {
	err := responseValidator().Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		problems := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(problems, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return "steps must not be empty"
	case "alllangs":
		return "final_answer must cover every supported language"
	case "gte":
		return "total_time must not be negative"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// ParseResponse decodes and validates a query response body.
func ParseResponse(body []byte) (*QueryResponse, error) {
	var resp QueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}
