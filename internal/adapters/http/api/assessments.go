package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/products"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"github.com/okian/creditrisk/pkg/logger"
)

const maxBodyBytes = 64 << 10

// AssessmentDependencies runs assessments against the inbound schema.
type AssessmentDependencies interface {
	Assess(ctx context.Context, rec *applicant.Record) (Assessment, error)
	Schema() *applicant.Schema
}

// AssessmentsHandler handles assessment requests.
type AssessmentsHandler struct {
	deps     AssessmentDependencies
	validate *validator.Validate
	logger   logger.Logger
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps AssessmentDependencies, l logger.Logger) *AssessmentsHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &AssessmentsHandler{deps: deps, validate: v, logger: l}
}

// assessmentRequest mirrors the OpenAPI schema for POST /v1/assessments.
// Pointers distinguish a missing answer from a zero or false one.
type assessmentRequest struct {
	Gender         string   `json:"gender" validate:"required"`
	Children       *int     `json:"children" validate:"required,min=0"`
	YearlyIncome   *float64 `json:"yearly_income" validate:"required,min=0"`
	Education      string   `json:"education" validate:"required"`
	FamilyStatus   string   `json:"family_status" validate:"required"`
	IncomeType     string   `json:"income_type" validate:"required"`
	HousingType    string   `json:"housing_type" validate:"required"`
	HasPhone       *bool    `json:"has_phone" validate:"required_without=HasContactInfo"`
	HasEmail       *bool    `json:"has_email" validate:"required_without=HasContactInfo"`
	HasContactInfo *bool    `json:"has_contact_info,omitempty"`
	OwnsCar        *bool    `json:"owns_car" validate:"required"`
	OwnsRealty     *bool    `json:"owns_realty" validate:"required"`
	Age            *int     `json:"age" validate:"required"`
	DaysEmployed   *int     `json:"days_employed" validate:"required,min=0"`
	Employed       *bool    `json:"employed" validate:"required"`
	MonthsWithBank *int     `json:"months_with_bank" validate:"required,min=0"`
	Occupation     *string  `json:"occupation,omitempty"`
	FamilyMembers  *int     `json:"family_members,omitempty"`
}

// jsonNames maps schema fields to request keys.
var jsonNames = map[string]string{
	applicant.FieldGender:         "gender",
	applicant.FieldChildren:       "children",
	applicant.FieldIncome:         "yearly_income",
	applicant.FieldEducation:      "education",
	applicant.FieldFamilyStatus:   "family_status",
	applicant.FieldIncomeType:     "income_type",
	applicant.FieldHousingType:    "housing_type",
	applicant.FieldPhone:          "has_phone",
	applicant.FieldEmail:          "has_email",
	applicant.FieldOwnCar:         "owns_car",
	applicant.FieldOwnRealty:      "owns_realty",
	applicant.FieldAge:            "age",
	applicant.FieldDaysEmployed:   "days_employed",
	applicant.FieldEmployed:       "employed",
	applicant.FieldMonthsWithBank: "months_with_bank",
	applicant.FieldOccupation:     "occupation",
	applicant.FieldFamilyMembers:  "family_members",
}

func jsonName(field string) string {
	if n, ok := jsonNames[field]; ok {
		return n
	}
	return field
}

// record converts the request into an applicant record. Optional answers
// are only set when the schema declares them so validation reports any
// field the active schema requires but the request left out.
func (req assessmentRequest) record(schema *applicant.Schema) *applicant.Record {
	phone, email := req.HasPhone, req.HasEmail
	if phone == nil {
		phone = req.HasContactInfo
	}
	if email == nil {
		email = req.HasContactInfo
	}

	r := applicant.NewRecord()
	r.Set(applicant.FieldGender, applicant.Category(req.Gender))
	r.Set(applicant.FieldChildren, applicant.Number(float64(*req.Children)))
	r.Set(applicant.FieldIncome, applicant.Number(*req.YearlyIncome))
	r.Set(applicant.FieldEducation, applicant.Category(req.Education))
	r.Set(applicant.FieldFamilyStatus, applicant.Category(req.FamilyStatus))
	r.Set(applicant.FieldIncomeType, applicant.Category(req.IncomeType))
	r.Set(applicant.FieldHousingType, applicant.Category(req.HousingType))
	r.Set(applicant.FieldPhone, applicant.Bool(*phone))
	r.Set(applicant.FieldEmail, applicant.Bool(*email))
	r.Set(applicant.FieldOwnCar, applicant.Bool(*req.OwnsCar))
	r.Set(applicant.FieldOwnRealty, applicant.Bool(*req.OwnsRealty))
	r.Set(applicant.FieldAge, applicant.Number(float64(*req.Age)))
	r.Set(applicant.FieldDaysEmployed, applicant.Number(float64(*req.DaysEmployed)))
	r.Set(applicant.FieldEmployed, applicant.Bool(*req.Employed))
	r.Set(applicant.FieldMonthsWithBank, applicant.Number(float64(*req.MonthsWithBank)))

	if _, ok := schema.Field(applicant.FieldOccupation); ok && req.Occupation != nil {
		r.Set(applicant.FieldOccupation, applicant.Category(*req.Occupation))
	}
	if _, ok := schema.Field(applicant.FieldFamilyMembers); ok && req.FamilyMembers != nil {
		r.Set(applicant.FieldFamilyMembers, applicant.Number(float64(*req.FamilyMembers)))
	}
	return r
}

type suggestionResponse struct {
	Attribute           string  `json:"attribute"`
	Label               string  `json:"label"`
	Original            float64 `json:"original"`
	Candidate           float64 `json:"candidate"`
	Increment           float64 `json:"increment"`
	Probability         float64 `json:"probability"`
	OriginalProbability float64 `json:"original_probability"`
	Favorable           bool    `json:"favorable"`
	Message             string  `json:"message"`
}

type assessmentResponse struct {
	RequestID          string               `json:"request_id,omitempty"`
	Outcome            string               `json:"outcome"`
	RiskStatus         string               `json:"risk_status,omitempty"`
	Probability        *float64             `json:"probability,omitempty"`
	ProbabilityPercent string               `json:"probability_percent,omitempty"`
	Label              *int                 `json:"label,omitempty"`
	Threshold          float64              `json:"threshold"`
	ModelVersion       string               `json:"model_version,omitempty"`
	Message            string               `json:"message,omitempty"`
	Offers             []products.Product   `json:"offers"`
	Suggestions        []suggestionResponse `json:"suggestions"`
	Truncated          bool                 `json:"truncated"`
}

func newAssessmentResponse(ctx context.Context, a Assessment) assessmentResponse {
	resp := assessmentResponse{
		RequestID:    logger.RequestIDFrom(ctx),
		Outcome:      string(a.Outcome),
		RiskStatus:   a.RiskStatus,
		Threshold:    a.Threshold,
		ModelVersion: a.ModelVersion,
		Message:      a.Message,
		Offers:       a.Offers,
		Suggestions:  make([]suggestionResponse, 0, len(a.Suggestions)),
		Truncated:    a.Truncated,
	}
	if resp.Offers == nil {
		resp.Offers = []products.Product{}
	}
	if a.RiskStatus != "" {
		p, label := a.Probability, a.Label
		resp.Probability = &p
		resp.Label = &label
		resp.ProbabilityPercent = formatPercent(p)
	}
	for _, s := range a.Suggestions {
		resp.Suggestions = append(resp.Suggestions, suggestionResponse{
			Attribute:           s.Attribute,
			Label:               s.Label,
			Original:            s.Original,
			Candidate:           s.Candidate,
			Increment:           s.Increment,
			Probability:         s.Probability,
			OriginalProbability: s.OriginalProbability,
			Favorable:           s.Favorable,
			Message:             suggestionMessage(s.Label, s.Original, s.Candidate, s.Money),
		})
	}
	return resp
}

// HandlePostAssessment handles POST /v1/assessments requests.
func (h *AssessmentsHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, op, http.MethodPost)
		return
	}
	ctx := r.Context()

	var req assessmentRequest
	if err := decodeBody(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_record", WrapKind(op, ErrBadRequest, err))
		return
	}
	if field, err := h.check(op, &req); err != nil {
		writeFieldError(w, r, http.StatusBadRequest, "invalid_record", field, err)
		return
	}

	a, err := h.deps.Assess(ctx, req.record(h.deps.Schema()))
	if err != nil {
		failure := h.classify(ctx, op, err)
		writeFieldError(w, r, failure.status, failure.code, failure.field, failure.err)
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentResponse(ctx, a))
}

// check runs struct validation and names the first failing field.
func (h *AssessmentsHandler) check(op string, req *assessmentRequest) (string, error) {
	err := h.validate.Struct(req)
	if err == nil {
		return "", nil
	}
	field := ""
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field = verrs[0].Field()
		err = fmt.Errorf("%s failed %q validation", field, verrs[0].Tag())
	}
	return field, WrapKind(op, ErrBadRequest, err)
}

// failure is an assessment error mapped onto the HTTP contract.
type failure struct {
	status int
	code   string
	field  string
	err    error
}

// classify maps an Assess error. Record errors are the caller's to fix and
// name the field; anything else is logged and hidden behind a generic message.
func (h *AssessmentsHandler) classify(ctx context.Context, op string, err error) failure {
	var ire *applicant.InvalidRecordError
	switch {
	case errors.As(err, &ire):
		field := jsonName(ire.Field)
		return failure{
			status: http.StatusBadRequest,
			code:   "invalid_record",
			field:  field,
			err:    WrapKind(op, ErrBadRequest, fmt.Errorf("%s: %s", field, ire.Reason)),
		}
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(ctx, "assessment timed out", logger.Error(err))
		return failure{status: http.StatusServiceUnavailable, code: "timeout", err: WrapKind(op, ErrTimeout, err)}
	case errors.Is(err, scoring.ErrScoring):
		h.logger.Error(ctx, "assessment failed", logger.Error(err))
		return failure{status: http.StatusInternalServerError, code: "scoring_error", err: NewKind(op, ErrInternal)}
	default:
		h.logger.Error(ctx, "assessment failed", logger.Error(err))
		return failure{status: http.StatusInternalServerError, code: "internal_error", err: NewKind(op, ErrInternal)}
	}
}
