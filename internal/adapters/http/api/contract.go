package api

import (
	"net/http"

	"github.com/okian/creditrisk/internal/domain/applicant"
)

// ContractDependencies describes the loaded model.
type ContractDependencies interface {
	Contract() ContractInfo
}

// ContractHandler serves the model and schema description.
type ContractHandler struct {
	deps ContractDependencies
}

// NewContractHandler creates a new contract handler.
func NewContractHandler(deps ContractDependencies) *ContractHandler {
	return &ContractHandler{deps: deps}
}

type fieldResponse struct {
	Name    string   `json:"name"`
	JSON    string   `json:"json"`
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Feature bool     `json:"feature"`
	Domain  []string `json:"domain,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Integer bool     `json:"integer,omitempty"`
}

type contractResponse struct {
	ModelVersion      string          `json:"model_version"`
	Schema            string          `json:"schema"`
	Threshold         float64         `json:"threshold"`
	MinHistoryMonths  int             `json:"min_history_months"`
	PersonalLoanFloor string          `json:"personal_loan_income_floor"`
	Features          []string        `json:"features"`
	Fields            []fieldResponse `json:"fields"`
}

// HandleGetContract handles GET /v1/contract requests.
func (h *ContractHandler) HandleGetContract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "api.get_contract", http.MethodGet)
		return
	}
	info := h.deps.Contract()
	resp := contractResponse{
		ModelVersion:      info.ModelVersion,
		Schema:            info.Schema,
		Threshold:         info.Threshold,
		MinHistoryMonths:  info.MinHistoryMonths,
		PersonalLoanFloor: info.PersonalLoanFloor,
		Features:          info.Features,
		Fields:            make([]fieldResponse, 0, len(info.Fields)),
	}
	for _, f := range info.Fields {
		resp.Fields = append(resp.Fields, describeField(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

func describeField(f applicant.Field) fieldResponse {
	out := fieldResponse{
		Name:    f.Name,
		JSON:    jsonName(f.Name),
		Label:   f.Label,
		Kind:    f.Kind.String(),
		Feature: f.Role == applicant.RoleFeature,
		Domain:  f.Domain,
		Integer: f.Integer,
	}
	if f.Kind == applicant.KindNumber {
		lo := f.Min
		out.Min = &lo
		if f.Max > 0 {
			hi := f.Max
			out.Max = &hi
		}
	}
	return out
}
