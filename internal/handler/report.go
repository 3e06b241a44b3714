package handler

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/response"
)

type ReportHandler struct {
	reports ReportGenerator
}

func NewReportHandler(reports ReportGenerator) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Depreciation handles GET /reports/depreciation/{year}
func (h *ReportHandler) Depreciation(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		response.BadRequest(w, "Invalid year", err)
		return
	}

	report, err := h.reports.GenerateReport(r.Context(), year)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, report)
}

type ConfigHandler struct {
	configs   ConfigManager
	validator *validator.Validate
}

func NewConfigHandler(configs ConfigManager, validate *validator.Validate) *ConfigHandler {
	return &ConfigHandler{configs: configs, validator: validate}
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetConfig(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, cfg)
}

func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid id", err)
		return
	}
	var req domain.UpdateCompanyConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Validation failed", validationError(err))
		return
	}

	cfg, err := h.configs.Update(r.Context(), id, req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, cfg)
}
