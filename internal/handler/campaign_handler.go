// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/service"
)

// CampaignHandler serves read-only campaign lookups
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *zap.Logger
}

// NewCampaignHandler creates a new CampaignHandler with the given service
func NewCampaignHandler(svc *service.CampaignService, logger *zap.Logger) *CampaignHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignHandler{
		Service: svc,
		Logger:  logger,
	}
}

// Routes mounts the campaign endpoints on r.
func (h *CampaignHandler) Routes(r chi.Router) {
	r.Get("/campaigns/{creator}", h.GetCampaign)
	r.Get("/campaigns/{creator}/address", h.GetCampaignAddress)
}

type campaignResponse struct {
	Address model.Address `json:"address"`
	model.CampaignRecord
}

// GetCampaign returns the campaign record created by {creator}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	creator, err := model.ParseAddress(chi.URLParam(r, "creator"))
	if err != nil {
		http.Error(w, "invalid creator: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, addr, err := h.Service.GetCampaign(r.Context(), creator)
	if err != nil {
		if service.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.Logger.Error("failed to fetch campaign", zap.Stringer("creator", creator), zap.Error(err))
		http.Error(w, "failed to fetch campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaignResponse{Address: addr, CampaignRecord: *record})
}

// GetCampaignAddress returns the derived campaign address and bump for {creator}
func (h *CampaignHandler) GetCampaignAddress(w http.ResponseWriter, r *http.Request) {
	creator, err := model.ParseAddress(chi.URLParam(r, "creator"))
	if err != nil {
		http.Error(w, "invalid creator: "+err.Error(), http.StatusBadRequest)
		return
	}

	addr, bump, err := h.Service.CampaignAddress(creator)
	if err != nil {
		http.Error(w, "failed to derive address: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"address": addr,
		"bump":    bump,
	})
}
