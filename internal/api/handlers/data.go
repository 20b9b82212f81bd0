package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/mdhealth/internal/external/ibp"
	"github.com/wonny/mdhealth/internal/source"
	"github.com/wonny/mdhealth/pkg/logger"
)

// CorrectionService submits record corrections upstream
type CorrectionService interface {
	SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error
}

// DataHandler handles master data write-back
// ⭐ SSOT: 데이터 수정 API 핸들러는 이 구조체에서만
type DataHandler struct {
	service CorrectionService
	logger  *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(service CorrectionService, log *logger.Logger) *DataHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &DataHandler{
		service: service,
		logger:  log,
	}
}

// UpdateRecord forwards a partial update of one record to the source
// PATCH /api/data/{type}/{id}
func (h *DataHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	dataType, recordID := vars["type"], vars["id"]

	var fields map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body (expected JSON object)")
		return
	}
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.service.SubmitCorrection(ctx, dataType, recordID, fields); err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"data_type": dataType,
			"record_id": recordID,
		}).Error("Failed to submit correction")
		respondError(w, correctionStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "submitted",
		"data_type": dataType,
		"record_id": recordID,
		"fields":    len(fields),
	})
}

func correctionStatus(err error) int {
	var se *ibp.StatusError
	switch {
	case errors.Is(err, source.ErrCorrectionsUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, ibp.ErrUnknownDataType):
		return http.StatusNotFound
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return http.StatusNotFound
	case errors.As(err, &se), errors.Is(err, ibp.ErrAuthFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

