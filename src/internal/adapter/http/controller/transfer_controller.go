package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/models"
	"github.com/api-sage/pix-ledger-service/src/internal/commons"
	"github.com/api-sage/pix-ledger-service/src/internal/logger"
)

type TransferService interface {
	Pix(ctx context.Context, req models.PixTransferRequest) (commons.Response[models.PixTransferResponse], error)
}

type TransferController struct {
	service TransferService
}

func NewTransferController(service TransferService) *TransferController {
	return &TransferController{service: service}
}

func (c *TransferController) RegisterRoutes(mux *http.ServeMux, middleware func(http.Handler) http.Handler) {
	handler := http.HandlerFunc(c.pixTransfer)
	if middleware != nil {
		handler = middleware(handler).ServeHTTP
	}

	mux.Handle("/pix-transfer", http.HandlerFunc(handler))
}

func (c *TransferController) pixTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	if r.Method != http.MethodPost {
		response := commons.ErrorResponse[models.PixTransferResponse]("method not allowed")
		writeJSON(w, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	var req models.PixTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.PixTransferResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.Pix(r.Context(), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := statusForError(err, response.Message)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
