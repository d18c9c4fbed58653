package handlers

import (
	"net/http"
	"strconv"

	"github.com/serenespa/membership/internal/http/response"
	"github.com/serenespa/membership/internal/service"
)

const maxProofSize = 10 << 20 // 10 MiB

// UploadPaymentProof accepts a multipart proof-of-payment upload
func (h *Handlers) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		response.BadRequest(w, "Invalid signup id")
		return
	}

	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		response.BadRequest(w, "Missing proof file")
		return
	}
	defer file.Close()

	amount, err := strconv.ParseInt(r.FormValue("amount"), 10, 64)
	if err != nil || amount <= 0 {
		response.BadRequest(w, "Invalid amount")
		return
	}

	req := &service.UploadProofRequest{
		SignupID:    id,
		Filename:    header.Filename,
		File:        file,
		Amount:      amount,
		BankName:    r.FormValue("bank_name"),
		AccountName: r.FormValue("account_name"),
		Method:      r.FormValue("method"),
	}
	if req.BankName == "" || req.AccountName == "" || req.Method == "" {
		response.BadRequest(w, "bank_name, account_name and method are required")
		return
	}

	submission, err := h.paymentService.UploadProof(r.Context(), req)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submission)
}
