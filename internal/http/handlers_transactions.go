package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type transactionResponse struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        core.Kind       `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type uploadResponse struct {
	Message
	services.ImportSummary
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = transactionResponse{
			ID:          t.ID,
			Date:        t.Date.Format("2006-01-02"),
			Amount:      t.Amount,
			Type:        t.Kind,
			Category:    t.Category,
			Description: t.Description,
		}
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := userFilter(r)
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	txs, err := s.transactions.ListTransactions(r.Context(), f)
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Data(toTransactionResponses(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := ParseTransaction(NewRequestBodyParser(r), userID(r.Context()), s.now())
	if err != nil {
		if !isInputError(err) {
			err = fmt.Errorf("%w: %v", errInvalidInput, err)
		}
		writeError(w, r, err, log.OpCreate)
		return
	}

	id, err := s.transactions.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+strconv.FormatInt(id, 10)).
		Data(map[string]int64{"id": id}).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("invalid transaction id").Write(w)
		return
	}
	if err := s.transactions.DeleteTransaction(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	SuccessResponse("Transaction deleted.").Write(w)
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	year, yerr := p.Int("year")
	month, merr := p.Int("month")
	if errors.Join(yerr, merr) != nil || year < 1 || month < 1 || month > 12 {
		BadRequestError("Year and month required.").Write(w)
		return
	}

	n, err := s.transactions.DeleteMonth(r.Context(), userID(r.Context()), year, month)
	if err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	SuccessResponse(fmt.Sprintf("Deleted %d transactions for %d/%d.", n, month, year)).Write(w)
}

func (s *Server) handleDeleteYear(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	year, err := p.Int("year")
	if err != nil || year < 1 {
		BadRequestError("Year required.").Write(w)
		return
	}

	n, err := s.transactions.DeleteYear(r.Context(), userID(r.Context()), year)
	if err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	SuccessResponse(fmt.Sprintf("Deleted %d transactions for year %d.", n, year)).Write(w)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequestError("a CSV file is required in the \"file\" field").Write(w)
		return
	}
	defer file.Close()

	summary, err := s.transactions.Import(r.Context(), userID(r.Context()), file)
	if err != nil {
		writeError(w, r, err, log.OpImport)
		return
	}
	NewJSONResponse().Data(uploadResponse{
		Message:       Message{Success: true, Message: fmt.Sprintf("Imported %d transactions, skipped %d rows.", summary.Imported, summary.Skipped)},
		ImportSummary: summary,
	}).Write(w)
}

// handleExportCSV buffers the export so a failure still yields a clean 500.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.transactions.Export(r.Context(), userID(r.Context()), &buf); err != nil {
		writeError(w, r, err, log.OpExport)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
