package server

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/tally-ledger/tally/internal/model"
)

type transactionsResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Balance      model.Balance       `json:"balance"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "listing categories failed", err)
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	s.writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "listing transactions failed", err)
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	s.writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions: txns,
		Balance:      model.ComputeBalance(txns),
	})
}

// handleImport stores the multipart "file" field in the upload dir and runs
// the import pipeline on it. The pipeline removes the file on success.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "file too large or invalid form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "no file provided", err)
		return
	}
	defer file.Close()

	path, err := s.spool(file)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "storing upload failed", err)
		return
	}
	// Import removes the file once everything is saved; a failed import leaves
	// it behind, so clear it here.
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).WithField("path", path).Warn("removing upload")
		}
	}()

	res, err := s.importer.Import(r.Context(), path)
	if res == nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error(), err)
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("file", header.Filename).Warn("import saved but cleanup failed")
	}

	if s.opts.AfterImport != nil {
		s.opts.AfterImport(header.Filename, res)
	}

	txns := res.Transactions
	if txns == nil {
		txns = []model.Transaction{}
	}
	s.writeJSON(w, http.StatusOK, txns)
}

func (s *Server) spool(src io.Reader) (string, error) {
	dir := s.opts.UploadDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	f, err := os.CreateTemp(dir, "upload-*.csv")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
