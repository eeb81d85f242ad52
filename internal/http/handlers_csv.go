package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"zent/internal/core"
	"zent/internal/csvcodec"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := csvcodec.ParseFormat(r.URL.Query().Get("format"))

	// buffered so that a failure still gets a JSON answer
	var buf bytes.Buffer
	if err := s.ledger.Export(r.Context(), &buf, format); err != nil {
		writeError(w, r, "export", err)
		return
	}

	filename := fmt.Sprintf("zent-%s-%s.csv", format, time.Now().Format(dateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport accepts the CSV either as the raw body or as the "file" field
// of a multipart form.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			BadRequestError("Missing file field").Write(w)
			return
		}
		defer file.Close()
		src = file
	}

	res, err := s.ledger.Import(r.Context(), src)
	if err != nil {
		if isTooLarge(err) {
			ErrorResponse(http.StatusRequestEntityTooLarge, core.ReasonValidation, "Import file too large").Write(w)
			return
		}
		writeError(w, r, "import", err)
		return
	}
	if res.Imported > 0 {
		s.invalidate()
	}
	NewJSONResponse().Data(toImportDTO(res)).Write(w)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
