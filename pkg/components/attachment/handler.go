package attachment

import (
	stderrors "errors"
	"mime/multipart"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/upload"
)

// DefaultMaxRequestSize bounds multipart requests to Handler.
const DefaultMaxRequestSize = 25 << 20

// Handler returns an http.Handler that feeds multipart "file" fields to
// Select. It responds 200 with the picked File as JSON, or 204 when the
// request carried no file.
//
// Mount it on your router: r.Post("/attachments", picker.Handler(0))
func (p *Picker) Handler(maxSize int64) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if r.ContentLength > maxSize {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}

		// Limit the body before parsing.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["file"]
		selections := make([]Selection, 0, len(headers))
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				http.Error(w, "Failed to read file", http.StatusBadRequest)
				return
			}
			defer f.Close()
			selections = append(selections, selection(h, f))
		}

		picked, err := p.Select(r.Context(), selections)
		switch {
		case errors.HasCode(err, "S401"):
			http.Error(w, "File type not accepted", http.StatusUnsupportedMediaType)
			return
		case stderrors.Is(err, upload.ErrTooLarge):
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		case err != nil:
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		case picked == nil:
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(picked)
	})
}

func selection(h *multipart.FileHeader, f multipart.File) Selection {
	return Selection{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Content:     f,
	}
}
