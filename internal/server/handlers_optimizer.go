package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jonathan/tailorhire/internal/blob"
	"github.com/jonathan/tailorhire/internal/ingestion"
	"github.com/jonathan/tailorhire/internal/optimizer"
	"github.com/jonathan/tailorhire/internal/rendering"
	"github.com/jonathan/tailorhire/internal/types"
)

// Messages shown on the optimizer form.
const (
	MsgResumeRequired    = "Please upload your resume or paste the text"
	MsgJobRequired       = "Please provide the job description"
	MsgOptimized         = "Your resume has been optimized!"
	MsgExtractFailed     = "Failed to extract text. Please paste it manually."
	MsgExtracted         = "Text extracted successfully!"
	MsgReset             = "Optimizer reset. Ready for a new resume!"
	MsgInvalidSubmission = "Invalid form submission"
)

// uploadCookie remembers the visitor's preview blob between requests.
const uploadCookie = "tailorhire_upload"

// multipartOverhead leaves room for the form fields around the file.
const multipartOverhead = 1 << 20

// formFields maps OptimizeRequest fields to form field names and messages.
var formFields = map[string]struct{ name, message string }{
	"ResumeText":     {"resume_text", MsgResumeRequired},
	"JobDescription": {"job_description", MsgJobRequired},
}

// fieldOrder decides which message the flash shows first.
var fieldOrder = []string{"resume_text", "job_description"}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	var flash *rendering.Flash
	if r.URL.Query().Get("reset") == "1" {
		flash = &rendering.Flash{Kind: rendering.FlashInfo, Message: MsgReset}
	}
	s.renderHome(w, r, http.StatusOK, s.homePage(r, flash))
}

// handleOptimize validates the form and submits it to the Optimization API.
// Invalid input never reaches the network.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	if err := r.ParseForm(); err != nil {
		page := s.homePage(r, &rendering.Flash{Kind: rendering.FlashError, Message: MsgInvalidSubmission})
		s.renderHome(w, r, http.StatusBadRequest, page)
		return
	}

	req := &types.OptimizeRequest{
		ResumeText:     r.PostForm.Get("resume_text"),
		JobDescription: r.PostForm.Get("job_description"),
	}
	page := s.homePage(r, nil)
	page.ResumeText = req.ResumeText
	page.JobDescription = req.JobDescription

	req.Normalize()
	if err := req.Validate(); err != nil {
		page.FieldErrors = fieldErrors(err)
		verr := firstFieldError(page.FieldErrors)
		page.Flash = &rendering.Flash{Kind: rendering.FlashError, Message: verr.Message}
		logger.Debug().Err(verr).Msg("optimize form rejected")
		s.renderHome(w, r, HTTPStatus(verr), page)
		return
	}

	result, err := s.optimizer.Optimize(r.Context(), req)
	if err != nil {
		logger.Error().Err(err).Msg("optimization failed")
		page.Flash = &rendering.Flash{
			Kind:    rendering.FlashError,
			Message: optimizer.UserMessage(err, optimizer.OptimizeFailedMessage),
		}
		s.renderHome(w, r, HTTPStatus(err), page)
		return
	}
	if result.OriginalResumeText == "" {
		result.OriginalResumeText = req.ResumeText
	}

	id := s.results.Put(result)
	logger.Info().Str("result_id", id).Int("score", result.Score()).Msg("optimization stored")
	http.Redirect(w, r, "/results/"+id+"?optimized=1", http.StatusSeeOther)
}

// handleUpload checks the file locally, keeps it for preview, and asks the
// Optimization API to extract its text.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, ingestion.MaxUploadBytes+multipartOverhead)

	page := s.homePage(r, nil)
	if err := r.ParseMultipartForm(ingestion.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		message := MsgInvalidSubmission
		if errors.As(err, &maxErr) {
			message = ingestion.MsgTooLarge
		}
		page.Flash = &rendering.Flash{Kind: rendering.FlashError, Message: message}
		s.renderHome(w, r, http.StatusBadRequest, page)
		return
	}
	page.JobDescription = r.FormValue("job_description")

	file, header, err := r.FormFile("resume")
	if err != nil {
		verr := &ErrValidation{Field: "resume", Message: MsgResumeRequired}
		page.Flash = &rendering.Flash{Kind: rendering.FlashError, Message: verr.Message}
		s.renderHome(w, r, HTTPStatus(verr), page)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ingestion.MaxUploadBytes+1))
	if err != nil {
		logger.Error().Err(err).Msg("failed to read upload")
		page.Flash = &rendering.Flash{Kind: rendering.FlashError, Message: MsgExtractFailed}
		s.renderHome(w, r, http.StatusBadRequest, page)
		return
	}

	contentType, err := ingestion.ValidateFile(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		logger.Debug().Err(err).Str("filename", header.Filename).Msg("upload rejected")
		page.Flash = &rendering.Flash{Kind: rendering.FlashError, Message: fileErrorMessage(err)}
		s.renderHome(w, r, HTTPStatus(err), page)
		return
	}

	preview := s.blobs.Replace(s.uploadID(r), data, header.Filename, contentType)
	resp, err := s.optimizer.Upload(r.Context(), header.Filename, contentType, bytes.NewReader(data))
	if err != nil {
		logger.Error().Err(err).Str("filename", header.Filename).Msg("text extraction failed")
		s.blobs.Release(preview.ID)
		clearUploadCookie(w)
		page.Upload = nil
		page.Flash = &rendering.Flash{Kind: rendering.FlashError, Message: MsgExtractFailed}
		s.renderHome(w, r, HTTPStatus(err), page)
		return
	}

	setUploadCookie(w, preview.ID)
	page.Upload = uploadPreview(preview)
	page.ResumeText = ingestion.CleanText(resp.Text)
	page.Flash = &rendering.Flash{Kind: rendering.FlashSuccess, Message: MsgExtracted}
	logger.Info().
		Str("filename", header.Filename).
		Int("length", resp.Length).
		Msg("resume text extracted")
	s.renderHome(w, r, http.StatusOK, page)
}

// handleUploadClear resets the optimizer: the preview blob is released and
// the result, if one is named, is dropped.
func (s *Server) handleUploadClear(w http.ResponseWriter, r *http.Request) {
	if id := s.uploadID(r); id != "" {
		s.blobs.Release(id)
	}
	clearUploadCookie(w)
	if err := r.ParseForm(); err == nil {
		if id := r.PostForm.Get("result_id"); id != "" {
			s.results.Delete(id)
		}
	}
	http.Redirect(w, r, "/?reset=1", http.StatusSeeOther)
}

// handleBlob serves a live preview blob inline.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, ok := s.blobs.Get(id)
	if !ok {
		s.renderNotFound(w, r, &ErrNotFound{Resource: "blob", ID: id})
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition("inline", b.Filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, "", b.CreatedAt, bytes.NewReader(b.Data))
}

func (s *Server) homePage(r *http.Request, flash *rendering.Flash) rendering.HomePage {
	page := rendering.HomePage{
		Page:      s.page(r, "AI Resume Optimizer", flash),
		MaxUpload: ingestion.MaxUploadBytes,
	}
	page.Description = "Upload your resume and job description to get an AI-optimized version that beats ATS systems."
	if b, ok := s.blobs.Get(s.uploadID(r)); ok {
		page.Upload = uploadPreview(b)
	}
	return page
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, status int, page rendering.HomePage) {
	s.render(w, r, status, rendering.PageHome, page)
}

func (s *Server) uploadID(r *http.Request) string {
	c, err := r.Cookie(uploadCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setUploadCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     uploadCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(blob.DefaultTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearUploadCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     uploadCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func uploadPreview(b *blob.Blob) *rendering.UploadPreview {
	return &rendering.UploadPreview{
		Filename:    b.Filename,
		ContentType: b.ContentType,
		URL:         b.URL(),
		Size:        b.Size(),
	}
}

// fieldErrors turns validator errors into form messages keyed by field name.
func fieldErrors(err error) map[string]string {
	errs := make(map[string]string)
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs["resume_text"] = MsgInvalidSubmission
		return errs
	}
	for _, fe := range validationErrs {
		if field, ok := formFields[fe.Field()]; ok {
			errs[field.name] = field.message
		}
	}
	if len(errs) == 0 {
		errs["resume_text"] = MsgInvalidSubmission
	}
	return errs
}

func firstFieldError(errs map[string]string) *ErrValidation {
	for _, name := range fieldOrder {
		if msg, ok := errs[name]; ok {
			return &ErrValidation{Field: name, Message: msg}
		}
	}
	return &ErrValidation{Field: "form", Message: MsgInvalidSubmission}
}

func fileErrorMessage(err error) string {
	var fileErr *ingestion.FileError
	if errors.As(err, &fileErr) {
		return fileErr.Message
	}
	return ingestion.MsgInvalidType
}
