package server

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jonathan/tailorhire/internal/rendering"
	"github.com/jonathan/tailorhire/internal/results"
	"github.com/jonathan/tailorhire/internal/types"
)

// MsgDownloadFailed is flashed when the PDF payload cannot be decoded.
const MsgDownloadFailed = "Failed to download PDF."

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, ok := s.results.Get(id)
	if !ok {
		s.renderNotFound(w, r, &ErrNotFound{Resource: "result", ID: id})
		return
	}

	var flash *rendering.Flash
	if r.URL.Query().Get("optimized") == "1" {
		flash = &rendering.Flash{Kind: rendering.FlashSuccess, Message: MsgOptimized}
	}
	s.render(w, r, http.StatusOK, rendering.PageResult, s.resultPage(r, id, result, flash))
}

// handleDownload sends the optimized PDF as an attachment. A payload that
// does not decode re-renders the result page with a notification.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, ok := s.results.Get(id)
	if !ok {
		s.renderNotFound(w, r, &ErrNotFound{Resource: "result", ID: id})
		return
	}

	download, err := results.DownloadPDF(result)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("result_id", id).Msg("failed to decode PDF")
		flash := &rendering.Flash{Kind: rendering.FlashError, Message: MsgDownloadFailed}
		s.render(w, r, HTTPStatus(err), rendering.PageResult, s.resultPage(r, id, result, flash))
		return
	}

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition("attachment", download.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(download.Data); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("download interrupted")
	}
}

func (s *Server) resultPage(r *http.Request, id string, result *types.OptimizationResult, flash *rendering.Flash) rendering.ResultPage {
	page := rendering.ResultPage{
		Page:           s.page(r, "Your Optimized Resume", flash),
		ID:             id,
		Score:          result.Score(),
		Candidate:      result.CandidateName(),
		KeyChanges:     result.KeyChanges,
		Suggestions:    result.Suggestions,
		ProcessingTime: result.ProcessingTime,
		PreviewURL:     results.Preview(result),
		DownloadURL:    "/results/" + id + "/download",
		ShowDiff:       r.URL.Query().Get("diff") == "1",
	}
	if page.ShowDiff {
		diff, err := results.Compare(result)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("result_id", id).Msg("failed to compare content")
		}
		page.Diff = diff
	}
	return page
}

func contentDisposition(disposition, filename string) string {
	if filename == "" {
		return disposition
	}
	return mime.FormatMediaType(disposition, map[string]string{"filename": filename})
}
