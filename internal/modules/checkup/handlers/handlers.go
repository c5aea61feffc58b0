// Package handlers provides the HTTP API for checkups.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/checkup/internal/modules/checkup"
	"github.com/aristath/checkup/internal/modules/checkup/diagnosis"
	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	maxUploadBytes = 10 << 20
	maxImages      = 10
)

// CouponRedeemer flips a checkup to paid when a coupon is valid
type CouponRedeemer interface {
	Redeem(ctx context.Context, checkupID, code string) (domain.Status, error)
}

// Handler provides HTTP handlers for checkup endpoints
type Handler struct {
	service *checkup.Service
	coupons CouponRedeemer
	log     zerolog.Logger
}

// NewHandler creates a new checkup handler
func NewHandler(service *checkup.Service, coupons CouponRedeemer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		coupons: coupons,
		log:     log.With().Str("handler", "checkups").Logger(),
	}
}

type createRequest struct {
	Profile *domain.UserProfile `json:"profile"`
}

type textRequest struct {
	Text string `json:"text"`
}

type typeRequest struct {
	Tipo string `json:"tipo"`
}

type applySimilarRequest struct {
	Pattern string `json:"pattern"`
	Tipo    string `json:"tipo"`
}

type applySimilarResponse struct {
	Checkup *domain.Checkup `json:"checkup"`
	Matched int             `json:"matched"`
}

type simulateRequest struct {
	Adjustments []string `json:"adjustments"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// HandleCreate handles POST /api/checkups
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	c, err := h.service.Create(r.Context(), req.Profile)
	if err != nil {
		h.handleServiceError(w, err, "Failed to create checkup")
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// HandleGet handles GET /api/checkups/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to get checkup")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleSubmitText handles POST /api/checkups/{id}/holdings/text
func (h *Handler) HandleSubmitText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	c, err := h.service.SubmitText(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.handleServiceError(w, err, "Failed to submit holdings")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleSubmitFile handles POST /api/checkups/{id}/holdings/file (multipart field "file")
func (h *Handler) HandleSubmitFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	c, err := h.service.SubmitFile(r.Context(), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		h.handleServiceError(w, err, "Failed to submit file")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleSubmitImages handles POST /api/checkups/{id}/holdings/images (multipart field "images")
func (h *Handler) HandleSubmitImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		h.writeError(w, http.StatusBadRequest, "images are required")
		return
	}
	if len(headers) > maxImages {
		h.writeError(w, http.StatusBadRequest, "too many images (max "+strconv.Itoa(maxImages)+")")
		return
	}

	images := make([]checkup.Image, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Failed to read "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Failed to read "+fh.Filename)
			return
		}
		images = append(images, checkup.Image{Name: fh.Filename, Data: data})
	}

	c, err := h.service.SubmitImages(r.Context(), chi.URLParam(r, "id"), images)
	if err != nil {
		h.handleServiceError(w, err, "Failed to submit images")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleOverrideType handles PUT /api/checkups/{id}/holdings/{index}/type
func (h *Handler) HandleOverrideType(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	var req typeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tipo, ok := domain.ParseHoldingType(req.Tipo)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown tipo: "+req.Tipo)
		return
	}

	c, err := h.service.OverrideType(r.Context(), chi.URLParam(r, "id"), index, tipo)
	if err != nil {
		h.handleServiceError(w, err, "Failed to override type")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleApplySimilar handles POST /api/checkups/{id}/holdings/apply-similar
func (h *Handler) HandleApplySimilar(w http.ResponseWriter, r *http.Request) {
	var req applySimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Pattern) == "" {
		h.writeError(w, http.StatusBadRequest, "pattern is required")
		return
	}
	tipo, ok := domain.ParseHoldingType(req.Tipo)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown tipo: "+req.Tipo)
		return
	}

	c, matched, err := h.service.ApplyTypeToSimilar(r.Context(), chi.URLParam(r, "id"), req.Pattern, tipo)
	if err != nil {
		h.handleServiceError(w, err, "Failed to apply type")
		return
	}
	h.writeJSON(w, http.StatusOK, applySimilarResponse{Checkup: c, Matched: matched})
}

// HandleConfirmTypes handles POST /api/checkups/{id}/types/confirm
func (h *Handler) HandleConfirmTypes(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.ConfirmTypes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to confirm types")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleSetProfile handles PUT /api/checkups/{id}/profile
func (h *Handler) HandleSetProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.service.SetProfile(r.Context(), chi.URLParam(r, "id"), profile)
	if err != nil {
		h.handleServiceError(w, err, "Failed to set profile")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleAnalyze handles POST /api/checkups/{id}/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to analyze checkup")
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// HandleSimulate handles POST /api/checkups/{id}/simulate.
// An empty body or adjustment list runs every adjustment.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	results, err := h.service.Simulate(r.Context(), chi.URLParam(r, "id"), req.Adjustments)
	if err != nil {
		h.handleServiceError(w, err, "Failed to simulate")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// HandleReport handles GET /api/checkups/{id}/report (?format=markdown for text)
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to generate report")
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, diagnosis.Markdown(*report)); err != nil {
			h.log.Error().Err(err).Msg("Failed to write markdown report")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// HandleRedeemCoupon handles POST /api/checkups/{id}/coupon
func (h *Handler) HandleRedeemCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := h.coupons.Redeem(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		h.handleServiceError(w, err, "Failed to redeem coupon")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// handleServiceError maps domain errors to HTTP statuses; anything else is a 500
func (h *Handler) handleServiceError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg(msg)
		h.writeError(w, status, msg)
		return
	}

	h.log.Debug().Err(err).Int("status", status).Msg(msg)
	h.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotPaid):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotAnalyzed):
		return http.StatusConflict
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidHolding),
		errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrUnknownAdjustment),
		errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, domain.ErrNoHoldings),
		errors.Is(err, domain.ErrInvalidCoupon):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
