package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all checkup routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checkups", func(r chi.Router) {
		r.Post("/", h.HandleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)

			// Input
			r.Post("/holdings/text", h.HandleSubmitText)
			r.Post("/holdings/file", h.HandleSubmitFile)
			r.Post("/holdings/images", h.HandleSubmitImages)

			// Type review
			r.Put("/holdings/{index}/type", h.HandleOverrideType)
			r.Post("/holdings/apply-similar", h.HandleApplySimilar)
			r.Post("/types/confirm", h.HandleConfirmTypes)

			// Suitability and analysis
			r.Put("/profile", h.HandleSetProfile)
			r.Post("/analyze", h.HandleAnalyze)
			r.Post("/simulate", h.HandleSimulate)

			// Paid report
			r.Post("/coupon", h.HandleRedeemCoupon)
			r.Get("/report", h.HandleReport)
		})
	})
}
