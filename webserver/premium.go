package webserver

import (
	"net/http"

	"github.com/mrermin/ermin/internal/paylater"
	"github.com/mrermin/ermin/internal/premium"
)

type PremiumViewModel struct {
	Plans      []*premium.Plan
	Selected   *premium.Plan
	ScriptURL  string
	Fallback   string
	Disclaimer string
}

func (s *Server) handlePremium(w http.ResponseWriter, r *http.Request) {
	var selection premium.Selection
	selection.Select(premium.PlanID(r.URL.Query().Get("plan")))

	data := &PageData{
		Title: "Premium",
		Premium: &PremiumViewModel{
			Plans:      premium.Plans(),
			Selected:   selection.Plan(),
			ScriptURL:  s.opts.PayPalScriptURL,
			Fallback:   paylater.FallbackText,
			Disclaimer: paylater.Disclaimer,
		},
	}
	session, err := s.session()
	if err == nil && session != nil {
		data.Account = session.User
	}
	s.render(w, http.StatusOK, data)
}
