package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"golang.org/x/sync/errgroup"
)

type dashboardResponse struct {
	core.Summary
	Budget core.BudgetStatus `json:"budget"`
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpSummary, "User", err)
		return
	}

	var (
		user core.User
		sum  core.Summary
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		user, err = s.deps.Accounts.Get(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sum, err = s.deps.Summaries.Summarize(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, log.OpSummary, "User", err)
		return
	}

	NewJSONResponse().
		Body(dashboardResponse{
			Summary: sum,
			Budget:  s.deps.Summaries.BudgetStatus(sum, user.MonthlyBudget),
		}).
		Write(w)
}
