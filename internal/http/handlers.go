package http

import (
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

func (s *Server) committed(r *http.Request, kind, id string, amountCents int64) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogRecordCommitted(r.Context(), kind, id, amountCents)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.toInput(s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tx, err := s.records.AddTransaction(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.committed(r, applog.RecordTransaction, tx.ID, tx.Amount.Cents)
	NewJSONResponse().Status(http.StatusCreated).Data(newTransactionView(tx)).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(mapSlice(s.records.ListTransactions(), newTransactionView)).Write(w)
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.toInput(s.today())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	shift, err := s.records.AddShift(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view := newShiftView(shift)
	s.committed(r, applog.RecordShift, shift.ID, view.TotalCents)
	NewJSONResponse().Status(http.StatusCreated).Data(view).Write(w)
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(mapSlice(s.records.ListShifts(), newShiftView)).Write(w)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.records.AddPayment(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.committed(r, applog.RecordPayment, p.ID, p.Amount.Cents)
	NewJSONResponse().Status(http.StatusCreated).Data(newPaymentView(p)).Write(w)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(mapSlice(s.records.ListPayments(), newPaymentView)).Write(w)
}

func (s *Server) handlePayPayment(w http.ResponseWriter, r *http.Request) {
	s.setPaymentStatus(w, r, core.Paid)
}

func (s *Server) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	status, err := core.ParsePaymentStatus(req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setPaymentStatus(w, r, status)
}

func (s *Server) setPaymentStatus(w http.ResponseWriter, r *http.Request, status core.PaymentStatus) {
	id := r.PathValue("id")
	p, err := s.records.SetPaymentStatus(r.Context(), id, status)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Payment status updated",
		applog.FieldRecordID, p.ID,
		applog.FieldStatus, string(p.Status),
		applog.FieldOperation, applog.OpUpdateStatus)
	NewJSONResponse().Data(newPaymentView(p)).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(newTotalsView(s.dashboard.Totals())).Write(w)
}

func (s *Server) handleSalary(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceDate(r, s.today())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(newSalaryView(s.dashboard.SalaryPeriods(ref))).Write(w)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceDate(r, s.today())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{
		"date":          ref.String(),
		"notifications": newNotificationViews(s.dashboard.Notifications(ref)),
	}).Write(w)
}

// handleCategories defaults to expenses in first-seen order.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := core.Expense
	if v := q.Get("type"); v != "" {
		var err error
		if kind, err = core.ParseTransactionType(v); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	order, err := services.ParseCategoryOrder(q.Get("sort"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	NewJSONResponse().Data(map[string]any{
		"type":       string(kind),
		"categories": newCategoryViews(s.dashboard.CategoryBreakdown(kind, order)),
	}).Write(w)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(newMonthViews(s.dashboard.MonthlyBreakdown())).Write(w)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceDate(r, s.today())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(newOverviewView(s.dashboard.Overview(ref))).Write(w)
}
