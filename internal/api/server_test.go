package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/goals"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/logging"
	"github.com/tally-dev/tally/internal/metrics"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/recurrence"
	"github.com/tally-dev/tally/internal/splits"
	"github.com/tally-dev/tally/internal/storage/sqlite"
)

const user = "u1"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logging.Discard()
	m := metrics.New()
	r := balance.NewReconciler(store, log, m)
	return New(Deps{
		Accounts:   accounts.NewService(store, r, log),
		Ledger:     ledger.NewService(store, r, recurrence.NewExpander(recurrence.DefaultMaxOccurrences, model.Monthly, log), log, m),
		Reconciler: r,
		Goals:      goals.NewService(store, log),
		Splits:     splits.NewService(store, log),
		Metrics:    m,
		Logger:     log,
	})
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(UserHeader, user)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func createAccount(t *testing.T, srv http.Handler, name, initial string) accountDTO {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/accounts", `{"name":"`+name+`","kind":"checking","initialBalance":"`+initial+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[accountDTO](t, rr)
}

func balanceOf(t *testing.T, srv http.Handler, accountID string) string {
	t.Helper()
	rr := do(t, srv, http.MethodGet, "/accounts/"+accountID+"/balance", "")
	require.Equal(t, http.StatusOK, rr.Code)
	return decodeBody[balanceDTO](t, rr).Balance
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	createAccount(t, srv, "Checking", "0.00")

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `tally_http_request_duration_seconds_count{code="201",route="POST /accounts"} 1`)
}

func TestMissingUserHeader(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation", decodeBody[errorBody](t, rr).Error)
}

func TestEntryLifecycle(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Checking", "100.00")

	rr := do(t, srv, http.MethodPost, "/entries",
		`{"description":"Groceries","amount":"25.50","date":"2024-03-01","accountId":"`+acct.ID+`","transactionType":"debit"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	entry := decodeBody[entryDTO](t, rr)
	assert.Equal(t, "25.50", entry.Amount)
	assert.Equal(t, "2024-03-01", entry.Date)
	assert.Equal(t, "74.50", balanceOf(t, srv, acct.ID))

	rr = do(t, srv, http.MethodPut, "/entries/"+entry.ID,
		`{"description":"Groceries","amount":"30.00","date":"2024-03-01","accountId":"`+acct.ID+`","transactionType":"debit"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "70.00", balanceOf(t, srv, acct.ID))

	rr = do(t, srv, http.MethodGet, "/accounts/"+acct.ID+"/entries", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]entryDTO](t, rr), 1)

	rr = do(t, srv, http.MethodDelete, "/entries/"+entry.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "100.00", balanceOf(t, srv, acct.ID))

	rr = do(t, srv, http.MethodGet, "/entries/"+entry.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEntryValidation(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Checking", "0.00")

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"description":"x","amount":"-1.00","date":"2024-01-01","accountId":"` + acct.ID + `","transactionType":"debit"}`},
		{"too precise", `{"description":"x","amount":"1.005","date":"2024-01-01","accountId":"` + acct.ID + `","transactionType":"debit"}`},
		{"bad date", `{"description":"x","amount":"1.00","date":"01/02/2024","accountId":"` + acct.ID + `","transactionType":"debit"}`},
		{"transfer type", `{"description":"x","amount":"1.00","date":"2024-01-01","accountId":"` + acct.ID + `","transactionType":"transfer_in"}`},
		{"unknown field", `{"description":"x","amount":"1.00","sneaky":true}`},
		{"zero interval", `{"description":"x","amount":"1.00","date":"2024-03-01","accountId":"` + acct.ID + `","transactionType":"debit","recurringType":"advanced","recurringFrequency":"monthly","recurringInterval":0,"recurringEndDate":"2024-05-01"}`},
		{"end before start", `{"description":"x","amount":"9.00","date":"2024-03-01","accountId":"` + acct.ID + `","transactionType":"debit","recurringType":"installment","installmentTotal":3,"recurringEndDate":"2024-01-01"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/entries", tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
	assert.Equal(t, "0.00", balanceOf(t, srv, acct.ID))
}

func TestInstallmentSeries(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Checking", "0.00")

	rr := do(t, srv, http.MethodPost, "/entries",
		`{"description":"Laptop","amount":"100.00","date":"2024-01-31","accountId":"`+acct.ID+`","transactionType":"debit","recurringType":"installment","installmentTotal":3}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	series := decodeBody[[]entryDTO](t, rr)
	require.Len(t, series, 3)
	assert.Equal(t, []string{"33.33", "33.33", "33.34"}, []string{series[0].Amount, series[1].Amount, series[2].Amount})
	assert.Equal(t, "2024-02-29", series[1].Date)
	assert.Equal(t, "-100.00", balanceOf(t, srv, acct.ID))

	rr = do(t, srv, http.MethodDelete, "/series/"+series[0].ParentID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, decodeBody[map[string]int](t, rr)["deleted"])
	assert.Equal(t, "0.00", balanceOf(t, srv, acct.ID))
}

func TestTransfers(t *testing.T) {
	srv := newTestServer(t)
	from := createAccount(t, srv, "Checking", "500.00")
	to := createAccount(t, srv, "Savings", "0.00")

	rr := do(t, srv, http.MethodPost, "/transfers",
		`{"description":"Save","amount":"200.00","date":"2024-05-01","fromAccountId":"`+from.ID+`","toAccountId":"`+to.ID+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tr := decodeBody[transferDTO](t, rr)
	assert.Equal(t, "transfer_out", tr.Out.Type)
	assert.Equal(t, "transfer_in", tr.In.Type)
	assert.Equal(t, "300.00", balanceOf(t, srv, from.ID))
	assert.Equal(t, "200.00", balanceOf(t, srv, to.ID))

	rr = do(t, srv, http.MethodGet, "/balance/total", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "500.00", decodeBody[balanceDTO](t, rr).Balance)

	rr = do(t, srv, http.MethodPut, "/entries/"+tr.Out.ID,
		`{"description":"Save","amount":"1.00","date":"2024-05-01","accountId":"`+from.ID+`","transactionType":"debit"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPost, "/transfers",
		`{"description":"Loop","amount":"1.00","date":"2024-05-01","fromAccountId":"`+from.ID+`","toAccountId":"`+from.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/transfers/"+tr.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "500.00", balanceOf(t, srv, from.ID))
	assert.Equal(t, "0.00", balanceOf(t, srv, to.ID))
}

func TestAccountDeleteConflict(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Checking", "0.00")

	rr := do(t, srv, http.MethodPost, "/entries",
		`{"description":"Pay","amount":"10.00","date":"2024-01-01","accountId":"`+acct.ID+`","transactionType":"credit"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/accounts/"+acct.ID, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", decodeBody[errorBody](t, rr).Error)

	rr = do(t, srv, http.MethodPost, "/accounts/"+acct.ID+"/deactivate", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decodeBody[accountDTO](t, rr).IsActive)

	rr = do(t, srv, http.MethodGet, "/accounts", "")
	assert.Empty(t, decodeBody[[]accountDTO](t, rr))
	rr = do(t, srv, http.MethodGet, "/accounts?inactive=true", "")
	assert.Len(t, decodeBody[[]accountDTO](t, rr), 1)
}

func TestBalanceRecompute(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Checking", "10.00")

	rr := do(t, srv, http.MethodGet, "/accounts/"+acct.ID+"/balance/check", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decodeBody[driftDTO](t, rr).Drifted)

	rr = do(t, srv, http.MethodPost, "/accounts/"+acct.ID+"/balance/recompute", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "10.00", decodeBody[balanceDTO](t, rr).Balance)

	rr = do(t, srv, http.MethodPost, "/balance/recompute", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]driftDTO](t, rr), 1)

	rr = do(t, srv, http.MethodPost, "/accounts/missing/balance/recompute", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMonthlySummary(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Checking", "0.00")

	for _, body := range []string{
		`{"description":"Rent","amount":"800.00","date":"2024-02-01","accountId":"` + acct.ID + `","transactionType":"debit"}`,
		`{"description":"Salary","amount":"2000.00","date":"2024-02-25","accountId":"` + acct.ID + `","transactionType":"credit"}`,
		`{"description":"Later","amount":"5.00","date":"2024-03-01","accountId":"` + acct.ID + `","transactionType":"debit"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/entries", body).Code)
	}

	rr := do(t, srv, http.MethodGet, "/summary/2024/2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	sum := decodeBody[summaryDTO](t, rr)
	assert.Equal(t, "800.00", sum.Expenses)
	assert.Equal(t, "2000.00", sum.Income)
	assert.Equal(t, "1200.00", sum.Net)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/summary/2024/13", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/summary/x/1", "").Code)
}

func TestGoalsAndSplits(t *testing.T) {
	srv := newTestServer(t)
	acct := createAccount(t, srv, "Savings", "250.00")

	rr := do(t, srv, http.MethodPost, "/goals", `{"name":"Trip","targetAmount":"1000.00","accountIds":["`+acct.ID+`"]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	goal := decodeBody[goalDTO](t, rr)

	rr = do(t, srv, http.MethodGet, "/goals/"+goal.ID+"/progress", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "25.00", decodeBody[progressDTO](t, rr).Percent)

	rr = do(t, srv, http.MethodDelete, "/goals/"+goal.ID+"/accounts/"+acct.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[goalDTO](t, rr).AccountIDs)

	rr = do(t, srv, http.MethodPost, "/splits", `{"description":"Dinner","total":"100.00","date":"2024-04-01","participants":[{"name":"a"},{"name":"b"},{"name":"c"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	split := decodeBody[splitDTO](t, rr)
	require.Len(t, split.Participants, 3)
	assert.Equal(t, "33.34", split.Participants[2].Share)

	rr = do(t, srv, http.MethodPut, "/splits/"+split.ID+"/participants/"+split.Participants[0].ID+"/paid", `{"value":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, http.MethodGet, "/splits/outstanding", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "66.67", decodeBody[map[string]string](t, rr)["outstanding"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor("validation"))
	assert.Equal(t, http.StatusConflict, statusFor("conflict"))
	assert.Equal(t, http.StatusNotFound, statusFor("not_found"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("consistency"))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
}
