package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneygr/internal/config"
	"moneygr/internal/core"
	"moneygr/internal/inout/memory"
	"moneygr/internal/lookup"
	"moneygr/internal/report"
	"moneygr/internal/services"
)

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	server   *Server
	store    *memory.Store
	outcomes *services.Submitter[core.Outcome]
	incomes  *services.Submitter[core.Income]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(
		[]core.ParentCategory{
			{ID: 1, Name: "Food", Categories: []core.Category{{ID: 1, Name: "Groceries"}, {ID: 2, Name: "Eating out"}}},
			{ID: 2, Name: "Home", Categories: []core.Category{{ID: 3, Name: "Rent"}}},
		},
		[]core.Category{{ID: 1, Name: "Salary"}},
		[]core.Member{{ID: "u1", Name: "Alex"}},
	)
	ctx := context.Background()
	for _, o := range []core.Outcome{
		{Date: core.NewDate(2024, 1, 2), Name: "milk", Amount: 198, Quantity: 2, CategoryID: 1, OutcomeBy: "u1"},
		{Date: core.NewDate(2024, 1, 2), Name: "pizza", Amount: 1500, Quantity: 1, CategoryID: 2, OutcomeBy: "u1"},
		{Date: core.NewDate(2024, 1, 3), Name: "rent", Amount: 80000, Quantity: 1, CategoryID: 3, OutcomeBy: "u1"},
		{Date: core.NewDate(2024, 1, 15), Name: "bread", Amount: 250, Quantity: 1, CategoryID: 1, OutcomeBy: "u1"},
	} {
		_, err := store.SaveOutcome(ctx, o)
		require.NoError(t, err)
	}
	_, err := store.SaveIncome(ctx, core.Income{Date: core.NewDate(2024, 1, 2), Name: "salary", Amount: 300000, CategoryID: 1, IncomeBy: "u1"})
	require.NoError(t, err)

	outcomes := services.NewOutcomeSubmitter(services.DirectOutcomes(store), time.Second, nil)
	incomes := services.NewIncomeSubmitter(services.DirectIncomes(store), time.Second, nil)
	cfg := &config.Config{UserHeader: "X-Auth-User", DefaultUser: "guest", RateLimitPerMinute: 1000}

	s, err := NewServer(":0", Deps{
		Outcomes: services.NewOutcomeService(store, outcomes, nil),
		Incomes:  services.NewIncomeService(store, incomes, nil),
		Reports:  report.NewService(store, store),
		Lookup:   lookup.NewCache(store, 8, time.Minute),
		Config:   cfg,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return &fixture{server: s, store: store, outcomes: outcomes, incomes: incomes}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (f *fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Auth-User", "u1")
	return f.do(t, req)
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.outcomes.Wait(ctx))
	require.NoError(t, f.incomes.Wait(ctx))
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.get(t, "/healthz").Code)
	assert.Equal(t, http.StatusOK, f.get(t, "/readyz").Code)

	f.server.deps.Ready = func(context.Context) error { return errors.New("down") }
	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/readyz").Code)
}

func TestIndex(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/outcomes?fromDate=2024-01-01")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestOutcomesDefaultToToday(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/outcomes")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<td>bread</td>")
	assert.NotContains(t, body, "<td>milk</td>")
	assert.Contains(t, body, `name="outcomeDate" value="2024-01-15"`)
}

func TestOutcomesOfDay(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/outcomes/2024-01-02")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<td>milk</td>")
	assert.Contains(t, body, "<td>pizza</td>")
	assert.NotContains(t, body, "<td>rent</td>")
	assert.Contains(t, body, `<td class="num" id="outcome-total">1,896</td>`)
	assert.Contains(t, body, "Alex")

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/outcomes/2024-13-40").Code)
}

func TestOutcomesRangeDefaultsToEndOfMonth(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/outcomes?fromDate=2024-01-03")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2024-01-03 to 2024-01-31")
	assert.Contains(t, body, "<td>rent</td>")
	assert.Contains(t, body, "<td>bread</td>")
	assert.NotContains(t, body, "<td>milk</td>")
}

func TestOutcomesKeywordBypassesDates(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/outcomes?keyword=piz&fromDate=2024-01-15&toDate=2024-01-15")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<td>pizza</td>")
	assert.NotContains(t, body, "<td>bread</td>")
}

func TestOutcomesByParentCategory(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/outcomes?parentCategoryId=2&fromDate=2024-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Outcomes: Home")
	assert.Contains(t, body, "<td>rent</td>")
	assert.NotContains(t, body, "<td>milk</td>")
}

func TestOutcomesBadQuery(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/outcomes?fromDate=yesterday",
		"/outcomes?fromDate=2024-01-01&toDate=soon",
		"/outcomes?parentCategoryId=x&fromDate=2024-01-01",
		"/outcomes?parentCategoryId=9&fromDate=2024-01-01",
	} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.get(t, target).Code)
		})
	}
}

func TestOutcomeFormReadsCreditCardCookie(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/outcomes", nil)
	req.AddCookie(&http.Cookie{Name: cookieCreditCard, Value: "true"})
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="true" checked`)

	rec = f.get(t, "/outcomes")
	assert.NotContains(t, rec.Body.String(), `value="true" checked`)
}

func TestCreateOutcome(t *testing.T) {
	f := newFixture(t)
	rec := f.post(t, "/outcomes", url.Values{
		"outcomeName": {"coffee"},
		"amount":      {"1,200"},
		"quantity":    {""},
		"outcomeDate": {"2024-01-10"},
		"categoryId":  {"2"},
		"creditCard":  {"true"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/outcomes/2024-01-10", rec.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieCreditCard {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, "true", cookie.Value)

	f.drain(t)
	saved, err := f.store.FindByOutcomeNameContaining(context.Background(), "coffee")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 1200, saved[0].Amount)
	assert.Equal(t, 1, saved[0].Quantity)
	assert.Equal(t, "u1", saved[0].OutcomeBy)
	assert.True(t, saved[0].CreditCard)
}

func TestCreateOutcomeRejectsInvalidForm(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/outcomes", url.Values{
		"outcomeName": {""},
		"amount":      {"10"},
		"outcomeDate": {"2024-01-02"},
		"categoryId":  {"1"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, core.ErrEmptyName.Error())
	assert.Contains(t, body, "<td>milk</td>", "the record's day is redisplayed")

	rec = f.post(t, "/outcomes", url.Values{
		"outcomeName": {"tea"},
		"amount":      {"-3"},
		"categoryId":  {"1"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>bread</td>", "today is redisplayed without a date")

	f.drain(t)
	saved, err := f.store.FindByOutcomeNameContaining(context.Background(), "tea")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestIncomesDefaultToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/incomes")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2024-01-01 to 2024-01-31")
	assert.Contains(t, body, "<td>salary</td>")
	assert.Contains(t, body, `<td class="num" id="income-total">300,000</td>`)
	assert.Contains(t, body, `name="incomeDate" value="2024-01-15"`)

	rec = f.get(t, "/incomes?fromDate=2024-02-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<td>salary</td>")
}

func TestCreateIncome(t *testing.T) {
	f := newFixture(t)
	rec := f.post(t, "/incomes", url.Values{
		"incomeName": {"bonus"},
		"amount":     {"5000"},
		"incomeDate": {"2024-02-20"},
		"categoryId": {"1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/incomes?fromDate=2024-02-01", rec.Header().Get("Location"))

	f.drain(t)
	saved, err := f.store.FindByIncomeDate(context.Background(), core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "u1", saved[0].IncomeBy)

	rec = f.post(t, "/incomes", url.Values{"incomeName": {"x"}, "amount": {"abc"}, "incomeDate": {"2024-02-20"}, "categoryId": {"1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), core.ErrInvalidAmount.Error())
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<dd id="outcome-total">82,146</dd>`)
	assert.Contains(t, body, `<dd id="income-total">300,000</dd>`)
	assert.Contains(t, body, `<dd id="inout" class="">217,854</dd>`)
	assert.Contains(t, body, "data-granularity=\"daily\"")

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/report?stack=maybe").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/report?fromDate=nope").Code)
}

func TestReportChart(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/report/chart.png", "/report/chart.png?stack=true", "/report/chart.png?fromDate=2023-01-01"} {
		t.Run(target, func(t *testing.T) {
			rec := f.get(t, target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
		})
	}
}

func TestStaticAssets(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrMalformedDate, http.StatusBadRequest},
		{core.ErrUnknownParent, http.StatusBadRequest},
		{errMalformedFlag, http.StatusBadRequest},
		{core.ErrEmptyName, http.StatusUnprocessableEntity},
		{report.ErrEncode, http.StatusInternalServerError},
		{errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
