package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/propfind/searchcore/internal/domain"
	"github.com/propfind/searchcore/internal/domain/property"
	domquiz "github.com/propfind/searchcore/internal/domain/quiz"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/search/facet"
	"github.com/propfind/searchcore/internal/domain/search/result"
	healthuc "github.com/propfind/searchcore/internal/usecase/health"
	quizuc "github.com/propfind/searchcore/internal/usecase/quiz"
)

// --- Mocks ---

type mockSearcher struct {
	searchFn func(ctx context.Context, c criteria.Criteria) (result.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, c criteria.Criteria) (result.SearchResult, error) {
	return m.searchFn(ctx, c)
}

type mockFaceter struct {
	countsFn func(ctx context.Context, c criteria.Criteria) (facet.Counts, error)
}

func (m *mockFaceter) Counts(ctx context.Context, c criteria.Criteria) (facet.Counts, error) {
	return m.countsFn(ctx, c)
}

type mockQuiz struct {
	createFn  func() quizuc.Session
	getFn     func(id string) (quizuc.Session, error)
	applyFn   func(id string, action domquiz.Action) (quizuc.Session, error)
	resultsFn func(ctx context.Context, id string) (result.SearchResult, error)
}

func (m *mockQuiz) Create() quizuc.Session { return m.createFn() }
func (m *mockQuiz) Get(id string) (quizuc.Session, error) {
	return m.getFn(id)
}
func (m *mockQuiz) Apply(id string, action domquiz.Action) (quizuc.Session, error) {
	return m.applyFn(id, action)
}
func (m *mockQuiz) Results(ctx context.Context, id string) (result.SearchResult, error) {
	return m.resultsFn(ctx, id)
}

type mockProperties struct {
	upsertFn      func(ctx context.Context, p property.Property) error
	upsertBatchFn func(ctx context.Context, props []property.Property) error
	getFn         func(ctx context.Context, id string) (property.Property, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockProperties) Upsert(ctx context.Context, p property.Property) error {
	return m.upsertFn(ctx, p)
}
func (m *mockProperties) UpsertBatch(ctx context.Context, props []property.Property) error {
	return m.upsertBatchFn(ctx, props)
}
func (m *mockProperties) Get(ctx context.Context, id string) (property.Property, error) {
	return m.getFn(ctx, id)
}
func (m *mockProperties) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type serverMocks struct {
	search     *mockSearcher
	facets     *mockFaceter
	quiz       *mockQuiz
	properties *mockProperties
	health     *mockHealth
}

func newTestServer(t *testing.T) (*serverMocks, http.Handler) {
	t.Helper()
	m := &serverMocks{
		search:     &mockSearcher{},
		facets:     &mockFaceter{},
		quiz:       &mockQuiz{},
		properties: &mockProperties{},
		health:     &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
	}
	s := NewServer(m.search, m.facets, m.quiz, m.properties, m.health, zap.NewNop())
	r := chi.NewRouter()
	s.Routes(r)
	return m, r
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestHandleSearch_ReturnsPage(t *testing.T) {
	m, handler := newTestServer(t)
	m.search.searchFn = func(_ context.Context, c criteria.Criteria) (result.SearchResult, error) {
		if c.City() != "Barcelona" || c.Operation() != property.OperationRent {
			t.Errorf("criteria = city %q op %q", c.City(), c.Operation())
		}
		props := make([]property.Property, 20)
		for i := range props {
			props[i] = property.Property{ID: fmt.Sprintf("p%02d", i), City: "Barcelona"}
		}
		return result.New(props, 25, c.Page(), c.Limit()), nil
	}

	rr := doRequest(handler, "GET", "/api/v1/search?city=Barcelona&operationType=rent&limit=20", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 25 || len(resp.Items) != 20 || !resp.HasMore {
		t.Errorf("total=%d len=%d hasMore=%v, want 25/20/true", resp.TotalCount, len(resp.Items), resp.HasMore)
	}
}

func TestHandleSearch_StoreFailureIs503(t *testing.T) {
	m, handler := newTestServer(t)
	m.search.searchFn = func(context.Context, criteria.Criteria) (result.SearchResult, error) {
		return result.SearchResult{}, fmt.Errorf("%w: dial tcp: timeout", domain.ErrStoreTimeout)
	}

	rr := doRequest(handler, "GET", "/api/v1/search", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeStoreTimeout {
		t.Errorf("code = %q, want %q", resp.Code, codeStoreTimeout)
	}
	if strings.Contains(resp.Message, "dial tcp") {
		t.Errorf("message leaks internals: %q", resp.Message)
	}
}

func TestHandleFacets_AttachesDisplayLabels(t *testing.T) {
	m, handler := newTestServer(t)
	m.facets.countsFn = func(context.Context, criteria.Criteria) (facet.Counts, error) {
		return facet.Counts{
			ByDimension: map[facet.Dimension][]facet.Option{
				facet.DimensionBudget:    {{Value: "1000-2000", Count: 18}},
				facet.DimensionOperation: {{Value: "RENT", Count: 25}},
				facet.DimensionFeature:   {{Value: "pet_friendly", Count: 4}},
			},
			SampleSize: 25,
		}, nil
	}

	rr := doRequest(handler, "GET", "/api/v1/search/facets?city=Barcelona", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp facetsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := resp.Facets["budget"][0].Label; got != "€1,000 – €2,000" {
		t.Errorf("budget label = %q", got)
	}
	if got := resp.Facets["operation_type"][0].Label; got != "For Rent" {
		t.Errorf("operation label = %q", got)
	}
	if got := resp.Facets["feature"][0].Label; got != "Pet Friendly" {
		t.Errorf("feature label = %q", got)
	}
}

func TestHandleFacets_ExcludeDropsOwnFilter(t *testing.T) {
	m, handler := newTestServer(t)

	var got criteria.Criteria
	m.facets.countsFn = func(_ context.Context, c criteria.Criteria) (facet.Counts, error) {
		got = c
		return facet.Counts{}, nil
	}

	rr := doRequest(handler, "GET",
		"/api/v1/search/facets?city=Barcelona&propertyTypes=APARTMENT&exclude=property_type", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if len(got.PropertyTypes()) != 0 {
		t.Errorf("property types = %v, the excluded dimension's filter must be dropped", got.PropertyTypes())
	}
	if got.City() != "Barcelona" {
		t.Errorf("city = %q, other filters must survive", got.City())
	}

	rr = doRequest(handler, "GET", "/api/v1/search/facets?exclude=nonsense", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d for unknown dimension, want 400", rr.Code)
	}
}

func TestQuizEndpoints(t *testing.T) {
	m, handler := newTestServer(t)
	session := quizuc.Session{ID: "s1", State: domquiz.NewState()}

	m.quiz.createFn = func() quizuc.Session { return session }
	m.quiz.getFn = func(id string) (quizuc.Session, error) {
		if id != "s1" {
			return quizuc.Session{}, domain.ErrSessionNotFound
		}
		return session, nil
	}

	var applied []domquiz.Action
	m.quiz.applyFn = func(id string, action domquiz.Action) (quizuc.Session, error) {
		applied = append(applied, action)
		return quizuc.Session{ID: id, State: domquiz.Reduce(session.State, action)}, nil
	}

	rr := doRequest(handler, "POST", "/api/v1/quiz", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rr.Code)
	}
	var created sessionResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != "s1" || created.CurrentStepIndex != 0 || len(created.Steps) != domquiz.StepCount {
		t.Errorf("created = %+v", created)
	}

	rr = doRequest(handler, "POST", "/api/v1/quiz/s1/next", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("next status = %d", rr.Code)
	}
	rr = doRequest(handler, "POST", "/api/v1/quiz/s1/jump", `{"index":4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("jump status = %d", rr.Code)
	}
	rr = doRequest(handler, "POST", "/api/v1/quiz/s1/preferences",
		`{"purpose":"rent","budget_min":1000,"budget_max":2000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("preferences status = %d", rr.Code)
	}
	rr = doRequest(handler, "POST", "/api/v1/quiz/s1/select", `{"property_id":"p7"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("select status = %d", rr.Code)
	}

	if len(applied) != 4 {
		t.Fatalf("applied %d actions, want 4", len(applied))
	}
	if jump, ok := applied[1].(domquiz.JumpTo); !ok || jump.Index != 4 {
		t.Errorf("jump action = %+v", applied[1])
	}
	prefs, ok := applied[2].(domquiz.UpdatePrefs)
	if !ok || prefs.Partial.Purpose == nil || *prefs.Partial.Purpose != "rent" {
		t.Errorf("preferences action = %+v", applied[2])
	}
	if prefs.Partial.Budget == nil || *prefs.Partial.Budget.Min != 1000 || *prefs.Partial.Budget.Max != 2000 {
		t.Errorf("budget fragment = %+v", prefs.Partial.Budget)
	}
	if sel, ok := applied[3].(domquiz.SelectProperty); !ok || sel.ID != "p7" {
		t.Errorf("select action = %+v", applied[3])
	}

	rr = doRequest(handler, "GET", "/api/v1/quiz/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", rr.Code)
	}
}

func TestQuizResults_Superseded409(t *testing.T) {
	m, handler := newTestServer(t)
	m.quiz.resultsFn = func(context.Context, string) (result.SearchResult, error) {
		return result.SearchResult{}, domain.ErrSuperseded
	}

	rr := doRequest(handler, "GET", "/api/v1/quiz/s1/results", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestPropertyEndpoints(t *testing.T) {
	m, handler := newTestServer(t)

	var upserted property.Property
	m.properties.upsertFn = func(_ context.Context, p property.Property) error {
		upserted = p
		return nil
	}
	m.properties.getFn = func(_ context.Context, id string) (property.Property, error) {
		return property.Property{}, domain.ErrPropertyNotFound
	}
	m.properties.deleteFn = func(context.Context, string) error { return nil }

	body := `{"title":"Sunny loft","type":"loft","operation":"rent","city":"Barcelona","rent_price":1500}`
	rr := doRequest(handler, "PUT", "/api/v1/properties/p1", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert status = %d", rr.Code)
	}
	if upserted.ID != "p1" || upserted.Type != property.TypeLoft || upserted.Operation != property.OperationRent {
		t.Errorf("upserted = %+v", upserted)
	}

	rr = doRequest(handler, "GET", "/api/v1/properties/p404", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rr.Code)
	}

	rr = doRequest(handler, "DELETE", "/api/v1/properties/p1", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rr.Code)
	}
}

func TestBatchUpsert_Validation(t *testing.T) {
	m, handler := newTestServer(t)
	m.properties.upsertBatchFn = func(_ context.Context, props []property.Property) error {
		if len(props) != 2 {
			t.Errorf("batch size = %d, want 2", len(props))
		}
		return nil
	}

	rr := doRequest(handler, "POST", "/api/v1/properties/batch",
		`{"properties":{"p1":{"title":"a"},"p2":{"title":"b"}}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("batch status = %d", rr.Code)
	}

	rr = doRequest(handler, "POST", "/api/v1/properties/batch", `{"properties":{}}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", rr.Code)
	}
}

func TestHandleHealth_Degraded503(t *testing.T) {
	m, handler := newTestServer(t)
	m.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckError},
	}

	rr := doRequest(handler, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["store"] != "error" {
		t.Errorf("health = %+v", resp)
	}
}
