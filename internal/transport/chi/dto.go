package chi

import (
	"strings"

	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/quiz"
	"github.com/propfind/searchcore/internal/domain/search/facet"
	"github.com/propfind/searchcore/internal/domain/search/result"
	quizuc "github.com/propfind/searchcore/internal/usecase/quiz"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeSessionNotFound  = "session_not_found"
	codePropertyNotFound = "property_not_found"
	codeStoreTimeout     = "store_timeout"
	codeStoreUnavailable = "store_unavailable"
	codeSuperseded       = "superseded"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type propertyResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Operation   string   `json:"operation,omitempty"`
	Status      string   `json:"status,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	Country     string   `json:"country,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Bedrooms    int      `json:"bedrooms,omitempty"`
	Bathrooms   int      `json:"bathrooms,omitempty"`
	Area        float64  `json:"area,omitempty"`
	RentPrice   float64  `json:"rent_price,omitempty"`
	SalePrice   float64  `json:"sale_price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Features    []string `json:"features,omitempty"`
	IsFeatured  bool     `json:"is_featured,omitempty"`
	IsVerified  bool     `json:"is_verified,omitempty"`
}

type searchResponse struct {
	Items      []propertyResponse `json:"items"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	HasMore    bool               `json:"has_more"`
}

type facetOptionResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type facetsResponse struct {
	Facets     map[string][]facetOptionResponse `json:"facets"`
	SampleSize int                              `json:"sample_size"`
	Sampled    bool                             `json:"sampled"`
}

type stepResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

type preferencesResponse struct {
	Purpose            string   `json:"purpose,omitempty"`
	BudgetMin          *float64 `json:"budget_min,omitempty"`
	BudgetMax          *float64 `json:"budget_max,omitempty"`
	PropertyTypes      []string `json:"property_types,omitempty"`
	Location           string   `json:"location,omitempty"`
	Features           []string `json:"features,omitempty"`
	SelectedPropertyID string   `json:"selected_property_id,omitempty"`
}

type sessionResponse struct {
	ID               string              `json:"id"`
	CurrentStep      string              `json:"current_step"`
	CurrentStepIndex int                 `json:"current_step_index"`
	Steps            []stepResponse      `json:"steps"`
	Preferences      preferencesResponse `json:"preferences"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Request bodies.

type upsertPropertyRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Operation   string   `json:"operation"`
	Status      string   `json:"status"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Area        float64  `json:"area"`
	RentPrice   float64  `json:"rent_price"`
	SalePrice   float64  `json:"sale_price"`
	Currency    string   `json:"currency"`
	Features    []string `json:"features"`
	IsFeatured  bool     `json:"is_featured"`
	IsVerified  bool     `json:"is_verified"`
}

type batchUpsertRequest struct {
	Properties map[string]upsertPropertyRequest `json:"properties"`
}

type jumpRequest struct {
	Index int `json:"index"`
}

type selectRequest struct {
	PropertyID string `json:"property_id"`
}

// updatePreferencesRequest carries a partial fragment: absent fields leave
// the stored preference untouched, present fields replace it.
type updatePreferencesRequest struct {
	Purpose       *string   `json:"purpose"`
	BudgetMin     *float64  `json:"budget_min"`
	BudgetMax     *float64  `json:"budget_max"`
	PropertyTypes *[]string `json:"property_types"`
	Location      *string   `json:"location"`
	Features      *[]string `json:"features"`
}

func propertyToResponse(p *property.Property) propertyResponse {
	return propertyResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Type:        string(p.Type),
		Operation:   string(p.Operation),
		Status:      p.Status,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Area:        p.Area,
		RentPrice:   p.RentPrice,
		SalePrice:   p.SalePrice,
		Currency:    p.Currency,
		Features:    p.Features,
		IsFeatured:  p.IsFeatured,
		IsVerified:  p.IsVerified,
	}
}

func propertyFromRequest(id string, req upsertPropertyRequest) property.Property {
	return property.Property{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Type:        property.Type(strings.ToUpper(req.Type)),
		Operation:   property.Operation(strings.ToUpper(req.Operation)),
		Status:      req.Status,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		RentPrice:   req.RentPrice,
		SalePrice:   req.SalePrice,
		Currency:    req.Currency,
		Features:    req.Features,
		IsFeatured:  req.IsFeatured,
		IsVerified:  req.IsVerified,
	}
}

func searchResultToResponse(res *result.SearchResult) searchResponse {
	props := res.Properties()
	items := make([]propertyResponse, len(props))
	for i := range props {
		items[i] = propertyToResponse(&props[i])
	}
	return searchResponse{
		Items:      items,
		TotalCount: res.TotalCount(),
		Page:       res.Page(),
		Limit:      res.Limit(),
		HasMore:    res.HasMore(),
	}
}

func countsToResponse(counts facet.Counts) facetsResponse {
	facets := make(map[string][]facetOptionResponse, len(counts.ByDimension))
	for dim, opts := range counts.ByDimension {
		out := make([]facetOptionResponse, len(opts))
		for i, opt := range opts {
			out[i] = facetOptionResponse{
				Value: opt.Value,
				Label: displayLabel(dim, opt.Value),
				Count: opt.Count,
			}
		}
		facets[string(dim)] = out
	}
	return facetsResponse{
		Facets:     facets,
		SampleSize: counts.SampleSize,
		Sampled:    counts.Sampled,
	}
}

func sessionToResponse(sess quizuc.Session) sessionResponse {
	steps := sess.State.Steps()
	out := make([]stepResponse, len(steps))
	for i, step := range steps {
		out[i] = stepResponse{
			ID:        string(step.ID),
			Title:     step.Title,
			Completed: step.Completed,
			Current:   step.Current,
		}
	}

	prefs := sess.State.Preferences()
	return sessionResponse{
		ID:               sess.ID,
		CurrentStep:      string(sess.State.CurrentStep()),
		CurrentStepIndex: sess.State.CurrentStepIndex(),
		Steps:            out,
		Preferences: preferencesResponse{
			Purpose:            prefs.Purpose,
			BudgetMin:          prefs.Budget.Min,
			BudgetMax:          prefs.Budget.Max,
			PropertyTypes:      prefs.PropertyTypes,
			Location:           prefs.Location,
			Features:           prefs.Features,
			SelectedPropertyID: sess.State.SelectedPropertyID(),
		},
	}
}

func partialFromRequest(req updatePreferencesRequest) quiz.PartialPreferences {
	partial := quiz.PartialPreferences{
		Purpose:       req.Purpose,
		PropertyTypes: req.PropertyTypes,
		Location:      req.Location,
		Features:      req.Features,
	}
	if req.BudgetMin != nil || req.BudgetMax != nil {
		partial.Budget = &quiz.Budget{Min: req.BudgetMin, Max: req.BudgetMax}
	}
	return partial
}
