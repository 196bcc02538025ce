// Package models defines the recommendation service response structures.
//
// The wire shape is owned by the external recommendation service and treated
// as opaque beyond the fields Trendella renders and persists.
package models

// Price is a product price in a given currency.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Rating is an aggregate product rating.
type Rating struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Product is one recommended item.
type Product struct {
	ID           string   `json:"id"`
	Store        string   `json:"store"`
	Title        string   `json:"title"`
	Price        Price    `json:"price"`
	Rating       Rating   `json:"rating"`
	Images       []string `json:"images"`
	AffiliateURL string   `json:"affiliate_url"`
}

// Key returns the composite wishlist key for the product.
func (p Product) Key() string {
	return p.Store + "|" + p.ID
}

// Explanation tells the shopper why a product was picked.
type Explanation struct {
	ProductID string `json:"product_id"`
	Why       string `json:"why"`
}

// SearchLink is an auxiliary external-search suggestion.
type SearchLink struct {
	Store string `json:"store"`
	Query string `json:"query"`
	URL   string `json:"url"`
}

// RecommendMeta carries auxiliary response data.
type RecommendMeta struct {
	GeminiLinks []SearchLink `json:"gemini_links"`
}

// RecommendResponse is the recommendation service's answer for a profile.
type RecommendResponse struct {
	Products            []Product     `json:"products"`
	Explanations        []Explanation `json:"explanations"`
	FollowUpSuggestions []string      `json:"follow_up_suggestions"`
	ProductsRanked      []Product     `json:"products_ranked"`
	Meta                RecommendMeta `json:"meta"`
}

// Normalize replaces nil slices with empty ones so the persisted document
// never carries missing fields.
func (r *RecommendResponse) Normalize() {
	if r.Products == nil {
		r.Products = []Product{}
	}
	if r.Explanations == nil {
		r.Explanations = []Explanation{}
	}
	if r.FollowUpSuggestions == nil {
		r.FollowUpSuggestions = []string{}
	}
	if r.ProductsRanked == nil {
		r.ProductsRanked = []Product{}
	}
	if r.Meta.GeminiLinks == nil {
		r.Meta.GeminiLinks = []SearchLink{}
	}
}

// ExplanationMap indexes explanations by product id.
func (r *RecommendResponse) ExplanationMap() map[string]string {
	m := make(map[string]string, len(r.Explanations))
	for _, e := range r.Explanations {
		m[e.ProductID] = e.Why
	}
	return m
}
