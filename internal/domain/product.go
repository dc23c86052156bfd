package domain

import "github.com/shopspring/decimal"

// SampleProduct is a catalog entry shown in the static sample gallery
type SampleProduct struct {
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory,omitempty"`
	Description  string          `json:"description"`
	Ingredients  []string        `json:"ingredients"`
	Variants     []ShadeVariant  `json:"variants,omitempty"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	EanUpc       string          `json:"eanUpc"`
	ImageURLs    []string        `json:"imageUrls"`
	UserRatings  *UserRatings    `json:"userRatings,omitempty"`
	SellerLinks  []SellerLink    `json:"sellerLinks"`
}

// ShadeVariant is one shade or size of a product
type ShadeVariant struct {
	ShadeName string `json:"shadeName"`
	ShadeCode string `json:"shadeCode,omitempty"`
}

// UserRatings summarizes customer reviews
type UserRatings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// SellerLink points to a retailer selling the product
type SellerLink struct {
	SellerName string `json:"sellerName"`
	URL        string `json:"url"`
}

// RetailerListing is a raw search hit returned by a retailer before it becomes a quote
type RetailerListing struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Currency string `json:"currency,omitempty"`
	URL      string `json:"url"`
}
