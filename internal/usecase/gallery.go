package usecase

import (
	"github.com/glamfinder/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// SampleGallery returns the static showcase of rare cosmetics.
// It is independent of any search and returns a fresh copy on every call.
func SampleGallery() []domain.SampleProduct {
	return []domain.SampleProduct{
		sample("Chanel No. 5 Parfum Grand Extrait", "Chanel", "fragrance",
			"An exquisite, limited-edition presentation of the iconic Chanel No. 5 fragrance.",
			"4200.00", "3145891201004"),
		sample("Guerlain KissKiss Gold and Diamonds Lipstick", "Guerlain", "makeup",
			"A luxurious lipstick encased in 18-carat gold and adorned with diamonds.",
			"62000.00", "3346470640794"),
		sample("H.R.H. Princess Diana Sapphire Perfume", "Thameen", "fragrance",
			"A rare perfume dedicated to Princess Diana, featuring a sapphire-encrusted bottle.",
			"5000.00", "5060446450019"),
		sample("Shiseido Eudermine Revitalizing Essence (1897)", "Shiseido", "skincare",
			"A replica of the original Eudermine, Shiseido's oldest product, in a vintage bottle.",
			"180.00", "0730852142438"),
		sample("La Prairie Cellular Cream Platinum Rare", "La Prairie", "skincare",
			"An ultra-luxurious cream infused with platinum to help maintain the skin's electrical balance and preserve its youthful appearance.",
			"1500.00", "7611773083048",
			domain.ShadeVariant{ShadeName: "8.5 oz"},
			domain.ShadeVariant{ShadeName: "33.8 oz"}),
	}
}

func sample(name, brand, category, description string, price, ean string, variants ...domain.ShadeVariant) domain.SampleProduct {
	if variants == nil {
		variants = []domain.ShadeVariant{}
	}
	return domain.SampleProduct{
		Name:         name,
		Brand:        brand,
		Category:     category,
		Description:  description,
		Ingredients:  []string{},
		Variants:     variants,
		AveragePrice: decimal.RequireFromString(price),
		EanUpc:       ean,
		ImageURLs:    []string{},
		UserRatings:  &domain.UserRatings{},
		SellerLinks:  []domain.SellerLink{},
	}
}
