package offers_test

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazar/models"
	"bazar/offers"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		ad           models.BuyAd
		offer        models.Offer
		sellerRating float32
		wantCount    int
		wantContains string
	}{
		{
			name:         "direct offer on simple ad passes",
			ad:           models.BuyAd{Type: models.BuyAdTypeSimple, Unit: "kg"},
			offer:        models.Offer{Type: models.OfferTypeDirect, Unit: "kg"},
			sellerRating: 4.0,
			wantCount:    0,
		},
		{
			name:         "unit mismatch",
			ad:           models.BuyAd{Type: models.BuyAdTypeSimple, Unit: "kg"},
			offer:        models.Offer{Type: models.OfferTypeDirect, Unit: "ton"},
			sellerRating: 4.0,
			wantCount:    1,
			wantContains: "unit",
		},
		{
			name:         "auction bid on simple ad is incompatible",
			ad:           models.BuyAd{Type: models.BuyAdTypeSimple, Unit: "kg"},
			offer:        models.Offer{Type: models.OfferTypeAuctionBid, Unit: "kg"},
			sellerRating: 4.0,
			wantCount:    1,
			wantContains: "not allowed on a SIMPLE",
		},
		{
			name:         "counter offer on simple ad is compatible",
			ad:           models.BuyAd{Type: models.BuyAdTypeSimple, Unit: "kg"},
			offer:        models.Offer{Type: models.OfferTypeCounterOffer, Unit: "kg"},
			sellerRating: 4.0,
			wantCount:    0,
		},
		{
			name: "auction bid below base price",
			ad: models.BuyAd{
				Type:       models.BuyAdTypeAuction,
				Unit:       "kg",
				Conditions: models.BuyAdConditions{BaseMinPrice: lo.ToPtr(uint64(1000))},
			},
			offer:        models.Offer{Type: models.OfferTypeAuctionBid, Unit: "kg", ProposedPrice: 999},
			sellerRating: 4.0,
			wantCount:    1,
			wantContains: "base minimum price",
		},
		{
			name: "auction bid at base price passes",
			ad: models.BuyAd{
				Type:       models.BuyAdTypeAuction,
				Unit:       "kg",
				Conditions: models.BuyAdConditions{BaseMinPrice: lo.ToPtr(uint64(1000))},
			},
			offer:        models.Offer{Type: models.OfferTypeAuctionBid, Unit: "kg", ProposedPrice: 1000},
			sellerRating: 4.0,
			wantCount:    0,
		},
		{
			name:         "tender ad only accepts tender bids",
			ad:           models.BuyAd{Type: models.BuyAdTypeTender, Unit: "kg"},
			offer:        models.Offer{Type: models.OfferTypeDirect, Unit: "kg"},
			sellerRating: 4.0,
			wantCount:    1,
			wantContains: "not allowed on a TENDER",
		},
		{
			name: "seller rating below requirement",
			ad: models.BuyAd{
				Type:       models.BuyAdTypeNegotiation,
				Unit:       "kg",
				Conditions: models.BuyAdConditions{MinSellerRating: lo.ToPtr(float32(4.5))},
			},
			offer:        models.Offer{Type: models.OfferTypeNegotiation, Unit: "kg"},
			sellerRating: 4.4,
			wantCount:    1,
			wantContains: "seller rating",
		},
		{
			name: "missing required certifications",
			ad: models.BuyAd{
				Type:       models.BuyAdTypeSimple,
				Unit:       "kg",
				Conditions: models.BuyAdConditions{RequiredCertifications: []string{"ISO9001", "CE"}},
			},
			offer:        models.Offer{Type: models.OfferTypeDirect, Unit: "kg", Certifications: []string{"HALAL"}},
			sellerRating: 4.0,
			wantCount:    1,
			wantContains: "certifications",
		},
		{
			name: "one matching certification is enough",
			ad: models.BuyAd{
				Type:       models.BuyAdTypeSimple,
				Unit:       "kg",
				Conditions: models.BuyAdConditions{RequiredCertifications: []string{"ISO9001", "CE"}},
			},
			offer:        models.Offer{Type: models.OfferTypeDirect, Unit: "kg", Certifications: []string{"CE"}},
			sellerRating: 4.0,
			wantCount:    0,
		},
		{
			name: "multiple violations are all reported",
			ad: models.BuyAd{
				Type: models.BuyAdTypeAuction,
				Unit: "kg",
				Conditions: models.BuyAdConditions{
					BaseMinPrice:    lo.ToPtr(uint64(1000)),
					MinSellerRating: lo.ToPtr(float32(4.5)),
				},
			},
			offer:        models.Offer{Type: models.OfferTypeAuctionBid, Unit: "ton", ProposedPrice: 500},
			sellerRating: 3.0,
			wantCount:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := offers.ParseConditions(&tt.ad)
			require.NoError(t, err)

			violations := offers.Validate(&tt.offer, &tt.ad, cond, tt.sellerRating)
			assert.Len(t, violations, tt.wantCount)
			if tt.wantContains != "" {
				require.NotEmpty(t, violations)
				found := lo.SomeBy(violations, func(v string) bool {
					return strings.Contains(v, tt.wantContains)
				})
				assert.True(t, found, "violations %v should mention %q", violations, tt.wantContains)
			}
		})
	}
}
