package offers

import (
	"fmt"

	"github.com/samber/lo"

	"bazar/models"
)

// Validate 在任何寫入發生前檢查報價是否符合採購需求的限制
// 所有檢查都是純函式，回傳值為違規項目清單，全部通過時為空
//
// 檢查項目:
//   - 1. 報價單位必須與採購需求一致
//   - 2. 報價種類必須與採購需求的議價模式相容
//   - 3. AUCTION 需求有底價時，出價不得低於底價
//   - 4. 需求有最低賣家評價時，賣家評價必須達標
//   - 5. 需求有認證要求時，報價的認證必須至少命中一項
func Validate(offer *models.Offer, ad *models.BuyAd, cond BuyAdConditions, sellerRating float32) []string {
	var violations []string

	if offer.Unit != ad.Unit {
		violations = append(violations, fmt.Sprintf("unit %q does not match buy ad unit %q", offer.Unit, ad.Unit))
	}

	violations = append(violations, validateTypeCompatibility(offer, ad, cond)...)

	eligibility := cond.Eligibility()
	if eligibility.MinSellerRating != nil && sellerRating < *eligibility.MinSellerRating {
		violations = append(violations, fmt.Sprintf("seller rating %.1f is below required %.1f", sellerRating, *eligibility.MinSellerRating))
	}
	if len(eligibility.RequiredCertifications) > 0 {
		if len(lo.Intersect(offer.Certifications, eligibility.RequiredCertifications)) == 0 {
			violations = append(violations, "offer carries none of the required certifications")
		}
	}

	return violations
}

func validateTypeCompatibility(offer *models.Offer, ad *models.BuyAd, cond BuyAdConditions) []string {
	var violations []string
	switch ad.Type {
	case models.BuyAdTypeSimple:
		if offer.Type != models.OfferTypeDirect && offer.Type != models.OfferTypeCounterOffer {
			violations = append(violations, fmt.Sprintf("offer type %s is not allowed on a SIMPLE buy ad", offer.Type))
		}
	case models.BuyAdTypeAuction:
		if offer.Type != models.OfferTypeAuctionBid {
			violations = append(violations, fmt.Sprintf("offer type %s is not allowed on an AUCTION buy ad", offer.Type))
		}
		if auction, ok := cond.(AuctionConditions); ok && auction.BaseMinPrice != nil && offer.ProposedPrice < *auction.BaseMinPrice {
			violations = append(violations, fmt.Sprintf("proposed price %d is below the base minimum price %d", offer.ProposedPrice, *auction.BaseMinPrice))
		}
	case models.BuyAdTypeTender:
		if offer.Type != models.OfferTypeTenderBid {
			violations = append(violations, fmt.Sprintf("offer type %s is not allowed on a TENDER buy ad", offer.Type))
		}
	case models.BuyAdTypeNegotiation:
		if offer.Type != models.OfferTypeDirect && offer.Type != models.OfferTypeNegotiation && offer.Type != models.OfferTypeCounterOffer {
			violations = append(violations, fmt.Sprintf("offer type %s is not allowed on a NEGOTIATION buy ad", offer.Type))
		}
	}
	return violations
}
