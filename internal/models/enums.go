package models

import (
	"strings"
)

// CardCondition is the physical condition of an ungraded card
type CardCondition string

const (
	ConditionMint             CardCondition = "mint"
	ConditionNearMint         CardCondition = "near_mint"
	ConditionLightlyPlayed    CardCondition = "lightly_played"
	ConditionModeratelyPlayed CardCondition = "moderately_played"
	ConditionHeavilyPlayed    CardCondition = "heavily_played"
	ConditionDamaged          CardCondition = "damaged"
)

// CanonicalRawCondition is the condition raw card valuation is measured at
const CanonicalRawCondition = ConditionNearMint

// AllCardConditions returns all valid card conditions, best first
func AllCardConditions() []CardCondition {
	return []CardCondition{
		ConditionMint,
		ConditionNearMint,
		ConditionLightlyPlayed,
		ConditionModeratelyPlayed,
		ConditionHeavilyPlayed,
		ConditionDamaged,
	}
}

// Valid reports whether c is one of the known conditions
func (c CardCondition) Valid() bool {
	for _, known := range AllCardConditions() {
		if c == known {
			return true
		}
	}
	return false
}

// ShortLabel returns the abbreviation collectors use (NM, LP, ...)
func (c CardCondition) ShortLabel() string {
	switch c {
	case ConditionMint:
		return "M"
	case ConditionNearMint:
		return "NM"
	case ConditionLightlyPlayed:
		return "LP"
	case ConditionModeratelyPlayed:
		return "MP"
	case ConditionHeavilyPlayed:
		return "HP"
	case ConditionDamaged:
		return "DMG"
	default:
		return ""
	}
}

// ParseCardCondition maps short labels and long names to a CardCondition.
// Returns "" for anything unrecognised.
func ParseCardCondition(s string) CardCondition {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "mint":
		return ConditionMint
	case "nm", "near mint", "near_mint":
		return ConditionNearMint
	case "lp", "lightly played", "lightly_played":
		return ConditionLightlyPlayed
	case "mp", "moderately played", "moderately_played":
		return ConditionModeratelyPlayed
	case "hp", "heavily played", "heavily_played":
		return ConditionHeavilyPlayed
	case "dmg", "damaged":
		return ConditionDamaged
	default:
		return ""
	}
}

// GradingCompany is a third-party grading authority
type GradingCompany string

const (
	GradingPSA   GradingCompany = "PSA"
	GradingCGC   GradingCompany = "CGC"
	GradingBGS   GradingCompany = "BGS"
	GradingSGC   GradingCompany = "SGC"
	GradingARS   GradingCompany = "ARS"
	GradingOther GradingCompany = "other"
)

// PrimaryGradingCompany is the authority whose top grade drives graded valuation
const PrimaryGradingCompany = GradingPSA

// TopGrade is the highest numeric grade any supported authority issues
const TopGrade = 10.0

// AllGradingCompanies returns all valid grading companies
func AllGradingCompanies() []GradingCompany {
	return []GradingCompany{GradingPSA, GradingCGC, GradingBGS, GradingSGC, GradingARS, GradingOther}
}

// Valid reports whether g is one of the known grading companies
func (g GradingCompany) Valid() bool {
	for _, known := range AllGradingCompanies() {
		if g == known {
			return true
		}
	}
	return false
}

// Grades lists the standard grade ladder, highest first
func Grades() []float64 {
	return []float64{10, 9.5, 9, 8.5, 8, 7.5, 7, 6.5, 6, 5.5, 5, 4.5, 4, 3.5, 3, 2.5, 2, 1.5, 1}
}

var gradeLabels = map[float64]string{
	10:  "Gem Mint",
	9.5: "Mint+",
	9:   "Mint",
	8.5: "NM-Mint+",
	8:   "NM-Mint",
	7.5: "Near Mint+",
	7:   "Near Mint",
	6.5: "EX-Mint+",
	6:   "EX-Mint",
	5.5: "Excellent+",
	5:   "Excellent",
	4.5: "VG-EX+",
	4:   "VG-EX",
	3.5: "Very Good+",
	3:   "Very Good",
	2.5: "Good+",
	2:   "Good",
	1.5: "Fair",
	1:   "Poor",
}

// GradeLabel returns the conventional name of a numeric grade, or "" if it is off the ladder
func GradeLabel(grade float64) string {
	return gradeLabels[grade]
}

// ItemType says whether a price or portfolio row targets a card or a sealed product
type ItemType string

const (
	ItemTypeCard   ItemType = "card"
	ItemTypeSealed ItemType = "sealed"
)

// PriceSource records where a price observation came from
type PriceSource string

const (
	PriceSourceManual        PriceSource = "manual"
	PriceSourceEbay          PriceSource = "ebay"
	PriceSourceTCGPlayer     PriceSource = "tcgplayer"
	PriceSourceCommunity     PriceSource = "community"
	PriceSourcePriceCharting PriceSource = "pricecharting"
)

// AllPriceSources returns all valid price sources
func AllPriceSources() []PriceSource {
	return []PriceSource{
		PriceSourceManual,
		PriceSourceEbay,
		PriceSourceTCGPlayer,
		PriceSourceCommunity,
		PriceSourcePriceCharting,
	}
}

// Valid reports whether s is one of the known price sources
func (s PriceSource) Valid() bool {
	for _, known := range AllPriceSources() {
		if s == known {
			return true
		}
	}
	return false
}

// SealedProductType classifies unopened product
type SealedProductType string

const (
	ProductBoosterBox    SealedProductType = "booster_box"
	ProductBoosterPack   SealedProductType = "booster_pack"
	ProductCase          SealedProductType = "case"
	ProductStarterDeck   SealedProductType = "starter_deck"
	ProductPromo         SealedProductType = "promo"
	ProductCollectionBox SealedProductType = "collection_box"
	ProductOther         SealedProductType = "other"
)

// AllSealedProductTypes returns all valid sealed product types
func AllSealedProductTypes() []SealedProductType {
	return []SealedProductType{
		ProductBoosterBox,
		ProductBoosterPack,
		ProductCase,
		ProductStarterDeck,
		ProductPromo,
		ProductCollectionBox,
		ProductOther,
	}
}

// Valid reports whether t is one of the known product types
func (t SealedProductType) Valid() bool {
	for _, known := range AllSealedProductTypes() {
		if t == known {
			return true
		}
	}
	return false
}
