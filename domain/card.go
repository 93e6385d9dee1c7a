package domain

import (
	"errors"
	"time"
)

var ErrCardNotFound = errors.New("card not found")

// CREATE TABLE public.cards (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name        TEXT NOT NULL,
//     issuer      TEXT NOT NULL,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Card struct {
	ID        int64         `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	Name      string        `gorm:"column:name;type:text;not null" json:"name"`
	Issuer    string        `gorm:"column:issuer;type:text;not null" json:"issuer"`
	Benefits  []CardBenefit `gorm:"foreignKey:CardID" json:"benefits,omitempty"`
	CreatedAt time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (Card) TableName() string {
	return "cards"
}

// CREATE TABLE public.card_benefits (
//     id                   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     card_id              BIGINT NOT NULL REFERENCES cards(id),
//     description          TEXT,
//     normalized_category  TEXT,
//     keyword              TEXT,
//     is_location_based    BOOLEAN DEFAULT FALSE
// );

type CardBenefit struct {
	ID                 int64  `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	CardID             int64  `gorm:"column:card_id;not null;index" json:"card_id"`
	Description        string `gorm:"column:description;type:text" json:"description"`
	NormalizedCategory string `gorm:"column:normalized_category;type:text;index" json:"normalized_category"`
	Keyword            string `gorm:"column:keyword;type:text" json:"keyword"`
	IsLocationBased    bool   `gorm:"column:is_location_based;default:false" json:"is_location_based"`
}

func (CardBenefit) TableName() string {
	return "card_benefits"
}

// CardCandidate is the read-only card view the recommendation engine scores.
type CardCandidate struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	Issuer               string   `json:"issuer"`
	NormalizedCategories []string `json:"normalizedCategories"`
}

// LocationBenefit is a benefit row joined with its owning card.
type LocationBenefit struct {
	CardID             int64  `json:"cardId"`
	CardName           string `json:"cardName"`
	Description        string `json:"description"`
	Keyword            string `json:"keyword"`
	NormalizedCategory string `json:"normalizedCategory"`
	IsLocationBased    bool   `json:"isLocationBased"`
}

// CardPageQuery selects a page of cards; an empty NormalizedCategory means no category filter.
type CardPageQuery struct {
	NormalizedCategory string
	Limit              int
	Offset             int
}

type CardPage struct {
	Cards []CardCandidate `json:"cards"`
	Total int64           `json:"total"`
}

type LocationBenefitQuery struct {
	NormalizedCategory string
	Keywords           []string
	LocationOnly       bool
	Limit              int
}
