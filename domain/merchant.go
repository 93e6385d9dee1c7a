package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

var ErrMerchantNotFound = errors.New("merchant not found")

// CREATE TABLE public.merchants (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name        TEXT NOT NULL,
//     category    TEXT,
//     keywords    JSONB DEFAULT '[]',
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Merchant struct {
	ID        int64                       `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	Name      string                      `gorm:"column:name;type:text;not null" json:"name"`
	Category  string                      `gorm:"column:category;type:text" json:"category"`
	Keywords  datatypes.JSONSlice[string] `gorm:"column:keywords;type:jsonb" json:"keywords"`
	CreatedAt time.Time                   `gorm:"column:created_at" json:"created_at"`
}

func (Merchant) TableName() string {
	return "merchants"
}
