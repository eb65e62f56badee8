package repository

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/equipment-tracker/internal/dto"
)

func nullDecimal(p dto.Patch[decimal.Decimal]) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: p.Value, Valid: p.Valid}
}
