package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

// GBPToPence rounds to the nearest penny. Callers bound the input first.
func GBPToPence(gbp float64) int64 {
	return int64(math.Round(gbp * 100))
}

// PenceFromGBP converts a finite amount between £0 and £1,000,000.
func PenceFromGBP(field string, gbp float64) (int64, error) {
	if math.IsNaN(gbp) || math.IsInf(gbp, 0) || gbp < 0 {
		return 0, fmt.Errorf("%w: %s must be >= 0", ErrValidation, field)
	}
	if gbp > float64(models.MaxPricePence)/100 {
		return 0, fmt.Errorf("%w: %s must be at most %s", ErrValidation, field, FormatGBP(models.MaxPricePence))
	}
	return GBPToPence(gbp), nil
}

// ParseDeliveryFee reads a free-text GBP amount ("3.50", "£2"). Text that is
// not a finite number counts as no fee; a negative fee is rejected.
func ParseDeliveryFee(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: delivery fee must not be negative", ErrValidation)
	}
	return PenceFromGBP("delivery fee", v)
}

// OrderTotals returns the items subtotal and subtotal plus fee.
func OrderTotals(items []models.LineItem, feePence int64) (subtotal, total int64) {
	for _, it := range items {
		subtotal += it.LineTotal()
	}
	return subtotal, subtotal + feePence
}

func FormatGBP(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%d.%02d", sign, pence/100, pence%100)
}
