package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
)

const (
	ParamMin = "min"
	ParamMax = "max"
)

// AmountRange bounds are inclusive. A nil bound is open.
type AmountRange struct {
	Min *float64
	Max *float64
}

// IsEmpty reports whether the range constrains nothing.
func (r AmountRange) IsEmpty() bool {
	return r.Min == nil && r.Max == nil
}

// Scope applies the range to column as a GORM scope.
func (r AmountRange) Scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.Min != nil {
			db = db.Where(fmt.Sprintf("%s >= ?", column), *r.Min)
		}
		if r.Max != nil {
			db = db.Where(fmt.Sprintf("%s <= ?", column), *r.Max)
		}
		return db
	}
}

// BSON renders the range as a MongoDB filter on field.
func (r AmountRange) BSON(field string) bson.M {
	cond := bson.M{}
	if r.Min != nil {
		cond["$gte"] = *r.Min
	}
	if r.Max != nil {
		cond["$lte"] = *r.Max
	}
	if len(cond) == 0 {
		return bson.M{}
	}
	return bson.M{field: cond}
}

// BuildAmountFilter reads min and max.
func BuildAmountFilter(params Params) (AmountRange, error) {
	var r AmountRange
	if params.Has(ParamMin) {
		v, err := parseAmount(params.Get(ParamMin))
		if err != nil {
			return AmountRange{}, err
		}
		r.Min = &v
	}
	if params.Has(ParamMax) {
		v, err := parseAmount(params.Get(ParamMax))
		if err != nil {
			return AmountRange{}, err
		}
		r.Max = &v
	}
	return r, nil
}

// ParseAmount parses a finite decimal amount.
func ParseAmount(s string) (float64, error) {
	return parseAmount(s)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmountValue, s)
	}
	return v, nil
}
