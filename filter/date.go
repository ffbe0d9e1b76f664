package filter

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
)

const (
	ParamDate = "date"
	ParamFrom = "from"
	ParamUpTo = "upTo"

	dateLayout = "2006-01-02"
)

// DateRange bounds are inclusive. A nil bound is open.
type DateRange struct {
	From *time.Time
	UpTo *time.Time
}

// IsEmpty reports whether the range constrains nothing.
func (r DateRange) IsEmpty() bool {
	return r.From == nil && r.UpTo == nil
}

// Scope applies the range to column as a GORM scope.
func (r DateRange) Scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where(fmt.Sprintf("%s >= ?", column), *r.From)
		}
		if r.UpTo != nil {
			db = db.Where(fmt.Sprintf("%s <= ?", column), *r.UpTo)
		}
		return db
	}
}

// BSON renders the range as a MongoDB filter on field. Empty ranges give an empty document.
func (r DateRange) BSON(field string) bson.M {
	cond := bson.M{}
	if r.From != nil {
		cond["$gte"] = *r.From
	}
	if r.UpTo != nil {
		cond["$lte"] = *r.UpTo
	}
	if len(cond) == 0 {
		return bson.M{}
	}
	return bson.M{field: cond}
}

// BuildDateFilter reads date, from and upTo.
//
// date selects one whole UTC day and excludes the other two. from starts at
// 00:00:00.000Z, upTo ends at 23:59:59.999Z.
func BuildDateFilter(params Params) (DateRange, error) {
	hasDate := params.Has(ParamDate)
	hasFrom := params.Has(ParamFrom)
	hasUpTo := params.Has(ParamUpTo)

	if hasDate && (hasFrom || hasUpTo) {
		return DateRange{}, ErrInvalidQueryCombination
	}

	var r DateRange
	if hasDate {
		day, err := parseDay(params.Get(ParamDate))
		if err != nil {
			return DateRange{}, err
		}
		end := endOfDay(day)
		r.From, r.UpTo = &day, &end
		return r, nil
	}
	if hasFrom {
		day, err := parseDay(params.Get(ParamFrom))
		if err != nil {
			return DateRange{}, err
		}
		r.From = &day
	}
	if hasUpTo {
		day, err := parseDay(params.Get(ParamUpTo))
		if err != nil {
			return DateRange{}, err
		}
		end := endOfDay(day)
		r.UpTo = &end
	}
	return r, nil
}

func parseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateValue, s)
	}
	return day, nil
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Millisecond)
}
