package listingfilter

import "strings"

// searchFields are the attributes a free-text query is matched against, in both languages.
var searchFields = []Field{
	FieldTitle,
	FieldDescription,
	FieldBrandName,
	FieldBrandNameAr,
	FieldModelName,
	FieldModelNameAr,
	FieldGovernorateName,
	FieldGovernorateNameAr,
}

// Build maps f to the predicates a query must apply. It never fails and never adds visibility
// rules; callers combine the result with PublicVisibility or their own base set.
// Cross-field consistency (min > max) is not checked.
func Build(f Filter) Set {
	var set Set

	set = appendContains(set, FieldBrandName, f.Brand)
	set = appendContains(set, FieldModelName, f.Model)

	set = appendRange(set, FieldYear, intPtr(f.MinYear), intPtr(f.MaxYear))
	set = appendRange(set, FieldPrice, floatPtr(f.MinPrice), floatPtr(f.MaxPrice))
	set = appendRange(set, FieldMileage, intPtr(f.MinMileage), intPtr(f.MaxMileage))

	set = appendContains(set, FieldGovernorateName, f.Location)

	set = appendIn(set, FieldTransmissionID, f.TransmissionIDs)
	set = appendIn(set, FieldFuelTypeID, f.FuelTypeIDs)
	set = appendIn(set, FieldBodyStyleID, f.BodyStyleIDs)

	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		pattern := likePattern(q)
		group := Group{Any: make([]Predicate, 0, len(searchFields))}
		for _, field := range searchFields {
			group.Any = append(group.Any, Predicate{Field: field, Op: OpContains, Value: pattern})
		}
		set = append(set, group)
	}
	return set
}

func appendContains(set Set, field Field, value string) Set {
	v := strings.TrimSpace(value)
	if v == "" {
		return set
	}
	return append(set, Predicate{Field: field, Op: OpContains, Value: likePattern(v)})
}

// appendRange adds independent lower and upper bounds; either may be absent.
func appendRange(set Set, field Field, lo, hi any) Set {
	if lo != nil {
		set = append(set, Predicate{Field: field, Op: OpGte, Value: lo})
	}
	if hi != nil {
		set = append(set, Predicate{Field: field, Op: OpLte, Value: hi})
	}
	return set
}

func appendIn(set Set, field Field, ids []uint) Set {
	if len(ids) == 0 {
		return set
	}
	values := make([]uint, len(ids))
	copy(values, ids)
	return append(set, Predicate{Field: field, Op: OpIn, Value: values})
}

func likePattern(v string) string {
	return "%" + strings.ToLower(v) + "%"
}

// intPtr and floatPtr unwrap to an untyped nil so appendRange can test presence.
func intPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
