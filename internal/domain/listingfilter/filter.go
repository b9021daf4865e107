// Package listingfilter turns a flat listing search request into typed predicate descriptors.
// The persistence layer interprets the descriptors; nothing here touches the database.
package listingfilter

import (
	"errors"
	"math"
	"strings"
)

const (
	DefaultPage          = 0
	DefaultSize          = 10
	MaxSize              = 100
	DefaultSortBy        = "createdAt"
	DefaultSortDirection = "desc"
)

// Filter is the user-supplied search request. Nil pointers, empty slices and blank strings mean "any".
type Filter struct {
	Brand    string
	Model    string
	Location string

	MinYear    *int
	MaxYear    *int
	MinPrice   *float64
	MaxPrice   *float64
	MinMileage *int
	MaxMileage *int

	TransmissionIDs []uint
	FuelTypeIDs     []uint
	BodyStyleIDs    []uint

	SearchQuery string

	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// New returns a Filter with the paging and sort defaults applied.
func New() Filter {
	return Filter{
		Page:          DefaultPage,
		Size:          DefaultSize,
		SortBy:        DefaultSortBy,
		SortDirection: DefaultSortDirection,
	}
}

// Field names a listing attribute a predicate can target.
type Field string

const (
	FieldTitle             Field = "title"
	FieldDescription       Field = "description"
	FieldBrandName         Field = "brand.nameEn"
	FieldBrandNameAr       Field = "brand.nameAr"
	FieldModelName         Field = "model.nameEn"
	FieldModelNameAr       Field = "model.nameAr"
	FieldGovernorateName   Field = "governorate.nameEn"
	FieldGovernorateNameAr Field = "governorate.nameAr"
	FieldYear              Field = "year"
	FieldPrice             Field = "price"
	FieldMileage           Field = "mileage"
	FieldTransmissionID    Field = "transmission.id"
	FieldFuelTypeID        Field = "fuelType.id"
	FieldBodyStyleID       Field = "bodyStyle.id"
	FieldApproved          Field = "approved"
	FieldSold              Field = "sold"
	FieldArchived          Field = "archived"
	FieldSellerActive      Field = "seller.active"
	FieldCreatedAt         Field = "createdAt"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
	OpIn  Op = "in"
	// OpContains is a case-insensitive LIKE; Value holds the lower-cased "%term%" pattern.
	OpContains Op = "contains"
)

// Condition is either a single Predicate or an OR Group.
type Condition interface {
	condition()
}

// Predicate is one comparison: Field Op Value.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

func (Predicate) condition() {}

// Group is satisfied when any of its predicates is.
type Group struct {
	Any []Predicate
}

func (Group) condition() {}

// Set is a conjunction of conditions.
type Set []Condition

// Empty reports whether the set imposes no constraint.
func (s Set) Empty() bool { return len(s) == 0 }

// Combine ANDs several sets into one.
func Combine(sets ...Set) Set {
	var out Set
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// PublicVisibility is the base a public search combines with the built set:
// approved, not sold, not archived, seller account active.
func PublicVisibility() Set {
	return Set{
		Predicate{Field: FieldApproved, Op: OpEq, Value: true},
		Predicate{Field: FieldSold, Op: OpEq, Value: false},
		Predicate{Field: FieldArchived, Op: OpEq, Value: false},
		Predicate{Field: FieldSellerActive, Op: OpEq, Value: true},
	}
}

// PageRequest is the resolved paging and ordering of a search. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
	Sort Field
	Desc bool
}

// ErrPageOutOfRange is returned for a page whose row offset does not fit in an int.
var ErrPageOutOfRange = errors.New("page is out of range")

// Normalize applies the default size, caps it at MaxSize and treats a negative page as the first.
// A page whose offset would overflow is rejected.
func (r PageRequest) Normalize() (PageRequest, error) {
	if r.Size <= 0 {
		r.Size = DefaultSize
	}
	if r.Size > MaxSize {
		r.Size = MaxSize
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Page > math.MaxInt/r.Size {
		return r, ErrPageOutOfRange
	}
	return r, nil
}

// Offset is the number of rows before the page. Call it on a normalized request.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// PageRequest resolves the filter's paging and sort fields. Unknown sort names fall back to createdAt;
// any direction other than asc sorts descending.
func (f Filter) PageRequest() PageRequest {
	return PageRequest{
		Page: f.Page,
		Size: f.Size,
		Sort: SortField(f.SortBy),
		Desc: !strings.EqualFold(f.SortDirection, "asc"),
	}
}

var sortFields = map[string]Field{
	"createdAt": FieldCreatedAt,
	"price":     FieldPrice,
	"year":      FieldYear,
	"mileage":   FieldMileage,
}

// IsSortable reports whether name is an accepted sortBy value.
func IsSortable(name string) bool {
	_, ok := sortFields[name]
	return ok
}

// SortField maps a sortBy value to its Field, falling back to createdAt.
func SortField(name string) Field {
	if f, ok := sortFields[name]; ok {
		return f
	}
	return FieldCreatedAt
}

// IsSortDirection accepts asc or desc in any case.
func IsSortDirection(dir string) bool {
	d := strings.ToLower(dir)
	return d == "asc" || d == "desc"
}
