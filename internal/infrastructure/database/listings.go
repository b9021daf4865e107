package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/listingfilter"

	"gorm.io/gorm"
)

var ErrUnsupportedCondition = errors.New("unsupported listing condition")

// columns maps predicate fields to SQL columns reachable from listingSearchJoins.
var columns = map[listingfilter.Field]string{
	listingfilter.FieldTitle:             "car_listings.title",
	listingfilter.FieldDescription:       "car_listings.description",
	listingfilter.FieldBrandName:         "brands.name_en",
	listingfilter.FieldBrandNameAr:       "brands.name_ar",
	listingfilter.FieldModelName:         "car_models.name_en",
	listingfilter.FieldModelNameAr:       "car_models.name_ar",
	listingfilter.FieldGovernorateName:   "governorates.name_en",
	listingfilter.FieldGovernorateNameAr: "governorates.name_ar",
	listingfilter.FieldYear:              "car_listings.model_year",
	listingfilter.FieldPrice:             "car_listings.price",
	listingfilter.FieldMileage:           "car_listings.mileage",
	listingfilter.FieldTransmissionID:    "car_listings.transmission_id",
	listingfilter.FieldFuelTypeID:        "car_listings.fuel_type_id",
	listingfilter.FieldBodyStyleID:       "car_listings.body_style_id",
	listingfilter.FieldApproved:          "car_listings.approved",
	listingfilter.FieldSold:              "car_listings.sold",
	listingfilter.FieldArchived:          "car_listings.archived",
	listingfilter.FieldSellerActive:      "sellers.active",
	listingfilter.FieldCreatedAt:         "car_listings.created_at",
}

var listingSearchJoins = []string{
	"LEFT JOIN brands ON brands.id = car_listings.brand_id",
	"LEFT JOIN car_models ON car_models.id = car_listings.model_id",
	"LEFT JOIN governorates ON governorates.id = car_listings.governorate_id",
	"LEFT JOIN users AS sellers ON sellers.user_id = car_listings.seller_id",
}

// ListingRepository runs predicate-set searches over car listings.
type ListingRepository struct {
	DB *gorm.DB
}

// Search returns the page of listings matching every condition in conds, with the total match count.
// Contains patterns are passed to LIKE as built; '%' and '_' inside a search term act as wildcards.
func (r *ListingRepository) Search(ctx context.Context, conds listingfilter.Set, req listingfilter.PageRequest) (domain.Page[domain.Listing], error) {
	req, err := req.Normalize()
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	order, ok := columns[req.Sort]
	if !ok {
		order = columns[listingfilter.FieldCreatedAt]
	}
	dir := "ASC"
	if req.Desc {
		dir = "DESC"
	}

	scoped := func() (*gorm.DB, error) {
		q := r.DB.WithContext(ctx).Model(&domain.Listing{})
		for _, j := range listingSearchJoins {
			q = q.Joins(j)
		}
		return applyConditions(q, conds)
	}

	countQ, err := scoped()
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	var total int64
	if err := countQ.Count(&total).Error; err != nil {
		return domain.Page[domain.Listing]{}, fmt.Errorf("count listings: %w", err)
	}

	findQ, err := scoped()
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	var items []domain.Listing
	err = findQ.Scopes(domain.PreloadListingDetails).
		Select("car_listings.*").
		Order(fmt.Sprintf("%s %s", order, dir)).
		Order("car_listings.id " + dir).
		Limit(req.Size).
		Offset(req.Offset()).
		Find(&items).Error
	if err != nil {
		return domain.Page[domain.Listing]{}, fmt.Errorf("search listings: %w", err)
	}
	return domain.NewPage(items, total, req.Page, req.Size), nil
}

func applyConditions(q *gorm.DB, conds listingfilter.Set) (*gorm.DB, error) {
	for _, c := range conds {
		switch cond := c.(type) {
		case listingfilter.Predicate:
			expr, arg, err := predicateSQL(cond)
			if err != nil {
				return nil, err
			}
			q = q.Where(expr, arg)
		case listingfilter.Group:
			if len(cond.Any) == 0 {
				continue
			}
			parts := make([]string, 0, len(cond.Any))
			args := make([]any, 0, len(cond.Any))
			for _, p := range cond.Any {
				expr, arg, err := predicateSQL(p)
				if err != nil {
					return nil, err
				}
				parts = append(parts, expr)
				args = append(args, arg)
			}
			q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedCondition, c)
		}
	}
	return q, nil
}

func predicateSQL(p listingfilter.Predicate) (string, any, error) {
	col, ok := columns[p.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: field %q", ErrUnsupportedCondition, p.Field)
	}
	switch p.Op {
	case listingfilter.OpEq:
		return col + " = ?", p.Value, nil
	case listingfilter.OpGte:
		return col + " >= ?", p.Value, nil
	case listingfilter.OpLte:
		return col + " <= ?", p.Value, nil
	case listingfilter.OpIn:
		return col + " IN ?", p.Value, nil
	case listingfilter.OpContains:
		return "LOWER(" + col + ") LIKE ?", p.Value, nil
	}
	return "", nil, fmt.Errorf("%w: op %q", ErrUnsupportedCondition, p.Op)
}
