package listings

import (
	"fmt"
	"strconv"
	"strings"

	"carmarket-backend/internal/domain/listingfilter"

	"github.com/gofiber/fiber/v2"
)

// FilterError lists every rejected query parameter.
type FilterError struct {
	Fields map[string]string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid listing filter: %d field(s)", len(e.Fields))
}

type filterParser struct {
	c    *fiber.Ctx
	errs map[string]string
}

func (p *filterParser) fail(key, msg string) {
	if _, seen := p.errs[key]; !seen {
		p.errs[key] = msg
	}
}

func (p *filterParser) text(key string) string {
	return strings.TrimSpace(p.c.Query(key))
}

func (p *filterParser) nonNegInt(key string) *int {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, "must be an integer")
		return nil
	}
	if v < 0 {
		p.fail(key, "must not be negative")
		return nil
	}
	return &v
}

func (p *filterParser) nonNegFloat(key string) *float64 {
	raw := p.text(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, "must be a number")
		return nil
	}
	if v < 0 {
		p.fail(key, "must not be negative")
		return nil
	}
	return &v
}

// ids accepts repeated keys and comma-separated values: ?fuelTypeIds=1,2&fuelTypeIds=3
func (p *filterParser) ids(key string) []uint {
	var out []uint
	for _, raw := range p.c.Context().QueryArgs().PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseUint(part, 10, 64)
			if err != nil || v == 0 {
				p.fail(key, "must be a list of positive ids")
				return nil
			}
			out = append(out, uint(v))
		}
	}
	return out
}

// ParseListingFilter reads the search query string into a Filter and rejects values the builder
// must never see: negative numbers, a negative page, a size outside 1..MaxSize, an unknown sort
// field or direction.
func ParseListingFilter(c *fiber.Ctx) (listingfilter.Filter, error) {
	p := &filterParser{c: c, errs: map[string]string{}}
	f := listingfilter.New()

	f.Brand = p.text("brand")
	f.Model = p.text("model")
	f.Location = p.text("location")
	f.SearchQuery = p.text("searchQuery")
	if f.SearchQuery == "" {
		f.SearchQuery = p.text("q")
	}

	f.MinYear = p.nonNegInt("minYear")
	f.MaxYear = p.nonNegInt("maxYear")
	f.MinPrice = p.nonNegFloat("minPrice")
	f.MaxPrice = p.nonNegFloat("maxPrice")
	f.MinMileage = p.nonNegInt("minMileage")
	f.MaxMileage = p.nonNegInt("maxMileage")

	f.TransmissionIDs = p.ids("transmissionIds")
	f.FuelTypeIDs = p.ids("fuelTypeIds")
	f.BodyStyleIDs = p.ids("bodyStyleIds")

	if page := p.nonNegInt("page"); page != nil {
		f.Page = *page
	}
	if size := p.nonNegInt("size"); size != nil {
		if *size < 1 || *size > listingfilter.MaxSize {
			p.fail("size", fmt.Sprintf("must be between 1 and %d", listingfilter.MaxSize))
		} else {
			f.Size = *size
		}
	}
	if sortBy := p.text("sortBy"); sortBy != "" {
		if !listingfilter.IsSortable(sortBy) {
			p.fail("sortBy", "must be one of createdAt, price, year, mileage")
		} else {
			f.SortBy = sortBy
		}
	}
	if dir := p.text("sortDirection"); dir != "" {
		if !listingfilter.IsSortDirection(dir) {
			p.fail("sortDirection", "must be asc or desc")
		} else {
			f.SortDirection = strings.ToLower(dir)
		}
	}

	if len(p.errs) > 0 {
		return f, &FilterError{Fields: p.errs}
	}
	return f, nil
}
