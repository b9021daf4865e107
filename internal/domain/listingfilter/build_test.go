package listingfilter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func predicatesFor(set Set, field Field) []Predicate {
	var out []Predicate
	for _, c := range set {
		if p, ok := c.(Predicate); ok && p.Field == field {
			out = append(out, p)
		}
	}
	return out
}

func groups(set Set) []Group {
	var out []Group
	for _, c := range set {
		if g, ok := c.(Group); ok {
			out = append(out, g)
		}
	}
	return out
}

func TestBuild_EmptyFilter(t *testing.T) {
	assert.True(t, Build(Filter{}).Empty())
	assert.True(t, Build(New()).Empty())
}

func TestBuild_BlankStringsAreAbsent(t *testing.T) {
	set := Build(Filter{
		Brand:       "   ",
		Model:       "\t",
		Location:    "",
		SearchQuery: " \n ",
	})
	assert.True(t, set.Empty())
}

func TestBuild_RangeBoundsAreIndependent(t *testing.T) {
	cases := []struct {
		name  string
		f     Filter
		field Field
		ops   []Op
	}{
		{"year min only", Filter{MinYear: ptr(2015)}, FieldYear, []Op{OpGte}},
		{"year max only", Filter{MaxYear: ptr(2020)}, FieldYear, []Op{OpLte}},
		{"year both", Filter{MinYear: ptr(2015), MaxYear: ptr(2020)}, FieldYear, []Op{OpGte, OpLte}},
		{"price min only", Filter{MinPrice: ptr(1000.0)}, FieldPrice, []Op{OpGte}},
		{"price max only", Filter{MaxPrice: ptr(5000.0)}, FieldPrice, []Op{OpLte}},
		{"mileage both", Filter{MinMileage: ptr(0), MaxMileage: ptr(90000)}, FieldMileage, []Op{OpGte, OpLte}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := Build(tc.f)
			preds := predicatesFor(set, tc.field)
			require.Len(t, preds, len(tc.ops))
			var ops []Op
			for _, p := range preds {
				ops = append(ops, p.Op)
			}
			assert.ElementsMatch(t, tc.ops, ops)
			assert.Len(t, set, len(tc.ops))
		})
	}
}

func TestBuild_ZeroBoundIsPresent(t *testing.T) {
	set := Build(Filter{MinMileage: ptr(0)})
	require.Len(t, set, 1)
	assert.Equal(t, Predicate{Field: FieldMileage, Op: OpGte, Value: 0}, set[0])
}

func TestBuild_MinGreaterThanMaxPassesThrough(t *testing.T) {
	set := Build(Filter{MinYear: ptr(2022), MaxYear: ptr(2010)})
	assert.ElementsMatch(t, Set{
		Predicate{Field: FieldYear, Op: OpGte, Value: 2022},
		Predicate{Field: FieldYear, Op: OpLte, Value: 2010},
	}, set)
}

func TestBuild_ScenarioBrandAndPriceRange(t *testing.T) {
	set := Build(Filter{Brand: "Toyota", MinPrice: ptr(10000.0), MaxPrice: ptr(20000.0)})
	assert.ElementsMatch(t, Set{
		Predicate{Field: FieldBrandName, Op: OpContains, Value: "%toyota%"},
		Predicate{Field: FieldPrice, Op: OpGte, Value: 10000.0},
		Predicate{Field: FieldPrice, Op: OpLte, Value: 20000.0},
	}, set)
}

func TestBuild_StringFiltersAreTrimmedAndLowered(t *testing.T) {
	set := Build(Filter{Model: "  CamRY ", Location: "Amman"})
	assert.ElementsMatch(t, Set{
		Predicate{Field: FieldModelName, Op: OpContains, Value: "%camry%"},
		Predicate{Field: FieldGovernorateName, Op: OpContains, Value: "%amman%"},
	}, set)
}

func TestBuild_SearchQueryFansOutToEightFields(t *testing.T) {
	for _, q := range []string{"camry", "  Camry  ", "تويوتا", "a b c"} {
		set := Build(Filter{SearchQuery: q})
		require.Len(t, set, 1, q)
		gs := groups(set)
		require.Len(t, gs, 1, q)
		require.Len(t, gs[0].Any, 8, q)

		var fields []Field
		for _, p := range gs[0].Any {
			assert.Equal(t, OpContains, p.Op)
			fields = append(fields, p.Field)
		}
		assert.ElementsMatch(t, searchFields, fields)
	}
}

func TestBuild_ScenarioSearchQuery(t *testing.T) {
	set := Build(Filter{SearchQuery: "camry"})
	g := groups(set)[0]
	for _, p := range g.Any {
		assert.Equal(t, "%camry%", p.Value)
	}
}

func TestBuild_SearchGroupIsAndedWithOtherPredicates(t *testing.T) {
	set := Build(Filter{SearchQuery: "camry", MinYear: ptr(2018)})
	assert.Len(t, set, 2)
	assert.Len(t, groups(set), 1)
	assert.Len(t, predicatesFor(set, FieldYear), 1)
}

func TestBuild_CategoricalIDs(t *testing.T) {
	set := Build(Filter{TransmissionIDs: []uint{}, FuelTypeIDs: nil, BodyStyleIDs: []uint{3, 4}})
	require.Len(t, set, 1)
	assert.Equal(t, Predicate{Field: FieldBodyStyleID, Op: OpIn, Value: []uint{3, 4}}, set[0])
}

func TestBuild_IDSliceIsCopied(t *testing.T) {
	ids := []uint{1, 2}
	set := Build(Filter{FuelTypeIDs: ids})
	ids[0] = 99
	assert.Equal(t, []uint{1, 2}, set[0].(Predicate).Value)
}

func TestBuild_IsRepeatable(t *testing.T) {
	f := Filter{Brand: "kia", MinYear: ptr(2010), BodyStyleIDs: []uint{1}, SearchQuery: "sportage"}
	assert.Equal(t, Build(f), Build(f))
}

func TestBuild_NeverAddsVisibility(t *testing.T) {
	set := Build(Filter{Brand: "bmw"})
	for _, f := range []Field{FieldApproved, FieldSold, FieldArchived, FieldSellerActive} {
		assert.Empty(t, predicatesFor(set, f))
	}
	combined := Combine(PublicVisibility(), set)
	assert.Len(t, combined, 5)
}

func TestSortHelpers(t *testing.T) {
	assert.True(t, IsSortable("price"))
	assert.False(t, IsSortable("seller"))
	assert.Equal(t, FieldYear, SortField("year"))
	assert.Equal(t, FieldCreatedAt, SortField("unknown"))
	assert.True(t, IsSortDirection("ASC"))
	assert.False(t, IsSortDirection("up"))
}

func TestPageRequest_Normalize(t *testing.T) {
	req, err := PageRequest{Page: -3}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 0, req.Page)
	assert.Equal(t, DefaultSize, req.Size)

	req, err = PageRequest{Page: 2, Size: 5000}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxSize, req.Size)
	assert.Equal(t, 2*MaxSize, req.Offset())

	_, err = PageRequest{Page: math.MaxInt, Size: 10}.Normalize()
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = PageRequest{Page: math.MaxInt / 10, Size: 10}.Normalize()
	assert.NoError(t, err)
}
