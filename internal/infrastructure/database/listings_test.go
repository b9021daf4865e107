package database_test

import (
	"context"
	"testing"
	"time"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/listingfilter"
	"carmarket-backend/internal/infrastructure/database"
	"carmarket-backend/internal/infrastructure/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	repo    *database.ListingRepository
	catalog dbtest.Catalog
	seller  domain.User
	camry   domain.Listing
	corolla domain.Listing
	kia     domain.Listing
}

func ptr[T any](v T) *T { return &v }

func setup(t *testing.T) fixture {
	db := dbtest.Open(t)
	c := dbtest.SeedCatalog(t, db)
	seller := dbtest.SeedUser(t, db, "dealer@cars.jo", "user", true)
	inactive := dbtest.SeedUser(t, db, "gone@cars.jo", "user", false)

	now := time.Now().UTC()
	f := fixture{db: db, repo: &database.ListingRepository{DB: db}, catalog: c, seller: seller}
	f.camry = dbtest.SeedListing(t, db, domain.Listing{
		Title: "Toyota Camry 2019 hybrid", Description: "Clean, single owner",
		SellerID: seller.UserID, BrandID: c.Toyota.ID, ModelID: c.Camry.ID, GovernorateID: &c.Amman.ID,
		TransmissionID: &c.Automatic.ID, FuelTypeID: &c.Hybrid.ID, BodyStyleID: &c.Sedan.ID,
		ModelYear: 2019, Price: 15000, Mileage: 60000, Approved: true, CreatedAt: now.Add(-3 * time.Hour),
	})
	f.corolla = dbtest.SeedListing(t, db, domain.Listing{
		Title: "Corolla", Description: "Daily driver",
		SellerID: seller.UserID, BrandID: c.Toyota.ID, ModelID: c.Corolla.ID, GovernorateID: &c.Irbid.ID,
		TransmissionID: &c.Manual.ID, FuelTypeID: &c.Petrol.ID, BodyStyleID: &c.Sedan.ID,
		ModelYear: 2015, Price: 9000, Mileage: 120000, Approved: true, CreatedAt: now.Add(-2 * time.Hour),
	})
	f.kia = dbtest.SeedListing(t, db, domain.Listing{
		Title: "Sportage", Description: "Family SUV",
		SellerID: seller.UserID, BrandID: c.Kia.ID, ModelID: c.Sportage.ID, GovernorateID: &c.Amman.ID,
		TransmissionID: &c.Automatic.ID, FuelTypeID: &c.Petrol.ID, BodyStyleID: &c.SUV.ID,
		ModelYear: 2021, Price: 21000, Mileage: 30000, Approved: true, CreatedAt: now.Add(-1 * time.Hour),
	})
	// never visible publicly
	dbtest.SeedListing(t, db, domain.Listing{Title: "Pending Camry", SellerID: seller.UserID, BrandID: c.Toyota.ID, ModelID: c.Camry.ID, ModelYear: 2020, Price: 14000})
	dbtest.SeedListing(t, db, domain.Listing{Title: "Sold Camry", SellerID: seller.UserID, BrandID: c.Toyota.ID, ModelID: c.Camry.ID, ModelYear: 2020, Price: 14000, Approved: true, Sold: true})
	dbtest.SeedListing(t, db, domain.Listing{Title: "Archived Camry", SellerID: seller.UserID, BrandID: c.Toyota.ID, ModelID: c.Camry.ID, ModelYear: 2020, Price: 14000, Approved: true, Archived: true})
	dbtest.SeedListing(t, db, domain.Listing{Title: "Inactive seller Camry", SellerID: inactive.UserID, BrandID: c.Toyota.ID, ModelID: c.Camry.ID, ModelYear: 2020, Price: 14000, Approved: true})
	return f
}

func (f fixture) public(t *testing.T, filter listingfilter.Filter, req listingfilter.PageRequest) domain.Page[domain.Listing] {
	t.Helper()
	page, err := f.repo.Search(context.Background(), listingfilter.Combine(listingfilter.PublicVisibility(), listingfilter.Build(filter)), req)
	require.NoError(t, err)
	return page
}

func ids(page domain.Page[domain.Listing]) []uint {
	out := make([]uint, 0, len(page.Items))
	for _, l := range page.Items {
		out = append(out, l.ID)
	}
	return out
}

func TestSearch_PublicVisibility(t *testing.T) {
	f := setup(t)
	page := f.public(t, listingfilter.Filter{}, listingfilter.PageRequest{Size: 10, Sort: listingfilter.FieldCreatedAt, Desc: true})
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, []uint{f.kia.ID, f.corolla.ID, f.camry.ID}, ids(page))
}

func TestSearch_AdminSeesEverything(t *testing.T) {
	f := setup(t)
	page, err := f.repo.Search(context.Background(), listingfilter.Build(listingfilter.Filter{}), listingfilter.PageRequest{Size: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
}

func TestSearch_ScenarioBrandAndPrice(t *testing.T) {
	f := setup(t)
	page := f.public(t, listingfilter.Filter{Brand: "Toyota", MinPrice: ptr(10000.0), MaxPrice: ptr(20000.0)}, listingfilter.PageRequest{Size: 10})
	assert.Equal(t, []uint{f.camry.ID}, ids(page))
}

func TestSearch_ScenarioSearchQuery(t *testing.T) {
	f := setup(t)
	for _, q := range []string{"camry", "CAMRY", "كامري"} {
		page := f.public(t, listingfilter.Filter{SearchQuery: q}, listingfilter.PageRequest{Size: 10})
		assert.Equal(t, []uint{f.camry.ID}, ids(page), q)
	}

	page := f.public(t, listingfilter.Filter{SearchQuery: "amman"}, listingfilter.PageRequest{Size: 10, Sort: listingfilter.FieldPrice})
	assert.Equal(t, []uint{f.camry.ID, f.kia.ID}, ids(page))
}

func TestSearch_CategoricalAndRanges(t *testing.T) {
	f := setup(t)
	c := f.catalog

	page := f.public(t, listingfilter.Filter{TransmissionIDs: []uint{c.Automatic.ID}}, listingfilter.PageRequest{Size: 10, Sort: listingfilter.FieldYear})
	assert.Equal(t, []uint{f.camry.ID, f.kia.ID}, ids(page))

	page = f.public(t, listingfilter.Filter{MaxMileage: ptr(60000), Location: "amm"}, listingfilter.PageRequest{Size: 10, Sort: listingfilter.FieldMileage})
	assert.Equal(t, []uint{f.kia.ID, f.camry.ID}, ids(page))

	page = f.public(t, listingfilter.Filter{MinYear: ptr(2022), MaxYear: ptr(2010)}, listingfilter.PageRequest{Size: 10})
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestSearch_Pagination(t *testing.T) {
	f := setup(t)
	first := f.public(t, listingfilter.Filter{}, listingfilter.PageRequest{Page: 0, Size: 2, Sort: listingfilter.FieldPrice})
	second := f.public(t, listingfilter.Filter{}, listingfilter.PageRequest{Page: 1, Size: 2, Sort: listingfilter.FieldPrice})

	assert.Equal(t, []uint{f.corolla.ID, f.camry.ID}, ids(first))
	assert.Equal(t, []uint{f.kia.ID}, ids(second))
	assert.Equal(t, int64(3), second.Total)
	assert.Equal(t, 2, second.TotalPages)
}

func TestSearch_PreloadsDetails(t *testing.T) {
	f := setup(t)
	page := f.public(t, listingfilter.Filter{Model: "sportage"}, listingfilter.PageRequest{Size: 10})
	require.Len(t, page.Items, 1)
	l := page.Items[0]
	require.NotNil(t, l.Brand)
	assert.Equal(t, "Kia", l.Brand.NameEn)
	require.NotNil(t, l.Seller)
	assert.Equal(t, "dealer@cars.jo", l.Seller.Email)
	require.NotNil(t, l.Governorate)
	assert.Equal(t, "Amman", l.Governorate.NameEn)
}

func TestSearch_UnknownField(t *testing.T) {
	f := setup(t)
	_, err := f.repo.Search(context.Background(), listingfilter.Set{
		listingfilter.Predicate{Field: "seller.password", Op: listingfilter.OpEq, Value: "x"},
	}, listingfilter.PageRequest{})
	assert.ErrorIs(t, err, database.ErrUnsupportedCondition)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	f := setup(t)
	runner := database.TxRunner{DB: f.db}
	err := runner.Run(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Listing{}).Where("id = ?", f.camry.ID).Update("title", "changed").Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var l domain.Listing
	require.NoError(t, f.db.First(&l, f.camry.ID).Error)
	assert.Equal(t, "Toyota Camry 2019 hybrid", l.Title)
}
