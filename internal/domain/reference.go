package domain

// Reference data is bilingual: English and Arabic display names.

type Brand struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	NameEn  string `gorm:"column:name_en;not null;uniqueIndex" json:"name_en"`
	NameAr  string `gorm:"column:name_ar;not null" json:"name_ar"`
	LogoURL string `gorm:"column:logo_url" json:"logo_url,omitempty"`
}

func (Brand) TableName() string { return "brands" }

type CarModel struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	BrandID uint   `gorm:"column:brand_id;not null;index" json:"brand_id"`
	NameEn  string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr  string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (CarModel) TableName() string { return "car_models" }

type Trim struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	ModelID uint   `gorm:"column:model_id;not null;index" json:"model_id"`
	NameEn  string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr  string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (Trim) TableName() string { return "trims" }

type BodyStyle struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	NameEn string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (BodyStyle) TableName() string { return "body_styles" }

type Transmission struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	NameEn string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (Transmission) TableName() string { return "transmissions" }

type FuelType struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	NameEn string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (FuelType) TableName() string { return "fuel_types" }

// SellerType distinguishes private sellers from dealerships.
type SellerType struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	NameEn string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (SellerType) TableName() string { return "seller_types" }

type Country struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Code   string `gorm:"column:code;type:char(2);not null;uniqueIndex" json:"code"`
	NameEn string `gorm:"column:name_en;not null" json:"name_en"`
	NameAr string `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (Country) TableName() string { return "countries" }

type Governorate struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	CountryID uint     `gorm:"column:country_id;not null;index" json:"country_id"`
	Country   *Country `json:"country,omitempty"`
	NameEn    string   `gorm:"column:name_en;not null" json:"name_en"`
	NameAr    string   `gorm:"column:name_ar;not null" json:"name_ar"`
}

func (Governorate) TableName() string { return "governorates" }
