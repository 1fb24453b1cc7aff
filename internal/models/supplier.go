package models

type Supplier struct {
	UUIDModel
	CompanyName   string  `gorm:"size:255;not null;index"`
	ContactPerson *string `gorm:"size:255"`
	Email         *string `gorm:"size:255"`
	Phone         *string `gorm:"size:50"`
	Address       *string `gorm:"type:text"`
	TaxNumber     *string `gorm:"size:50"`
	IsActive      bool    `gorm:"not null;default:true"`
}
