package models

type Product struct {
	UUIDModel
	Name        string  `gorm:"size:255;not null;index"`
	SKU         *string `gorm:"column:sku;size:100;uniqueIndex"`
	Category    *string `gorm:"size:100;index"`
	DefaultUnit string  `gorm:"size:50;not null;default:db"`
	Description *string `gorm:"type:text"`
	IsActive    bool    `gorm:"not null;default:true"`
}
