package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type TemplateField struct {
	Name     string `json:"name" validate:"required,max=50"`
	Label    string `json:"label" validate:"required,max=100"`
	Required bool   `json:"required"`
	Order    int    `json:"order" validate:"gte=1"`
}

// BinTemplate describes how bin codes of a warehouse are composed,
// e.g. fields sor/oszlop/szint with code_format "{sor}-{oszlop}-{szint}".
type BinTemplate struct {
	Fields        []TemplateField `json:"fields" validate:"required,min=1,dive"`
	CodeFormat    string          `json:"code_format" validate:"required"`
	Separator     string          `json:"separator"`
	AutoUppercase bool            `json:"auto_uppercase"`
	ZeroPadding   bool            `json:"zero_padding"`
}

func (t BinTemplate) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *BinTemplate) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*t = BinTemplate{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	}
	return errors.New("unsupported bin template column type")
}

type Warehouse struct {
	UUIDModel
	Name                 string      `gorm:"size:255;uniqueIndex;not null"`
	Location             *string     `gorm:"size:500"`
	Description          *string     `gorm:"type:text"`
	BinStructureTemplate BinTemplate `gorm:"type:jsonb;not null"`
	IsActive             bool        `gorm:"not null;default:true"`
	Bins                 []Bin
}
