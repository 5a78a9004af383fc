package index

import (
	"time"

	"github.com/uptrace/bun"
)

// Translation is one indexed translation value: the current text for a
// (type, identifier, locale, key) tuple. History is not kept here; the bundle
// store owns superseded versions.
type Translation struct {
	bun.BaseModel `bun:"table:profscode_translates,alias:pt"`

	ID               int64     `bun:"id,pk,autoincrement"                           json:"id"`
	TranslatableID   string    `bun:"translatable_id,notnull"                       json:"translatable_id"`
	TranslatableType string    `bun:"translatable_type,notnull"                     json:"translatable_type"`
	Locale           string    `bun:"locale,notnull"                                json:"locale"`
	Key              string    `bun:"key,notnull"                                   json:"key"`
	Value            *string   `bun:"value"                                         json:"value,omitempty"`
	CreatedAt        time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

func recordToModel(record Record) Translation {
	value := record.Value
	return Translation{
		TranslatableID:   record.EntityID,
		TranslatableType: record.EntityType,
		Locale:           record.Locale,
		Key:              record.Key,
		Value:            &value,
	}
}

func modelToRecord(model *Translation) Record {
	record := Record{
		EntityType: model.TranslatableType,
		EntityID:   model.TranslatableID,
		Locale:     model.Locale,
		Key:        model.Key,
	}
	if model.Value != nil {
		record.Value = *model.Value
	}
	return record
}
