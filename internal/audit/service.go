package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wms-backend/internal/database"
	"wms-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EntityWarehouse = "warehouse"
	EntityProduct   = "product"
	EntitySupplier  = "supplier"
	EntityBin       = "bin"
	EntityUser      = "user"
)

var (
	ErrAlreadyUndone   = errors.New("log already undone")
	ErrNotUndoable     = errors.New("action cannot be undone")
	ErrUnknownEntity   = errors.New("unknown entity type")
	ErrMissingSnapshot = errors.New("log has no snapshot to restore")
)

type LogOptions struct {
	UserID      uuid.UUID
	UserName    string
	EntityType  string
	EntityID    uuid.UUID
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog stores an audit row on db, which may be a running transaction.
// Nil snapshots are stored as JSON null since the columns are jsonb.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	if db == nil {
		db = database.DB
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// UndoLog reverts the change recorded by log logID and writes an undo row.
// Create is undone by deleting the entity, update by restoring the before
// snapshot, delete by recreating the entity from the before snapshot.
func UndoLog(logID, userID uuid.UUID, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			return err
		}
		if log.IsUndone {
			return ErrAlreadyUndone
		}

		var err error
		switch log.Action {
		case models.AuditActionCreate:
			err = deleteEntity(tx, log.EntityType, log.EntityID)
		case models.AuditActionUpdate:
			err = restoreEntity(tx, log.EntityType, log.BeforeData)
		case models.AuditActionDelete:
			err = recreateEntity(tx, log.EntityType, log.BeforeData)
		default:
			err = ErrNotUndoable
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&log).Updates(map[string]any{
			"is_undone": true,
			"undone_by": userID,
			"undone_at": now,
		}).Error; err != nil {
			return fmt.Errorf("mark log undone: %w", err)
		}

		undo := models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Visszavonva: " + log.Description,
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("write undo log: %w", err)
		}
		return nil
	})
}

func deleteEntity(tx *gorm.DB, entityType string, id uuid.UUID) error {
	switch entityType {
	case EntityWarehouse:
		return tx.Delete(&models.Warehouse{}, "id = ?", id).Error
	case EntityProduct:
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	case EntitySupplier:
		return tx.Delete(&models.Supplier{}, "id = ?", id).Error
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType, data string) error {
	switch entityType {
	case EntityWarehouse:
		return restore[models.Warehouse](tx, data)
	case EntityProduct:
		return restore[models.Product](tx, data)
	case EntitySupplier:
		return restore[models.Supplier](tx, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entityType)
	}
}

func recreateEntity(tx *gorm.DB, entityType, data string) error {
	switch entityType {
	case EntityWarehouse:
		return recreate[models.Warehouse](tx, data)
	case EntityProduct:
		return recreate[models.Product](tx, data)
	case EntitySupplier:
		return recreate[models.Supplier](tx, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entityType)
	}
}

func decode[T any](data string) (*T, error) {
	if data == "" || data == "null" {
		return nil, ErrMissingSnapshot
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &v, nil
}

// restore writes every column of the snapshot back, including zero values.
func restore[T any](tx *gorm.DB, data string) error {
	v, err := decode[T](data)
	if err != nil {
		return err
	}
	return tx.Select("*").Omit("created_at", clause.Associations).Save(v).Error
}

// recreate inserts the snapshot under its original id. The follow-up save
// rewrites columns whose zero value the insert replaced with a default.
func recreate[T any](tx *gorm.DB, data string) error {
	v, err := decode[T](data)
	if err != nil {
		return err
	}
	if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
		return err
	}
	return tx.Select("*").Omit("created_at", clause.Associations).Save(v).Error
}
