package jobs

import (
	"context"
	"errors"
	"fmt"

	"wms-backend/internal/clock"
	"wms-backend/internal/inventory"
	"wms-backend/internal/notify"
	"wms-backend/internal/reports"
	"wms-backend/internal/reservation"

	"gorm.io/gorm"
)

const (
	CleanupExpiredReservations = "cleanup_expired_reservations"
	CheckExpiryWarnings        = "check_expiry_warnings"
	SendExpiryAlerts           = "send_expiry_alerts"
	SnapshotOccupancy          = "snapshot_occupancy"
)

// Default is the production job table.
func Default() []Definition {
	return []Definition{
		{Name: CleanupExpiredReservations, Schedule: "0 * * * *", Run: cleanupExpiredReservations},
		{Name: CheckExpiryWarnings, Schedule: "0 6 * * *", Run: checkExpiryWarnings},
		{Name: SendExpiryAlerts, Schedule: "0 7 * * *", Run: sendExpiryAlerts},
		{Name: SnapshotOccupancy, Schedule: "55 23 * * *", Run: snapshotOccupancy},
	}
}

func intPtr(v int) *int { return &v }

func cleanupExpiredReservations(ctx context.Context, d *Deps) (Outcome, error) {
	var n int
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = reservation.CleanupExpired(tx, clock.Now())
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Result: map[string]any{
			"expired_reservations_count": n,
			"message":                    fmt.Sprintf("%d db lejárt foglalás feloldva", n),
		},
		ItemsProcessed: intPtr(n),
		ItemsAffected:  intPtr(n),
	}, nil
}

func checkExpiryWarnings(ctx context.Context, d *Deps) (Outcome, error) {
	db := d.DB.WithContext(ctx)
	warnings, err := inventory.FindExpiryWarnings(db, d.Config.Expiry.WarningDays, nil)
	if err != nil {
		return Outcome{}, err
	}
	expired, err := inventory.FindExpired(db, nil)
	if err != nil {
		return Outcome{}, err
	}
	s := warnings.Summary
	return Outcome{
		Result: map[string]any{
			"warning_counts": map[string]int{
				"critical": s.Critical,
				"high":     s.High,
				"medium":   s.Medium,
				"low":      s.Low,
				"total":    s.Total,
			},
			"expired_count": len(expired),
			"message":       fmt.Sprintf("Figyelmeztetések: %d, Lejárt: %d", s.Total, len(expired)),
		},
		ItemsProcessed: intPtr(s.Total + len(expired)),
		ItemsAffected:  intPtr(s.Critical + s.High),
	}, nil
}

func sendExpiryAlerts(ctx context.Context, d *Deps) (Outcome, error) {
	if d.Mailer == nil || !d.Config.Email.Enabled {
		return Outcome{Result: map[string]any{
			"emails_sent": 0,
			"message":     "Email küldés le van tiltva",
			"skipped":     true,
		}}, nil
	}
	warnings, err := inventory.FindExpiryWarnings(d.DB.WithContext(ctx), d.Config.Expiry.WarningDays, nil)
	if err != nil {
		return Outcome{}, err
	}
	alerted := warnings.Summary.Critical + warnings.Summary.High

	sent, err := notify.SendExpiryAlert(ctx, d.Mailer, d.Config.Email.AlertRecipients, warnings.Items)
	if errors.Is(err, notify.ErrDisabled) {
		return Outcome{Result: map[string]any{"emails_sent": 0, "skipped": true}}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	emails := 0
	if sent {
		emails = 1
	}
	return Outcome{
		Result: map[string]any{
			"emails_sent":    emails,
			"recipients":     len(d.Config.Email.AlertRecipients),
			"critical_count": warnings.Summary.Critical,
			"high_count":     warnings.Summary.High,
			"message":        fmt.Sprintf("%d kritikus és %d magas prioritású tétel", warnings.Summary.Critical, warnings.Summary.High),
		},
		ItemsProcessed: intPtr(len(warnings.Items)),
		ItemsAffected:  intPtr(alerted),
	}, nil
}

func snapshotOccupancy(ctx context.Context, d *Deps) (Outcome, error) {
	n, err := reports.SnapshotOccupancy(d.DB.WithContext(ctx), clock.Today())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Result: map[string]any{
			"warehouses": n,
			"date":       clock.FormatDate(clock.Today()),
		},
		ItemsProcessed: intPtr(n),
		ItemsAffected:  intPtr(n),
	}, nil
}
