package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shreya9code/ewastetrack/internal/model"
)

// serialAttempts bounds retries when a generated serial collides.
const serialAttempts = 5

const itemColumns = `id, serial, donor_id, category, brand, condition, weight_kg,
        pickup_address, classification, estimated_value, status,
        vendor_accepted_by, vendor_accepted_at, vendor_accepted_notes,
        in_transit_by, in_transit_at, in_transit_notes,
        completed_by, completed_at, completed_notes,
        created_at, updated_at`

// stageColumns maps an audit stage to its column prefix.
var stageColumns = map[model.Stage]string{
	model.StageAccepted:  "vendor_accepted",
	model.StageInTransit: "in_transit",
	model.StageCompleted: "completed",
}

// NewSerial returns a fresh human-facing serial such as "EW-3F9A2C01D4".
func NewSerial() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "EW-" + strings.ToUpper(raw[:10])
}

// CreateItem creates a new item in the waiting-for-pickup state. If serial is
// empty a unique one is generated.
func CreateItem(ctx context.Context, db *sql.DB, donorID, serial string, d model.ItemDetails) (*model.EwasteItem, error) {
	if donorID == "" {
		return nil, fmt.Errorf("creating item: donor id required")
	}

	generated := serial == ""
	for attempt := 0; attempt < serialAttempts; attempt++ {
		if generated {
			serial = NewSerial()
		}

		id := uuid.NewString()
		now := time.Now().UTC()
		_, err := db.ExecContext(ctx,
			`INSERT INTO ewaste_items (id, serial, donor_id, category, brand, condition, weight_kg,
			        pickup_address, classification, estimated_value, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, serial, donorID, d.Category, d.Brand, d.Condition, d.WeightKg,
			d.PickupAddress, d.Classification, d.EstimatedValue, model.StatusWaitingForPickup, now, now,
		)
		if isUniqueViolation(err, "ewaste_items.serial") {
			if generated {
				continue
			}
			return nil, fmt.Errorf("creating item: %w", ErrDuplicateSerial)
		}
		if err != nil {
			return nil, fmt.Errorf("creating item: %w", err)
		}

		return GetItem(ctx, db, id)
	}

	return nil, fmt.Errorf("creating item: no free serial after %d attempts: %w", serialAttempts, ErrDuplicateSerial)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.EwasteItem, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM ewaste_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemBySerial returns the item with exactly the given serial.
func GetItemBySerial(ctx context.Context, db *sql.DB, serial string) (*model.EwasteItem, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM ewaste_items WHERE serial = ?`, serial)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item by serial: %w", err)
	}
	return item, nil
}

// ListItems returns all items, newest first, optionally filtered by status.
func ListItems(ctx context.Context, db *sql.DB, status model.Status) ([]model.EwasteItem, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM ewaste_items WHERE status = ? ORDER BY created_at DESC, id`, status,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM ewaste_items ORDER BY created_at DESC, id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListItemsByDonor returns the items whose donor id is byte-equal to donorID.
// No case folding or trimming is applied.
func ListItemsByDonor(ctx context.Context, db *sql.DB, donorID string) ([]model.EwasteItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM ewaste_items WHERE donor_id = ? ORDER BY created_at DESC, id`, donorID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items by donor: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// AdvanceItem moves an item from one status to the next and records the
// stage audit in a single conditional update. It reports false, without
// error, when the item is no longer in the expected status or the stage
// audit was already written.
func AdvanceItem(ctx context.Context, db *sql.DB, id string, from, to model.Status, stage model.Stage, a model.Audit) (bool, error) {
	prefix, ok := stageColumns[stage]
	if !ok {
		return false, fmt.Errorf("advancing item: unknown stage %q", stage)
	}
	if !from.Before(to) {
		return false, fmt.Errorf("advancing item: %q is not before %q", from, to)
	}

	query := fmt.Sprintf(
		`UPDATE ewaste_items
		 SET status = ?, %[1]s_by = ?, %[1]s_at = ?, %[1]s_notes = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND %[1]s_by IS NULL`, prefix)
	result, err := db.ExecContext(ctx, query, to, a.By, a.At, a.Notes, updatedAt(a), id, from)
	if err != nil {
		return false, fmt.Errorf("advancing item: %w", err)
	}
	return applied(result)
}

// RecordAcceptance writes the vendor acceptance audit once, while the item is
// still waiting for pickup. The status is not changed.
func RecordAcceptance(ctx context.Context, db *sql.DB, id string, a model.Audit) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE ewaste_items
		 SET vendor_accepted_by = ?, vendor_accepted_at = ?, vendor_accepted_notes = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND vendor_accepted_by IS NULL`,
		a.By, a.At, a.Notes, updatedAt(a), id, model.StatusWaitingForPickup,
	)
	if err != nil {
		return false, fmt.Errorf("recording acceptance: %w", err)
	}
	return applied(result)
}

// ForceItemStatus sets an item's status directly, bypassing the credential
// protocol. The status still only moves forward: the update applies only when
// the current status is strictly before target. Stage audit columns that are
// already set are left untouched.
func ForceItemStatus(ctx context.Context, db *sql.DB, id string, target model.Status, stage model.Stage, a model.Audit) (bool, error) {
	behind := model.StatusesBefore(target)
	if len(behind) == 0 {
		return false, nil
	}

	set := `status = ?, updated_at = ?`
	args := []any{target, updatedAt(a)}
	if stage != model.StageNone {
		prefix, ok := stageColumns[stage]
		if !ok {
			return false, fmt.Errorf("forcing item status: unknown stage %q", stage)
		}
		set += fmt.Sprintf(`, %[1]s_by = COALESCE(%[1]s_by, ?), %[1]s_at = COALESCE(%[1]s_at, ?), %[1]s_notes = COALESCE(%[1]s_notes, ?)`, prefix)
		args = append(args, a.By, a.At, a.Notes)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(behind)), ", ")
	args = append(args, id)
	for _, s := range behind {
		args = append(args, s)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE ewaste_items SET `+set+` WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("forcing item status: %w", err)
	}
	return applied(result)
}

// UpdateItemDetails replaces the descriptive attributes of an item that has
// not been picked up yet.
func UpdateItemDetails(ctx context.Context, db *sql.DB, id string, d model.ItemDetails) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE ewaste_items
		 SET category = ?, brand = ?, condition = ?, weight_kg = ?, pickup_address = ?,
		     classification = ?, estimated_value = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		d.Category, d.Brand, d.Condition, d.WeightKg, d.PickupAddress,
		d.Classification, d.EstimatedValue, time.Now().UTC(), id, model.StatusWaitingForPickup,
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	return applied(result)
}

// updatedAt stamps a mutation with the audit time when there is one, so the
// stage timestamp and updated_at agree.
func updatedAt(a model.Audit) time.Time {
	if a.At != nil {
		return a.At.UTC()
	}
	return time.Now().UTC()
}

func applied(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.EwasteItem, error) {
	item := &model.EwasteItem{}
	var acceptedBy, acceptedNotes, transitBy, transitNotes, completedBy, completedNotes sql.NullString
	err := row.Scan(&item.ID, &item.Serial, &item.DonorID, &item.Category, &item.Brand, &item.Condition,
		&item.WeightKg, &item.PickupAddress, &item.Classification, &item.EstimatedValue, &item.Status,
		&acceptedBy, &item.VendorAcceptedAt, &acceptedNotes,
		&transitBy, &item.InTransitAt, &transitNotes,
		&completedBy, &item.CompletedAt, &completedNotes,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.VendorAcceptedBy = acceptedBy.String
	item.VendorAcceptedNotes = acceptedNotes.String
	item.InTransitBy = transitBy.String
	item.InTransitNotes = transitNotes.String
	item.CompletedBy = completedBy.String
	item.CompletedNotes = completedNotes.String
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.EwasteItem, error) {
	var items []model.EwasteItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
