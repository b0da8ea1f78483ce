package store

import (
	"database/sql"
	"errors"

	"github.com/supplychain/ledgerd/internal/ledger"
)

// GetShipment looks up a shipment's current world-state row.
func (s *Store) GetShipment(shipmentID string) (*ledger.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT shipment_id, good_id, quantity, current_owner_pk, current_location,
		        last_action, last_updated_timestamp, is_active
		 FROM shipments WHERE shipment_id = ?`,
		shipmentID,
	)
	return scanShipment(row)
}

// ListShipments returns every shipment row ordered by id.
func (s *Store) ListShipments() ([]ledger.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT shipment_id, good_id, quantity, current_owner_pk, current_location,
		        last_action, last_updated_timestamp, is_active
		 FROM shipments ORDER BY shipment_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Shipment
	for rows.Next() {
		sh, err := scanShipmentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sh)
	}
	return out, rows.Err()
}

func scanShipment(row *sql.Row) (*ledger.Shipment, error) {
	var sh ledger.Shipment
	var active int
	err := row.Scan(&sh.ShipmentID, &sh.GoodID, &sh.Quantity, &sh.CurrentOwner, &sh.CurrentLocation,
		&sh.LastAction, &sh.LastUpdated, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sh.IsActive = active != 0
	return &sh, nil
}

func scanShipmentRows(rows *sql.Rows) (*ledger.Shipment, error) {
	var sh ledger.Shipment
	var active int
	err := rows.Scan(&sh.ShipmentID, &sh.GoodID, &sh.Quantity, &sh.CurrentOwner, &sh.CurrentLocation,
		&sh.LastAction, &sh.LastUpdated, &active)
	if err != nil {
		return nil, err
	}
	sh.IsActive = active != 0
	return &sh, nil
}

// createShipment inserts a new active shipment row within tx, for a create
// (EXTRACTED/MANUFACTURED) transaction.
func createShipment(tx *sql.Tx, sh *ledger.Shipment) error {
	_, err := tx.Exec(
		`INSERT INTO shipments (shipment_id, good_id, quantity, current_owner_pk, current_location,
		                        last_action, last_updated_timestamp, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		sh.ShipmentID, sh.GoodID, sh.Quantity, sh.CurrentOwner, sh.CurrentLocation,
		string(sh.LastAction), sh.LastUpdated,
	)
	return err
}

// transferShipment updates owner/location/quantity and bookkeeping fields
// within tx, for a SHIPPED/RECEIVED/SOLD transaction.
func transferShipment(tx *sql.Tx, shipmentID, newOwner, newLocation string, quantity *float64, action ledger.ActionType, ts float64) error {
	if quantity != nil {
		_, err := tx.Exec(
			`UPDATE shipments SET current_owner_pk = ?, current_location = ?, quantity = ?,
			                       last_action = ?, last_updated_timestamp = ?
			 WHERE shipment_id = ?`,
			newOwner, newLocation, *quantity, string(action), ts, shipmentID,
		)
		return err
	}
	_, err := tx.Exec(
		`UPDATE shipments SET current_owner_pk = ?, current_location = ?,
		                       last_action = ?, last_updated_timestamp = ?
		 WHERE shipment_id = ?`,
		newOwner, newLocation, string(action), ts, shipmentID,
	)
	return err
}

// deactivateShipment marks a shipment inactive within tx, for a
// DESTROYED/CONSUMED transaction.
func deactivateShipment(tx *sql.Tx, shipmentID string, action ledger.ActionType, ts float64) error {
	_, err := tx.Exec(
		`UPDATE shipments SET is_active = 0, last_action = ?, last_updated_timestamp = ?
		 WHERE shipment_id = ?`,
		string(action), ts, shipmentID,
	)
	return err
}
