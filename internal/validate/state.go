package validate

import "github.com/supplychain/ledgerd/internal/ledger"

// StateSource resolves the current world-state row for a shipment,
// preferring an in-flight overlay over the committed store when one is
// present. Implementations must never themselves consult the network;
// they answer from either the committed store or an in-memory overlay.
type StateSource interface {
	GetShipment(id string) (sh *ledger.Shipment, ok bool, err error)
	GetParticipantByPublicKey(publicKey string) (p *ledger.Participant, ok bool, err error)
}

// shipmentStore is the subset of *store.Store that StoreState needs,
// avoiding an import cycle between internal/validate and internal/store.
type shipmentStore interface {
	GetShipment(id string) (*ledger.Shipment, error)
	GetParticipantByPublicKey(publicKey string) (*ledger.Participant, error)
}

// notFoundChecker reports whether a store error means "row does not
// exist" (store.ErrNotFound) without importing internal/store directly;
// callers pass one in via NewStoreState.
type notFoundChecker func(error) bool

// StoreState is a StateSource backed directly by the committed store.
type StoreState struct {
	store     shipmentStore
	isNotFound notFoundChecker
}

// NewStoreState builds a StateSource over the committed store. isNotFound
// must report whether an error returned by the store's lookups means "row
// does not exist" (as opposed to a real I/O failure).
func NewStoreState(store shipmentStore, isNotFound notFoundChecker) *StoreState {
	return &StoreState{store: store, isNotFound: isNotFound}
}

func (s *StoreState) GetShipment(id string) (*ledger.Shipment, bool, error) {
	sh, err := s.store.GetShipment(id)
	if err != nil {
		if s.isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return sh, true, nil
}

func (s *StoreState) GetParticipantByPublicKey(publicKey string) (*ledger.Participant, bool, error) {
	p, err := s.store.GetParticipantByPublicKey(publicKey)
	if err != nil {
		if s.isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

// OverlayState layers an in-memory map of intra-block shipment effects
// over a base StateSource, so a block may legally contain an EXTRACT
// followed by a SHIP of the same new shipment. Participants are never
// mutated intra-block by anything other than a vote's commit effect,
// which doesn't change contract pass/fail for later transactions in the
// same block, so participant lookups fall straight through to the base.
type OverlayState struct {
	base      StateSource
	shipments map[string]*ledger.Shipment
}

// NewOverlayState wraps base with an empty intra-block overlay.
func NewOverlayState(base StateSource) *OverlayState {
	return &OverlayState{base: base, shipments: make(map[string]*ledger.Shipment)}
}

func (o *OverlayState) GetShipment(id string) (*ledger.Shipment, bool, error) {
	if sh, ok := o.shipments[id]; ok {
		return sh, true, nil
	}
	return o.base.GetShipment(id)
}

func (o *OverlayState) GetParticipantByPublicKey(publicKey string) (*ledger.Participant, bool, error) {
	return o.base.GetParticipantByPublicKey(publicKey)
}

// Apply records tx's §4.5 semantic effect in the overlay so that later
// transactions in the same block see it via GetShipment.
func (o *OverlayState) Apply(tx *ledger.Transaction) {
	switch {
	case tx.Action == ledger.ActionVote:
		return

	case tx.Action.IsCreate():
		goodID := ""
		if tx.GoodID != nil {
			goodID = *tx.GoodID
		}
		quantity := 0.0
		if tx.Quantity != nil {
			quantity = *tx.Quantity
		}
		o.shipments[tx.ShipmentID] = &ledger.Shipment{
			ShipmentID:      tx.ShipmentID,
			GoodID:          goodID,
			Quantity:        quantity,
			CurrentOwner:    tx.Receiver,
			CurrentLocation: tx.Location,
			LastAction:      tx.Action,
			LastUpdated:     tx.Timestamp,
			IsActive:        true,
		}

	case tx.Action.IsTerminal():
		if sh, ok := o.shipments[tx.ShipmentID]; ok {
			updated := *sh
			updated.IsActive = false
			updated.LastAction = tx.Action
			updated.LastUpdated = tx.Timestamp
			o.shipments[tx.ShipmentID] = &updated
			return
		}
		if sh, ok, _ := o.base.GetShipment(tx.ShipmentID); ok {
			updated := *sh
			updated.IsActive = false
			updated.LastAction = tx.Action
			updated.LastUpdated = tx.Timestamp
			o.shipments[tx.ShipmentID] = &updated
		}

	default: // SHIPPED, RECEIVED, SOLD
		var base *ledger.Shipment
		if sh, ok := o.shipments[tx.ShipmentID]; ok {
			base = sh
		} else if sh, ok, _ := o.base.GetShipment(tx.ShipmentID); ok {
			base = sh
		} else {
			return
		}
		updated := *base
		updated.CurrentOwner = tx.Receiver
		updated.CurrentLocation = tx.Location
		updated.LastAction = tx.Action
		updated.LastUpdated = tx.Timestamp
		if tx.Quantity != nil {
			updated.Quantity = *tx.Quantity
		}
		o.shipments[tx.ShipmentID] = &updated
	}
}
