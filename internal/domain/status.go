package domain

// OrderStatus enumerates the batch lifecycle states an order moves through.
// The values keep the legacy Spanish identifiers stored in existing documents.
type OrderStatus string

const (
	// StatusPendingValidation holds cash-paid orders until the club confirms receipt.
	StatusPendingValidation OrderStatus = "pendiente_validacion"
	// StatusCollecting is the intake state of the currently-open batch.
	StatusCollecting OrderStatus = "recopilando"
	// StatusInProduction means the batch has been sent to the supplier.
	StatusInProduction OrderStatus = "en_produccion"
	// StatusDeliveredClub is terminal: merchandise handed over to the club.
	StatusDeliveredClub OrderStatus = "entregado_club"
)

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingValidation: {StatusCollecting},
	StatusCollecting:        {StatusInProduction},
	StatusInProduction:      {StatusDeliveredClub},
}

// CanTransition reports whether moving from current to target is allowed.
func CanTransition(current, target OrderStatus) bool {
	if current == target {
		return true
	}
	for _, next := range statusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDeliveredClub
}

// Valid reports whether s is a known lifecycle state.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingValidation, StatusCollecting, StatusInProduction, StatusDeliveredClub:
		return true
	}
	return false
}

var statusLabels = map[OrderStatus]string{
	StatusPendingValidation: "Pendiente de validación",
	StatusCollecting:        "Recopilando pedidos",
	StatusInProduction:      "En producción",
	StatusDeliveredClub:     "Entregado al club",
}

// VisibleStatus derives the human-readable label from the machine state. The
// label is never stored, so it cannot drift from the status field.
func VisibleStatus(s OrderStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// InitialStatus returns the state a newly created order starts in: cash-paid
// standard orders await validation, everything else goes straight to collecting.
func InitialStatus(payment PaymentMethod) OrderStatus {
	if payment == PaymentCash {
		return StatusPendingValidation
	}
	return StatusCollecting
}
