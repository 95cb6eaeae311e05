package models

// Charger reservation status values.
const (
	ChargerAvailable = "AVAILABLE"
	ChargerBlocked   = "BLOCKED"
	ChargerBooked    = "BOOKED"
)

// Charger is a hosted charging resource offering a single slot.
// Chargers are never deleted; TotalEnergy is append-only telemetry.
type Charger struct {
	ChargerID         string  `json:"chargerId"`
	Connector         string  `json:"connector"`
	Address           string  `json:"address,omitempty"`
	Date              string  `json:"date"`
	StartTime         string  `json:"startTime"`
	SlotDurationHours float64 `json:"slotDurationHours"`
	Status            string  `json:"status"`
	TotalEnergy       float64 `json:"totalEnergy"`
}
