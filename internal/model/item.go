package model

import "time"

// Status is the lifecycle position of an e-waste item.
type Status string

// Item statuses. The literal values are part of the wire format.
const (
	StatusWaitingForPickup Status = "waiting for pickup"
	StatusInTransit        Status = "in transit"
	StatusProcessing       Status = "processing"
	StatusDone             Status = "done"
)

// statusRank orders the statuses. Processing sits between in transit and done
// and is only reachable by an administrative status set.
var statusRank = map[Status]int{
	StatusWaitingForPickup: 0,
	StatusInTransit:        1,
	StatusProcessing:       2,
	StatusDone:             3,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the lifecycle order, or -1 if unknown.
func (s Status) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Before reports whether s comes strictly before other. Unknown statuses are
// never before anything.
func (s Status) Before(other Status) bool {
	return s.Valid() && other.Valid() && s.Rank() < other.Rank()
}

// Label is the human-facing form returned to clients ("In Transit").
func (s Status) Label() string {
	switch s {
	case StatusWaitingForPickup:
		return "Waiting For Pickup"
	case StatusInTransit:
		return "In Transit"
	case StatusProcessing:
		return "Processing"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// StatusesBefore returns every status strictly before s, in order.
func StatusesBefore(s Status) []Status {
	var out []Status
	for _, c := range []Status{StatusWaitingForPickup, StatusInTransit, StatusProcessing, StatusDone} {
		if c.Before(s) {
			out = append(out, c)
		}
	}
	return out
}

// Audit is the write-once record of who moved an item through one stage.
type Audit struct {
	By    string     `json:"by,omitempty"`
	At    *time.Time `json:"at,omitempty"`
	Notes string     `json:"notes,omitempty"`
}

// Recorded reports whether the stage has been written.
func (a Audit) Recorded() bool {
	return a.By != ""
}

// EwasteItem is a single reported e-waste unit.
type EwasteItem struct {
	ID             string  `json:"id"`
	Serial         string  `json:"serial"`
	DonorID        string  `json:"donorId"`
	Category       string  `json:"category,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	Condition      string  `json:"condition,omitempty"`
	WeightKg       float64 `json:"weightKg,omitempty"`
	PickupAddress  string  `json:"pickupAddress,omitempty"`
	Classification string  `json:"classification,omitempty"`
	EstimatedValue float64 `json:"estimatedValue,omitempty"`
	Status         Status  `json:"status"`

	VendorAcceptedBy    string     `json:"vendorAcceptedBy,omitempty"`
	VendorAcceptedAt    *time.Time `json:"vendorAcceptedAt,omitempty"`
	VendorAcceptedNotes string     `json:"vendorAcceptedNotes,omitempty"`
	InTransitBy         string     `json:"inTransitBy,omitempty"`
	InTransitAt         *time.Time `json:"inTransitAt,omitempty"`
	InTransitNotes      string     `json:"inTransitNotes,omitempty"`
	CompletedBy         string     `json:"completedBy,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	CompletedNotes      string     `json:"completedNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemDetails holds the descriptive attributes a donor supplies.
type ItemDetails struct {
	Category       string  `json:"category"`
	Brand          string  `json:"brand"`
	Condition      string  `json:"condition"`
	WeightKg       float64 `json:"weightKg"`
	PickupAddress  string  `json:"pickupAddress"`
	Classification string  `json:"classification"`
	EstimatedValue float64 `json:"estimatedValue"`
}

// Details returns the descriptive attributes of the item.
func (i *EwasteItem) Details() ItemDetails {
	return ItemDetails{
		Category:       i.Category,
		Brand:          i.Brand,
		Condition:      i.Condition,
		WeightKg:       i.WeightKg,
		PickupAddress:  i.PickupAddress,
		Classification: i.Classification,
		EstimatedValue: i.EstimatedValue,
	}
}

// InTransitAudit returns the pickup stage audit.
func (i *EwasteItem) InTransitAudit() Audit {
	return Audit{By: i.InTransitBy, At: i.InTransitAt, Notes: i.InTransitNotes}
}

// CompletedAudit returns the completion stage audit.
func (i *EwasteItem) CompletedAudit() Audit {
	return Audit{By: i.CompletedBy, At: i.CompletedAt, Notes: i.CompletedNotes}
}

// AcceptedAudit returns the vendor acceptance audit.
func (i *EwasteItem) AcceptedAudit() Audit {
	return Audit{By: i.VendorAcceptedBy, At: i.VendorAcceptedAt, Notes: i.VendorAcceptedNotes}
}

// Stage names the audit triple written alongside a status change.
type Stage string

// Audit stages.
const (
	StageNone      Stage = ""
	StageAccepted  Stage = "accepted"
	StageInTransit Stage = "in_transit"
	StageCompleted Stage = "completed"
)

// AuditFor returns the audit triple recorded for stage.
func (i *EwasteItem) AuditFor(stage Stage) Audit {
	switch stage {
	case StageAccepted:
		return i.AcceptedAudit()
	case StageInTransit:
		return i.InTransitAudit()
	case StageCompleted:
		return i.CompletedAudit()
	}
	return Audit{}
}

// SetAudit writes the audit triple for stage.
func (i *EwasteItem) SetAudit(stage Stage, a Audit) {
	switch stage {
	case StageAccepted:
		i.VendorAcceptedBy, i.VendorAcceptedAt, i.VendorAcceptedNotes = a.By, a.At, a.Notes
	case StageInTransit:
		i.InTransitBy, i.InTransitAt, i.InTransitNotes = a.By, a.At, a.Notes
	case StageCompleted:
		i.CompletedBy, i.CompletedAt, i.CompletedNotes = a.By, a.At, a.Notes
	}
}
