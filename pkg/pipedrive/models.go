package pipedrive

import jsoniter "github.com/json-iterator/go"

// Decimal is an exact decimal amount as sent on the wire, e.g. "1500.50".
type Decimal = jsoniter.Number

// ContactInfo is one email address or phone number of a person.
type ContactInfo struct {
	Value   string `json:"value"`
	Primary *bool  `json:"primary,omitempty"`
	Label   string `json:"label,omitempty"`
}

// Person is a contact in Pipedrive. Unset fields are omitted from request
// bodies.
type Person struct {
	ID           *int           `json:"id,omitempty"`
	Name         string         `json:"name,omitempty"`
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	Emails       []ContactInfo  `json:"emails,omitempty"`
	Phones       []ContactInfo  `json:"phones,omitempty"`
	OrgID        *int           `json:"org_id,omitempty"`
	OwnerID      *int           `json:"owner_id,omitempty"`
	VisibleTo    *int           `json:"visible_to,omitempty"`
	AddTime      string         `json:"add_time,omitempty"`
	UpdateTime   string         `json:"update_time,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// Deal is a sales opportunity.
type Deal struct {
	ID                *int           `json:"id,omitempty"`
	Title             string         `json:"title,omitempty"`
	Value             Decimal        `json:"value,omitempty"`
	Currency          string         `json:"currency,omitempty"`
	UserID            *int           `json:"user_id,omitempty"`
	PersonID          *int           `json:"person_id,omitempty"`
	OrgID             *int           `json:"org_id,omitempty"`
	StageID           *int           `json:"stage_id,omitempty"`
	PipelineID        *int           `json:"pipeline_id,omitempty"`
	Status            string         `json:"status,omitempty"`
	Probability       *float64       `json:"probability,omitempty"`
	ExpectedCloseDate string         `json:"expected_close_date,omitempty"`
	LocalWonDate      string         `json:"local_won_date,omitempty"`
	LocalLostDate     string         `json:"local_lost_date,omitempty"`
	LocalCloseDate    string         `json:"local_close_date,omitempty"`
	Origin            string         `json:"origin,omitempty"`
	OriginID          string         `json:"origin_id,omitempty"`
	Channel           *int           `json:"channel,omitempty"`
	ChannelID         string         `json:"channel_id,omitempty"`
	ACV               Decimal        `json:"acv,omitempty"`
	ARR               Decimal        `json:"arr,omitempty"`
	MRR               Decimal        `json:"mrr,omitempty"`
	CloseTime         string         `json:"close_time,omitempty"`
	WonTime           string         `json:"won_time,omitempty"`
	LostTime          string         `json:"lost_time,omitempty"`
	LostReason        string         `json:"lost_reason,omitempty"`
	VisibleTo         *int           `json:"visible_to,omitempty"`
	AddTime           string         `json:"add_time,omitempty"`
	UpdateTime        string         `json:"update_time,omitempty"`
	CustomFields      map[string]any `json:"custom_fields,omitempty"`
}

// Note is free text attached to a deal, person, organization or lead.
type Note struct {
	ID                       *int   `json:"id,omitempty"`
	Content                  string `json:"content,omitempty"`
	DealID                   *int   `json:"deal_id,omitempty"`
	PersonID                 *int   `json:"person_id,omitempty"`
	OrgID                    *int   `json:"org_id,omitempty"`
	LeadID                   string `json:"lead_id,omitempty"`
	UserID                   *int   `json:"user_id,omitempty"`
	AddTime                  string `json:"add_time,omitempty"`
	UpdateTime               string `json:"update_time,omitempty"`
	ActiveFlag               *bool  `json:"active_flag,omitempty"`
	PinnedToDealFlag         *bool  `json:"pinned_to_deal_flag,omitempty"`
	PinnedToPersonFlag       *bool  `json:"pinned_to_person_flag,omitempty"`
	PinnedToOrganizationFlag *bool  `json:"pinned_to_organization_flag,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
