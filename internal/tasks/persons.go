package tasks

import (
	"context"
	"strconv"

	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

// ContactParams is an email address or phone number in step parameters.
type ContactParams struct {
	Value   string `mapstructure:"value" validate:"required"`
	Primary *bool  `mapstructure:"primary"`
	Label   string `mapstructure:"label"`
}

// contactInfos applies the defaults: not primary, labelled "work".
func contactInfos(in []ContactParams) []pipedrive.ContactInfo {
	if in == nil {
		return nil
	}
	out := make([]pipedrive.ContactInfo, 0, len(in))
	for _, c := range in {
		info := pipedrive.ContactInfo{
			Value:   c.Value,
			Primary: pipedrive.Ptr(pipedrive.Deref(c.Primary)),
			Label:   c.Label,
		}
		if info.Label == "" {
			info.Label = "work"
		}
		out = append(out, info)
	}
	return out
}

type CreatePersonParams struct {
	Connection   `mapstructure:",squash"`
	Name         string          `mapstructure:"name" validate:"required"`
	OrgID        *int            `mapstructure:"orgId"`
	OwnerID      *int            `mapstructure:"ownerId"`
	Emails       []ContactParams `mapstructure:"emails" validate:"omitempty,dive"`
	Phones       []ContactParams `mapstructure:"phones" validate:"omitempty,dive"`
	VisibleTo    *int            `mapstructure:"visibleTo"`
	CustomFields map[string]any  `mapstructure:"customFields"`
}

type CreatePersonOutput struct {
	PersonID   int    `json:"personId"`
	AddTime    string `json:"addTime,omitempty"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// CreatePerson adds a contact.
var CreatePerson = newTask("pipedrive.persons.Create",
	"Create a new person (contact) in Pipedrive",
	paramsSchema([]string{"name"},
		prop{"name", `{"type": "string", "minLength": 1}`},
		prop{"orgId", optIntProp},
		prop{"ownerId", optIntProp},
		prop{"emails", contactsProp},
		prop{"phones", contactsProp},
		prop{"visibleTo", optIntProp},
		prop{"customFields", objectProp},
	),
	func(ctx context.Context, c *call, p *CreatePersonParams) (*CreatePersonOutput, error) {
		person := pipedrive.Person{
			Name:         p.Name,
			OrgID:        p.OrgID,
			OwnerID:      p.OwnerID,
			Emails:       contactInfos(p.Emails),
			Phones:       contactInfos(p.Phones),
			VisibleTo:    p.VisibleTo,
			CustomFields: p.CustomFields,
		}
		c.logger.Info().Str("name", p.Name).Msg("creating person")
		env, err := pipedrive.Post[pipedrive.Person](ctx, c.client, "/persons", person)
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "create person"); err != nil {
			return nil, err
		}
		id := pipedrive.Deref(env.Data.ID)
		c.logger.Info().Int("person_id", id).Msg("person created")
		return &CreatePersonOutput{
			PersonID:   id,
			AddTime:    env.Data.AddTime,
			UpdateTime: env.Data.UpdateTime,
		}, nil
	})

type GetPersonParams struct {
	Connection `mapstructure:",squash"`
	PersonID   int       `mapstructure:"personId" validate:"required,min=1"`
	FetchType  FetchType `mapstructure:"fetchType" validate:"omitempty,oneof=FETCH_ONE FETCH STORE"`
}

type GetPersonOutput struct {
	Person  *pipedrive.Person  `json:"person,omitempty"`
	Persons []pipedrive.Person `json:"persons,omitempty"`
	URI     string             `json:"uri,omitempty"`
	Count   int                `json:"count"`
}

// GetPerson fetches a contact by id and returns, lists or stores it
// depending on fetchType.
var GetPerson = newTask("pipedrive.persons.Get",
	"Retrieve a person from Pipedrive by id",
	paramsSchema([]string{"personId"},
		prop{"personId", idProp},
		prop{"fetchType", fetchTypeProp},
	),
	func(ctx context.Context, c *call, p *GetPersonParams) (*GetPersonOutput, error) {
		fetchType := p.FetchType.OrDefault()
		if fetchType == Store && c.rc.Storage == nil {
			return nil, pipedrive.ErrConfiguration.Msg("fetchType STORE needs a storage location")
		}

		c.logger.Info().Int("person_id", p.PersonID).Msg("fetching person")
		env, err := pipedrive.Get[pipedrive.Person](ctx, c.client, "/persons/"+strconv.Itoa(p.PersonID))
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "get person"); err != nil {
			return nil, err
		}
		person := env.Data

		switch fetchType {
		case Store:
			uri, count, err := c.rc.Storage.Put(ctx, "persons", []any{person})
			if err != nil {
				return nil, err
			}
			return &GetPersonOutput{URI: uri, Count: count}, nil
		case Fetch:
			return &GetPersonOutput{Persons: []pipedrive.Person{person}, Count: 1}, nil
		default:
			return &GetPersonOutput{Person: &person, Count: 1}, nil
		}
	})

type UpdatePersonParams struct {
	Connection   `mapstructure:",squash"`
	PersonID     int             `mapstructure:"personId" validate:"required,min=1"`
	Name         string          `mapstructure:"name"`
	OrgID        *int            `mapstructure:"orgId"`
	OwnerID      *int            `mapstructure:"ownerId"`
	Emails       []ContactParams `mapstructure:"emails" validate:"omitempty,dive"`
	Phones       []ContactParams `mapstructure:"phones" validate:"omitempty,dive"`
	VisibleTo    *int            `mapstructure:"visibleTo"`
	CustomFields map[string]any  `mapstructure:"customFields"`
}

type UpdatePersonOutput struct {
	PersonID   int    `json:"personId"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// UpdatePerson changes the given fields of a contact.
var UpdatePerson = newTask("pipedrive.persons.Update",
	"Update an existing person in Pipedrive",
	paramsSchema([]string{"personId"},
		prop{"personId", idProp},
		prop{"name", `{"type": "string", "minLength": 1}`},
		prop{"orgId", optIntProp},
		prop{"ownerId", optIntProp},
		prop{"emails", contactsProp},
		prop{"phones", contactsProp},
		prop{"visibleTo", optIntProp},
		prop{"customFields", objectProp},
	),
	func(ctx context.Context, c *call, p *UpdatePersonParams) (*UpdatePersonOutput, error) {
		person := pipedrive.Person{
			Name:         p.Name,
			OrgID:        p.OrgID,
			OwnerID:      p.OwnerID,
			Emails:       contactInfos(p.Emails),
			Phones:       contactInfos(p.Phones),
			VisibleTo:    p.VisibleTo,
			CustomFields: p.CustomFields,
		}
		if err := requireChanges(person); err != nil {
			return nil, err
		}
		c.logger.Info().Int("person_id", p.PersonID).Msg("updating person")
		env, err := pipedrive.Put[pipedrive.Person](ctx, c.client, "/persons/"+strconv.Itoa(p.PersonID), person)
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "update person"); err != nil {
			return nil, err
		}
		return &UpdatePersonOutput{
			PersonID:   pipedrive.Deref(env.Data.ID),
			UpdateTime: env.Data.UpdateTime,
		}, nil
	})
