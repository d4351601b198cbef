package tasks

import (
	"context"
	"strconv"

	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

type CreateNoteParams struct {
	Connection               `mapstructure:",squash"`
	Content                  string `mapstructure:"content" validate:"required"`
	DealID                   *int   `mapstructure:"dealId" validate:"required_without_all=PersonID OrgID LeadID"`
	PersonID                 *int   `mapstructure:"personId"`
	OrgID                    *int   `mapstructure:"orgId"`
	LeadID                   string `mapstructure:"leadId"`
	PinnedToDealFlag         *bool  `mapstructure:"pinnedToDealFlag"`
	PinnedToPersonFlag       *bool  `mapstructure:"pinnedToPersonFlag"`
	PinnedToOrganizationFlag *bool  `mapstructure:"pinnedToOrganizationFlag"`
}

type CreateNoteOutput struct {
	NoteID   int    `json:"noteId"`
	Content  string `json:"content"`
	DealID   *int   `json:"dealId,omitempty"`
	PersonID *int   `json:"personId,omitempty"`
	OrgID    *int   `json:"orgId,omitempty"`
}

// CreateNote attaches a note to a deal, person, organization or lead.
var CreateNote = newTask("pipedrive.notes.Create",
	"Add a note to a deal, person, organization or lead in Pipedrive",
	paramsSchema([]string{"content"},
		prop{"content", `{"type": "string", "minLength": 1}`},
		prop{"dealId", optIntProp},
		prop{"personId", optIntProp},
		prop{"orgId", optIntProp},
		prop{"leadId", stringProp},
		prop{"pinnedToDealFlag", boolProp},
		prop{"pinnedToPersonFlag", boolProp},
		prop{"pinnedToOrganizationFlag", boolProp},
	),
	func(ctx context.Context, c *call, p *CreateNoteParams) (*CreateNoteOutput, error) {
		note := pipedrive.Note{
			Content:                  p.Content,
			DealID:                   p.DealID,
			PersonID:                 p.PersonID,
			OrgID:                    p.OrgID,
			LeadID:                   p.LeadID,
			PinnedToDealFlag:         p.PinnedToDealFlag,
			PinnedToPersonFlag:       p.PinnedToPersonFlag,
			PinnedToOrganizationFlag: p.PinnedToOrganizationFlag,
		}
		c.logger.Info().Msg("adding note")
		env, err := pipedrive.Post[pipedrive.Note](ctx, c.client, "/notes", note)
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "add note"); err != nil {
			return nil, err
		}
		created := env.Data
		c.logger.Info().Int("note_id", pipedrive.Deref(created.ID)).Msg("note created")
		return &CreateNoteOutput{
			NoteID:   pipedrive.Deref(created.ID),
			Content:  created.Content,
			DealID:   created.DealID,
			PersonID: created.PersonID,
			OrgID:    created.OrgID,
		}, nil
	})

type GetNoteParams struct {
	Connection `mapstructure:",squash"`
	NoteID     int `mapstructure:"noteId" validate:"required,min=1"`
}

type GetNoteOutput struct {
	Note pipedrive.Note `json:"note"`
}

// GetNote fetches a note by id.
var GetNote = newTask("pipedrive.notes.Get",
	"Retrieve a note from Pipedrive by id",
	paramsSchema([]string{"noteId"}, prop{"noteId", idProp}),
	func(ctx context.Context, c *call, p *GetNoteParams) (*GetNoteOutput, error) {
		env, err := pipedrive.Get[pipedrive.Note](ctx, c.client, "/notes/"+strconv.Itoa(p.NoteID))
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "get note"); err != nil {
			return nil, err
		}
		return &GetNoteOutput{Note: env.Data}, nil
	})

type UpdateNoteParams struct {
	Connection               `mapstructure:",squash"`
	NoteID                   int    `mapstructure:"noteId" validate:"required,min=1"`
	Content                  string `mapstructure:"content"`
	DealID                   *int   `mapstructure:"dealId"`
	PersonID                 *int   `mapstructure:"personId"`
	OrgID                    *int   `mapstructure:"orgId"`
	LeadID                   string `mapstructure:"leadId"`
	PinnedToDealFlag         *bool  `mapstructure:"pinnedToDealFlag"`
	PinnedToPersonFlag       *bool  `mapstructure:"pinnedToPersonFlag"`
	PinnedToOrganizationFlag *bool  `mapstructure:"pinnedToOrganizationFlag"`
}

type UpdateNoteOutput struct {
	NoteID     int    `json:"noteId"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// UpdateNote changes the given fields of a note.
var UpdateNote = newTask("pipedrive.notes.Update",
	"Update an existing note in Pipedrive",
	paramsSchema([]string{"noteId"},
		prop{"noteId", idProp},
		prop{"content", `{"type": "string", "minLength": 1}`},
		prop{"dealId", optIntProp},
		prop{"personId", optIntProp},
		prop{"orgId", optIntProp},
		prop{"leadId", stringProp},
		prop{"pinnedToDealFlag", boolProp},
		prop{"pinnedToPersonFlag", boolProp},
		prop{"pinnedToOrganizationFlag", boolProp},
	),
	func(ctx context.Context, c *call, p *UpdateNoteParams) (*UpdateNoteOutput, error) {
		note := pipedrive.Note{
			Content:                  p.Content,
			DealID:                   p.DealID,
			PersonID:                 p.PersonID,
			OrgID:                    p.OrgID,
			LeadID:                   p.LeadID,
			PinnedToDealFlag:         p.PinnedToDealFlag,
			PinnedToPersonFlag:       p.PinnedToPersonFlag,
			PinnedToOrganizationFlag: p.PinnedToOrganizationFlag,
		}
		if err := requireChanges(note); err != nil {
			return nil, err
		}
		c.logger.Info().Int("note_id", p.NoteID).Msg("updating note")
		env, err := pipedrive.Put[pipedrive.Note](ctx, c.client, "/notes/"+strconv.Itoa(p.NoteID), note)
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "update note"); err != nil {
			return nil, err
		}
		return &UpdateNoteOutput{
			NoteID:     pipedrive.Deref(env.Data.ID),
			UpdateTime: env.Data.UpdateTime,
		}, nil
	})
