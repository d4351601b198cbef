package tasks

import (
	"context"
	"strconv"

	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

// defaultCurrency is used when a deal value is given without a currency.
const defaultCurrency = "USD"

type CreateDealParams struct {
	Connection        `mapstructure:",squash"`
	Title             string            `mapstructure:"title" validate:"required"`
	Value             pipedrive.Decimal `mapstructure:"value"`
	Currency          string            `mapstructure:"currency" validate:"omitempty,len=3"`
	PersonID          *int              `mapstructure:"personId"`
	OrgID             *int              `mapstructure:"orgId"`
	UserID            *int              `mapstructure:"userId"`
	StageID           *int              `mapstructure:"stageId"`
	PipelineID        *int              `mapstructure:"pipelineId"`
	Status            string            `mapstructure:"status" validate:"omitempty,oneof=open won lost deleted"`
	ExpectedCloseDate string            `mapstructure:"expectedCloseDate"`
	Probability       *float64          `mapstructure:"probability" validate:"omitempty,min=0,max=100"`
	VisibleTo         *int              `mapstructure:"visibleTo"`
	CustomFields      map[string]any    `mapstructure:"customFields"`
}

type CreateDealOutput struct {
	DealID     int    `json:"dealId"`
	AddTime    string `json:"addTime,omitempty"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// CreateDeal adds a sales opportunity.
var CreateDeal = newTask("pipedrive.deals.Create",
	"Create a new deal in Pipedrive",
	paramsSchema([]string{"title"},
		prop{"title", `{"type": "string", "minLength": 1}`},
		prop{"value", decimalProp},
		prop{"currency", `{"type": "string", "pattern": "^[A-Z]{3}$"}`},
		prop{"personId", optIntProp},
		prop{"orgId", optIntProp},
		prop{"userId", optIntProp},
		prop{"stageId", optIntProp},
		prop{"pipelineId", optIntProp},
		prop{"status", dealStatusProp},
		prop{"expectedCloseDate", `{"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}`},
		prop{"probability", `{"type": "number", "minimum": 0, "maximum": 100}`},
		prop{"visibleTo", optIntProp},
		prop{"customFields", objectProp},
	),
	func(ctx context.Context, c *call, p *CreateDealParams) (*CreateDealOutput, error) {
		deal := pipedrive.Deal{
			Title:             p.Title,
			Value:             p.Value,
			Currency:          p.Currency,
			PersonID:          p.PersonID,
			OrgID:             p.OrgID,
			UserID:            p.UserID,
			StageID:           p.StageID,
			PipelineID:        p.PipelineID,
			Status:            p.Status,
			ExpectedCloseDate: p.ExpectedCloseDate,
			Probability:       p.Probability,
			VisibleTo:         p.VisibleTo,
			CustomFields:      p.CustomFields,
		}
		if deal.Value != "" && deal.Currency == "" {
			deal.Currency = defaultCurrency
		}
		c.logger.Info().Str("title", p.Title).Msg("creating deal")
		env, err := pipedrive.Post[pipedrive.Deal](ctx, c.client, "/deals", deal)
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "create deal"); err != nil {
			return nil, err
		}
		id := pipedrive.Deref(env.Data.ID)
		c.logger.Info().Int("deal_id", id).Msg("deal created")
		return &CreateDealOutput{
			DealID:     id,
			AddTime:    env.Data.AddTime,
			UpdateTime: env.Data.UpdateTime,
		}, nil
	})

type GetDealParams struct {
	Connection `mapstructure:",squash"`
	DealID     int `mapstructure:"dealId" validate:"required,min=1"`
}

type GetDealOutput struct {
	Deal pipedrive.Deal `json:"deal"`
}

// GetDeal fetches a deal by id.
var GetDeal = newTask("pipedrive.deals.Get",
	"Retrieve a deal from Pipedrive by id",
	paramsSchema([]string{"dealId"}, prop{"dealId", idProp}),
	func(ctx context.Context, c *call, p *GetDealParams) (*GetDealOutput, error) {
		c.logger.Info().Int("deal_id", p.DealID).Msg("fetching deal")
		env, err := pipedrive.Get[pipedrive.Deal](ctx, c.client, "/deals/"+strconv.Itoa(p.DealID))
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "get deal"); err != nil {
			return nil, err
		}
		return &GetDealOutput{Deal: env.Data}, nil
	})

type UpdateDealParams struct {
	Connection        `mapstructure:",squash"`
	DealID            int               `mapstructure:"dealId" validate:"required,min=1"`
	Title             string            `mapstructure:"title"`
	Value             pipedrive.Decimal `mapstructure:"value"`
	Currency          string            `mapstructure:"currency" validate:"omitempty,len=3"`
	StageID           *int              `mapstructure:"stageId"`
	Status            string            `mapstructure:"status" validate:"omitempty,oneof=open won lost deleted"`
	ExpectedCloseDate string            `mapstructure:"expectedCloseDate"`
	Probability       *float64          `mapstructure:"probability" validate:"omitempty,min=0,max=100"`
	LostReason        string            `mapstructure:"lostReason"`
	CustomFields      map[string]any    `mapstructure:"customFields"`
}

type UpdateDealOutput struct {
	DealID     int               `json:"dealId"`
	Title      string            `json:"title,omitempty"`
	Value      pipedrive.Decimal `json:"value,omitempty"`
	Status     string            `json:"status,omitempty"`
	UpdateTime string            `json:"updateTime,omitempty"`
}

// UpdateDeal changes the given fields of a deal.
var UpdateDeal = newTask("pipedrive.deals.Update",
	"Update an existing deal in Pipedrive",
	paramsSchema([]string{"dealId"},
		prop{"dealId", idProp},
		prop{"title", `{"type": "string", "minLength": 1}`},
		prop{"value", decimalProp},
		prop{"currency", `{"type": "string", "pattern": "^[A-Z]{3}$"}`},
		prop{"stageId", optIntProp},
		prop{"status", dealStatusProp},
		prop{"expectedCloseDate", `{"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}`},
		prop{"probability", `{"type": "number", "minimum": 0, "maximum": 100}`},
		prop{"lostReason", stringProp},
		prop{"customFields", objectProp},
	),
	func(ctx context.Context, c *call, p *UpdateDealParams) (*UpdateDealOutput, error) {
		deal := pipedrive.Deal{
			Title:             p.Title,
			Value:             p.Value,
			Currency:          p.Currency,
			StageID:           p.StageID,
			Status:            p.Status,
			ExpectedCloseDate: p.ExpectedCloseDate,
			Probability:       p.Probability,
			LostReason:        p.LostReason,
			CustomFields:      p.CustomFields,
		}
		if err := requireChanges(deal); err != nil {
			return nil, err
		}
		c.logger.Info().Int("deal_id", p.DealID).Msg("updating deal")
		env, err := pipedrive.Put[pipedrive.Deal](ctx, c.client, "/deals/"+strconv.Itoa(p.DealID), deal)
		if err != nil {
			return nil, err
		}
		if err := expectSuccess(env, "update deal"); err != nil {
			return nil, err
		}
		return &UpdateDealOutput{
			DealID:     pipedrive.Deref(env.Data.ID),
			Title:      env.Data.Title,
			Value:      env.Data.Value,
			Status:     env.Data.Status,
			UpdateTime: env.Data.UpdateTime,
		}, nil
	})
