// Package tasks implements the Pipedrive operations a workflow step can run.
// Each task decodes the step's parameters, validates them against a JSON
// schema and struct rules, opens one API client for the invocation, performs
// a single logical call, and returns a typed output. A response with success
// set to false is reported as pipedrive.ErrApplication.
package tasks

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

// Task is a runnable Pipedrive operation.
type Task interface {
	// Type is the identifier steps refer to, e.g. "pipedrive.persons.Create".
	Type() string
	Description() string
	// Schema returns the JSON schema of the parameters.
	Schema() string
	// Run executes the task. params are the step's resolved parameters.
	Run(ctx context.Context, rc *RunContext, params map[string]any) (any, error)
}

// Step is one task invocation as read from a step file.
type Step struct {
	ID      string
	Type    string
	Version string
	Params  map[string]any
}

// RunContext carries what a task needs from its environment.
type RunContext struct {
	Logger  zerolog.Logger
	Storage Storage

	// ClientOptions are applied to every client after the step's apiUrl.
	ClientOptions []pipedrive.ClientOption

	// DefaultAPIToken and DefaultAPIURL fill in apiToken and apiUrl when a
	// step leaves them out.
	DefaultAPIToken string
	DefaultAPIURL   string
}

// Connection holds the parameters every task accepts.
type Connection struct {
	APIToken string `mapstructure:"apiToken" validate:"required"`
	APIURL   string `mapstructure:"apiUrl"`
}

func (c Connection) connection() Connection { return c }

type connected interface {
	connection() Connection
}

// Registry maps task types to tasks.
type Registry struct {
	tasks map[string]Task
}

// NewRegistry returns a registry holding tasks. A later task replaces an
// earlier one of the same type.
func NewRegistry(tasks ...Task) *Registry {
	r := &Registry{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		r.tasks[t.Type()] = t
	}
	return r
}

// DefaultRegistry returns a registry with every Pipedrive task.
func DefaultRegistry() *Registry {
	return NewRegistry(
		CreatePerson, GetPerson, UpdatePerson,
		CreateDeal, GetDeal, UpdateDeal,
		CreateNote, GetNote, UpdateNote,
	)
}

// Lookup returns the task registered for typ.
func (r *Registry) Lookup(typ string) (Task, error) {
	t, ok := r.tasks[typ]
	if !ok {
		return nil, ErrUnknownTask.Msg("unknown task type " + typ)
	}
	return t, nil
}

// Types returns the registered task types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.tasks))
	for typ := range r.tasks {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Run checks the step's version constraint, then runs its task.
func (r *Registry) Run(ctx context.Context, rc *RunContext, step Step) (any, error) {
	if err := CheckVersion(step.Version); err != nil {
		return nil, err
	}
	t, err := r.Lookup(step.Type)
	if err != nil {
		return nil, err
	}

	ctx, requestID := logtrace.EnsureRequestID(ctx)
	run := *rc
	run.Logger = rc.Logger.With().
		Str("step", step.ID).
		Str("task", step.Type).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	out, err := t.Run(ctx, &run, step.Params)
	if err != nil {
		run.Logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("task failed")
		return nil, err
	}
	run.Logger.Info().Dur("elapsed", time.Since(start)).Msg("task completed")
	return out, nil
}

// call is what a task body works with.
type call struct {
	client *pipedrive.Client
	rc     *RunContext
	logger zerolog.Logger
}

// taskDef implements Task for parameters P and output O.
type taskDef[P any, O any] struct {
	typ         string
	description string
	schemaJSON  string
	schema      *jsonschema.Schema
	run         func(ctx context.Context, c *call, p *P) (*O, error)
}

func newTask[P any, O any](typ, description, schema string, run func(context.Context, *call, *P) (*O, error)) *taskDef[P, O] {
	return &taskDef[P, O]{
		typ:         typ,
		description: description,
		schemaJSON:  schema,
		schema:      compileSchema(typ, schema),
		run:         run,
	}
}

func (t *taskDef[P, O]) Type() string        { return t.typ }
func (t *taskDef[P, O]) Description() string { return t.description }
func (t *taskDef[P, O]) Schema() string      { return t.schemaJSON }

func (t *taskDef[P, O]) Run(ctx context.Context, rc *RunContext, params map[string]any) (any, error) {
	if rc == nil {
		rc = &RunContext{Logger: zerolog.Nop()}
	}
	p, err := decodeParams[P](t.schema, withDefaults(rc, params))
	if err != nil {
		return nil, err
	}
	conn := any(p).(connected).connection()

	opts := append([]pipedrive.ClientOption{
		pipedrive.WithBaseURL(conn.APIURL),
		pipedrive.WithLogger(rc.Logger),
	}, rc.ClientOptions...)
	client, err := pipedrive.NewClient(conn.APIToken, opts...)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	out, err := t.run(ctx, &call{client: client, rc: rc, logger: rc.Logger}, p)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func withDefaults(rc *RunContext, params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	if _, ok := out["apiToken"]; !ok && rc.DefaultAPIToken != "" {
		out["apiToken"] = rc.DefaultAPIToken
	}
	if _, ok := out["apiUrl"]; !ok && rc.DefaultAPIURL != "" {
		out["apiUrl"] = rc.DefaultAPIURL
	}
	return out
}

// expectSuccess maps an unsuccessful envelope onto pipedrive.ErrApplication.
func expectSuccess[T any](env *pipedrive.Envelope[T], action string) error {
	if env.Success {
		return nil
	}
	msg := env.Message()
	if msg == "" {
		msg = "no error reported"
	}
	return pipedrive.ErrApplication.Msg("failed to " + action + ": " + msg)
}
