// Package mover moves aged issues from one project (queue) to another.
//
// A run alternates two steps until a search comes back empty: find a page of
// issues in the source project whose actual completion date is older than the
// configured age, then invoke the "move" action on each of them. Moving an
// issue takes it out of the source project, which is what lets the loop end.
// A run that keeps seeing the same issues, or that exceeds MaxPages, stops
// with an error instead of spinning.
package mover

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/attask-archive/internal/attask"
	"github.com/rshade/attask-archive/internal/config"
	"github.com/rshade/attask-archive/internal/logging"
	"github.com/rshade/attask-archive/internal/record"
)

// Field and action names used by the mover.
const (
	FieldProjectID      = "projectID"
	FieldCompletionDate = "actualCompletionDate"
	FieldName           = "name"

	ActionMove = "move"

	// AggDistinctCount is the report aggregate used for the pre-flight count.
	AggDistinctCount = "dcount"
)

// Errors returned by Run.
var (
	// ErrTooManyPages means the run hit MaxPages while records still matched.
	ErrTooManyPages = errors.New("page limit reached with records still matching")

	// ErrRepeatedRecord means a record already moved in this run was found
	// again, so the move did not take it out of the source project.
	ErrRepeatedRecord = errors.New("record found again after being moved")

	// ErrMissingID means a search result had no ID.
	ErrMissingID = errors.New("search result has no ID")

	// ErrUnexpectedReport means the count report lacked a numeric result.
	ErrUnexpectedReport = errors.New("unexpected report result")
)

// State is the run state.
type State int

// Run states.
const (
	StateRunning State = iota
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Client is the part of the API client the mover uses. *attask.Client satisfies it.
type Client interface {
	Search(ctx context.Context, objCode attask.ObjCode, params attask.Params, fields []string) ([]map[string]any, error)
	Action(
		ctx context.Context,
		objCode attask.ObjCode,
		action string,
		params attask.Params,
		fields []string,
		id string,
	) (any, error)
	Get(ctx context.Context, objCode attask.ObjCode, id string, fields []string) (map[string]any, error)
	Report(ctx context.Context, objCode attask.ObjCode, params attask.Params, aggFunc string) (map[string]any, error)
}

// Result summarises a run.
type Result struct {
	// Moved is the number of records moved.
	Moved int
	// Pages is the number of non-empty pages acted on.
	Pages int
	// Finds is the number of searches issued, including the final empty one.
	Finds int
	// State is StateDone after a clean finish.
	State State
}

// Mover runs the find/act loop.
type Mover struct {
	cfg    config.MoverConfig
	client Client

	// OnMoved is called after each record is moved.
	OnMoved func(id string)
	// OnPage is called after each non-empty page with the number moved in it.
	OnPage func(moved int, progress *Progress)

	progress *Progress
	logger   zerolog.Logger
}

// New creates a Mover. cfg is validated here so a Mover is never built from
// an incomplete configuration.
func New(cfg config.MoverConfig, client Client) (*Mover, error) {
	if cfg.PageSize == 0 {
		cfg.PageSize = config.MaxPageSize
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = config.DefaultMaxPages
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("mover requires an api client")
	}
	return &Mover{
		cfg:      cfg,
		client:   client,
		progress: NewProgress(0, cfg.PageSize),
		logger:   zerolog.Nop(),
	}, nil
}

// WithLogger sets the fallback logger used when the context carries none.
func (m *Mover) WithLogger(l zerolog.Logger) *Mover {
	m.logger = logging.ComponentLogger(l, "mover")
	return m
}

// Config returns the effective configuration.
func (m *Mover) Config() config.MoverConfig { return m.cfg }

// Progress returns the tracker updated by Run.
func (m *Mover) Progress() *Progress { return m.progress }

// Criteria returns the search filter selecting issues to move.
func (m *Mover) Criteria() attask.Params {
	return attask.Params{
		FieldProjectID:                         m.cfg.From,
		FieldProjectID + attask.ModSuffix:      attask.ModIn,
		FieldCompletionDate:                    attask.TodayMinusMonths(m.cfg.AgeMonths),
		FieldCompletionDate + attask.ModSuffix: attask.ModLte,
	}
}

// FindIssues returns the next page of issues to move.
func (m *Mover) FindIssues(ctx context.Context) ([]*record.Record, error) {
	params := m.Criteria()
	params[attask.ParamLimit] = m.cfg.PageSize

	items, err := m.client.Search(ctx, attask.ObjIssue, params, nil)
	if err != nil {
		return nil, fmt.Errorf("finding issues in %s: %w", m.cfg.From, err)
	}
	if len(items) > m.cfg.PageSize {
		m.log(ctx).Warn().
			Ctx(ctx).
			Int("returned", len(items)).
			Int("page_size", m.cfg.PageSize).
			Msg("search returned more than the page size, truncating")
		items = items[:m.cfg.PageSize]
	}

	page := make([]*record.Record, 0, len(items))
	for _, item := range items {
		page = append(page, record.NewWithCode(attask.ObjIssue, item, nil))
	}
	return page, nil
}

// MoveIssues moves every issue in page to the destination project and returns
// how many were moved. The first failure stops the page.
func (m *Mover) MoveIssues(ctx context.Context, page []*record.Record) (int, error) {
	moved := 0
	for _, issue := range page {
		id := issue.ID()
		if id == "" {
			return moved, ErrMissingID
		}

		params := attask.Params{FieldProjectID: m.cfg.To}
		if _, err := m.client.Action(ctx, attask.ObjIssue, ActionMove, params, nil, id); err != nil {
			return moved, fmt.Errorf("moving issue %s: %w", id, err)
		}
		moved++
		m.progress.AddMoved()
		if m.OnMoved != nil {
			m.OnMoved(id)
		}
	}
	return moved, nil
}

// Run finds and moves issues until a search returns nothing.
func (m *Mover) Run(ctx context.Context) (Result, error) {
	log := m.log(ctx)
	result := Result{State: StateRunning}
	seen := make(map[string]struct{})

	log.Info().
		Ctx(ctx).
		Str("operation", "run").
		Str("from", m.cfg.From).
		Str("to", m.cfg.To).
		Int("age_months", m.cfg.AgeMonths).
		Int("page_size", m.cfg.PageSize).
		Msg("starting move run")
	m.progress.Start()

	for result.State == StateRunning {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := m.FindIssues(ctx)
		if err != nil {
			return result, err
		}
		result.Finds++

		if len(page) == 0 {
			result.State = StateDone
			break
		}
		if result.Pages >= m.cfg.MaxPages {
			return result, fmt.Errorf("%w: %d pages", ErrTooManyPages, result.Pages)
		}
		for _, issue := range page {
			id := issue.ID()
			if _, dup := seen[id]; dup && id != "" {
				return result, fmt.Errorf("%w: %s", ErrRepeatedRecord, id)
			}
		}

		moved, err := m.MoveIssues(ctx, page)
		for _, issue := range page[:moved] {
			seen[issue.ID()] = struct{}{}
		}
		result.Moved += moved
		if err != nil {
			return result, err
		}

		result.Pages++
		m.progress.AddPage()
		log.Debug().
			Ctx(ctx).
			Int("page", result.Pages).
			Int("moved", moved).
			Int("total_moved", result.Moved).
			Msg("page moved")
		if m.OnPage != nil {
			m.OnPage(moved, m.progress)
		}
	}

	log.Info().
		Ctx(ctx).
		Str("operation", "run").
		Dur("elapsed", m.progress.ElapsedTime()).
		Int("moved", result.Moved).
		Int("pages", result.Pages).
		Int("finds", result.Finds).
		Msg("move run complete")

	return result, nil
}

// ProjectName returns the display name of a project.
func (m *Mover) ProjectName(ctx context.Context, projectID string) (string, error) {
	data, err := m.client.Get(ctx, attask.ObjProject, projectID, []string{FieldName})
	if err != nil {
		return "", fmt.Errorf("looking up project %s: %w", projectID, err)
	}
	return record.NewWithCode(attask.ObjProject, data, nil).GetString(FieldName)
}

// CountMatching returns the number of issues the run would move, from a
// distinct-count report. The value also seeds the progress estimate.
func (m *Mover) CountMatching(ctx context.Context) (int, error) {
	data, err := m.client.Report(ctx, attask.ObjIssue, m.Criteria(), AggDistinctCount)
	if err != nil {
		return 0, fmt.Errorf("counting issues in %s: %w", m.cfg.From, err)
	}

	n, err := record.NewWithCode(attask.ObjIssue, data, nil).GetInt(AggDistinctCount + "_ID")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnexpectedReport, err)
	}

	m.progress.SetEstimate(n)
	return n, nil
}

func (m *Mover) log(ctx context.Context) *zerolog.Logger {
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		cl := logging.ComponentLogger(*l, "mover")
		return &cl
	}
	return &m.logger
}
