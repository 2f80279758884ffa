package tablestate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"holder-analytics/internal/domain"
)

// ErrSuperseded is returned by Load when the state changed while the fetch
// was in flight. The result was discarded.
var ErrSuperseded = errors.New("query superseded")

// Result is what a Fetcher returns for one page.
type Result struct {
	Rows    []map[string]any
	Meta    domain.PageMeta
	Dropped int
}

// Fetcher loads one page for a query.
type Fetcher interface {
	FetchTable(ctx context.Context, q Query) (Result, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) (Result, error)

// FetchTable calls f.
func (f FetcherFunc) FetchTable(ctx context.Context, q Query) (Result, error) {
	return f(ctx, q)
}

// View binds a table state to a fetcher. It is safe for concurrent use.
type View struct {
	mu      sync.Mutex
	state   State
	fetcher Fetcher
	page    domain.TablePage
}

// NewView creates a view in the initial idle state.
func NewView(fetcher Fetcher) *View {
	return &View{state: New(), fetcher: fetcher}
}

// NewViewWithState creates a view starting from s.
func NewViewWithState(fetcher Fetcher, s State) *View {
	return &View{state: s, fetcher: fetcher}
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Dispatch applies actions in order and returns the resulting state.
func (v *View) Dispatch(actions ...Action) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, a := range actions {
		v.state = Reduce(v.state, a)
	}
	return v.state
}

// Load fetches the current query when the view is idle or loading and
// returns the current page. A settled view returns its last page without
// fetching; dispatch Refresh to force a reload.
func (v *View) Load(ctx context.Context) (domain.TablePage, error) {
	v.mu.Lock()
	switch v.state.Status {
	case StatusIdle:
		v.state = Reduce(v.state, Refresh{})
	case StatusSuccess:
		page := v.page
		v.mu.Unlock()
		return page, nil
	case StatusError:
		err := v.state.Err
		v.mu.Unlock()
		return domain.TablePage{}, err
	}
	q := v.state.Query()
	v.mu.Unlock()

	res, err := v.fetcher.FetchTable(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Query() != q || v.state.Status != StatusLoading {
		return domain.TablePage{}, ErrSuperseded
	}
	if err != nil {
		v.state = Reduce(v.state, FetchFailed{Err: err})
		return domain.TablePage{}, fmt.Errorf("load page %d: %w", q.Page, err)
	}

	v.state = Reduce(v.state, FetchSucceeded{Meta: res.Meta, Rows: len(res.Rows)})
	rows := res.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	v.page = domain.TablePage{
		Rows:       rows,
		Pagination: v.state.Pagination,
		Dropped:    res.Dropped,
	}
	return v.page, nil
}

// Walk loads every page from the current one onward, calling fn for each,
// until the pagination reports no next page or fn returns an error.
func (v *View) Walk(ctx context.Context, fn func(domain.TablePage) error) error {
	for {
		page, err := v.Load(ctx)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if !page.Pagination.HasNext || len(page.Rows) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		v.Dispatch(NextPage{})
	}
}
