package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/reporting"
	"holder-analytics/internal/tablestate"
)

var registerOnce sync.Once

// registerValidators adds the domain enum tags to gin's validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("range", func(fl validator.FieldLevel) bool {
			return domain.Range(fl.Field().String()).IsValid()
		})
		v.RegisterValidation("chartmode", func(fl validator.FieldLevel) bool {
			return domain.ChartMode(fl.Field().String()).IsValid()
		})
		v.RegisterValidation("sortorder", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParseSortOrder(fl.Field().String())
			return ok
		})
		v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(tablestate.DateLayout, fl.Field().String())
			return err == nil
		})
		v.RegisterValidation("format", func(fl validator.FieldLevel) bool {
			_, ok := reporting.ParseFormat(fl.Field().String())
			return ok
		})
	})
}

// rangeQuery is shared by every endpoint.
type rangeQuery struct {
	Range string `form:"range" binding:"omitempty,range"`
}

func (q rangeQuery) value() domain.Range {
	r, _ := domain.ParseRange(q.Range)
	return r
}

type chartQuery struct {
	rangeQuery
	Mode      string `form:"mode" binding:"omitempty,chartmode"`
	StartDate string `form:"startDate" binding:"omitempty,isodate"`
	EndDate   string `form:"endDate" binding:"omitempty,isodate"`
	Top       int    `form:"top" binding:"gte=0,lte=1000"`
	MaxPoints int    `form:"maxPoints" binding:"gte=0,lte=10000"`
	Format    string `form:"format" binding:"omitempty,format"`
}

type tableQuery struct {
	rangeQuery
	Page      int    `form:"page" binding:"gte=0"`
	Limit     int    `form:"limit" binding:"gte=0,lte=500"`
	SortBy    string `form:"sortBy" binding:"omitempty,max=64"`
	SortOrder string `form:"sortOrder" binding:"omitempty,sortorder"`
	StartDate string `form:"startDate" binding:"omitempty,isodate"`
	EndDate   string `form:"endDate" binding:"omitempty,isodate"`
	Format    string `form:"format" binding:"omitempty,format"`
}

type changesQuery struct {
	rangeQuery
	Top      int    `form:"top" binding:"gte=0,lte=1000"`
	Lookback string `form:"lookback"`
	Format   string `form:"format" binding:"omitempty,format"`
}

type archiveQuery struct {
	rangeQuery
	At string `form:"at"`
}

// bind decodes query parameters into q, wrapping failures in ErrInvalidParam.
func bind(c *gin.Context, q any) error {
	if err := c.ShouldBindQuery(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: %s", ErrInvalidParam, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	return nil
}

func sectionParam(c *gin.Context) (domain.Section, error) {
	s := domain.Section(c.Param("section"))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown section %q", ErrInvalidParam, s)
	}
	return s, nil
}

// tableState builds the table state a request describes.
func (q tableQuery) tableState() tablestate.State {
	st := tablestate.New()
	st.SelectedRange = q.value()
	if q.Limit > 0 {
		st.PageSize = q.Limit
	}
	if q.Page > 0 {
		st.Page = q.Page
	}
	if q.SortBy != "" {
		st.SortField = q.SortBy
		st.SortOrder, _ = domain.ParseSortOrder(q.SortOrder)
	}
	if q.StartDate != "" {
		st.DateRange.Start, _ = time.Parse(tablestate.DateLayout, q.StartDate)
	}
	if q.EndDate != "" {
		st.DateRange.End, _ = time.Parse(tablestate.DateLayout, q.EndDate)
	}
	return st
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(tablestate.DateLayout, s)
	return t
}

// parseInstant accepts unix milliseconds or RFC3339.
func parseInstant(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: at is required", ErrInvalidParam)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	var ms int64
	if _, err := fmt.Sscan(s, &ms); err != nil {
		return 0, fmt.Errorf("%w: at must be unix ms or RFC3339", ErrInvalidParam)
	}
	return ms, nil
}

func formatOf(s string) reporting.Format {
	f, _ := reporting.ParseFormat(s)
	return f
}
