// Package httpapi is the dashboard facing HTTP surface: envelope-wrapped
// JSON reads over the analytics API, exports, the archive and a websocket
// feed of recorder refreshes.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"holder-analytics/internal/analyticsapi"
	"holder-analytics/internal/domain"
	"holder-analytics/internal/observability"
	"holder-analytics/internal/querycache"
	"holder-analytics/internal/recorder"
	"holder-analytics/internal/storage"
)

// StatusProvider reports recorder state.
type StatusProvider interface {
	Status() recorder.Status
}

// ChartDefaults apply when a chart request omits mode or top.
type ChartDefaults struct {
	Mode      domain.ChartMode
	MaxPoints int
	TopN      int
}

// Export limits.
const (
	DefaultExportPages = 200
	exportPageSize     = 500
)

// Options configures the router.
type Options struct {
	API       *analyticsapi.Client
	Cache     *querycache.Cache
	Series    storage.SeriesStore
	Snapshots storage.HolderSnapshotStore
	Recorder  StatusProvider // optional
	Hub       *Hub           // optional
	Chart     ChartDefaults

	// MaxExportPages caps table exports. DefaultExportPages when 0.
	MaxExportPages int

	Logger *zap.Logger
	Now    func() time.Time
}

type server struct {
	opts    Options
	log     *zap.Logger
	started time.Time
}

// NewRouter builds the gin engine serving every route.
func NewRouter(opts Options) *gin.Engine {
	registerValidators()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Chart.Mode == "" {
		opts.Chart.Mode = domain.ChartModeLine
	}
	if opts.MaxExportPages <= 0 {
		opts.MaxExportPages = DefaultExportPages
	}
	s := &server{opts: opts, log: opts.Logger.Named("http"), started: opts.Now()}

	r := gin.New()
	r.Use(RequestID(), AccessLog(s.log), Recovery(s.log))
	r.NoRoute(func(c *gin.Context) {
		JSON(c, storage.ErrNotFound, nil)
	})

	r.GET("/health", s.health)
	r.GET("/status", s.status)
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	if opts.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			opts.Hub.ServeWS(c.Writer, c.Request)
		})
	}

	v1 := r.Group("/api/v1")
	v1.GET("/rich-list/changes", s.richListChanges)
	v1.GET("/balances/lookup", s.balancesLookup)
	v1.GET("/:section/widget", s.widget)
	v1.GET("/:section/stats", s.stats)
	v1.GET("/:section/chart", s.chart)
	v1.GET("/:section/table", s.table)
	v1.GET("/:section/archive", s.archive)
	v1.GET("/:section/export/table", s.exportTable)
	v1.GET("/:section/export/chart", s.exportChart)
	return r
}
