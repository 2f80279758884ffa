package domain

// Section is an analytics API domain, mounted under /v3/<section>.
type Section string

const (
	SectionHolders      Section = "holders"
	SectionDistribution Section = "distribution"
	SectionRichList     Section = "rich-list"
	SectionStaking      Section = "staking"
	SectionBalances     Section = "balances"
)

// Sections lists every section the API exposes.
var Sections = []Section{
	SectionHolders,
	SectionDistribution,
	SectionRichList,
	SectionStaking,
	SectionBalances,
}

// String returns the string representation of Section.
func (s Section) String() string {
	return string(s)
}

// IsValid checks if the section is known.
func (s Section) IsValid() bool {
	for _, v := range Sections {
		if s == v {
			return true
		}
	}
	return false
}

// Resource is a sub-resource of a section and doubles as the envelope key
// the API wraps its payload in.
type Resource string

const (
	ResourceWidget   Resource = "widget"
	ResourceChart    Resource = "chart"
	ResourceTable    Resource = "table"
	ResourceStats    Resource = "stats"
	ResourceBalances Resource = "balances"
)

// String returns the string representation of Resource.
func (r Resource) String() string {
	return string(r)
}

// ChartMode selects how a series is rendered. It drives downsampling caps.
type ChartMode string

const (
	ChartModeLine ChartMode = "line"
	ChartModeArea ChartMode = "area"
	ChartModeBar  ChartMode = "bar"
)

// IsValid checks if the mode is supported.
func (m ChartMode) IsValid() bool {
	return m == ChartModeLine || m == ChartModeArea || m == ChartModeBar
}

// ParseChartMode parses s, falling back to line for an empty string.
func ParseChartMode(s string) (ChartMode, bool) {
	if s == "" {
		return ChartModeLine, true
	}
	m := ChartMode(s)
	return m, m.IsValid()
}
