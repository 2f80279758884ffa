package analyticsapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/normalization"
	"holder-analytics/internal/observability"
)

// Holders returns the holders section wrapper.
func (c *Client) Holders() *SectionClient { return c.Section(domain.SectionHolders) }

// Distribution returns the distribution section wrapper.
func (c *Client) Distribution() *SectionClient { return c.Section(domain.SectionDistribution) }

// Staking returns the staking section wrapper.
func (c *Client) Staking() *SectionClient { return c.Section(domain.SectionStaking) }

// RichListClient adds snapshot decoding to the rich-list section.
type RichListClient struct {
	*SectionClient
}

// RichList returns the rich-list section wrapper.
func (c *Client) RichList() *RichListClient {
	return &RichListClient{SectionClient: c.Section(domain.SectionRichList)}
}

// Snapshots is the latest rich list and, when the API provides one, the
// baseline it should be compared against.
type Snapshots struct {
	Latest   *domain.HolderSnapshot
	Baseline *domain.HolderSnapshot
	Dropped  int
}

// Snapshots fetches the rich-list chart and decodes {latest, baseline?}.
// Each side is either a holder collection or {timestamp, holders}.
func (r *RichListClient) Snapshots(ctx context.Context, p ChartParams) (*Snapshots, error) {
	env, err := r.client.get(ctx, r.section, domain.ResourceChart, p.values())
	if err != nil {
		return nil, err
	}
	obj, ok := env[string(domain.ResourceChart)].(map[string]any)
	if !ok {
		return nil, malformed(r.section, domain.ResourceChart, "chart is not an object")
	}
	rawLatest, ok := obj["latest"]
	if !ok || rawLatest == nil {
		return nil, malformed(r.section, domain.ResourceChart, `missing "latest"`)
	}

	out := &Snapshots{}
	var dropped int
	out.Latest, dropped = decodeSnapshot(rawLatest)
	out.Dropped += dropped
	if rawBase, ok := obj["baseline"]; ok && rawBase != nil {
		out.Baseline, dropped = decodeSnapshot(rawBase)
		out.Dropped += dropped
	}
	observability.RecordDropped(string(r.section), string(domain.ResourceChart), out.Dropped)
	return out, nil
}

func decodeSnapshot(raw any) (*domain.HolderSnapshot, int) {
	snap := &domain.HolderSnapshot{}
	source := raw
	if obj, ok := raw.(map[string]any); ok {
		if holders, ok := obj["holders"]; ok {
			source = holders
			for _, k := range []string{"timestamp", "takenAt"} {
				if ts, ok := obj[k]; ok {
					if s, ok := ts.(string); ok {
						if at, ok := normalization.ParseTimestamp(s); ok {
							snap.TakenAtMs = at.UnixMilli()
						}
					} else if n, ok := normalization.Int(ts); ok {
						snap.TakenAtMs = unixToMs(int64(n))
					}
					break
				}
			}
		}
	}
	rows, stats := normalization.HolderRows(source)
	snap.Holders = rows
	return snap, stats.Dropped
}

func unixToMs(n int64) int64 {
	if n > 1e11 || n < -1e11 {
		return n
	}
	return n * 1000
}

// BalancesClient adds address lookup to the balances section.
type BalancesClient struct {
	*SectionClient
}

// Balances returns the balances section wrapper.
func (c *Client) Balances() *BalancesClient {
	return &BalancesClient{SectionClient: c.Section(domain.SectionBalances)}
}

// LookupRequest is the body of POST /v3/balances/lookup.
type LookupRequest struct {
	Addresses []string `json:"addresses"`
}

// Lookup fetches balances for addresses. The response key "balances" is an
// array of holder rows or an object keyed by address.
func (b *BalancesClient) Lookup(ctx context.Context, addresses []string) ([]domain.HolderRow, error) {
	if len(addresses) == 0 {
		return []domain.HolderRow{}, nil
	}
	path := fmt.Sprintf("%s/%s/lookup", APIPrefix, b.section)
	env, err := b.client.do(ctx, b.section, http.MethodPost, path, nil,
		LookupRequest{Addresses: addresses}, string(domain.ResourceBalances))
	if err != nil {
		return nil, err
	}
	rows, stats := normalization.HolderRows(env[string(domain.ResourceBalances)])
	observability.RecordDropped(string(b.section), string(domain.ResourceBalances), stats.Dropped)
	return rows, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
