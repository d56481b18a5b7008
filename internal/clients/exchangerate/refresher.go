package exchangerate

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

// Refresher turns a fetched rate set into exchange-rate records and swaps
// them into the store atomically. Only pairs between currencies the store
// already knows are kept. The network fetch runs outside the store session
// so a slow API never blocks other store consumers.
type Refresher struct {
	client  *Client
	session *session.Session
	log     zerolog.Logger
}

// NewRefresher creates a rate refresher over the store session.
func NewRefresher(client *Client, sess *session.Session, log zerolog.Logger) *Refresher {
	return &Refresher{
		client:  client,
		session: sess,
		log:     log.With().Str("component", "rate_refresher").Logger(),
	}
}

// RefreshResult summarizes one refresh.
type RefreshResult struct {
	Base     string `json:"base"`
	Stored   int    `json:"stored"`
	Attempts int    `json:"attempts"`
}

// Refresh fetches rates for the base currency and replaces the store's rate
// set. On fetch or validation failure the previous rate set is untouched.
func (r *Refresher) Refresh(ctx context.Context, baseCode string) (*RefreshResult, error) {
	idByCode := make(map[string]string)
	r.session.View(func(st *store.Store) {
		for _, cur := range st.List(store.TableCurrencies) {
			idByCode[cur.GetString("code")] = cur.ID()
		}
	})

	baseID, ok := idByCode[baseCode]
	if !ok {
		return nil, fmt.Errorf("base currency %q is not registered", baseCode)
	}

	set, err := r.client.FetchRates(ctx, baseCode)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(set.Rates))
	for code := range set.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var records []store.Record
	for _, code := range codes {
		targetID, known := idByCode[code]
		if !known || targetID == baseID {
			continue
		}
		records = append(records, store.Record{
			"fromCurrencyId": baseID,
			"toCurrencyId":   targetID,
			"rate":           set.Rates[code],
		})
	}

	err = r.session.Do(func(st *store.Store) error {
		return st.ReplaceExchangeRates(records)
	})
	if err != nil {
		return nil, fmt.Errorf("storing fetched rates: %w", err)
	}

	r.log.Info().
		Str("base", baseCode).
		Int("stored", len(records)).
		Int("attempts", set.Attempts).
		Msg("Exchange rates refreshed")
	return &RefreshResult{Base: baseCode, Stored: len(records), Attempts: set.Attempts}, nil
}
