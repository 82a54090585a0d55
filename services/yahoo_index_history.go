package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/stock-api/shared"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

const yahooServiceName = "YahooIndexHistory"

// YahooIndexHistory reads daily index bars from the Yahoo Finance chart API
type YahooIndexHistory struct {
	lookback time.Duration
	now      func() time.Time
}

// NewYahooIndexHistory looks back far enough to cover weekends and market holidays
func NewYahooIndexHistory() *YahooIndexHistory {
	return &YahooIndexHistory{
		lookback: 7 * 24 * time.Hour,
		now:      time.Now,
	}
}

// LatestSession returns the open and close of the most recent daily bar for symbol.
// The request is bound to ctx, so cancelling ctx aborts it.
func (y *YahooIndexHistory) LatestSession(ctx context.Context, symbol string) (*IndexSession, error) {
	end := y.now()
	start := end.Add(-y.lookback)

	iter := chart.Get(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var session *IndexSession
	for iter.Next() {
		bar := iter.Bar()
		session = &IndexSession{Open: bar.Open, Close: bar.Close}
	}
	if err := iter.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, shared.WrapError(err, shared.ErrorCategoryUpstream, "CHART_ERROR", yahooServiceName, "LatestSession", true)
	}

	return session, nil
}
