package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/igefined/quote-bridge/internal/domain"
	"github.com/igefined/quote-bridge/internal/normalize"
)

type handler struct {
	minArgs int
	maxArgs int
	run     func(ctx context.Context, args []string) (any, error)
}

func (s *Service) routes() map[string]handler {
	statement := func(table *normalize.Table, build func(code, year, quarter string) domain.Query) handler {
		return handler{minArgs: 1, maxArgs: 3, run: func(ctx context.Context, args []string) (any, error) {
			return s.single(ctx, table, build(args[0], arg(args, 1, ""), arg(args, 2, "")))
		}}
	}
	report := func(table *normalize.Table, build func(code, begin, end string) domain.Query) handler {
		return handler{minArgs: 1, maxArgs: 3, run: func(ctx context.Context, args []string) (any, error) {
			return s.list(ctx, table, build(args[0], arg(args, 1, ""), arg(args, 2, "")), nil)
		}}
	}

	return map[string]handler{
		OpGetStockList:     {minArgs: 0, maxArgs: 2, run: s.getStockList},
		OpGetStockInfo:     {minArgs: 1, maxArgs: 1, run: s.getStockInfo},
		OpGetMinutelyPrice: {minArgs: 1, maxArgs: 5, run: s.getMinutelyPrice},
		OpGetDailyPrice:    {minArgs: 1, maxArgs: 4, run: s.getDailyPrice},
		OpGetWeeklyPrice:   {minArgs: 1, maxArgs: 5, run: s.getWeeklyPrice},
		OpCheckTradeStatus: {minArgs: 0, maxArgs: 1, run: s.checkTradeStatus},
		OpGetTradeCalendar: {minArgs: 0, maxArgs: 2, run: s.getTradeCalendar},

		OpGetProfitability:         statement(normalize.Profitability, domain.QueryProfitData),
		OpGetOperationalCapability: statement(normalize.OperationalCapability, domain.QueryOperationData),
		OpGetGrowthAbility:         statement(normalize.GrowthAbility, domain.QueryGrowthData),
		OpGetSolvency:              statement(normalize.Solvency, domain.QueryBalanceData),
		OpGetCashFlow:              statement(normalize.CashFlow, domain.QueryCashFlowData),

		OpGetPerformanceReport:   report(normalize.PerformanceReport, domain.QueryPerformanceExpressReport),
		OpGetPerformanceForecast: report(normalize.PerformanceForecast, domain.QueryForecastReport),
	}
}

// list normalizes every row of the query result.
func (s *Service) list(ctx context.Context, table *normalize.Table, query domain.Query, extra map[string]any) ([]*normalize.Record, error) {
	rs, err := s.query(ctx, query)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(table, rs.Rows(), extra)
}

// single normalizes the first row of the query result.
func (s *Service) single(ctx context.Context, table *normalize.Table, query domain.Query) (*normalize.Record, error) {
	rs, err := s.query(ctx, query)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizeFirst(table, rs.Rows(), nil)
}

func (s *Service) query(ctx context.Context, query domain.Query) (*domain.ResultSet, error) {
	rs, err := s.provider.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", query.Method, err)
	}
	return rs, nil
}

// stockListEntry is one element of the static stock list file.
type stockListEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Service) getStockList(ctx context.Context, args []string) (any, error) {
	listType, date := arg(args, 0, "default"), arg(args, 1, "")

	var query domain.Query
	switch listType {
	case "default":
		return s.readStockList()
	case "sz50":
		query = domain.QuerySz50Stocks(date)
	case "hs300":
		query = domain.QueryHs300Stocks(date)
	case "zz500":
		query = domain.QueryZz500Stocks(date)
	default:
		rs, err := s.query(ctx, domain.QueryStockBasic(""))
		if err != nil {
			return nil, err
		}
		switch listType {
		case "stock":
			rs = rs.Filter(func(row domain.RawRow) bool { return row["type"] == "1" })
		case "index":
			rs = rs.Filter(func(row domain.RawRow) bool { return row["type"] == "2" })
		}
		return normalize.Normalize(normalize.StockList, rs.Rows(), nil)
	}
	return s.list(ctx, normalize.StockList, query, nil)
}

func (s *Service) readStockList() ([]stockListEntry, error) {
	data, err := os.ReadFile(s.stockListPath)
	if err != nil {
		return nil, fmt.Errorf("read stock list: %w", err)
	}
	entries := []stockListEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse stock list %s: %w", s.stockListPath, err)
	}
	return entries, nil
}

// getStockInfo merges the basic and industry records, industry winning on
// shared keys.
func (s *Service) getStockInfo(ctx context.Context, args []string) (any, error) {
	code := args[0]

	info, err := s.single(ctx, normalize.StockInfo, domain.QueryStockBasic(code))
	if err != nil {
		return nil, err
	}
	industry, err := s.single(ctx, normalize.StockInfo, domain.QueryStockIndustry(code))
	if err != nil {
		return nil, err
	}
	info.Merge(industry)
	return info, nil
}

func (s *Service) getMinutelyPrice(ctx context.Context, args []string) (any, error) {
	return s.prices(ctx, normalize.MinutelyPrice, args, arg(args, 3, "60"), arg(args, 4, normalize.AdjustNone))
}

func (s *Service) getDailyPrice(ctx context.Context, args []string) (any, error) {
	return s.prices(ctx, normalize.DailyPrice, args, "d", arg(args, 3, normalize.AdjustNone))
}

func (s *Service) getWeeklyPrice(ctx context.Context, args []string) (any, error) {
	frequency := "m"
	if arg(args, 3, "week") == "week" {
		frequency = "w"
	}
	return s.prices(ctx, normalize.WeeklyPrice, args, frequency, arg(args, 4, normalize.AdjustNone))
}

// prices queries bars for args[0] between args[1] and args[2] and tags every
// record with the requested id.
func (s *Service) prices(ctx context.Context, table *normalize.Table, args []string, frequency, rehabilitation string) (any, error) {
	code := args[0]
	query := domain.QueryHistoryKDataPlus(code, table.RawKeys(),
		arg(args, 1, ""), arg(args, 2, ""), frequency, normalize.RehabilitationCode(rehabilitation))
	return s.list(ctx, table, query, map[string]any{"id": code})
}

// checkTradeStatus answers "true" when the date is a trading day. Without a
// date it answers for today, and "false" outside trading hours without
// asking upstream.
func (s *Service) checkTradeStatus(ctx context.Context, args []string) (any, error) {
	date := arg(args, 0, "")
	if date == "" {
		now := s.clock.Now().In(s.location)
		if !s.inTradingWindow(now) {
			return "false", nil
		}
		date = now.Format(time.DateOnly)
	}

	day, err := s.single(ctx, normalize.TradeCalendar, domain.QueryTradeDates(date, date))
	if err != nil {
		return nil, err
	}
	if trading, _ := day.Get("trading"); trading == true {
		return "true", nil
	}
	return "false", nil
}

func (s *Service) inTradingWindow(now time.Time) bool {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := now.Sub(midnight)
	return offset >= s.tradingOpen && offset <= s.tradingClose
}

func (s *Service) getTradeCalendar(ctx context.Context, args []string) (any, error) {
	return s.list(ctx, normalize.TradeCalendar, domain.QueryTradeDates(arg(args, 0, ""), arg(args, 1, "")), nil)
}
