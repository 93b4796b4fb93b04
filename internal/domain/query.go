package domain

import "strings"

// Upstream API method names.
const (
	MethodLogin                    = "login"
	MethodLogout                   = "logout"
	MethodStockBasic               = "query_stock_basic"
	MethodStockIndustry            = "query_stock_industry"
	MethodSz50Stocks               = "query_sz50_stocks"
	MethodHs300Stocks              = "query_hs300_stocks"
	MethodZz500Stocks              = "query_zz500_stocks"
	MethodHistoryKDataPlus         = "query_history_k_data_plus"
	MethodProfitData               = "query_profit_data"
	MethodOperationData            = "query_operation_data"
	MethodGrowthData               = "query_growth_data"
	MethodBalanceData              = "query_balance_data"
	MethodCashFlowData             = "query_cash_flow_data"
	MethodPerformanceExpressReport = "query_performance_express_report"
	MethodForecastReport           = "query_forecast_report"
	MethodTradeDates               = "query_trade_dates"
)

// Query is one upstream call. Empty parameters mean "provider default".
type Query struct {
	Method string            `json:"method" yaml:"method"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param returns the named parameter or "".
func (q Query) Param(name string) string {
	return q.Params[name]
}

func newQuery(method string, kv ...string) Query {
	params := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return Query{Method: method, Params: params}
}

func QueryStockBasic(code string) Query {
	return newQuery(MethodStockBasic, "code", code)
}

func QueryStockIndustry(code string) Query {
	return newQuery(MethodStockIndustry, "code", code)
}

func QuerySz50Stocks(date string) Query {
	return newQuery(MethodSz50Stocks, "date", date)
}

func QueryHs300Stocks(date string) Query {
	return newQuery(MethodHs300Stocks, "date", date)
}

func QueryZz500Stocks(date string) Query {
	return newQuery(MethodZz500Stocks, "date", date)
}

// QueryHistoryKDataPlus requests price bars. fields is the ordered list of
// upstream column names to return.
func QueryHistoryKDataPlus(code string, fields []string, begin, end, frequency, adjustFlag string) Query {
	return newQuery(MethodHistoryKDataPlus,
		"code", code,
		"fields", strings.Join(fields, ","),
		"start_date", begin,
		"end_date", end,
		"frequency", frequency,
		"adjustflag", adjustFlag,
	)
}

func QueryProfitData(code, year, quarter string) Query {
	return newQuery(MethodProfitData, "code", code, "year", year, "quarter", quarter)
}

func QueryOperationData(code, year, quarter string) Query {
	return newQuery(MethodOperationData, "code", code, "year", year, "quarter", quarter)
}

func QueryGrowthData(code, year, quarter string) Query {
	return newQuery(MethodGrowthData, "code", code, "year", year, "quarter", quarter)
}

func QueryBalanceData(code, year, quarter string) Query {
	return newQuery(MethodBalanceData, "code", code, "year", year, "quarter", quarter)
}

func QueryCashFlowData(code, year, quarter string) Query {
	return newQuery(MethodCashFlowData, "code", code, "year", year, "quarter", quarter)
}

func QueryPerformanceExpressReport(code, begin, end string) Query {
	return newQuery(MethodPerformanceExpressReport, "code", code, "start_date", begin, "end_date", end)
}

func QueryForecastReport(code, begin, end string) Query {
	return newQuery(MethodForecastReport, "code", code, "start_date", begin, "end_date", end)
}

func QueryTradeDates(begin, end string) Query {
	return newQuery(MethodTradeDates, "start_date", begin, "end_date", end)
}
