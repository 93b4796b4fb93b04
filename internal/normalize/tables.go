package normalize

import (
	"fmt"
	"sort"
)

// FieldSpec maps one upstream column to one output key.
type FieldSpec struct {
	RawKey    string
	OutputKey string
	Convert   Converter
}

// Table is the mapping for one record kind. Tables are built once at init
// and never mutated.
type Table struct {
	kind   string
	fields []FieldSpec
}

func (t *Table) Kind() string { return t.kind }

// Fields returns a copy of the ordered field specs.
func (t *Table) Fields() []FieldSpec {
	return append([]FieldSpec(nil), t.fields...)
}

// RawKeys returns the upstream column names in table order.
func (t *Table) RawKeys() []string {
	keys := make([]string, len(t.fields))
	for i, f := range t.fields {
		keys[i] = f.RawKey
	}
	return keys
}

// Compose builds a table from a base list and kind-specific overrides. A
// later FieldSpec with the same RawKey replaces the earlier one in place;
// new RawKeys are appended. It panics when two specs of the
// resulting table share an OutputKey.
func Compose(kind string, base []FieldSpec, overrides ...FieldSpec) *Table {
	fields := make([]FieldSpec, 0, len(base)+len(overrides))
	index := make(map[string]int, cap(fields))
	for _, f := range append(append([]FieldSpec(nil), base...), overrides...) {
		if i, ok := index[f.RawKey]; ok {
			fields[i] = f
			continue
		}
		index[f.RawKey] = len(fields)
		fields = append(fields, f)
	}

	outputs := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Convert == nil {
			panic(fmt.Sprintf("normalize: %s.%s has no converter", kind, f.RawKey))
		}
		if other, ok := outputs[f.OutputKey]; ok {
			panic(fmt.Sprintf("normalize: %s maps both %s and %s to %q", kind, other, f.RawKey, f.OutputKey))
		}
		outputs[f.OutputKey] = f.RawKey
	}
	return &Table{kind: kind, fields: fields}
}

func field(raw, out string, convert Converter) FieldSpec {
	return FieldSpec{RawKey: raw, OutputKey: out, Convert: convert}
}

// Record kinds.
const (
	KindStockInfo             = "stockInfo"
	KindStockList             = "stockList"
	KindMinutelyPrice         = "minutelyPrice"
	KindDailyPrice            = "dailyPrice"
	KindWeeklyPrice           = "weeklyPrice"
	KindProfitability         = "profitability"
	KindOperationalCapability = "operationalCapability"
	KindGrowthAbility         = "growthAbility"
	KindSolvency              = "solvency"
	KindCashFlow              = "cashFlow"
	KindPerformanceReport     = "performanceReport"
	KindPerformanceForecast   = "performanceForecast"
	KindTradeCalendar         = "tradeCalendar"
)

var priceBase = []FieldSpec{
	field("open", "opening", FixedPointPrice),
	field("close", "closing", FixedPointPrice),
	field("high", "highest", FixedPointPrice),
	field("low", "lowest", FixedPointPrice),
	field("volume", "volume", ParseInt),
	field("amount", "turnover", FixedPointPrice),
	field("adjustflag", "rehabilitation", RehabilitationLabel),
}

var statementBase = []FieldSpec{
	field("code", "id", Identity),
	field("pubDate", "publishDate", Identity),
	field("statDate", "statDate", Identity),
}

var (
	StockInfo = Compose(KindStockInfo, nil,
		field("code", "id", Identity),
		field("code_name", "name", Identity),
		field("ipoDate", "listedDate", Identity),
		field("outDate", "delistedDate", Identity),
		field("type", "type", StockTypeLabel),
		field("industry", "industry", Identity),
		field("industryClassification", "classification", Identity),
	)

	StockList = Compose(KindStockList, nil,
		field("code", "id", Identity),
		field("code_name", "name", Identity),
	)

	MinutelyPrice = Compose(KindMinutelyPrice, priceBase,
		field("time", "time", ExpandTimestamp),
	)

	DailyPrice = Compose(KindDailyPrice, priceBase,
		field("date", "date", Identity),
		field("preclose", "preClosing", FixedPointPrice),
		field("turn", "turnoverRate", FixedPointRate),
		field("peTTM", "per", FixedPointRate),
		field("pbMRQ", "pbr", FixedPointRate),
		field("psTTM", "psr", FixedPointRate),
		field("pcfNcfTTM", "pcfr", FixedPointRate),
		field("tradestatus", "stopped", TradeStatusFlag),
		field("isST", "specialTreatment", SpecialTreatmentFlag),
	)

	WeeklyPrice = Compose(KindWeeklyPrice, priceBase,
		field("date", "date", Identity),
		field("turn", "turnoverRate", FixedPointRate),
	)

	Profitability = Compose(KindProfitability, statementBase,
		field("roeAvg", "roe", FixedPointRate),
		field("npMargin", "npm", FixedPointRate),
		field("gpMargin", "gpm", FixedPointRate),
		field("netProfit", "np", TruncateToInt),
		field("epsTTM", "eps", FixedPointRate),
		field("MBRevenue", "mbr", TruncateToInt),
		field("totalShare", "ts", TruncateToInt),
		field("liqaShare", "cs", TruncateToInt),
	)

	OperationalCapability = Compose(KindOperationalCapability, statementBase,
		field("NRTurnRatio", "rtr", FixedPointRate),
		field("NRTurnDays", "rtd", FixedPointRate),
		field("INVTurnRatio", "itr", FixedPointRate),
		field("INVTurnDays", "itd", FixedPointRate),
		field("CATurnRatio", "catr", FixedPointRate),
		field("AssetTurnRatio", "tatr", FixedPointRate),
	)

	GrowthAbility = Compose(KindGrowthAbility, statementBase,
		field("YOYEquity", "nagr", FixedPointRate),
		field("YOYAsset", "tagr", FixedPointRate),
		field("YOYNI", "npgr", FixedPointRate),
		field("YOYEPSBasic", "bepsgr", FixedPointRate),
		field("YOYPNI", "npasgr", FixedPointRate),
	)

	Solvency = Compose(KindSolvency, statementBase,
		field("currentRatio", "cr", FixedPointRate),
		field("quickRatio", "qr", FixedPointRate),
		field("cashRatio", "car", FixedPointRate),
		field("YOYLiability", "tlgr", FixedPointRate),
		field("liabilityToAsset", "dar", FixedPointRate),
		field("assetToEquity", "em", FixedPointRate),
	)

	CashFlow = Compose(KindCashFlow, statementBase,
		field("CAToAsset", "catar", FixedPointRate),
		field("NCAToAsset", "fatar", FixedPointRate),
		field("tangibleAssetToAsset", "tatar", FixedPointRate),
		field("ebitToInterest", "ipm", FixedPointRate),
		field("CFOToOR", "oncforr", FixedPointRate),
		field("CFOToNP", "oncfnpr", FixedPointRate),
		field("CFOToGr", "oncfgrr", FixedPointRate),
	)

	PerformanceReport = Compose(KindPerformanceReport, nil,
		field("code", "id", Identity),
		field("performanceExpPubDate", "publishDate", Identity),
		field("performanceExpStatDate", "statDate", Identity),
		field("performanceExpUpdateDate", "updateDate", Identity),
		field("performanceExpressTotalAsset", "ta", TruncateToInt),
		field("performanceExpressNetAsset", "na", TruncateToInt),
		field("performanceExpressEPSChgPct", "epsgr", FixedPointRate),
		field("performanceExpressROEWa", "roew", FixedPointRate),
		field("performanceExpressEPSDiluted", "epsd", FixedPointRate),
		field("performanceExpressGRYOY", "grgr", FixedPointRate),
		field("performanceExpressOPYOY", "opgr", FixedPointRate),
	)

	PerformanceForecast = Compose(KindPerformanceForecast, nil,
		field("code", "id", Identity),
		field("profitForcastExpPubDate", "publishDate", Identity),
		field("profitForcastExpStatDate", "statDate", Identity),
		field("profitForcastType", "type", Identity),
		field("profitForcastAbstract", "abstract", Identity),
		field("profitForcastChgPctUp", "npasgrUpperLimit", FixedPointRate),
		field("profitForcastChgPctDwn", "npasgrLowerLimit", FixedPointRate),
	)

	TradeCalendar = Compose(KindTradeCalendar, nil,
		field("calendar_date", "date", Identity),
		field("is_trading_day", "trading", TradingDayFlag),
	)
)

var registry = map[string]*Table{}

func init() {
	for _, t := range []*Table{
		StockInfo, StockList, MinutelyPrice, DailyPrice, WeeklyPrice,
		Profitability, OperationalCapability, GrowthAbility, Solvency, CashFlow,
		PerformanceReport, PerformanceForecast, TradeCalendar,
	} {
		registry[t.kind] = t
	}
}

// Lookup returns the table registered for kind.
func Lookup(kind string) (*Table, bool) {
	t, ok := registry[kind]
	return t, ok
}

// Kinds returns every registered record kind, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
