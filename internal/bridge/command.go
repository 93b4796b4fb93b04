package bridge

import (
	"fmt"
	"strings"
)

// Operation names accepted on input.
const (
	OpGetStockList             = "getStockList"
	OpGetStockInfo             = "getStockInfo"
	OpGetMinutelyPrice         = "getMinutelyPrice"
	OpGetDailyPrice            = "getDailyPrice"
	OpGetWeeklyPrice           = "getWeeklyPrice"
	OpCheckTradeStatus         = "checkTradeStatus"
	OpGetProfitability         = "getProfitability"
	OpGetOperationalCapability = "getOperationalCapability"
	OpGetGrowthAbility         = "getGrowthAbility"
	OpGetSolvency              = "getSolvency"
	OpGetCashFlow              = "getCashFlow"
	OpGetPerformanceReport     = "getPerformanceReport"
	OpGetPerformanceForecast   = "getPerformanceForecast"
	OpGetTradeCalendar         = "getTradeCalendar"
	OpExit                     = "exit"
)

// Command is one parsed input line. Raw keeps the line exactly as read.
type Command struct {
	Operation string
	Args      []string
	Raw       string
}

// ParseCommand splits a line on whitespace. A blank line yields an empty
// operation.
func ParseCommand(raw string) Command {
	cmd := Command{Raw: raw}
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return cmd
	}
	cmd.Operation = tokens[0]
	cmd.Args = tokens[1:]
	return cmd
}

// ArgumentError reports a positional argument count outside what the
// operation accepts.
type ArgumentError struct {
	Operation string
	Got       int
	Min       int
	Max       int
}

func (e *ArgumentError) Error() string {
	if e.Min == e.Max {
		return fmt.Sprintf("%s takes %d argument(s), got %d", e.Operation, e.Min, e.Got)
	}
	return fmt.Sprintf("%s takes %d to %d arguments, got %d", e.Operation, e.Min, e.Max, e.Got)
}

// arg returns the i-th argument or def when it was omitted.
func arg(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
