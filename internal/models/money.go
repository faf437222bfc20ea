package models

import "github.com/shopspring/decimal"

// MoneyDecimals is the number of decimal places money columns store.
const MoneyDecimals = 2

// MaxMoney is the exclusive upper bound of a NUMERIC(14,2) column.
var MaxMoney = decimal.New(1, 12)

// ValidateMoney checks that amount is positive and can be stored without
// rounding. field names the value in the error message.
func ValidateMoney(field string, amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return Validationf("%s must be greater than 0", field)
	case !amount.Equal(amount.Round(MoneyDecimals)):
		return Validationf("%s can have at most %d decimal places", field, MoneyDecimals)
	case amount.GreaterThanOrEqual(MaxMoney):
		return Validationf("%s must be less than %s", field, MaxMoney.String())
	}
	return nil
}
