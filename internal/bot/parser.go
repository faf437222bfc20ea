package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

const (
	periodWeek  = "week"
	periodMonth = "month"
	periodAll   = "all"
)

// amountRegex matches amounts like "5", "5.50", "5,50", "$5.50". At most
// twelve integer digits fit the money columns.
var amountRegex = regexp.MustCompile(`^\$?(\d{1,12}(?:[.,]\d{1,2})?)$`)

var (
	errInvalidAmount = errors.New("amount must be a positive number below 1000000000000 with at most two decimals, like 12.50")
	errInvalidDate   = errors.New("dates must look like 2024-01-31")
	errInvalidID     = errors.New("id must be a number, like 12 or #12")
)

// parseAmount parses a positive money amount.
func parseAmount(s string) (decimal.Decimal, error) {
	m := amountRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Zero, errInvalidAmount
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

// parseDate parses a calendar date in loc and returns the start of that day.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

// parseEndDate parses a calendar date in loc and returns the last second of
// that day, so a range ending on a date includes the whole date.
func parseEndDate(s string, loc *time.Location) (time.Time, error) {
	t, err := parseDate(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return endOfDay(t), nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseID parses a row ID, accepting an optional leading '#'.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// cutWord splits off the first whitespace-separated word.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// matchCategoryPrefix finds the longest category name that starts s on a
// word boundary, ignoring case. It returns the canonical name and the text
// after it.
func matchCategoryPrefix(s string, names []string) (name, rest string, ok bool) {
	s = strings.TrimSpace(s)
	for _, candidate := range names {
		n := len(candidate)
		if n == 0 || len(s) < n || !strings.EqualFold(s[:n], candidate) {
			continue
		}
		if len(s) > n && s[n] != ' ' {
			continue
		}
		if len(candidate) > len(name) {
			name = candidate
			ok = true
		}
	}
	if !ok {
		return "", s, false
	}
	return name, strings.TrimSpace(s[len(name):]), true
}

// ParsedTransaction is the parsed form of "/income" and "/expense".
type ParsedTransaction struct {
	Amount       decimal.Decimal
	CategoryName string
	Notes        string
}

// ParseTransactionArgs parses "<amount> <category> [notes]". The category
// may span several words and is matched against categoryNames.
func ParseTransactionArgs(args string, categoryNames []string) (*ParsedTransaction, error) {
	amountStr, rest := cutWord(args)
	if amountStr == "" {
		return nil, errors.New("amount is required")
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, err
	}
	if rest == "" {
		return nil, errors.New("category is required")
	}
	name, notes, ok := matchCategoryPrefix(rest, categoryNames)
	if !ok {
		word, _ := cutWord(rest)
		return nil, fmt.Errorf("unknown category %q, see /categories", word)
	}
	return &ParsedTransaction{Amount: amount, CategoryName: name, Notes: notes}, nil
}

// ParsedSaving is the parsed form of "/save".
type ParsedSaving struct {
	Amount   decimal.Decimal
	SavingID int64
	Notes    string
}

// ParseSavingArgs parses "<amount> <goal id> [notes]".
func ParseSavingArgs(args string) (*ParsedSaving, error) {
	amountStr, rest := cutWord(args)
	idStr, notes := cutWord(rest)
	if amountStr == "" || idStr == "" {
		return nil, errors.New("amount and goal id are required")
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, err
	}
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	return &ParsedSaving{Amount: amount, SavingID: id, Notes: notes}, nil
}

// ParsedBudget is the parsed form of "/budget".
type ParsedBudget struct {
	Limit        decimal.Decimal
	Start        time.Time
	End          time.Time
	CategoryName string
}

// ParseBudgetArgs parses "<limit> <start> <end> <category>". The end date is
// inclusive.
func ParseBudgetArgs(args string, categoryNames []string, loc *time.Location) (*ParsedBudget, error) {
	limitStr, rest := cutWord(args)
	startStr, rest := cutWord(rest)
	endStr, rest := cutWord(rest)
	if rest == "" {
		return nil, errors.New("limit, start date, end date and category are required")
	}
	limit, err := parseAmount(limitStr)
	if err != nil {
		return nil, err
	}
	start, err := parseDate(startStr, loc)
	if err != nil {
		return nil, err
	}
	end, err := parseEndDate(endStr, loc)
	if err != nil {
		return nil, err
	}
	name, extra, ok := matchCategoryPrefix(rest, categoryNames)
	if !ok || extra != "" {
		return nil, fmt.Errorf("unknown category %q, see /categories", rest)
	}
	return &ParsedBudget{Limit: limit, Start: start, End: end, CategoryName: name}, nil
}

// ParsedGoal is the parsed form of "/goal".
type ParsedGoal struct {
	Target decimal.Decimal
	End    time.Time
	Title  string
	Notes  string
}

// ParseGoalArgs parses "<target> <end date> <title> [| notes]".
func ParseGoalArgs(args string, loc *time.Location) (*ParsedGoal, error) {
	targetStr, rest := cutWord(args)
	endStr, rest := cutWord(rest)
	if rest == "" {
		return nil, errors.New("target, end date and title are required")
	}
	target, err := parseAmount(targetStr)
	if err != nil {
		return nil, err
	}
	end, err := parseEndDate(endStr, loc)
	if err != nil {
		return nil, err
	}
	title, notes, _ := strings.Cut(rest, "|")
	return &ParsedGoal{
		Target: target,
		End:    end,
		Title:  strings.TrimSpace(title),
		Notes:  strings.TrimSpace(notes),
	}, nil
}

// ParsedEdit is "<id> <field> <value>" as used by the edit commands.
type ParsedEdit struct {
	ID    int64
	Field string
	Value string
}

// ParseEditArgs parses "<id> <field> <value>". The field is lower-cased and
// must be one of fields.
func ParseEditArgs(args string, fields ...string) (*ParsedEdit, error) {
	idStr, rest := cutWord(args)
	field, value := cutWord(rest)
	if idStr == "" || field == "" || value == "" {
		return nil, fmt.Errorf("expected <id> <%s> <value>", strings.Join(fields, "|"))
	}
	id, err := parseID(idStr)
	if err != nil {
		return nil, err
	}
	field = strings.ToLower(field)
	for _, f := range fields {
		if f == field {
			return &ParsedEdit{ID: id, Field: field, Value: value}, nil
		}
	}
	return nil, fmt.Errorf("unknown field %q, use one of %s", field, strings.Join(fields, ", "))
}

// periodRange returns the bounds of a named reporting period relative to now.
// "all" has no bounds.
func periodRange(period string, now time.Time) (from, to *time.Time, label string, err error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", periodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0).Add(-time.Second)
		return &start, &end, start.Format("January 2006"), nil
	case periodWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := startOfDay(now).AddDate(0, 0, 1-weekday)
		end := start.AddDate(0, 0, 7).Add(-time.Second)
		return &start, &end, fmt.Sprintf("%s to %s", start.Format("Jan 2"), end.Format("Jan 2, 2006")), nil
	case periodAll:
		return nil, nil, "all time", nil
	default:
		return nil, nil, "", fmt.Errorf("unknown period %q, use week, month or all", period)
	}
}
