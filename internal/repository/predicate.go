package repository

import (
	"strconv"
	"strings"
)

// Predicate — конъюнкция условий и выровненный с ней список аргументов.
// Плейсхолдеры в Conds пронумерованы $1..$N в порядке появления,
// Args[i] соответствует $(i+1).
type Predicate struct {
	Conds []string
	Args  []any
}

// Where возвращает "WHERE ..." или пустую строку, если условий нет.
func (p Predicate) Where() string {
	if len(p.Conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.Conds, " AND ")
}

// binder раздаёт номера плейсхолдеров, одновременно добавляя аргумент.
// Номер и аргумент появляются в одной операции, поэтому разойтись не могут.
type binder struct {
	args []any
}

// bind добавляет аргумент и возвращает его плейсхолдер.
func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// clause — типизированный построитель одного условия.
// Возвращает фрагмент и false, если фильтр не задан.
type clause func(f *ListingFilter, b *binder) (string, bool)

// listingClauses — фиксированный порядок условий каталога.
var listingClauses = []clause{
	yearFromClause,
	yearToClause,
	lowerBound("total_price", func(f *ListingFilter) *int64 { return f.PriceFrom }),
	upperBound("total_price", func(f *ListingFilter) *int64 { return f.PriceTo }),
	lowerBound("mileage", func(f *ListingFilter) *int64 { return f.MileageFrom }),
	upperBound("mileage", func(f *ListingFilter) *int64 { return f.MileageTo }),
	horsepowerClause,
	equals("manufacturer", func(f *ListingFilter) *string { return f.Brand }),
	equals("model_group", func(f *ListingFilter) *string { return f.ModelGroup }),
	equals("model", func(f *ListingFilter) *string { return f.Model }),
	inList("grade", func(f *ListingFilter) []string { return f.Grades }),
	inList("fuel_type", func(f *ListingFilter) []string { return f.Fuels }),
	inList("color_type", func(f *ListingFilter) []string { return f.Colors }),
	inList("category", func(f *ListingFilter) []string { return f.Categories }),
	noAccidentClause,
	trustedClause,
}

// BuildPredicate собирает предикат из фильтров.
// Один и тот же результат используется и для выборки страницы, и для подсчёта.
func BuildPredicate(f ListingFilter) Predicate {
	b := &binder{}
	var conds []string
	for _, build := range listingClauses {
		if cond, ok := build(&f, b); ok {
			conds = append(conds, cond)
		}
	}
	return Predicate{Conds: conds, Args: b.args}
}

// effectiveYearMonth — год-месяц выпуска с откатом на год-месяц объявления.
const effectiveYearMonth = "COALESCE(year_month, ad_year_month)"

// yearMonth кодирует год и месяц в YYYYMM.
func yearMonth(year, month int) int {
	return year*100 + month
}

func yearFromClause(f *ListingFilter, b *binder) (string, bool) {
	if f.YearFrom == nil {
		return "", false
	}
	month := 1
	if f.MonthFrom != nil {
		month = *f.MonthFrom
	}
	return effectiveYearMonth + " >= " + b.bind(yearMonth(*f.YearFrom, month)), true
}

func yearToClause(f *ListingFilter, b *binder) (string, bool) {
	if f.YearTo == nil {
		return "", false
	}
	month := 12
	if f.MonthTo != nil {
		month = *f.MonthTo
	}
	return effectiveYearMonth + " <= " + b.bind(yearMonth(*f.YearTo, month)), true
}

func lowerBound(column string, get func(*ListingFilter) *int64) clause {
	return func(f *ListingFilter, b *binder) (string, bool) {
		v := get(f)
		if v == nil {
			return "", false
		}
		return column + " >= " + b.bind(*v), true
	}
}

func upperBound(column string, get func(*ListingFilter) *int64) clause {
	return func(f *ListingFilter, b *binder) (string, bool) {
		v := get(f)
		if v == nil {
			return "", false
		}
		return column + " <= " + b.bind(*v), true
	}
}

// horsepowerClause исключает неизвестную мощность (0), хотя 0 <= любой границы.
func horsepowerClause(f *ListingFilter, b *binder) (string, bool) {
	if f.HPTo == nil {
		return "", false
	}
	return "horsepower > 0 AND horsepower <= " + b.bind(*f.HPTo), true
}

func equals(column string, get func(*ListingFilter) *string) clause {
	return func(f *ListingFilter, b *binder) (string, bool) {
		v := get(f)
		if v == nil || *v == "" {
			return "", false
		}
		return column + " = " + b.bind(*v), true
	}
}

// inList строит column IN ($i, ...); пустой список фильтр не добавляет.
func inList(column string, get func(*ListingFilter) []string) clause {
	return func(f *ListingFilter, b *binder) (string, bool) {
		values := get(f)
		if len(values) == 0 {
			return "", false
		}
		placeholders := make([]string, 0, len(values))
		for _, v := range values {
			placeholders = append(placeholders, b.bind(v))
		}
		return column + " IN (" + strings.Join(placeholders, ", ") + ")", true
	}
}

func noAccidentClause(f *ListingFilter, _ *binder) (string, bool) {
	if !f.NoAccident {
		return "", false
	}
	return "accident_count = 0 AND accident_cost = 0", true
}

func trustedClause(f *ListingFilter, _ *binder) (string, bool) {
	if !f.Trusted {
		return "", false
	}
	return "is_trusted = TRUE", true
}
