package repository

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// PageSize — количество объявлений на странице каталога.
const PageSize = 30

// maxPage — наибольшая страница, смещение которой не переполняет int.
const maxPage = math.MaxInt/PageSize + 1

// SortKey — ключ сортировки каталога.
type SortKey string

// Допустимые ключи сортировки.
const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortMileageAsc SortKey = "mileage_asc"
)

// sortOrders — whitelist ORDER BY для каждого ключа.
// Вторичной сортировки нет: порядок внутри равных значений не гарантируется.
var sortOrders = map[SortKey]string{
	SortNewest:     "ORDER BY first_advertised_at DESC",
	SortOldest:     "ORDER BY first_advertised_at ASC",
	SortPriceAsc:   "ORDER BY total_price ASC",
	SortPriceDesc:  "ORDER BY total_price DESC",
	SortMileageAsc: "ORDER BY mileage ASC",
}

// ParseSortKey возвращает ключ сортировки; неизвестные значения дают SortNewest.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.TrimSpace(s))
	if _, ok := sortOrders[k]; ok {
		return k
	}
	return SortNewest
}

// orderBy возвращает ORDER BY для ключа.
func (k SortKey) orderBy() string {
	if o, ok := sortOrders[k]; ok {
		return o
	}
	return sortOrders[SortNewest]
}

// ListingFilter — фильтры каталога.
// Указатели и пустые срезы означают «фильтр не применяется».
type ListingFilter struct {
	// Год/месяц выпуска: нижняя граница
	YearFrom  *int
	MonthFrom *int
	// Год/месяц выпуска: верхняя граница
	YearTo  *int
	MonthTo *int

	PriceFrom   *int64
	PriceTo     *int64
	MileageFrom *int64
	MileageTo   *int64
	// HPTo — верхняя граница мощности; неизвестная мощность (0) исключается
	HPTo *int64

	Brand      *string
	ModelGroup *string
	Model      *string

	Grades     []string
	Fuels      []string
	Colors     []string
	Categories []string

	// NoAccident — только без ДТП (ни количества, ни суммы ущерба)
	NoAccident bool
	// Trusted — только проверенные объявления
	Trusted bool
}

// ListingQuery — полный запрос каталога: фильтры, страница, сортировка.
type ListingQuery struct {
	Filter ListingFilter
	// Page — номер страницы, начиная с 1
	Page int
	Sort SortKey
}

// Offset возвращает смещение первой записи страницы.
func (q ListingQuery) Offset() int {
	page := q.Page
	if page < 1 || page > maxPage {
		page = 1
	}
	return (page - 1) * PageSize
}

// ParseListingQuery разбирает параметры строки запроса каталога.
// Некорректные значения не отклоняются, а считаются отсутствующими.
func ParseListingQuery(values url.Values) ListingQuery {
	f := ListingFilter{
		YearFrom:    parseYear(values.Get("yearFrom")),
		MonthFrom:   parseMonth(values.Get("monthFrom")),
		YearTo:      parseYear(values.Get("yearTo")),
		MonthTo:     parseMonth(values.Get("monthTo")),
		PriceFrom:   parseInt64(values.Get("priceFrom")),
		PriceTo:     parseInt64(values.Get("priceTo")),
		MileageFrom: parseInt64(values.Get("mileageFrom")),
		MileageTo:   parseInt64(values.Get("mileageTo")),
		HPTo:        parseInt32(values.Get("hpTo")),
		Brand:       parseString(values.Get("brand")),
		ModelGroup:  parseString(values.Get("modelGroup")),
		Model:       parseString(values.Get("model")),
		Grades:      SplitList(values.Get("grade")),
		Fuels:       SplitList(values.Get("fuel")),
		Colors:      SplitList(values.Get("color")),
		Categories:  SplitList(values.Get("type")),
		NoAccident:  parseFlag(values.Get("noAccident")),
		Trusted:     parseFlag(values.Get("trusted")),
	}

	page := 1
	if p := parseInt(values.Get("page")); p != nil && *p > 1 && *p <= maxPage {
		page = *p
	}

	return ListingQuery{
		Filter: f,
		Page:   page,
		Sort:   ParseSortKey(values.Get("sort")),
	}
}

// SplitList разбивает список через запятую: значения обрезаются,
// пустые отбрасываются. Пустой результат — nil.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}

func parseInt64(raw string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseInt32 — значение для колонок INT; вне диапазона int32 считается отсутствующим.
func parseInt32(raw string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return nil
	}
	return &n
}

// parseYear принимает только 1-9999.
func parseYear(raw string) *int {
	y := parseInt(raw)
	if y == nil || *y < 1 || *y > 9999 {
		return nil
	}
	return y
}

// parseMonth принимает только 1-12.
func parseMonth(raw string) *int {
	m := parseInt(raw)
	if m == nil || *m < 1 || *m > 12 {
		return nil
	}
	return m
}

func parseString(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// parseFlag — флаг включён только литералами true и 1.
func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true
	}
	return false
}
