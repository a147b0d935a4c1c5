package repository

import (
	"math"
	"net/url"
	"reflect"
	"testing"
)

// TestParseListingQuery_Defaults проверяет значения по умолчанию.
func TestParseListingQuery_Defaults(t *testing.T) {
	q := ParseListingQuery(url.Values{})

	if q.Page != 1 {
		t.Errorf("Page = %d, ожидалась 1", q.Page)
	}
	if q.Sort != SortNewest {
		t.Errorf("Sort = %q, ожидался newest", q.Sort)
	}
	if q.Offset() != 0 {
		t.Errorf("Offset = %d, ожидался 0", q.Offset())
	}
	if !reflect.DeepEqual(q.Filter, ListingFilter{}) {
		t.Errorf("Filter = %+v, ожидался пустой", q.Filter)
	}
}

// TestParseListingQuery_Page проверяет нормализацию страницы.
func TestParseListingQuery_Page(t *testing.T) {
	cases := map[string]int{
		"3":                   3,
		"0":                   1,
		"-2":                  1,
		"abc":                 1,
		"":                    1,
		"9223372036854775807": 1,
		"307445734561825862":  1,
	}
	for raw, want := range cases {
		q := ParseListingQuery(url.Values{"page": {raw}})
		if q.Page != want {
			t.Errorf("page=%q: Page = %d, ожидалась %d", raw, q.Page, want)
		}
	}

	q := ParseListingQuery(url.Values{"page": {"3"}})
	if q.Offset() != 60 {
		t.Errorf("Offset = %d, ожидался 60 для страницы 3", q.Offset())
	}
}

// TestListingQuery_OffsetNeverNegative проверяет смещение для огромных страниц.
func TestListingQuery_OffsetNeverNegative(t *testing.T) {
	for _, page := range []int{maxPage, maxPage + 1, math.MaxInt} {
		q := ListingQuery{Page: page}
		if q.Offset() < 0 {
			t.Errorf("page=%d: Offset = %d, ожидалось неотрицательное", page, q.Offset())
		}
	}
}

// TestParseListingQuery_OutOfRange проверяет, что числа вне диапазона колонок считаются отсутствующими.
func TestParseListingQuery_OutOfRange(t *testing.T) {
	q := ParseListingQuery(url.Values{
		"yearFrom": {"92233720368547758"},
		"yearTo":   {"0"},
		"hpTo":     {"3000000000"},
	})

	if q.Filter.YearFrom != nil {
		t.Errorf("YearFrom = %v, ожидался nil", *q.Filter.YearFrom)
	}
	if q.Filter.YearTo != nil {
		t.Errorf("YearTo = %v, ожидался nil", *q.Filter.YearTo)
	}
	if q.Filter.HPTo != nil {
		t.Errorf("HPTo = %v, ожидался nil", *q.Filter.HPTo)
	}
	if p := BuildPredicate(q.Filter); p.Where() != "" || len(p.Args) != 0 {
		t.Errorf("predicate = %q %v, ожидался пустой", p.Where(), p.Args)
	}

	q = ParseListingQuery(url.Values{"yearTo": {"9999"}, "hpTo": {"2147483647"}})
	if q.Filter.YearTo == nil || *q.Filter.YearTo != 9999 {
		t.Errorf("YearTo = %v, ожидался 9999", q.Filter.YearTo)
	}
	if q.Filter.HPTo == nil || *q.Filter.HPTo != 2147483647 {
		t.Errorf("HPTo = %v, ожидался 2147483647", q.Filter.HPTo)
	}
}

// TestParseListingQuery_Permissive проверяет, что некорректные числа считаются отсутствующими.
func TestParseListingQuery_Permissive(t *testing.T) {
	q := ParseListingQuery(url.Values{
		"yearFrom":  {"20x1"},
		"monthFrom": {"13"},
		"priceTo":   {"дорого"},
		"hpTo":      {"160"},
		"mileageTo": {" 50000 "},
	})

	if q.Filter.YearFrom != nil {
		t.Errorf("YearFrom = %v, ожидался nil", *q.Filter.YearFrom)
	}
	if q.Filter.MonthFrom != nil {
		t.Errorf("MonthFrom = %v, ожидался nil для месяца 13", *q.Filter.MonthFrom)
	}
	if q.Filter.PriceTo != nil {
		t.Errorf("PriceTo = %v, ожидался nil", *q.Filter.PriceTo)
	}
	if q.Filter.HPTo == nil || *q.Filter.HPTo != 160 {
		t.Errorf("HPTo = %v, ожидался 160", q.Filter.HPTo)
	}
	if q.Filter.MileageTo == nil || *q.Filter.MileageTo != 50000 {
		t.Errorf("MileageTo = %v, ожидался 50000", q.Filter.MileageTo)
	}
}

// TestParseListingQuery_Lists проверяет разбор списков через запятую.
func TestParseListingQuery_Lists(t *testing.T) {
	q := ParseListingQuery(url.Values{
		"grade": {" 1.6 , 2.0,,"},
		"fuel":  {"gasoline"},
		"color": {" , "},
		"type":  {""},
	})

	if !reflect.DeepEqual(q.Filter.Grades, []string{"1.6", "2.0"}) {
		t.Errorf("Grades = %q, ожидалось [1.6 2.0]", q.Filter.Grades)
	}
	if !reflect.DeepEqual(q.Filter.Fuels, []string{"gasoline"}) {
		t.Errorf("Fuels = %q, ожидалось [gasoline]", q.Filter.Fuels)
	}
	if q.Filter.Colors != nil || q.Filter.Categories != nil {
		t.Errorf("Colors = %q, Categories = %q, ожидались nil", q.Filter.Colors, q.Filter.Categories)
	}
}

// TestParseListingQuery_Flags проверяет литеральные флаги.
func TestParseListingQuery_Flags(t *testing.T) {
	cases := map[string]bool{
		"true":  true,
		"1":     true,
		"TRUE":  true,
		"false": false,
		"yes":   false,
		"":      false,
	}
	for raw, want := range cases {
		q := ParseListingQuery(url.Values{"noAccident": {raw}, "trusted": {raw}})
		if q.Filter.NoAccident != want || q.Filter.Trusted != want {
			t.Errorf("flag=%q: NoAccident=%v Trusted=%v, ожидалось %v", raw, q.Filter.NoAccident, q.Filter.Trusted, want)
		}
	}
}

// TestParseListingQuery_Strings проверяет строковые равенства.
func TestParseListingQuery_Strings(t *testing.T) {
	q := ParseListingQuery(url.Values{
		"brand":      {" Hyundai "},
		"modelGroup": {""},
		"model":      {"Sonata"},
		"sort":       {"price_desc"},
	})

	if q.Filter.Brand == nil || *q.Filter.Brand != "Hyundai" {
		t.Errorf("Brand = %v, ожидался Hyundai", q.Filter.Brand)
	}
	if q.Filter.ModelGroup != nil {
		t.Errorf("ModelGroup = %q, ожидался nil", *q.Filter.ModelGroup)
	}
	if q.Sort != SortPriceDesc {
		t.Errorf("Sort = %q, ожидался price_desc", q.Sort)
	}
}

// TestParseListingQuery_EndToEndPredicate проверяет годовые границы по умолчанию от строки запроса.
func TestParseListingQuery_EndToEndPredicate(t *testing.T) {
	q := ParseListingQuery(url.Values{"yearFrom": {"2021"}, "yearTo": {"2022"}})
	p := BuildPredicate(q.Filter)

	if !reflect.DeepEqual(p.Args, []any{202101, 202212}) {
		t.Errorf("args = %v, ожидались [202101 202212]", p.Args)
	}
}
