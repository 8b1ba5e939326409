// Package lookup provides read-only reference tables for countries and
// currencies. Tables are built once by the caller and passed by reference.
package lookup

import (
	"cmp"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xraph/tenancy/listquery"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrInvalidEntry is returned when a table source holds an entry without a
// code or with a duplicate code.
var ErrInvalidEntry = errors.New("lookup: invalid entry")

// Country describes a country by its ISO 3166-1 alpha-2 code.
type Country struct {
	Code           string `json:"code"`
	ShortName      string `json:"short_name"`
	TranslatedName string `json:"translated_name,omitempty"`
	Description    string `json:"description,omitempty"`
	CurrencyCode   string `json:"currency_code"`
	LanguageCode   string `json:"language_code"`
}

// SearchIndex returns the search index of a country.
func (c *Country) SearchIndex() string {
	return listquery.SearchIndex(c.Code, c.ShortName, c.TranslatedName)
}

// Currency describes a currency by its ISO 4217 code.
type Currency struct {
	Code        string `json:"code"`
	CountryCode string `json:"country_code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SearchIndex returns the search index of a currency.
func (c *Currency) SearchIndex() string {
	return listquery.SearchIndex(c.Code, c.Name, c.CountryCode)
}

// CountrySortKeys is the whitelist of sort orders for country listings.
var CountrySortKeys = listquery.NewSortTable(
	listquery.SortKey[*Country]{Name: "name", Column: "short_name", Compare: func(a, b *Country) int {
		return cmp.Or(strings.Compare(a.ShortName, b.ShortName), strings.Compare(a.Code, b.Code))
	}},
	listquery.SortKey[*Country]{Name: "code", Column: "code", Compare: func(a, b *Country) int {
		return strings.Compare(a.Code, b.Code)
	}},
	listquery.SortKey[*Country]{Name: "currency", Column: "currency_code", Compare: func(a, b *Country) int {
		return cmp.Or(strings.Compare(a.CurrencyCode, b.CurrencyCode), strings.Compare(a.Code, b.Code))
	}},
)

// CurrencySortKeys is the whitelist of sort orders for currency listings.
var CurrencySortKeys = listquery.NewSortTable(
	listquery.SortKey[*Currency]{Name: "code", Column: "code", Compare: func(a, b *Currency) int {
		return strings.Compare(a.Code, b.Code)
	}},
	listquery.SortKey[*Currency]{Name: "name", Column: "name", Compare: func(a, b *Currency) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.Code, b.Code))
	}},
)

// Table is an immutable set of entries keyed by upper-case code.
type Table[T any] struct {
	items []T
	byKey map[string]T
	index func(T) string
	sorts *listquery.SortTable[T]
}

func newTable[T any](items []T, code func(T) string, index func(T) string, sorts *listquery.SortTable[T]) (*Table[T], error) {
	t := &Table[T]{
		items: items,
		byKey: make(map[string]T, len(items)),
		index: index,
		sorts: sorts,
	}
	for i, it := range items {
		k := strings.ToUpper(strings.TrimSpace(code(it)))
		if k == "" {
			return nil, fmt.Errorf("%w: entry %d has no code", ErrInvalidEntry, i)
		}
		if _, dup := t.byKey[k]; dup {
			return nil, fmt.Errorf("%w: duplicate code %q", ErrInvalidEntry, k)
		}
		t.byKey[k] = it
	}
	return t, nil
}

// Get returns the entry with the given code. Codes are case-insensitive.
func (t *Table[T]) Get(code string) (T, bool) {
	v, ok := t.byKey[strings.ToUpper(strings.TrimSpace(code))]
	return v, ok
}

// All returns a copy of every entry in source order.
func (t *Table[T]) All() []T {
	out := make([]T, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of entries.
func (t *Table[T]) Len() int { return len(t.items) }

// List runs a listing query over the table.
func (t *Table[T]) List(q listquery.Query) listquery.Result[T] {
	return listquery.Apply(t.items, q, t.index, t.sorts)
}

// Countries is a table of countries.
type Countries = Table[*Country]

// Currencies is a table of currencies.
type Currencies = Table[*Currency]

// LoadCountries reads a JSON array of countries.
func LoadCountries(r io.Reader) (*Countries, error) {
	var items []*Country
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("lookup: decode countries: %w", err)
	}
	for _, c := range items {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		c.CurrencyCode = strings.ToUpper(strings.TrimSpace(c.CurrencyCode))
	}
	return newTable(items,
		func(c *Country) string { return c.Code },
		(*Country).SearchIndex,
		CountrySortKeys)
}

// LoadCurrencies reads a JSON array of currencies.
func LoadCurrencies(r io.Reader) (*Currencies, error) {
	var items []*Currency
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("lookup: decode currencies: %w", err)
	}
	for _, c := range items {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))
	}
	return newTable(items,
		func(c *Currency) string { return c.Code },
		(*Currency).SearchIndex,
		CurrencySortKeys)
}

// DefaultCountries builds the country table shipped with the module.
func DefaultCountries() (*Countries, error) {
	f, err := dataFS.Open("data/countries.json")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCountries(f)
}

// DefaultCurrencies builds the currency table shipped with the module.
func DefaultCurrencies() (*Currencies, error) {
	f, err := dataFS.Open("data/currencies.json")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCurrencies(f)
}
