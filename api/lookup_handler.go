package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/lookup"
)

// registerLookupRoutes mounts the reference tables the API was built with.
func (a *API) registerLookupRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("lookup"))

	if a.countries != nil {
		if err := g.GET("/lookup/countries", a.listCountries,
			forge.WithSummary("List countries"),
			forge.WithDescription("Lists the country reference table."),
			forge.WithOperationID("listCountries"),
			forge.WithRequestSchema(ListRequest{}),
			forge.WithResponseSchema(http.StatusOK, "Country page", &listquery.Result[*lookup.Country]{}),
			forge.WithErrorResponses(),
		); err != nil {
			return err
		}
	}

	if a.currencies != nil {
		return g.GET("/lookup/currencies", a.listCurrencies,
			forge.WithSummary("List currencies"),
			forge.WithDescription("Lists the currency reference table."),
			forge.WithOperationID("listCurrencies"),
			forge.WithRequestSchema(ListRequest{}),
			forge.WithResponseSchema(http.StatusOK, "Currency page", &listquery.Result[*lookup.Currency]{}),
			forge.WithErrorResponses(),
		)
	}
	return nil
}

func (a *API) listCountries(ctx forge.Context, req *ListRequest) (*listquery.Result[*lookup.Country], error) {
	res := a.countries.List(req.query())
	return nil, ctx.JSON(http.StatusOK, res)
}

func (a *API) listCurrencies(ctx forge.Context, req *ListRequest) (*listquery.Result[*lookup.Currency], error) {
	res := a.currencies.List(req.query())
	return nil, ctx.JSON(http.StatusOK, res)
}
