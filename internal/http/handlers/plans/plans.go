// Package plans отдаёт каталог тарифов.
package plans

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	catalog "github.com/magabrotheeeer/trading-signals/internal/plans"
)

// ServeHTTP godoc
// @Summary Каталог тарифов
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Response
// @Router /plans [get]
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans":    catalog.Catalog(),
		"currency": catalog.Currency,
	}))
}
