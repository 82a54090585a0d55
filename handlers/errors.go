package handlers

import (
	"fmt"

	"github.com/fenilmodi00/stock-api/shared"
)

func invalidLimit(raw, reason string) *shared.ServiceError {
	return shared.NewServiceError(shared.ErrorCategoryValidation, "INVALID_LIMIT",
		fmt.Sprintf("query parameter n=%q %s", raw, reason), "StockHandler", "parseLimit", false, nil)
}
