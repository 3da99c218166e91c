package query

import "storefront-api/internal/application/common"

type ProductQueryResult struct {
	Result *common.ProductResult `json:"result"`
}

type ProductQueryListResult struct {
	Result []*common.ProductResult `json:"result"`
}
