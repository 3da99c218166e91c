package query

import "storefront-api/internal/application/common"

type GetUserQuery struct {
	SessionToken string
}

type UserQueryResult struct {
	Result *common.UserResult `json:"result"`
}

type UserQueryListResult struct {
	Result []*common.UserResult `json:"result"`
}
