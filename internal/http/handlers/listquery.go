package handlers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

const defaultPageSize = 25

// userListFields maps exposed filter/sort names onto storage columns.
// Anything outside this map is rejected rather than silently interpolated.
var userListFields = map[string]string{
	"id":            "id",
	"name":          "name",
	"email":         "email",
	"phone":         "phone",
	"referralCode":  "referral_code",
	"adminApproved": "admin_approved",
	"emailVerified": "email_verified",
	"balance":       "balance",
	"createdAt":     "created_at",
}

var paymentListFields = map[string]string{
	"id":          "id",
	"userId":      "user_id",
	"type":        "type",
	"amount":      "amount",
	"status":      "status",
	"requestDate": "request_date",
	"createdAt":   "created_at",
}

// parseListParams decodes react-admin style filter/sort/range query
// parameters against a field allow-list.
func parseListParams(query url.Values, fields map[string]string) (ports.ListParams, error) {
	params := ports.ListParams{
		SortField: "created_at",
		SortDesc:  true,
		Limit:     defaultPageSize,
	}

	if raw := query.Get("filter"); raw != "" {
		var filter map[string]any
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			return params, fmt.Errorf("%w: malformed filter", domain.ErrValidation)
		}
		mapped := make(map[string]any, len(filter))
		for field, value := range filter {
			column, ok := fields[field]
			if !ok {
				return params, fmt.Errorf("%w: cannot filter by %q", domain.ErrValidation, field)
			}
			mapped[column] = value
		}
		if len(mapped) > 0 {
			params.Filter = mapped
		}
	}

	if raw := query.Get("sort"); raw != "" {
		var sort [2]string
		if err := json.Unmarshal([]byte(raw), &sort); err != nil {
			return params, fmt.Errorf("%w: malformed sort", domain.ErrValidation)
		}
		column, ok := fields[sort[0]]
		if !ok {
			return params, fmt.Errorf("%w: cannot sort by %q", domain.ErrValidation, sort[0])
		}
		params.SortField = column
		params.SortDesc = strings.EqualFold(sort[1], "DESC")
	}

	if raw := query.Get("range"); raw != "" {
		var bounds [2]int
		if err := json.Unmarshal([]byte(raw), &bounds); err != nil {
			return params, fmt.Errorf("%w: malformed range", domain.ErrValidation)
		}
		if bounds[0] < 0 || bounds[1] < bounds[0] {
			return params, fmt.Errorf("%w: invalid range bounds", domain.ErrValidation)
		}
		params.Offset = bounds[0]
		params.Limit = bounds[1] - bounds[0] + 1
	}

	return params, nil
}

// contentRange renders the header react-admin expects, e.g. "users 0-24/113".
func contentRange(resource string, params ports.ListParams, count, total int) string {
	end := params.Offset
	if count > 0 {
		end = params.Offset + count - 1
	}
	return fmt.Sprintf("%s %d-%d/%d", resource, params.Offset, end, total)
}
