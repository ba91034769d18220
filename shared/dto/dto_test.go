package dto_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"berth/shared/constant"
	"berth/shared/dto"
	"berth/shared/model"
)

func TestMetadata_FromModel(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	modifiedAt := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	modelMetadata := model.Metadata{
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
		CreatedBy:  "creator",
		ModifiedBy: "modifier",
	}

	metadata := &dto.Metadata{}
	metadata.FromModel(modelMetadata)

	if metadata.CreatedAt != createdAt.Format(constant.DateFormat) {
		t.Errorf("expected CreatedAt to be %s, got %s", createdAt.Format(constant.DateFormat), metadata.CreatedAt)
	}

	if metadata.CreatedBy != "creator" {
		t.Errorf("expected CreatedBy to be 'creator', got %s", metadata.CreatedBy)
	}

	if metadata.ModifiedBy != "modifier" {
		t.Errorf("expected ModifiedBy to be 'modifier', got %s", metadata.ModifiedBy)
	}
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		defaultRequest bool
		expected       dto.QueryParams
	}{
		{
			name: "with all valid parameters",
			queryParams: map[string]string{
				"page":     "2",
				"limit":    "20",
				"sort_by":  "slot_start",
				"sort_dir": "ASC",
			},
			defaultRequest: false,
			expected: dto.QueryParams{
				Page:    2,
				Limit:   20,
				SortBy:  "slot_start",
				SortDir: "ASC",
			},
		},
		{
			name:           "with default request enabled and no parameters",
			queryParams:    map[string]string{},
			defaultRequest: true,
			expected: dto.QueryParams{
				Page:  constant.DefaultValuePage,
				Limit: constant.DefaultValueLimit,
			},
		},
		{
			name:           "with default request disabled and no parameters",
			queryParams:    map[string]string{},
			defaultRequest: false,
			expected:       dto.QueryParams{},
		},
		{
			name: "with invalid page parameter",
			queryParams: map[string]string{
				"page": "invalid",
			},
			defaultRequest: true,
			expected: dto.QueryParams{
				Page:  constant.DefaultValuePage,
				Limit: constant.DefaultValueLimit,
			},
		},
		{
			name: "with negative limit parameter",
			queryParams: map[string]string{
				"limit": "-10",
			},
			defaultRequest: true,
			expected: dto.QueryParams{
				Page:  constant.DefaultValuePage,
				Limit: constant.DefaultValueLimit,
			},
		},
		{
			name: "with lowercase sort direction",
			queryParams: map[string]string{
				"sort_dir": "desc",
			},
			defaultRequest: true,
			expected: dto.QueryParams{
				Page:    constant.DefaultValuePage,
				Limit:   constant.DefaultValueLimit,
				SortDir: dto.SortDirDesc,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse("http://example.com/test")
			if err != nil {
				t.Fatalf("failed to parse URL: %v", err)
			}

			query := u.Query()
			for key, value := range tt.queryParams {
				query.Set(key, value)
			}
			u.RawQuery = query.Encode()

			req, err := http.NewRequest(http.MethodGet, u.String(), nil)
			if err != nil {
				t.Fatalf("failed to create request: %v", err)
			}

			queryParams := &dto.QueryParams{}
			queryParams.FromRequest(req, tt.defaultRequest)

			if *queryParams != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, *queryParams)
			}
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "slot_id", Operator: dto.FilterOperatorEq, Value: "slot-1", Table: "reservations"},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{Field: "registrant_id", Operator: dto.FilterOperatorEq, Value: "member-1"},
					dto.Filter{Field: "attendee_email", Operator: dto.FilterOperatorEq, Value: "a@b.com"},
				},
			},
		},
	}

	where, args := group.GetWhereClause()

	if where != "(reservations.slot_id = :slot_id AND (registrant_id = :registrant_id OR attendee_email = :attendee_email))" {
		t.Errorf("unexpected where clause: %s", where)
	}

	if args["slot_id"] != "slot-1" || args["registrant_id"] != "member-1" || args["attendee_email"] != "a@b.com" {
		t.Errorf("unexpected args: %+v", args)
	}
}

func TestFilter_InOperator(t *testing.T) {
	filter := dto.Filter{
		Field:    "slot_id",
		Operator: dto.FilterOperatorIn,
		Value:    []string{"a", "b"},
	}

	where, args := filter.GetWhereClause()

	if where != "slot_id IN (:slot_id_0, :slot_id_1) " {
		t.Errorf("unexpected where clause: %s", where)
	}

	if args["slot_id_0"] != "a" || args["slot_id_1"] != "b" {
		t.Errorf("unexpected args: %+v", args)
	}
}
