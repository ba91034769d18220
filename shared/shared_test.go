package shared_test

import (
	"testing"

	"berth/shared"
	"berth/shared/constant"
	"berth/shared/dto"
)

func TestConvertStringToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *bool
	}{
		{name: "empty string returns nil", input: "", expected: nil},
		{name: "valid true string", input: "true", expected: boolPtr(true)},
		{name: "valid false string", input: "false", expected: boolPtr(false)},
		{name: "valid 1 string", input: "1", expected: boolPtr(true)},
		{name: "invalid string returns nil", input: "invalid", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.ConvertStringToBool(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %v", *result)
				}

				return
			}

			if result == nil || *result != *tt.expected {
				t.Errorf("expected %v, got %v", *tt.expected, result)
			}
		})
	}
}

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "zero total", total: 0, limit: 10, expected: 1},
		{name: "zero limit", total: 5, limit: 0, expected: 1},
		{name: "exact division", total: 20, limit: 10, expected: 2},
		{name: "rounds up", total: 21, limit: 10, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.CalculateTotalPage(tt.total, tt.limit); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestTransformFields(t *testing.T) {
	type updateRequest struct {
		Status string `db:"status"`
		Reason string `db:"reason"`
		Skip   string
	}

	fields := shared.TransformFields(updateRequest{Status: "accepted"}, "admin-1")

	if fields["status"] != "accepted" {
		t.Errorf("expected status field, got %+v", fields)
	}

	if _, ok := fields["reason"]; ok {
		t.Error("zero-valued fields must be skipped")
	}

	if fields[constant.FieldModifiedBy] != "admin-1" {
		t.Errorf("expected modified_by to be stamped, got %+v", fields)
	}

	if _, ok := fields[constant.FieldModifiedAt]; !ok {
		t.Error("expected modified_at to be stamped")
	}
}

func TestFilterByID(t *testing.T) {
	group := shared.FilterByID("res-1", "id", "reservations")

	where, args := group.GetWhereClause()

	if where != "(reservations.id = :id)" {
		t.Errorf("unexpected where clause: %s", where)
	}

	if args["id"] != "res-1" {
		t.Errorf("unexpected args: %+v", args)
	}
}

func TestBuildCacheKey(t *testing.T) {
	if got := shared.BuildCacheKey("reservation:get", "res-1"); got != "reservation:get:res-1" {
		t.Errorf("unexpected cache key: %s", got)
	}
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10, SortBy: "created_at", SortDir: "DESC"}
	filter := dto.FilterGroup{
		Filters: []any{
			dto.Filter{Field: "slot_id", Operator: dto.FilterOperatorEq, Value: "slot-1"},
		},
	}

	keyA := shared.BuildCacheKeyWithQuery("reservation:gets", params, filter)
	keyB := shared.BuildCacheKeyWithQuery("reservation:gets", params, dto.FilterGroup{})

	if keyA == keyB {
		t.Error("expected different keys for different filters")
	}
}

func boolPtr(b bool) *bool {
	return &b
}
