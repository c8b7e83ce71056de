package billing_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelbill/internal/billing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"Tax Pct", "taxpct"},
		{"tax_pct", "taxpct"},
		{"TAXPCT", "taxpct"},
		{"tax-pct %", "taxpct"},
		{"  K3 Tax ", "k3tax"},
		{"", ""},
		{nil, ""},
		{42, "42"},
		{json.Number("18.5"), "185"},
		{"₹ Amount", "amount"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, billing.NormalizeKey(tt.in), "input %v", tt.in)
	}
}

func TestParseItems(t *testing.T) {
	t.Run("json_string", func(t *testing.T) {
		items := billing.ParseItems(`[{"fare": 12000}, {"rooms": "2"}]`)
		require.Len(t, items, 2)
		assert.Equal(t, json.Number("12000"), items[0]["fare"])
		assert.Equal(t, "2", items[1]["rooms"])
	})

	t.Run("raw_message", func(t *testing.T) {
		items := billing.ParseItems(json.RawMessage(`[{"qty": 3}]`))
		require.Len(t, items, 1)
	})

	t.Run("any_slice_drops_non_objects", func(t *testing.T) {
		items := billing.ParseItems([]any{map[string]any{"a": 1}, "junk", 7, nil})
		require.Len(t, items, 1)
		assert.Equal(t, 1, items[0]["a"])
	})

	t.Run("map_slice", func(t *testing.T) {
		items := billing.ParseItems([]map[string]any{{"a": 1}, {"b": 2}})
		assert.Len(t, items, 2)
	})

	t.Run("malformed_json_is_empty", func(t *testing.T) {
		items := billing.ParseItems(`[{"fare": `)
		require.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("nil_and_blank_are_empty", func(t *testing.T) {
		assert.Empty(t, billing.ParseItems(nil))
		assert.Empty(t, billing.ParseItems("   "))
		assert.Empty(t, billing.ParseItems(12))
	})

	t.Run("object_instead_of_array_is_empty", func(t *testing.T) {
		assert.Empty(t, billing.ParseItems(`{"fare": 1}`))
	})
}

func TestParseRecord(t *testing.T) {
	rec := billing.ParseRecord(`{"gst": {"cgst": 900}}`)
	require.NotNil(t, rec)
	assert.Contains(t, rec, "gst")

	assert.Nil(t, billing.ParseRecord("not json"))
	assert.Nil(t, billing.ParseRecord(3.5))
	assert.Equal(t, billing.Record{"a": 1}, billing.ParseRecord(map[string]any{"a": 1}))
}

func TestNewMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"0.125", "0.13"},
		{"-5", "0.00"},
		{"1234", "1234.00"},
	}
	for _, tt := range tests {
		got := billing.NewMoney(decimal.RequireFromString(tt.in))
		assert.Equal(t, tt.want, got.String(), "input %s", tt.in)
	}
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total billing.Money `json:"total"`
	}{billing.MoneyFromFloat(1620)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 1620.00}`, string(b))

	var back struct {
		Total billing.Money `json:"total"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "1620.00", back.Total.String())
}
