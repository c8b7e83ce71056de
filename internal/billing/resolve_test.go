package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"travelbill/internal/billing"
)

func TestResolve_AliasPriority(t *testing.T) {
	rec := billing.Record{"Tax_Pct": 12, "gstRate": 18}

	assert.Equal(t, 12, billing.Resolve(rec, []string{"taxPct", "gstRate"}, nil))
	assert.Equal(t, 18, billing.Resolve(rec, []string{"gstRate", "taxPct"}, nil))
	assert.Equal(t, "none", billing.Resolve(rec, []string{"missing"}, "none"))
}

func TestResolve_SkipsNullOnly(t *testing.T) {
	rec := billing.Record{"fare": nil, "baseFare": "  ", "basicFare": "9000"}
	aliases := []string{"fare", "baseFare", "basicFare"}

	assert.Equal(t, "  ", billing.Resolve(rec, aliases, 0))
	assert.Equal(t, "", billing.Resolve(billing.Record{"name": ""}, []string{"name"}, "fb"))
	assert.Equal(t, "fb", billing.Resolve(billing.Record{"name": nil}, []string{"name"}, "fb"))
}

func TestNumberAndText_SkipBlank(t *testing.T) {
	rec := billing.Record{"fare": nil, "baseFare": "  ", "basicFare": "9000"}
	aliases := []string{"fare", "baseFare", "basicFare"}

	assert.True(t, decimal.NewFromInt(9000).Equal(billing.Number(rec, aliases, decimal.Zero)))
	assert.Equal(t, "9000", billing.Text(rec, aliases, ""))

	v, ok := billing.Resolver{}.Value(rec, aliases)
	assert.True(t, ok)
	assert.Equal(t, "9000", v)
}

func TestResolve_Containers(t *testing.T) {
	t.Run("record_before_container", func(t *testing.T) {
		rec := billing.Record{
			"rate":    100,
			"details": map[string]any{"rate": 200},
		}
		assert.Equal(t, 100, billing.Resolve(rec, []string{"rate"}, 0))
	})

	t.Run("falls_into_container", func(t *testing.T) {
		rec := billing.Record{"meta": map[string]any{"Processing Fee": 5000}}
		assert.Equal(t, 5000, billing.Resolve(rec, []string{"processingFee"}, 0))
	})

	t.Run("container_order", func(t *testing.T) {
		rec := billing.Record{
			"data":    map[string]any{"nights": 4},
			"details": map[string]any{"nights": 2},
		}
		assert.Equal(t, 2, billing.Resolve(rec, []string{"nights"}, 0))
	})

	t.Run("alias_order_beats_container_order", func(t *testing.T) {
		rec := billing.Record{
			"noOfNights": 3,
			"details":    map[string]any{"nights": 2},
		}
		assert.Equal(t, 2, billing.Resolve(rec, []string{"nights", "noOfNights"}, 0))
	})

	t.Run("stringified_container", func(t *testing.T) {
		rec := billing.Record{"details": `{"embassyFee": "1200"}`}
		assert.Equal(t, "1200", billing.Resolve(rec, []string{"embassyFee"}, 0))
	})

	t.Run("record_first_beats_alias_order", func(t *testing.T) {
		r := billing.Resolver{Containers: []string{"details"}, RecordFirst: true}
		rec := billing.Record{
			"grandTotal": 1180,
			"details":    map[string]any{"total": 5},
		}
		assert.Equal(t, 1180, r.Resolve(rec, []string{"total", "grandTotal"}, nil))
		assert.Equal(t, 5, r.Resolve(billing.Record{"details": map[string]any{"total": 5}}, []string{"total", "grandTotal"}, nil))
	})

	t.Run("custom_containers", func(t *testing.T) {
		r := billing.Resolver{Containers: []string{"totals"}}
		rec := billing.Record{"totals": map[string]any{"grandTotal": 10}, "details": map[string]any{"x": 1}}
		assert.Equal(t, 10, r.Resolve(rec, []string{"grandTotal"}, nil))
		assert.Nil(t, r.Resolve(rec, []string{"x"}, nil))
	})
}

func TestNumber_Coercion(t *testing.T) {
	def := decimal.NewFromInt(1)
	tests := []struct {
		name string
		val  any
		want string
	}{
		{"float", 4500.5, "4500.5"},
		{"int", 3, "3"},
		{"string", "12000", "12000"},
		{"grouped_rupees", "₹1,20,000.50", "120000.5"},
		{"rs_prefix", "Rs. 250", "250"},
		{"percent_sign", "18%", "18"},
		{"rupee_symbol_spaced", " ₹ 1,000 ", "1000"},
		{"inner_space", "1 2", "1"},
		{"underscore", "1_000", "1"},
		{"garbage", "abc", "1"},
		{"bool", true, "1"},
		{"object", map[string]any{"x": 1}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.Number(billing.Record{"v": tt.val}, []string{"v"}, def)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestText(t *testing.T) {
	rec := billing.Record{"Passenger Name": "A. Rao", "pnr": nil, "seq": 7}
	assert.Equal(t, "A. Rao", billing.Text(rec, []string{"passengerName"}, ""))
	assert.Equal(t, "-", billing.Text(rec, []string{"pnr"}, "-"))
	assert.Equal(t, "7", billing.Text(rec, []string{"seq"}, ""))
}

func TestResolver_Flag(t *testing.T) {
	r := billing.Resolver{}
	assert.True(t, r.Flag(billing.Record{"isProforma": true}, []string{"isProforma"}))
	assert.True(t, r.Flag(billing.Record{"isProforma": "yes"}, []string{"isProforma"}))
	assert.False(t, r.Flag(billing.Record{"isProforma": "false"}, []string{"isProforma"}))
	assert.False(t, r.Flag(billing.Record{}, []string{"isProforma"}))
}
