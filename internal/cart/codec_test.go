package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New()
	_, err := c.AddItem(Product{ID: "p1", Name: "Rice", Price: dec(t, "10.125"), Image: "rice.png", VendorID: "v1"}, 3,
		[]SelectedOption{{OptionID: "size", ChosenIDs: []string{"xl"}}})
	require.NoError(t, err)
	_, err = c.AddItem(Product{ID: "p2", Name: "Plantain", Price: dec(t, "6.00"), DiscountPrice: decPtr(t, "4.50"), VendorID: "v2"}, 1, nil)
	require.NoError(t, err)

	blob, err := Encode(c)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)

	want := c.Lines()
	got := decoded.Lines()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].ProductID, got[i].ProductID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, want[i].ImageRef, got[i].ImageRef)
		assert.Equal(t, want[i].VendorID, got[i].VendorID)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice), "price %s != %s", want[i].UnitPrice, got[i].UnitPrice)
		assert.Equal(t, exactString(want[i].UnitPrice), exactString(got[i].UnitPrice), "scale must survive the round trip")
	}
	assert.Equal(t, []SelectedOption{{OptionID: "size", ChosenIDs: []string{"xl"}}}, got[0].Options)
	assert.Nil(t, got[1].Options)
	assert.True(t, c.Total().Equal(decoded.Total()))

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(blob), string(again))
}

func TestEncodeWritesPricesAsStrings(t *testing.T) {
	c := New()
	c.newID = func() string { return "line-1" }
	_, err := c.AddItem(Product{ID: "p1", Name: "Tea", Price: dec(t, "0.30"), VendorID: "v1"}, 2, nil)
	require.NoError(t, err)

	blob, err := Encode(c)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(blob, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "0.30", raw[0]["unitPrice"])
	assert.Equal(t, "line-1", raw[0]["id"])
	assert.Equal(t, []any{}, raw[0]["selectedOptions"])
}

func TestEncodeKeepsPriceScale(t *testing.T) {
	prices := map[string]string{"4.50": "4.50", "10.125": "10.125", "2": "2", "7.00": "7.00"}
	for in, want := range prices {
		c := New()
		_, err := c.AddItem(Product{ID: "p1", Price: dec(t, in)}, 1, nil)
		require.NoError(t, err)

		blob, err := Encode(c)
		require.NoError(t, err)
		var raw []map[string]any
		require.NoError(t, json.Unmarshal(blob, &raw))
		assert.Equal(t, want, raw[0]["unitPrice"], "price %s", in)

		decoded, err := Decode(blob)
		require.NoError(t, err)
		again, err := Encode(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(blob), string(again), "re-encoding is byte stable for %s", in)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0.3":    "0.30",
		"0.30":   "0.30",
		"12.5":   "12.50",
		"20":     "20.00",
		"1.005":  "1.005",
		"-3.1":   "-3.10",
		"100.00": "100.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(dec(t, in)), "input %s", in)
	}
}

func TestDecodeEmptyPayloads(t *testing.T) {
	for _, payload := range []string{"", "  ", "null", "[]"} {
		c, err := Decode([]byte(payload))
		require.NoError(t, err, "payload %q", payload)
		assert.True(t, c.IsEmpty())
	}
}

func TestDecodeRejectsCorruptPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"bad price":      `[{"id":"a","productId":"p","unitPrice":"ten","quantity":1}]`,
		"zero quantity":  `[{"id":"a","productId":"p","unitPrice":"1","quantity":0}]`,
		"missing id":     `[{"productId":"p","unitPrice":"1","quantity":1}]`,
		"duplicate line": `[{"id":"a","productId":"p","unitPrice":"1","quantity":1},{"id":"a","productId":"q","unitPrice":"1","quantity":1}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			assert.Error(t, err)
		})
	}
}
