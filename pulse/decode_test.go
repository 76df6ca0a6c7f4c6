package pulse

import (
	"encoding/base64"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func frame(t *testing.T, raw []byte) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeFrameDropsAckFrames(t *testing.T) {
	for _, field := range []protowire.Number{10, 13} {
		raw := protowire.AppendTag(nil, field, protowire.VarintType)
		raw = protowire.AppendVarint(raw, 1)

		decoded, err := DecodeFrame(frame(t, raw))
		require.NoError(t, err)
		assert.Nil(t, decoded, "single field %d frame should be dropped", field)
	}
}

func TestDecodeFrameDropsHeartbeat(t *testing.T) {
	inner := protowire.AppendTag(nil, 1, protowire.VarintType)
	inner = protowire.AppendVarint(inner, 7)
	inner = protowire.AppendTag(inner, 2, protowire.VarintType)
	inner = protowire.AppendVarint(inner, 1724800000)

	wrapper := protowire.AppendTag(nil, 1, protowire.BytesType)
	wrapper = protowire.AppendBytes(wrapper, inner)

	raw := protowire.AppendTag(nil, 8, protowire.BytesType)
	raw = protowire.AppendBytes(raw, wrapper)

	decoded, err := DecodeFrame(frame(t, raw))
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeFrameNormalizesQuery(t *testing.T) {
	inner := protowire.AppendTag(nil, 1, protowire.BytesType)
	inner = protowire.AppendBytes(inner, []byte("running shoes"))

	raw := protowire.AppendTag(nil, 42, protowire.BytesType)
	raw = protowire.AppendBytes(raw, inner)

	decoded, err := DecodeFrame(frame(t, raw))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "running shoes"}, decoded)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	_, err := DecodeFrame("not base64 at all!!!")
	assert.Error(t, err)
}

func productFrame(t *testing.T, priceBits uint64) []byte {
	t.Helper()
	details := protowire.AppendTag(nil, 2, protowire.BytesType)
	details = protowire.AppendBytes(details, []byte("trading-signals"))
	details = protowire.AppendTag(details, 3, protowire.BytesType)
	details = protowire.AppendBytes(details, []byte("Trading Signals"))
	details = protowire.AppendTag(details, 18, protowire.BytesType)
	details = protowire.AppendBytes(details, []byte{0xff, 0xfe, 0x01})

	wrapper := protowire.AppendTag(nil, 1, protowire.Fixed64Type)
	wrapper = protowire.AppendFixed64(wrapper, priceBits)
	wrapper = protowire.AppendTag(wrapper, 2, protowire.BytesType)
	wrapper = protowire.AppendBytes(wrapper, []byte("usd"))
	wrapper = protowire.AppendTag(wrapper, 3, protowire.BytesType)
	wrapper = protowire.AppendBytes(wrapper, []byte("acme"))
	wrapper = protowire.AppendTag(wrapper, 4, protowire.BytesType)
	wrapper = protowire.AppendBytes(wrapper, details)

	raw := protowire.AppendTag(nil, 11, protowire.BytesType)
	raw = protowire.AppendBytes(raw, wrapper)
	return raw
}

func TestCollectPricedProducts(t *testing.T) {
	raw := productFrame(t, math.Float64bits(29.99))

	decoded, err := DecodeFrame(frame(t, raw))
	require.NoError(t, err)

	products := CollectPricedProducts(decoded)
	require.Len(t, products, 1)
	product := products[0]

	require.NotNil(t, product.Price)
	assert.InDelta(t, 29.99, *product.Price, 1e-9)
	assert.Equal(t, "trading-signals", product.Slug)
	assert.Equal(t, MarketplaceBaseURL+"trading-signals", product.URL)
	require.NotNil(t, product.Currency)
	assert.Equal(t, "usd", *product.Currency)
	require.NotNil(t, product.Vendor)
	assert.Equal(t, "acme", *product.Vendor)
	require.NotNil(t, product.Name)
	assert.Equal(t, "Trading Signals", *product.Name)

	assert.Equal(t, "trading-signals", product.Details["slug"])
	assert.Equal(t, "Trading Signals", product.Details["vendor_handle"])
	assert.NotContains(t, product.Details, "field_18", "media field should be omitted")
}

func TestCollectPricedProductsWithoutPrice(t *testing.T) {
	details := protowire.AppendTag(nil, 2, protowire.BytesType)
	details = protowire.AppendBytes(details, []byte("free-community"))

	wrapper := protowire.AppendTag(nil, 4, protowire.BytesType)
	wrapper = protowire.AppendBytes(wrapper, details)

	raw := protowire.AppendTag(nil, 11, protowire.BytesType)
	raw = protowire.AppendBytes(raw, wrapper)

	decoded, err := DecodeFrame(frame(t, raw))
	require.NoError(t, err)

	products := CollectPricedProducts(decoded)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Price)
	assert.Equal(t, "free-community", products[0].Slug)
}

func TestAppendFieldRepeats(t *testing.T) {
	out := map[string]any{}
	appendField(out, "5", int64(1))
	appendField(out, "5", int64(2))
	appendField(out, "5", int64(3))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, out["5"])
}
