package catalog

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validProduct() Product {
	return Product{
		Name:        "Hoodie",
		Slug:        "hoodie",
		Description: "warm",
		Images:      []string{"https://cdn.example/a.webp", "https://cdn.example/b.webp"},
		Colors:      []Color{{Name: "Black", Hex: "#000"}},
		Category:    "cat-1",
		Collections: []string{"col-1"},
		Price:       ptr(20.0),
	}
}

func TestValidHex(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#000", true},
		{"#FFFFFF", true},
		{"#abc123", true},
		{"#AbC", true},
		{"000000", false},
		{"#12", false},
		{"#gggggg", false},
		{"#1234", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidHex(tt.in))
		})
	}
}

func TestNewColor(t *testing.T) {
	c, err := NewColor("  Black ", "#000")
	require.NoError(t, err)
	assert.Equal(t, Color{Name: "Black", Hex: "#000"}, c)

	_, err = NewColor("   ", "#000")
	assert.ErrorIs(t, err, ErrEmptyColor)

	_, err = NewColor("Black", "#gggggg")
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *float64
		wantErr bool
	}{
		{name: "rounds up", raw: "19.999", want: ptr(20.0)},
		{name: "keeps two decimals", raw: "19.99", want: ptr(19.99)},
		{name: "rounds half", raw: "0.125", want: ptr(0.13)},
		{name: "integer", raw: "5", want: ptr(5.0)},
		{name: "empty clears", raw: "  ", want: nil},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
		{name: "nan", raw: "NaN", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePrice(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPrice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "20.00", FormatPrice(ptr(20.0)))
	assert.Equal(t, "-", FormatPrice(nil))
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(validProduct()))
}

func TestValidate_ReportsEveryField(t *testing.T) {
	p := validProduct()
	p.Name = "   "
	p.Slug = strings.Repeat("s", MaxSlugLen+1)
	p.Images = nil
	p.Colors = []Color{{Name: "x", Hex: "123"}}
	p.Price = nil
	p.SalePrice = ptr(-1.0)

	err := Validate(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "slug", "images", "colors", "price", "salePrice"} {
		assert.True(t, verr.Has(field), "expected %s to fail, got %v", field, verr.Fields)
	}
	assert.False(t, verr.Has("category"))
}

func TestValidateDraft_IgnoresImages(t *testing.T) {
	p := validProduct()
	p.Images = nil
	assert.NoError(t, ValidateDraft(p))

	p.Name = ""
	err := ValidateDraft(p)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "name", verr.Fields[0].Field)
}

func TestValidate_SizeBound(t *testing.T) {
	p := validProduct()
	p.Size = ptr(strings.Repeat("L", MaxSizeLen+1))
	var verr *ValidationError
	require.ErrorAs(t, Validate(p), &verr)
	assert.True(t, verr.Has("size"))

	p.Size = ptr("  ")
	assert.NoError(t, Validate(p))
}

func TestFlagSet_ToggleCeiling(t *testing.T) {
	var s FlagSet
	for _, f := range []Flag{FlagActive, FlagOnSale, FlagNewArrival} {
		on, err := s.Toggle(f)
		require.NoError(t, err)
		require.True(t, on)
	}

	before := s
	on, err := s.Toggle(FlagLimitedEdition)
	assert.ErrorIs(t, err, ErrFlagLimit)
	assert.False(t, on)
	assert.Equal(t, before, s)
	assert.Equal(t, 3, s.Count())

	on, err = s.Toggle(FlagOnSale)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = s.Toggle(FlagLimitedEdition)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []Flag{FlagActive, FlagNewArrival, FlagLimitedEdition}, s.Active())
}

func TestParseFlag(t *testing.T) {
	f, err := ParseFlag("isOnSale")
	require.NoError(t, err)
	assert.Equal(t, FlagOnSale, f)

	f, err = ParseFlag("fastselling")
	require.NoError(t, err)
	assert.Equal(t, FlagFastSelling, f)

	_, err = ParseFlag("isFeatured")
	assert.ErrorIs(t, err, ErrUnknownFlag)
}

func TestFlagSet_JSON(t *testing.T) {
	var s FlagSet
	_, _ = s.Toggle(FlagActive)
	_, _ = s.Toggle(FlagOnSale)

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]bool
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Len(t, m, 5)
	assert.True(t, m["isActive"])
	assert.True(t, m["isOnSale"])
	assert.False(t, m["isLimitedEdition"])

	var back FlagSet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)
}

func TestFlagSet_UnmarshalRejectsFourFlags(t *testing.T) {
	var s FlagSet
	err := json.Unmarshal([]byte(`{"isActive":true,"isOnSale":true,"isNewArrival":true,"isFastSelling":true}`), &s)
	assert.ErrorIs(t, err, ErrFlagLimit)
	assert.Zero(t, s.Count())
}

func TestProduct_JSONShape(t *testing.T) {
	p := validProduct()
	p.Normalize()
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"name", "slug", "description", "images", "size", "colors", "category", "collections", "price", "salePrice", "flags"} {
		assert.Contains(t, m, k)
	}
	assert.Nil(t, m["size"])
	assert.Nil(t, m["salePrice"])
}
