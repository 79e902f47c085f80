// Package catalog defines the product payload shared by the client and the
// record store, together with the validation rules both sides enforce.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Field bounds of the product form.
const (
	MaxNameLen        = 100
	MaxSlugLen        = 100
	MaxDescriptionLen = 500
	MaxSizeLen        = 50
)

var hexRx = regexp.MustCompile(`(?i)^#([0-9A-F]{3}){1,2}$`)

var (
	ErrInvalidHex    = errors.New("invalid hex color")
	ErrEmptyColor    = errors.New("color name required")
	ErrInvalidPrice  = errors.New("invalid price")
	ErrFlagLimit     = fmt.Errorf("at most %d flags may be active", MaxActiveFlags)
	ErrUnknownFlag   = errors.New("unknown flag")
	ErrIndexOutRange = errors.New("index out of range")
)

// Reference is a category or collection supplied by the reference data source.
type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Color is a named swatch. Order within a product is display order only.
type Color struct {
	Name string `json:"name" validate:"required"`
	Hex  string `json:"hex" validate:"required,hexcolor3or6"`
}

// NewColor trims the name and checks both fields.
func NewColor(name, hex string) (Color, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Color{}, ErrEmptyColor
	}
	hex = strings.TrimSpace(hex)
	if !ValidHex(hex) {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}
	return Color{Name: name, Hex: hex}, nil
}

// ValidHex reports whether s is a 3- or 6-digit hex color with a leading '#'.
func ValidHex(s string) bool {
	return hexRx.MatchString(s)
}

// Product is the record store payload.
type Product struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Slug        string   `json:"slug" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Images      []string `json:"images" validate:"required,min=1,dive,url"`
	Size        *string  `json:"size" validate:"omitempty,max=50"`
	Colors      []Color  `json:"colors" validate:"dive"`
	Category    string   `json:"category" validate:"required"`
	Collections []string `json:"collections" validate:"dive,required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	SalePrice   *float64 `json:"salePrice" validate:"omitempty,gte=0"`
	Flags       FlagSet  `json:"flags"`
}

// Normalize trims free-text fields in place and drops an empty size.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(p.Slug)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	if p.Size != nil {
		s := strings.TrimSpace(*p.Size)
		if s == "" {
			p.Size = nil
		} else {
			p.Size = &s
		}
	}
	if p.Colors == nil {
		p.Colors = []Color{}
	}
	if p.Collections == nil {
		p.Collections = []string{}
	}
}

// NormalizePrice parses raw and rounds it to two decimals the way
// Number.prototype.toFixed(2) does. An empty input yields nil.
func NormalizePrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	fixed := toFixed2(v)
	return &fixed, nil
}

// toFixed2 rounds the exact binary value of v to cents, ties away from zero.
// strconv rounds exact ties to even, which differs from toFixed on 0.125.
func toFixed2(v float64) float64 {
	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())
	out, _ := new(big.Rat).SetFrac(cents, big.NewInt(100)).Float64()
	return out
}

// FormatPrice renders a normalized price with two decimals, "-" when unset.
func FormatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

// Clone returns a deep copy safe to hand to another goroutine.
func (p Product) Clone() Product {
	out := p
	out.Images = append([]string(nil), p.Images...)
	out.Colors = append([]Color(nil), p.Colors...)
	out.Collections = append([]string(nil), p.Collections...)
	if p.Size != nil {
		s := *p.Size
		out.Size = &s
	}
	if p.Price != nil {
		v := *p.Price
		out.Price = &v
	}
	if p.SalePrice != nil {
		v := *p.SalePrice
		out.SalePrice = &v
	}
	return out
}

// MarshalIndent is used by the CLI to show a draft.
func (p Product) MarshalIndent() string {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}
