// Package form holds the user-entered product fields and enforces their
// local constraints. Nothing here touches the network.
package form

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

var ErrUnknownReference = errors.New("unknown reference id")

// Aggregator is the single owner of the draft's non-asset fields. It is safe
// for concurrent use.
type Aggregator struct {
	mu          sync.Mutex
	draft       catalog.Product
	categories  []catalog.Reference
	collections []catalog.Reference
}

func New() *Aggregator {
	a := &Aggregator{}
	a.draft.Normalize()
	return a
}

// SetReferenceData replaces the known categories and collections.
func (a *Aggregator) SetReferenceData(categories, collections []catalog.Reference) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.categories = slices.Clone(categories)
	a.collections = slices.Clone(collections)
}

func (a *Aggregator) Categories() []catalog.Reference {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.categories)
}

func (a *Aggregator) Collections() []catalog.Reference {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.collections)
}

func (a *Aggregator) SetName(v string) {
	a.mu.Lock()
	a.draft.Name = v
	a.mu.Unlock()
}

func (a *Aggregator) SetSlug(v string) {
	a.mu.Lock()
	a.draft.Slug = v
	a.mu.Unlock()
}

func (a *Aggregator) SetDescription(v string) {
	a.mu.Lock()
	a.draft.Description = v
	a.mu.Unlock()
}

// SetSize stores free text; blank clears it.
func (a *Aggregator) SetSize(v string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if strings.TrimSpace(v) == "" {
		a.draft.Size = nil
		return
	}
	a.draft.Size = &v
}

// AddColor validates and appends a color. Rejected entries are not stored.
func (a *Aggregator) AddColor(name, hex string) error {
	c, err := catalog.NewColor(name, hex)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.draft.Colors = append(a.draft.Colors, c)
	a.mu.Unlock()
	return nil
}

// RemoveColor drops the color at position i.
func (a *Aggregator) RemoveColor(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.draft.Colors) {
		return fmt.Errorf("%w: color %d", catalog.ErrIndexOutRange, i)
	}
	a.draft.Colors = slices.Delete(a.draft.Colors, i, i+1)
	return nil
}

// SetCategory selects a known category by id.
func (a *Aggregator) SetCategory(id string) error {
	id = strings.TrimSpace(id)
	a.mu.Lock()
	defer a.mu.Unlock()
	if !known(a.categories, id) {
		return fmt.Errorf("%w: category %q", ErrUnknownReference, id)
	}
	a.draft.Category = id
	return nil
}

// ToggleCollection adds or removes a known collection and returns whether
// it is now selected.
func (a *Aggregator) ToggleCollection(id string) (bool, error) {
	id = strings.TrimSpace(id)
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := slices.Index(a.draft.Collections, id); i >= 0 {
		a.draft.Collections = slices.Delete(a.draft.Collections, i, i+1)
		return false, nil
	}
	if !known(a.collections, id) {
		return false, fmt.Errorf("%w: collection %q", ErrUnknownReference, id)
	}
	a.draft.Collections = append(a.draft.Collections, id)
	return true, nil
}

// SetPrice normalizes raw to two decimals. Blank clears the price.
func (a *Aggregator) SetPrice(raw string) error {
	v, err := catalog.NormalizePrice(raw)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.draft.Price = v
	a.mu.Unlock()
	return nil
}

// SetSalePrice is SetPrice for the optional discounted price.
func (a *Aggregator) SetSalePrice(raw string) error {
	v, err := catalog.NormalizePrice(raw)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.draft.SalePrice = v
	a.mu.Unlock()
	return nil
}

// ToggleFlag flips f. Turning on a fourth flag fails with
// catalog.ErrFlagLimit and leaves the flags unchanged.
func (a *Aggregator) ToggleFlag(f catalog.Flag) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.Flags.Toggle(f)
}

// Validate reports every failing field as a *catalog.ValidationError.
// Images are not checked here.
func (a *Aggregator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	verr := &catalog.ValidationError{}
	if err := catalog.ValidateDraft(a.draft); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	cat := strings.TrimSpace(a.draft.Category)
	if cat != "" && !known(a.categories, cat) {
		verr.Add("category", "is not a known category")
	}
	for i, id := range a.draft.Collections {
		if !known(a.collections, id) {
			verr.Add(fmt.Sprintf("collections[%d]", i), "is not a known collection")
		}
	}
	return verr.Err()
}

// IsSubmittable is true only when every required field passes.
func (a *Aggregator) IsSubmittable() bool {
	return a.Validate() == nil
}

// Draft returns a normalized copy of the fields without images.
func (a *Aggregator) Draft() catalog.Product {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.draft.Clone()
	p.Normalize()
	p.Images = []string{}
	return p
}

// Reset clears every field. Reference data is kept.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = catalog.Product{}
	a.draft.Normalize()
}

func known(refs []catalog.Reference, id string) bool {
	return slices.ContainsFunc(refs, func(r catalog.Reference) bool { return r.ID == id })
}
