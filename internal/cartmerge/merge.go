// Package cartmerge folds an anonymous visitor's cart into the items owned by
// an account at login time.
//
// Merges for the same account are not serialized. Two logins racing on one
// account can both apply their lines; every line mutation is a single atomic
// statement in the store, so a race may over-count a quantity but cannot
// corrupt or duplicate a row.
package cartmerge

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineGone     = errors.New("cart line no longer exists")
	ErrTargetGone   = fmt.Errorf("merge target: %w", ErrLineGone)
	ErrSourceGone   = fmt.Errorf("merge source: %w", ErrLineGone)
)

type Line struct {
	ItemID     uint
	ProductID  uint
	Variations VariationSet
	Quantity   uint
}

func (l Line) Key() string {
	return LineKey(l.ProductID, l.Variations)
}

type Store interface {
	// FindCartByToken returns ErrCartNotFound when no cart has the token.
	FindCartByToken(ctx context.Context, token string) (*models.Cart, error)
	ListCartLines(ctx context.Context, cartID uint) ([]Line, error)
	ListUserLines(ctx context.Context, userID uint) ([]Line, error)
	// AccumulateLine adds the source quantity to the target and removes the
	// source, atomically.
	AccumulateLine(ctx context.Context, targetID, sourceID uint) error
	// ReassignLine moves an item from the cart to the user.
	ReassignLine(ctx context.Context, itemID, cartID, userID uint) error
}

type LineError struct {
	ItemID uint
	Err    error
}

func (e LineError) Error() string {
	return fmt.Sprintf("cart item %d: %v", e.ItemID, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

type Result struct {
	CartFound   bool
	CartID      uint
	Merged      int
	Transferred int
	Skipped     []LineError
}

func (r Result) Lines() int {
	return r.Merged + r.Transferred + len(r.Skipped)
}

// SkippedErr joins the per-line failures, nil when every line was merged.
func (r Result) SkippedErr() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Skipped))
	for i := range r.Skipped {
		errs[i] = r.Skipped[i]
	}
	return errors.Join(errs...)
}

type Merger struct {
	Store Store
}

func New(store Store) *Merger {
	return &Merger{Store: store}
}

// Merge moves the lines of the cart identified by cartToken to userID. A line
// whose product and variation set the user already owns is accumulated into
// that line; any other line changes owner. A missing cart is not an error.
// Lines that fail individually are reported in Result.Skipped and do not stop
// the remaining lines; the returned error is reserved for failures that
// prevent the merge from running at all.
func (m *Merger) Merge(ctx context.Context, userID uint, cartToken string) (Result, error) {
	var res Result
	if cartToken == "" {
		return res, nil
	}

	cart, err := m.Store.FindCartByToken(ctx, cartToken)
	if errors.Is(err, ErrCartNotFound) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("find cart: %w", err)
	}
	res.CartFound = true
	res.CartID = cart.ID

	anon, err := m.Store.ListCartLines(ctx, cart.ID)
	if err != nil {
		return res, fmt.Errorf("list cart lines: %w", err)
	}
	if len(anon) == 0 {
		return res, nil
	}

	owned, err := m.Store.ListUserLines(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("list user lines: %w", err)
	}

	index := make(map[string]uint, len(owned)+len(anon))
	for _, l := range owned {
		if _, dup := index[l.Key()]; !dup {
			index[l.Key()] = l.ItemID
		}
	}

	for _, line := range anon {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := line.Key()

		if target, ok := index[key]; ok {
			err := m.Store.AccumulateLine(ctx, target, line.ItemID)
			if err == nil {
				res.Merged++
				continue
			}
			if !errors.Is(err, ErrTargetGone) {
				res.Skipped = append(res.Skipped, LineError{ItemID: line.ItemID, Err: err})
				continue
			}
			// the owned line disappeared, keep the anonymous one instead
			delete(index, key)
		}

		if err := m.Store.ReassignLine(ctx, line.ItemID, cart.ID, userID); err != nil {
			res.Skipped = append(res.Skipped, LineError{ItemID: line.ItemID, Err: err})
			continue
		}
		index[key] = line.ItemID
		res.Transferred++
	}

	return res, nil
}
