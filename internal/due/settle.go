package due

import (
	"context"
	"fmt"
	"math"

	"github.com/nihalm/duetrack/pkg/timefmt"
)

// Settle nets a newly created due against the counterparty's older
// outstanding dues in the same room, oldest first, and emits audit
// flags for every balance it touches.
//
// Candidates are limited to dues whose outstanding amount does not
// exceed the new due's: a larger pre-existing debt is never partially
// offset, it is simply left out of the pass.
//
// The walk deliberately decrements `remaining` by each candidate's
// pre-update outstanding amount rather than by the offset actually
// applied. `remaining` tracks how much of the new due has been spent
// crediting older debts; it may dip below zero mid-walk and is clamped
// before it is persisted. Changing this arithmetic changes every
// historical balance, so it must stay as is.
//
// All writes happen inside one room-locked transaction: a mid-run
// failure leaves every touched record at its pre-run value.
func (s *Service) Settle(ctx context.Context, dueID int64) error {
	d, err := s.store.GetDue(ctx, dueID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDueNotFound
	}

	dueToUser, err := s.users.GetByID(ctx, d.DueTo)
	if err != nil {
		return err
	}
	if dueToUser == nil {
		return ErrInvalidUsers
	}

	return s.store.Settlement(ctx, d.RoomID, func(tx SettlementTx) error {
		// Re-read under the room lock; a concurrent run may have
		// already consumed part of this due.
		d, err := tx.GetDue(ctx, dueID)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrDueNotFound
		}

		pending, err := tx.ListCandidates(ctx, d.RoomID, d.ID, d.DueTo, d.DueAmount)
		if err != nil {
			return err
		}

		remaining := d.DueAmount
		i := 0
		for _, p := range pending {
			if remaining <= 0 {
				break
			}
			dueAmount := p.DueAmount
			if dueAmount <= 0 {
				continue
			}

			updatedDueAmount := math.Max(dueAmount-remaining, 0)
			updatedPaidAmount := math.Min(dueAmount, remaining) + p.PaidAmount

			status := fmt.Sprintf("₹%s paid from the due of %s.",
				formatAmount(math.Abs(dueAmount-updatedDueAmount)), timefmt.Date(d.CreatedAt))
			if err := tx.UpdateAmounts(ctx, p.ID, updatedDueAmount, updatedPaidAmount, status, updatedDueAmount != 0); err != nil {
				return err
			}
			remaining -= dueAmount

			var flagMessage string
			if updatedDueAmount == 0 {
				flagMessage = fmt.Sprintf("✅ A due of ₹%s, created on %s and due from %s, has been cleared.",
					formatAmount(dueAmount), timefmt.Date(p.CreatedAt), dueToUser.Username)
			} else {
				flagMessage = fmt.Sprintf("⏺️ An amount of ₹%s has been paid toward the due of ₹%s, created on %s and due from %s.",
					formatAmount(updatedPaidAmount), formatAmount(dueAmount), timefmt.Date(p.CreatedAt), dueToUser.Username)
			}
			if err := tx.CreateFlag(ctx, d.RoomID, flagMessage); err != nil {
				return err
			}

			if remaining >= 0 && i == len(pending)-1 {
				if err := tx.CreateFlag(ctx, d.RoomID, fmt.Sprintf("🎊 %s has cleared all dues!", dueToUser.Username)); err != nil {
					return err
				}
				break
			}

			i++
		}

		remaining = math.Max(remaining, 0)
		if remaining != d.DueAmount {
			status := fmt.Sprintf("₹%s paid from the due of %s.",
				formatAmount(d.DueAmount-remaining), timefmt.Date(d.CreatedAt))
			if err := tx.UpdateAmounts(ctx, d.ID, remaining, d.TotalAmount-remaining, status, remaining != 0); err != nil {
				return err
			}
		}

		return nil
	})
}
