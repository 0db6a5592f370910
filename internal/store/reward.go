package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// CreateRewardPoolParams represents parameters for creating a reward pool
type CreateRewardPoolParams struct {
	AccountID uuid.UUID
	Name      string
	BrandName string
}

const sqlCreateRewardPool = `
INSERT INTO reward_pools (account_id, name, brand_name)
VALUES ($1, $2, $3)
RETURNING id, account_id, name, brand_name, created_at
`

// CreateRewardPool creates a new reward pool
func (s *Store) CreateRewardPool(ctx context.Context, params CreateRewardPoolParams) (RewardPool, error) {
	var pool RewardPool
	err := s.db.GetContext(ctx, &pool, sqlCreateRewardPool,
		params.AccountID,
		params.Name,
		params.BrandName)
	if err != nil {
		return RewardPool{}, fmt.Errorf("failed to create reward pool: %w", err)
	}
	return pool, nil
}

const sqlCreateRewardUnit = `
INSERT INTO reward_units (pool_id, code, denomination_cents, status)
VALUES ($1, $2, $3, 'available')
RETURNING id, pool_id, code, denomination_cents, status, assigned_at, created_at
`

// CreateRewardUnit adds a single claimable unit to a pool
func (s *Store) CreateRewardUnit(ctx context.Context, poolID uuid.UUID, code string, denominationCents int) (RewardUnit, error) {
	var unit RewardUnit
	err := s.db.GetContext(ctx, &unit, sqlCreateRewardUnit, poolID, code, denominationCents)
	if err != nil {
		return RewardUnit{}, fmt.Errorf("failed to create reward unit: %w", err)
	}
	return unit, nil
}

const sqlCountAvailableUnits = `
SELECT COUNT(*)
FROM reward_units
WHERE pool_id = $1 AND status = 'available'
`

// CountAvailableUnits returns the number of claimable units left in a pool
func (s *Store) CountAvailableUnits(ctx context.Context, poolID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountAvailableUnits, poolID)
	if err != nil {
		return 0, fmt.Errorf("failed to count available units: %w", err)
	}
	return count, nil
}

// ClaimRewardUnitParams identifies the pool and the (recipient, condition)
// pair a unit is being claimed for.
type ClaimRewardUnitParams struct {
	PoolID      uuid.UUID
	RecipientID uuid.UUID
	CampaignID  uuid.UUID
	ConditionID uuid.UUID
}

// ClaimResult reports the outcome of an atomic claim. Exactly one of Claimed
// and AlreadyAssigned is true on success; both refer to the same unit fields.
type ClaimResult struct {
	Claimed           bool
	AlreadyAssigned   bool
	UnitID            uuid.UUID
	Code              string
	DenominationCents int
	BrandName         string
}

// assignedUnitRow joins an existing assignment back to its unit and pool.
type assignedUnitRow struct {
	UnitID            uuid.UUID `db:"unit_id"`
	Code              string    `db:"code"`
	DenominationCents int       `db:"denomination_cents"`
	BrandName         string    `db:"brand_name"`
}

const sqlGetAssignedUnitForCondition = `
SELECT u.id AS unit_id, u.code, u.denomination_cents, p.brand_name
FROM recipient_gift_card_assignments a
JOIN reward_units u ON u.id = a.reward_unit_id
JOIN reward_pools p ON p.id = u.pool_id
WHERE a.recipient_id = $1 AND a.condition_id = $2
`

const sqlSelectAvailableUnit = `
SELECT u.id, u.pool_id, u.code, u.denomination_cents, u.status, u.assigned_at, u.created_at
FROM reward_units u
WHERE u.pool_id = $1 AND u.status = 'available'
LIMIT 1
FOR UPDATE OF u SKIP LOCKED
`

const sqlMarkUnitAssigned = `
UPDATE reward_units
SET status = 'assigned',
    assigned_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'available'
`

const sqlInsertAssignment = `
INSERT INTO recipient_gift_card_assignments (reward_unit_id, recipient_id, campaign_id, condition_id)
VALUES ($1, $2, $3, $4)
`

const sqlGetPoolBrand = `
SELECT brand_name FROM reward_pools WHERE id = $1
`

// ClaimRewardUnit atomically assigns one available unit from the pool to the
// (recipient, condition) pair. The existence check, unit flip and assignment
// insert run in a single transaction; the unique constraint on
// (recipient_id, condition_id) is the final arbiter under races, so at most
// one unit is ever assigned per pair no matter how many callers race.
//
// Returns AlreadyAssigned with the existing unit when a claim already exists,
// and ErrNoAvailableUnits when the pool is exhausted.
func (s *Store) ClaimRewardUnit(ctx context.Context, params ClaimRewardUnitParams) (ClaimResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	// Short-circuit on an existing assignment. Concurrent callers that both
	// pass this check are serialized by the unique constraint below.
	var existing assignedUnitRow
	err = tx.GetContext(ctx, &existing, sqlGetAssignedUnitForCondition, params.RecipientID, params.ConditionID)
	if err == nil {
		return ClaimResult{
			AlreadyAssigned:   true,
			UnitID:            existing.UnitID,
			Code:              existing.Code,
			DenominationCents: existing.DenominationCents,
			BrandName:         existing.BrandName,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ClaimResult{}, fmt.Errorf("failed to check existing assignment: %w", err)
	}

	// Pick any available unit; selection order within the pool is not
	// significant. SKIP LOCKED keeps concurrent claimers for different
	// recipients from queueing on the same row.
	var unit RewardUnit
	err = tx.GetContext(ctx, &unit, sqlSelectAvailableUnit, params.PoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClaimResult{}, ErrNoAvailableUnits
		}
		return ClaimResult{}, fmt.Errorf("failed to select available unit: %w", err)
	}

	res, err := tx.ExecContext(ctx, sqlMarkUnitAssigned, unit.ID)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("failed to mark unit assigned: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return ClaimResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ClaimResult{}, fmt.Errorf("reward unit %s no longer available", unit.ID)
	}

	_, err = tx.ExecContext(ctx, sqlInsertAssignment,
		unit.ID,
		params.RecipientID,
		params.CampaignID,
		params.ConditionID)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race for this (recipient, condition): another claim
			// committed between our existence check and this insert. Roll the
			// unit flip back and report the winner's assignment.
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				return ClaimResult{}, fmt.Errorf("failed to roll back lost claim: %w", rbErr)
			}
			var winner assignedUnitRow
			if getErr := s.db.GetContext(ctx, &winner, sqlGetAssignedUnitForCondition, params.RecipientID, params.ConditionID); getErr != nil {
				return ClaimResult{}, fmt.Errorf("failed to read winning assignment: %w", getErr)
			}
			return ClaimResult{
				AlreadyAssigned:   true,
				UnitID:            winner.UnitID,
				Code:              winner.Code,
				DenominationCents: winner.DenominationCents,
				BrandName:         winner.BrandName,
			}, nil
		}
		return ClaimResult{}, fmt.Errorf("failed to insert assignment: %w", err)
	}

	var brandName string
	if err := tx.GetContext(ctx, &brandName, sqlGetPoolBrand, params.PoolID); err != nil {
		return ClaimResult{}, fmt.Errorf("failed to get pool brand: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, fmt.Errorf("failed to commit claim: %w", err)
	}

	return ClaimResult{
		Claimed:           true,
		UnitID:            unit.ID,
		Code:              unit.Code,
		DenominationCents: unit.DenominationCents,
		BrandName:         brandName,
	}, nil
}

// GetAssignmentForCondition retrieves the assignment for a (recipient,
// condition) pair, if any.
func (s *Store) GetAssignmentForCondition(ctx context.Context, recipientID, conditionID uuid.UUID) (GiftCardAssignment, error) {
	var assignment GiftCardAssignment
	err := s.db.GetContext(ctx, &assignment, sqlGetAssignmentForCondition, recipientID, conditionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GiftCardAssignment{}, ErrNotFound
		}
		return GiftCardAssignment{}, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

const sqlGetAssignmentForCondition = `
SELECT id, reward_unit_id, recipient_id, campaign_id, condition_id, created_at
FROM recipient_gift_card_assignments
WHERE recipient_id = $1 AND condition_id = $2
`

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
