package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andrekirst/familyauth/internal/apperrors"
	"github.com/andrekirst/familyauth/internal/models"
)

type FamilyRepo struct {
	DB DBTX
}

const createFamily = `-- name: CreateFamily
INSERT INTO families (name)
VALUES ($1)
RETURNING id, name, owner_id, created_at
`

func (r *FamilyRepo) CreateFamily(ctx context.Context, name string) (models.Family, error) {
	rows, _ := r.DB.Query(ctx, createFamily, name)
	family, err := pgx.CollectOneRow(rows, rowToFamily)
	if err != nil {
		return family, fmt.Errorf("db error: %w", err)
	}
	return family, nil
}

const transferOwnership = `-- name: TransferOwnership
UPDATE families
SET owner_id = $2
WHERE id = $1
RETURNING id
`

func (r *FamilyRepo) TransferOwnership(ctx context.Context, familyID uuid.UUID, ownerID uuid.UUID) error {
	rows, _ := r.DB.Query(ctx, transferOwnership, familyID, ownerID)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("repo error: %w", apperrors.ErrFamilyNotFound)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func rowToFamily(row pgx.CollectableRow) (models.Family, error) {
	var f models.Family
	err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt)
	return f, err
}
