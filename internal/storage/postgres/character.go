package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neonreach/engine/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character with a name that
// already exists.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character and returns it with timestamps set.
//
// Precondition: c.ID must be a fresh UUID; c.Name must be non-empty.
// Postcondition: Returns the created character, or ErrCharacterNameTaken on a
// duplicate name.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	var out character.Character
	err := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(id, name, archetype, level, experience, max_health, health, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, name, archetype, level, experience, max_health, health, skills,
		          created_at, updated_at`,
		c.ID, c.Name, c.Archetype, c.Level, c.Experience, c.MaxHealth, c.Health, c.Skills,
	).Scan(
		&out.ID, &out.Name, &out.Archetype, &out.Level, &out.Experience,
		&out.MaxHealth, &out.Health, &out.Skills, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a character by its UUID.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*character.Character, error) {
	var c character.Character
	err := r.db.QueryRow(ctx, `
		SELECT id, name, archetype, level, experience, max_health, health, skills,
		       created_at, updated_at
		FROM characters WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.Name, &c.Archetype, &c.Level, &c.Experience,
		&c.MaxHealth, &c.Health, &c.Skills, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return &c, nil
}

// GetByName retrieves a character by its unique name.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*character.Character, error) {
	var c character.Character
	err := r.db.QueryRow(ctx, `
		SELECT id, name, archetype, level, experience, max_health, health, skills,
		       created_at, updated_at
		FROM characters WHERE name = $1`,
		name,
	).Scan(
		&c.ID, &c.Name, &c.Archetype, &c.Level, &c.Experience,
		&c.MaxHealth, &c.Health, &c.Skills, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character by name: %w", err)
	}
	return &c, nil
}

// List returns all characters ordered by creation time.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, archetype, level, experience, max_health, health, skills,
		       created_at, updated_at
		FROM characters ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		var c character.Character
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Archetype, &c.Level, &c.Experience,
			&c.MaxHealth, &c.Health, &c.Skills, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, &c)
	}
	return chars, rows.Err()
}

// SaveProgress persists a character's progression after an encounter: level,
// experience, health bounds, and equipped skills.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (r *CharacterRepository) SaveProgress(ctx context.Context, c *character.Character) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET level = $2, experience = $3, max_health = $4, health = $5, skills = $6,
		    updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Level, c.Experience, c.MaxHealth, c.Health, c.Skills,
	)
	if err != nil {
		return fmt.Errorf("saving character progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete removes a character by ID.
//
// Postcondition: Returns ErrCharacterNotFound if no row was deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}
