package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(q Querier) repository.UserRepository {
	return &userRepository{q: q}
}

const userColumns = `id, name, email, password_hash, first_name, surname, gender, birth_date,
	height, weight, heart_surgery, within_six_months, heart_surgery_comment,
	fractures, within_six_months_fracture, fractures_comment,
	streak_count, last_login_date, login_dates, created_at, updated_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, first_name, surname, gender, birth_date,
			height, weight, heart_surgery, within_six_months, heart_surgery_comment,
			fractures, within_six_months_fracture, fractures_comment,
			streak_count, last_login_date, login_dates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.Surname,
		user.Gender,
		user.BirthDate,
		user.Height,
		user.Weight,
		user.HeartSurgery,
		user.WithinSixMonths,
		user.HeartSurgeryComment,
		user.Fractures,
		user.WithinSixMonthsFracture,
		user.FracturesComment,
		user.StreakCount,
		user.LastLoginDate,
		emptyIfNil(user.LoginDates),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already exists", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by normalized email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// Update updates an existing user, matched by email.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, password_hash = $2, first_name = $3, surname = $4, gender = $5, birth_date = $6,
			height = $7, weight = $8, heart_surgery = $9, within_six_months = $10, heart_surgery_comment = $11,
			fractures = $12, within_six_months_fracture = $13, fractures_comment = $14,
			streak_count = $15, last_login_date = $16, login_dates = $17, updated_at = $18
		WHERE email = $19
	`

	rows, err := r.q.Query(ctx, query,
		user.Name,
		user.PasswordHash,
		user.FirstName,
		user.Surname,
		user.Gender,
		user.BirthDate,
		user.Height,
		user.Weight,
		user.HeartSurgery,
		user.WithinSixMonths,
		user.HeartSurgeryComment,
		user.Fractures,
		user.WithinSixMonthsFracture,
		user.FracturesComment,
		user.StreakCount,
		user.LastLoginDate,
		emptyIfNil(user.LoginDates),
		user.UpdatedAt,
		user.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows.Close()

	if rows.CommandTag().RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all users ordered by creation time.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.Surname,
		&user.Gender,
		&user.BirthDate,
		&user.Height,
		&user.Weight,
		&user.HeartSurgery,
		&user.WithinSixMonths,
		&user.HeartSurgeryComment,
		&user.Fractures,
		&user.WithinSixMonthsFracture,
		&user.FracturesComment,
		&user.StreakCount,
		&user.LastLoginDate,
		&user.LoginDates,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
