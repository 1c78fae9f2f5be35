package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, first_name, surname, gender, birth_date,
	height, weight, heart_surgery, within_six_months, heart_surgery_comment,
	fractures, within_six_months_fracture, fractures_comment,
	streak_count, last_login_date, login_dates, created_at, updated_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	loginDates, err := json.Marshal(emptyIfNil(user.LoginDates))
	if err != nil {
		return fmt.Errorf("failed to encode login dates: %w", err)
	}

	query := `
		INSERT INTO users (name, email, password_hash, first_name, surname, gender, birth_date,
			height, weight, heart_surgery, within_six_months, heart_surgery_comment,
			fractures, within_six_months_fracture, fractures_comment,
			streak_count, last_login_date, login_dates, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.Surname,
		user.Gender,
		formatNullTime(user.BirthDate),
		user.Height,
		user.Weight,
		boolToInt(user.HeartSurgery),
		boolToInt(user.WithinSixMonths),
		user.HeartSurgeryComment,
		boolToInt(user.Fractures),
		boolToInt(user.WithinSixMonthsFracture),
		user.FracturesComment,
		user.StreakCount,
		formatNullTime(user.LastLoginDate),
		string(loginDates),
		user.CreatedAt.Format(time.RFC3339),
		user.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already exists", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// GetByEmail retrieves a user by normalized email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
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
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
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

	loginDates, err := json.Marshal(emptyIfNil(user.LoginDates))
	if err != nil {
		return fmt.Errorf("failed to encode login dates: %w", err)
	}

	query := `
		UPDATE users
		SET name = ?, password_hash = ?, first_name = ?, surname = ?, gender = ?, birth_date = ?,
			height = ?, weight = ?, heart_surgery = ?, within_six_months = ?, heart_surgery_comment = ?,
			fractures = ?, within_six_months_fracture = ?, fractures_comment = ?,
			streak_count = ?, last_login_date = ?, login_dates = ?, updated_at = ?
		WHERE email = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.PasswordHash,
		user.FirstName,
		user.Surname,
		user.Gender,
		formatNullTime(user.BirthDate),
		user.Height,
		user.Weight,
		boolToInt(user.HeartSurgery),
		boolToInt(user.WithinSixMonths),
		user.HeartSurgeryComment,
		boolToInt(user.Fractures),
		boolToInt(user.WithinSixMonthsFracture),
		user.FracturesComment,
		user.StreakCount,
		formatNullTime(user.LastLoginDate),
		string(loginDates),
		user.UpdatedAt.Format(time.RFC3339),
		user.Email,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all users ordered by creation time.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
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

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		heartSurgery, withinSixMonths, fractures, withinSixMonthsFracture int
		birthDate, lastLoginDate                                         sql.NullString
		loginDates, createdAt, updatedAt                                 string
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.Surname,
		&user.Gender,
		&birthDate,
		&user.Height,
		&user.Weight,
		&heartSurgery,
		&withinSixMonths,
		&user.HeartSurgeryComment,
		&fractures,
		&withinSixMonthsFracture,
		&user.FracturesComment,
		&user.StreakCount,
		&lastLoginDate,
		&loginDates,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.HeartSurgery = heartSurgery != 0
	user.WithinSixMonths = withinSixMonths != 0
	user.Fractures = fractures != 0
	user.WithinSixMonthsFracture = withinSixMonthsFracture != 0
	user.BirthDate = parseNullTime(birthDate)
	user.LastLoginDate = parseNullTime(lastLoginDate)
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if err := json.Unmarshal([]byte(loginDates), &user.LoginDates); err != nil {
		return nil, fmt.Errorf("failed to decode login dates: %w", err)
	}

	return user, nil
}

// boolToInt converts a boolean to an integer (SQLite doesn't have native boolean).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
