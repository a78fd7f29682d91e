package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/unitrade/campus-market/internal/model"
	"github.com/unitrade/campus-market/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,student_id,nickname,password_hash,is_admin," +
	"reputation_good,reputation_neutral,reputation_bad,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.StudentID, &u.Nickname, &u.PasswordHash, &u.IsAdmin,
		&u.ReputationGood, &u.ReputationNeutral, &u.ReputationBad, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user and returns its ID. The password is hashed
// with bcrypt at the configured cost before it touches the database.
func (r *UserRepo) Create(ctx context.Context, studentID, nickname, password string, cost int) (uint64, error) {
	studentID = strings.TrimSpace(studentID)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (student_id, nickname, password_hash) VALUES (?,?,?)",
		studentID, nickname, hash)
	if err != nil {
		// 1062 is MySQL's duplicate-key error; student_id is unique.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrStudentIDExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByStudentID fetches a user by their campus student identifier.
func (r *UserRepo) GetByStudentID(ctx context.Context, studentID string) (model.User, error) {
	studentID = strings.TrimSpace(studentID)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE student_id=? LIMIT 1", studentID))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetAdmin flips the is_admin flag for the user with the given
// student id. It returns the updated user, or ErrNotFound when no
// such user exists.
func (r *UserRepo) SetAdmin(ctx context.Context, studentID string, isAdmin bool) (model.User, error) {
	studentID = strings.TrimSpace(studentID)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_admin=? WHERE student_id=?", isAdmin, studentID)
	if err != nil {
		return model.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either the user is missing or the flag already had this value;
		// distinguish by re-reading the row.
		u, err := r.GetByStudentID(ctx, studentID)
		if err != nil {
			return model.User{}, err
		}
		return u, nil
	}
	return r.GetByStudentID(ctx, studentID)
}

// ListAll returns every user, newest first. Used by the admin CSV
// export; password hashes are intentionally part of the struct but
// the export layer never emits them.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.StudentID, &u.Nickname, &u.PasswordHash, &u.IsAdmin,
			&u.ReputationGood, &u.ReputationNeutral, &u.ReputationBad, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
