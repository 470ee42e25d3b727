package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/repchain/repchain/internal/models"
)

const userColumns = `id, wallet_address, username, bio, email, github_username, reputation_score, is_active, created, updated`

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	res, err := r.conn.Exec(ctx,
		`INSERT INTO users (wallet_address, username, bio, email, github_username, reputation_score, is_active, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.WalletAddress, u.Username, u.Bio, u.Email, u.GitHubUsername, u.ReputationScore, boolToInt(u.IsActive), now(), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = ?`, wallet)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByGitHubUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE github_username = ?`, username)
	return scanUser(row)
}

// UpdateProfile updates only the fields whose pointers are non-nil.
func (r *SQLiteRepo) UpdateProfile(ctx context.Context, id int64, username, bio, email *string) error {
	sets := "updated = ?"
	args := []any{now()}
	if username != nil {
		sets += ", username = ?"
		args = append(args, *username)
	}
	if bio != nil {
		sets += ", bio = ?"
		args = append(args, *bio)
	}
	if email != nil {
		sets += ", email = ?"
		args = append(args, *email)
	}
	args = append(args, id)

	_, err := r.conn.Exec(ctx, `UPDATE users SET `+sets+` WHERE id = ?`, args...)
	return err
}

func (r *SQLiteRepo) SetGitHubUsername(ctx context.Context, id int64, username *string) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET github_username = ?, updated = ? WHERE id = ?`, username, now(), id)
	return err
}

func (r *SQLiteRepo) SetReputationScore(ctx context.Context, id int64, score int) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET reputation_score = ?, updated = ? WHERE id = ?`, score, now(), id)
	return err
}

func (r *SQLiteRepo) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*models.User, error) {
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func scanUserRow(s rowScanner) (*models.User, error) {
	var (
		u        models.User
		username sql.NullString
		bio      sql.NullString
		email    sql.NullString
		github   sql.NullString
		active   int
		created  int64
		updated  int64
	)
	if err := s.Scan(&u.ID, &u.WalletAddress, &username, &bio, &email, &github, &u.ReputationScore, &active, &created, &updated); err != nil {
		return nil, err
	}
	u.Username = username.String
	u.Bio = bio.String
	u.Email = email.String
	if github.Valid {
		g := github.String
		u.GitHubUsername = &g
	}
	u.IsActive = active != 0
	u.Created = time.Unix(created, 0).UTC()
	u.Updated = time.Unix(updated, 0).UTC()
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
