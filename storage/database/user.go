package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core/user"
)

type userRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Username         string         `db:"username"`
	Email            string         `db:"email"`
	IsActive         bool           `db:"is_active"`
	Roles            pq.StringArray `db:"roles"`
	AssignedClassIDs pq.StringArray `db:"assigned_class_ids"`
	CurrentClassID   string         `db:"current_class_id"`
	PasswordHash     []byte         `db:"password_hash"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	LastLogin        sql.NullTime   `db:"last_login"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:               row.ID,
		Name:             row.Name,
		Username:         row.Username,
		Email:            row.Email,
		IsActive:         row.IsActive,
		Roles:            row.Roles,
		AssignedClassIDs: row.AssignedClassIDs,
		CurrentClassID:   row.CurrentClassID,
		PasswordHash:     row.PasswordHash,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

const userColumns = `id, name, username, email, is_active, roles, assigned_class_ids,
	current_class_id, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	excluded := make(pq.StringArray, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	var rows []userRow
	err := repo.db.Select(&rows,
		`SELECT `+userColumns+` FROM "user"
		 WHERE ((username <> '' AND username = $1) OR (email <> '' AND email = $2))
		   AND NOT (id = ANY($3))`,
		username, email, excluded,
	)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	row := userRow{
		ID:               usr.ID,
		Name:             usr.Name,
		Username:         usr.Username,
		Email:            usr.Email,
		IsActive:         usr.IsActive,
		Roles:            pq.StringArray(usr.Roles),
		AssignedClassIDs: pq.StringArray(usr.AssignedClassIDs),
		CurrentClassID:   usr.CurrentClassID,
		PasswordHash:     usr.PasswordHash,
		CreatedAt:        usr.CreatedAt,
		UpdatedAt:        usr.UpdatedAt,
	}
	if row.Roles == nil {
		row.Roles = pq.StringArray{}
	}
	if row.AssignedClassIDs == nil {
		row.AssignedClassIDs = pq.StringArray{}
	}

	_, err := repo.db.NamedExec(
		`INSERT INTO "user" (id, name, username, email, is_active, roles, assigned_class_ids,
			current_class_id, password_hash, created_at, updated_at)
		 VALUES (:id, :name, :username, :email, :is_active, :roles, :assigned_class_ids,
			:current_class_id, :password_hash, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	err := repo.db.Select(&rows, `SELECT `+userColumns+` FROM "user" ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) get(query string, args ...interface{}) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, query, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.get(`SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.get(`SELECT `+userColumns+` FROM "user" WHERE username <> '' AND username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.get(`SELECT `+userColumns+` FROM "user" WHERE email <> '' AND email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.get(
		`SELECT `+userColumns+` FROM "user"
		 WHERE (username <> '' AND username = $1) OR (email <> '' AND email = $1)`,
		username,
	)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user"`
	var clauses []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(name ILIKE $%d OR username ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if len(filter.Roles) > 0 {
		args = append(args, pq.StringArray(filter.Roles))
		clauses = append(clauses, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM unnest(roles) r, unnest($%d::text[]) f WHERE r LIKE f || '%%')`,
			len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at"

	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

// UpdateUser only saves set fields; zero-valued ones keep the stored value.
func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	var sets []string
	var args []interface{}
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Roles != nil {
		set("roles", pq.StringArray(usr.Roles))
	}
	if usr.AssignedClassIDs != nil {
		set("assigned_class_ids", pq.StringArray(usr.AssignedClassIDs))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt)
	}
	if len(sets) == 0 {
		return repo.GetUserByID(usr.ID)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(
		`UPDATE "user" SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns,
	)

	var row userRow
	err := repo.db.Get(&row, query, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) SetCurrentClass(userID, classID string) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row,
		`UPDATE "user" SET current_class_id = $1 WHERE id = $2 RETURNING `+userColumns,
		classID, userID,
	)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting current class")
	}
	return row.toUser(), nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM "user" WHERE id = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting users")
}
