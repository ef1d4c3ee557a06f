package database

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core/class"
)

// classRow stores the member, visitor and announcement collections as
// jsonb documents; a class is always read and written whole.
type classRow struct {
	ID            string          `db:"id"`
	ChurchName    string          `db:"church_name"`
	Sector        string          `db:"sector"`
	Teacher       string          `db:"teacher"`
	TeacherID     string          `db:"teacher_id"`
	Members       json.RawMessage `db:"members"`
	Visitors      json.RawMessage `db:"visitors"`
	Announcements json.RawMessage `db:"announcements"`
}

func newClassRow(c class.Class) (classRow, error) {
	members, err := json.Marshal(c.Members)
	if err != nil {
		return classRow{}, errors.Wrap(err, "marshaling members")
	}
	visitors, err := json.Marshal(c.Visitors)
	if err != nil {
		return classRow{}, errors.Wrap(err, "marshaling visitors")
	}
	announcements, err := json.Marshal(c.Announcements)
	if err != nil {
		return classRow{}, errors.Wrap(err, "marshaling announcements")
	}
	return classRow{
		ID:            c.ID,
		ChurchName:    c.ChurchName,
		Sector:        c.Sector,
		Teacher:       c.Teacher,
		TeacherID:     c.TeacherID,
		Members:       members,
		Visitors:      visitors,
		Announcements: announcements,
	}, nil
}

func (row classRow) toClass() (class.Class, error) {
	c := class.Class{
		ID:         row.ID,
		ChurchName: row.ChurchName,
		Sector:     row.Sector,
		Teacher:    row.Teacher,
		TeacherID:  row.TeacherID,
	}
	if err := json.Unmarshal(row.Members, &c.Members); err != nil {
		return class.Class{}, errors.Wrap(err, "unmarshaling members")
	}
	if err := json.Unmarshal(row.Visitors, &c.Visitors); err != nil {
		return class.Class{}, errors.Wrap(err, "unmarshaling visitors")
	}
	if err := json.Unmarshal(row.Announcements, &c.Announcements); err != nil {
		return class.Class{}, errors.Wrap(err, "unmarshaling announcements")
	}
	return c, nil
}

type classRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

const classColumns = `id, church_name, sector, teacher, teacher_id, members, visitors, announcements`

func (repo *classRepository) CreateClass(c class.Class) (class.Class, error) {
	row, err := newClassRow(c)
	if err != nil {
		return class.Class{}, err
	}
	_, err = repo.db.NamedExec(
		`INSERT INTO class (id, church_name, sector, teacher, teacher_id, members, visitors, announcements)
		 VALUES (:id, :church_name, :sector, :teacher, :teacher_id, :members, :visitors, :announcements)`,
		row,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "creating class")
	}
	return c, nil
}

func (repo *classRepository) GetClassByID(id string) (class.Class, error) {
	var row classRow
	err := repo.db.Get(&row, `SELECT `+classColumns+` FROM class WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return class.Class{}, class.ErrNotFound
	}
	if err != nil {
		return class.Class{}, errors.Wrap(err, "getting class")
	}
	return row.toClass()
}

func (repo *classRepository) QueryAllClasses() ([]class.Class, error) {
	var rows []classRow
	err := repo.db.Select(&rows, `SELECT `+classColumns+` FROM class ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return rowsToClasses(rows)
}

func (repo *classRepository) QueryClassesByID(ids ...string) ([]class.Class, error) {
	var rows []classRow
	err := repo.db.Select(&rows,
		`SELECT `+classColumns+` FROM class WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}

	// preserve the order of the given ids
	byID := make(map[string]classRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]classRow, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return rowsToClasses(ordered)
}

func (repo *classRepository) UpdateClass(c class.Class) (class.Class, error) {
	row, err := newClassRow(c)
	if err != nil {
		return class.Class{}, err
	}
	res, err := repo.db.NamedExec(
		`UPDATE class
		 SET church_name = :church_name, sector = :sector, teacher = :teacher,
		     teacher_id = :teacher_id, members = :members, visitors = :visitors,
		     announcements = :announcements
		 WHERE id = :id`,
		row,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return c, nil
}

func (repo *classRepository) DeleteClassesByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM class WHERE id = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting classes")
}

func rowsToClasses(rows []classRow) ([]class.Class, error) {
	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		c, err := row.toClass()
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}
