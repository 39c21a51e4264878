package store

import "errors"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// ErrDuplicate is returned by CreateSubmission when the
// (homework_id, student_id) uniqueness constraint fires. The constraint
// lives in the database so concurrent submits race safely: at most one
// commit wins and the loser sees this error, not a partial write.
var ErrDuplicate = errors.New("submission already exists")
