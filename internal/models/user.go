package models

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID       int64  `db:"id" json:"id"`
	Fullname string `db:"fullname" json:"fullname"`
	Username string `db:"username" json:"username"`
	Role     string `db:"role" json:"role"`
	GroupID  *int64 `db:"group_id" json:"group_id,omitempty"`
}

type Group struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	TeacherID int64  `db:"teacher_id" json:"teacher_id"`
}
