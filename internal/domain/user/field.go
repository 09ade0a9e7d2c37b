package user

// Field names a searchable user attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldSurname     Field = "surname"
	FieldNationality Field = "nationality"
)

// Valid reports whether f is one of the searchable fields.
func (f Field) Valid() bool {
	switch f {
	case FieldName, FieldSurname, FieldNationality:
		return true
	}
	return false
}

// Value returns the attribute of u named by f.
func (f Field) Value(u *User) string {
	switch f {
	case FieldName:
		return u.Name
	case FieldSurname:
		return u.Surname
	case FieldNationality:
		return u.Nationality
	}
	return ""
}
