package ast

// Select is a SELECT statement
type Select struct {
	Table    string
	Distinct bool
	// Columns defaults to "*" when empty
	Columns []string
	Filters []Expression
	Joins   []Join
	Sorts   []Sort
	Limit   *int
}

// Delete is a DELETE statement
type Delete struct {
	Table   string
	Filters []Expression
	Limit   *int
}

// Insert is a single-row INSERT statement
type Insert struct {
	Table  string
	Values []Assignment
}

// Update is an UPDATE statement
type Update struct {
	Table   string
	Values  []Assignment
	Filters []Expression
	Limit   *int
}

// Upsert updates the rows matching Filters, inserting Values when none match
type Upsert struct {
	Table   string
	Values  []Assignment
	Filters []Expression
	Limit   *int
}

// UpsertMulti inserts Rows, updating on conflict with the Unique columns
type UpsertMulti struct {
	Table  string
	Unique []string
	Rows   [][]Assignment
}

// UpdateMulti updates the rows whose Unique columns match each input row
type UpdateMulti struct {
	Table  string
	Unique []string
	Rows   [][]Assignment
	Limit  *int
}

// AsUpdate returns the update half of an upsert
func (u *Upsert) AsUpdate() *Update {
	return &Update{Table: u.Table, Values: u.Values, Filters: u.Filters, Limit: u.Limit}
}

// AsInsert returns the insert half of an upsert
func (u *Upsert) AsInsert() *Insert {
	return &Insert{Table: u.Table, Values: u.Values}
}
