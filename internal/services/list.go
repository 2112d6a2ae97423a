package services

import (
	"math"
	"strings"

	"gorm.io/gorm"
)

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 100

// ListOptions carries the filters shared by every list operation.
// PerPage 0 returns all matching records.
type ListOptions struct {
	Query   string
	Page    int
	PerPage int
}

func (o ListOptions) paginate(db *gorm.DB) *gorm.DB {
	if o.PerPage <= 0 {
		return db
	}
	perPage := o.PerPage
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := o.Page
	if page < 1 {
		page = 1
	}
	// keeps the offset from overflowing; such a page is always empty
	if page > math.MaxInt/perPage {
		page = math.MaxInt / perPage
	}
	return db.Limit(perPage).Offset((page - 1) * perPage)
}

// searchColumns adds a case-insensitive substring match of o.Query over columns.
func (o ListOptions) searchColumns(db *gorm.DB, columns ...string) *gorm.DB {
	q := strings.TrimSpace(o.Query)
	if q == "" || len(columns) == 0 {
		return db
	}

	pattern := likePattern(q)
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, "LOWER("+col+") LIKE ? ESCAPE '!'")
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike escapes LIKE wildcards with '!' so s matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func likePattern(q string) string {
	return "%" + escapeLike(strings.ToLower(q)) + "%"
}
