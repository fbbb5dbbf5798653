package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

// translateError maps gorm errors onto repository sentinels. The driver is opened
// with TranslateError, so unique violations arrive as gorm.ErrDuplicatedKey.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(repositories.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(repositories.ErrDuplicate, err)
	default:
		return err
	}
}

// forUpdate locks selected rows until the surrounding transaction ends
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// orderedBy sorts preloaded children by authored order, id breaking ties
func orderedBy(db *gorm.DB) *gorm.DB {
	return db.Order(`"order" ASC, id ASC`)
}
