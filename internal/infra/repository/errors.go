package repository

import (
	"errors"

	repo "ecommerce/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// gorm/pgのエラーを repository のエラーに寄せる。該当しなければそのまま返す。
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrDuplicate
	}
	//TranslateError: true だと PgError は gorm の sentinel に置き換わる
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return repo.ErrInsufficientStock
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return repo.ErrDuplicate
		case pgCheckViolation:
			//quantity >= 0 の制約
			return repo.ErrInsufficientStock
		}
	}
	return err
}
