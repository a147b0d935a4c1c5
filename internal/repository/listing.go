package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
)

// listingColumns — столбцы, отдаваемые клиенту.
const listingColumns = `id, details`

// ListingRepo — доступ к объявлениям таблицы cars.
type ListingRepo struct {
	db DB
}

// NewListingRepository создаёт репозиторий объявлений.
func NewListingRepository(db DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// dataQuery строит запрос страницы: предикат плюс LIMIT/OFFSET.
// Аргументы пагинации добавляются к копии списка, исходный предикат не меняется.
func dataQuery(pred Predicate, q ListingQuery) (string, []any) {
	args := make([]any, len(pred.Args), len(pred.Args)+2)
	copy(args, pred.Args)
	n := len(args)
	args = append(args, PageSize, q.Offset())

	sql := fmt.Sprintf(`SELECT %s FROM cars %s %s LIMIT $%d OFFSET $%d`,
		listingColumns, pred.Where(), q.Sort.orderBy(), n+1, n+2)
	return sql, args
}

// countQuery строит запрос общего количества по тому же предикату.
func countQuery(pred Predicate) (string, []any) {
	return fmt.Sprintf(`SELECT COUNT(*) FROM cars %s`, pred.Where()), pred.Args
}

// Search возвращает страницу объявлений и общее количество совпадений.
// Оба запроса выполняются в одной read-only транзакции READ COMMITTED.
func (r *ListingRepo) Search(ctx context.Context, q ListingQuery) ([]model.Listing, int, error) {
	pred := BuildPredicate(q.Filter)
	pageSQL, pageArgs := dataQuery(pred, q)
	countSQL, countArgs := countQuery(pred)

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка поиска объявлений: %w", err)
	}
	items := make([]model.Listing, 0, PageSize)
	for rows.Next() {
		var (
			l       model.Listing
			details []byte
		)
		if err := rows.Scan(&l.ID, &details); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("ошибка сканирования объявления: %w", err)
		}
		l.Details = details
		items = append(items, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	var total int
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта объявлений: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("ошибка завершения транзакции: %w", err)
	}
	return items, total, nil
}

// GetByID возвращает объявление по идентификатору или ErrNotFound.
func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = $1`, listingColumns)

	var (
		l       model.Listing
		details []byte
	)
	if err := r.db.QueryRow(ctx, query, id).Scan(&l.ID, &details); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения объявления: %w", err)
	}
	l.Details = details
	return &l, nil
}

// TaxonomyRows читает четыре фильтруемых столбца всего каталога за один проход.
// NULL приводится к пустой строке.
func (r *ListingRepo) TaxonomyRows(ctx context.Context) ([]model.TaxonomyRow, error) {
	const query = `
		SELECT COALESCE(manufacturer, ''), COALESCE(model_group, ''),
		       COALESCE(model, ''), COALESCE(grade, '')
		FROM cars`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения таксономии: %w", err)
	}
	defer rows.Close()

	var result []model.TaxonomyRow
	for rows.Next() {
		var t model.TaxonomyRow
		if err := rows.Scan(&t.Manufacturer, &t.ModelGroup, &t.Model, &t.Grade); err != nil {
			return nil, fmt.Errorf("ошибка сканирования таксономии: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации таксономии: %w", err)
	}
	return result, nil
}
