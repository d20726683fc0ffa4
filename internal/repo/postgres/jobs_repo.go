package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/geocoder89/jobtracker/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = "id, owner_id, company, position, status, location, created_at, updated_at"

// JobsRepo is the owner-scoped job record store. Every method takes the owner id
// and every statement filters on it; there is no unscoped access path.
type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) Create(ctx context.Context, ownerID string, req job.CreateRequest) (job.Job, error) {
	j := job.New(ownerID, req)

	query, args, err := psql.Insert("job_records").
		Columns("id", "owner_id", "company", "position", "status", "location", "created_at", "updated_at").
		Values(j.ID, j.OwnerID, j.Company, j.Position, string(j.Status), j.Location, j.CreatedAt, j.UpdatedAt).
		ToSql()
	if err != nil {
		return job.Job{}, err
	}

	err = r.prom.ObserveDB("jobs.create", func() error {
		_, e := r.pool.Exec(ctx, query, args...)
		return e
	})

	if err != nil {
		return job.Job{}, fmt.Errorf("insert job: %w", err)
	}

	return j, nil
}

// Update applies the present fields of upd to the record matching both id and ownerID.
// A record owned by someone else is reported exactly like a missing one.
func (r *JobsRepo) Update(ctx context.Context, ownerID, id string, upd job.UpdateRequest) (job.Job, error) {
	if !utils.IsUUID(id) {
		return job.Job{}, job.ErrNotFound
	}

	query, args, err := buildUpdateQuery(ownerID, id, upd)
	if err != nil {
		return job.Job{}, err
	}

	var j job.Job

	err = r.prom.ObserveDB("jobs.update", func() error {
		var e error
		j, e = scanJob(r.pool.QueryRow(ctx, query, args...))
		return e
	})

	if err != nil {
		// if there are no rows matching the id and owner
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, fmt.Errorf("update job: %w", err)
	}

	return j, nil
}

func (r *JobsRepo) Delete(ctx context.Context, ownerID, id string) error {
	if !utils.IsUUID(id) {
		return job.ErrNotFound
	}

	var affected int64

	err := r.prom.ObserveDB("jobs.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM job_records WHERE id = $1 AND owner_id = $2`, id, ownerID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return job.ErrNotFound
	}

	return nil
}

func (r *JobsRepo) List(ctx context.Context, ownerID string, filter job.ListFilter) ([]job.Job, error) {
	query, args, err := buildListQuery(ownerID, filter)
	if err != nil {
		return nil, err
	}

	output := make([]job.Job, 0)

	err = r.prom.ObserveDB("jobs.list", func() error {
		rows, e := r.pool.Query(ctx, query, args...)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			j, e := scanJob(rows)
			if e != nil {
				return e
			}
			output = append(output, j)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return output, nil
}

// CountByStatus returns the raw per-status grouping, unknown statuses included.
func (r *JobsRepo) CountByStatus(ctx context.Context, ownerID string) (map[string]int, error) {
	query, args, err := psql.Select("status", "COUNT(*)").
		From("job_records").
		Where(sq.Eq{"owner_id": ownerID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, err
	}

	groups := make(map[string]int)

	err = r.prom.ObserveDB("jobs.count_by_status", func() error {
		rows, e := r.pool.Query(ctx, query, args...)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var status string
			var n int
			if e := rows.Scan(&status, &n); e != nil {
				return e
			}
			groups[status] = n
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}

	return groups, nil
}

func buildListQuery(ownerID string, filter job.ListFilter) (string, []any, error) {
	b := psql.Select(jobColumns).
		From("job_records").
		Where(sq.Eq{"owner_id": ownerID})

	if filter.Status != nil {
		b = b.Where(sq.Eq{"status": string(*filter.Status)})
	}

	if filter.Company != nil && *filter.Company != "" {
		b = b.Where(sq.ILike{"company": "%" + utils.EscapeLike(*filter.Company) + "%"})
	}

	// newest first; id breaks ties between rows created in the same instant
	return b.OrderBy("created_at DESC", "id DESC").ToSql()
}

func buildUpdateQuery(ownerID, id string, upd job.UpdateRequest) (string, []any, error) {
	b := psql.Update("job_records")

	if upd.Company != nil {
		b = b.Set("company", *upd.Company)
	}
	if upd.Position != nil {
		b = b.Set("position", *upd.Position)
	}
	if upd.Status != nil {
		b = b.Set("status", string(*upd.Status))
	}
	if upd.Location != nil {
		b = b.Set("location", *upd.Location)
	}

	return b.Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"owner_id": ownerID}).
		Suffix("RETURNING " + jobColumns).
		ToSql()
}

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(&j.ID, &j.OwnerID, &j.Company, &j.Position, &status, &j.Location, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return job.Job{}, err
	}

	// stored verbatim: the reporter drops unknown values, listing shows them as-is
	j.Status = job.Status(status)

	return j, nil
}
