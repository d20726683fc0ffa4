package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/utils"
)

// JobsRepo keeps job records in process memory with the same owner scoping
// rules as the postgres store.
type JobsRepo struct {
	mu    sync.RWMutex
	items map[string]job.Job
}

func NewJobsRepo() *JobsRepo {
	return &JobsRepo{
		items: make(map[string]job.Job),
	}
}

func (r *JobsRepo) Create(_ context.Context, ownerID string, req job.CreateRequest) (job.Job, error) {
	j := job.New(ownerID, req)

	r.mu.Lock()
	r.items[j.ID] = j
	r.mu.Unlock()

	return j, nil
}

func (r *JobsRepo) Update(_ context.Context, ownerID, id string, upd job.UpdateRequest) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok || j.OwnerID != ownerID {
		return job.Job{}, job.ErrNotFound
	}

	upd.Apply(&j)
	j.UpdatedAt = time.Now().UTC()
	r.items[id] = j

	return j, nil
}

func (r *JobsRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok || j.OwnerID != ownerID {
		return job.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *JobsRepo) List(_ context.Context, ownerID string, filter job.ListFilter) ([]job.Job, error) {
	r.mu.RLock()
	out := make([]job.Job, 0)
	for _, j := range r.items {
		if j.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		if filter.Company != nil && !utils.ContainsFold(j.Company, *filter.Company) {
			continue
		}
		out = append(out, j)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})

	return out, nil
}

func (r *JobsRepo) CountByStatus(_ context.Context, ownerID string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make(map[string]int)
	for _, j := range r.items {
		if j.OwnerID == ownerID {
			groups[string(j.Status)]++
		}
	}

	return groups, nil
}
